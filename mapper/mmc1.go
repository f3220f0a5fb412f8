package mapper

import "fmt"

// mmc1 (mapper 1) is loaded through a 5-bit serial shift register. Writing
// bit 7 resets the register; the fifth write commits the value to the
// register selected by address bits 13-14.
type mmc1 struct {
	control  byte
	chrBank0 byte
	chrBank1 byte
	prgBank  byte

	shiftRegister byte
	writeCount    byte

	prgBanks uint8
	chrBanks uint8 // 4KB units

	// writes on consecutive CPU cycles are ignored by the chip
	cycle     uint64
	lastWrite uint64
	wrote     bool
}

// MMC1State is the serialised register block of an MMC1.
type MMC1State struct {
	Control, ChrBank0, ChrBank1, PrgBank, ShiftRegister, WriteCount byte
	Cycle, LastWrite                                                 uint64
	Wrote                                                            bool
}

func newMMC1(Mirroring) Mapper {
	return &mmc1{}
}

func (m *mmc1) Init(prgBanks, chrBanks uint8) error {
	if prgBanks < 1 || prgBanks > 16 {
		return fmt.Errorf("%w: MMC1 supports 1-16 PRG banks, got %d", ErrBankCount, prgBanks)
	}
	if chrBanks > 16 {
		return fmt.Errorf("%w: MMC1 supports at most 16 CHR banks, got %d", ErrBankCount, chrBanks)
	}
	*m = mmc1{control: 0x0C, prgBanks: prgBanks, chrBanks: chrBanks * 2}
	if chrBanks == 0 {
		m.chrBanks = 2
	}
	return nil
}

func (m *mmc1) ramEnabled() bool {
	return m.prgBank&0x10 == 0
}

func (m *mmc1) prgOffset(addr uint16) uint32 {
	n := uint32(m.prgBanks)
	bank := uint32(m.prgBank & 0x0F)

	var offset uint32
	switch (m.control >> 2) & 3 {
	case 0, 1: // switch 32 KB at $8000, low bit ignored
		pairs := n / 2
		if pairs == 0 {
			pairs = 1
		}
		offset = ((bank>>1)%pairs)*0x8000 + uint32(addr&0x7FFF)
	case 2: // fix first bank at $8000, switch 16 KB at $C000
		if addr < 0xC000 {
			offset = uint32(addr & 0x3FFF)
		} else {
			offset = (bank%n)*0x4000 + uint32(addr&0x3FFF)
		}
	case 3: // switch 16 KB at $8000, fix last bank at $C000
		if addr < 0xC000 {
			offset = (bank%n)*0x4000 + uint32(addr&0x3FFF)
		} else {
			offset = (n-1)*0x4000 + uint32(addr&0x3FFF)
		}
	}
	return offset % (n * PRGBankSize)
}

func (m *mmc1) chrOffset(addr uint16) uint32 {
	n := uint32(m.chrBanks)

	var offset uint32
	if m.control&0x10 == 0 { // 8 KB mode
		pairs := n / 2
		if pairs == 0 {
			pairs = 1
		}
		offset = ((uint32(m.chrBank0)>>1)%pairs)*0x2000 + uint32(addr&0x1FFF)
	} else { // two 4 KB banks
		bank := uint32(m.chrBank0)
		if addr >= 0x1000 {
			bank = uint32(m.chrBank1)
		}
		offset = (bank%n)*0x1000 + uint32(addr&0x0FFF)
	}
	return offset % (n * 0x1000)
}

func (m *mmc1) MapRead(addr uint16, dev Device) Location {
	if dev == PPU {
		if addr < 0x2000 {
			return rom(m.chrOffset(addr))
		}
		return Location{}
	}

	switch {
	case addr >= 0x8000:
		return rom(m.prgOffset(addr))
	case addr >= 0x6000:
		if m.ramEnabled() {
			return ram(uint32(addr - 0x6000))
		}
	}
	return Location{}
}

func (m *mmc1) MapWrite(addr uint16, data byte, dev Device) Location {
	if dev == PPU {
		if addr < 0x2000 {
			return rom(m.chrOffset(addr))
		}
		return Location{}
	}

	switch {
	case addr >= 0x8000:
		m.writeRegister(addr, data)
	case addr >= 0x6000:
		if m.ramEnabled() {
			return ram(uint32(addr - 0x6000))
		}
	}
	return Location{}
}

func (m *mmc1) writeRegister(addr uint16, data byte) {
	consecutive := m.wrote && m.cycle-m.lastWrite <= 1
	m.wrote = true
	m.lastWrite = m.cycle
	if consecutive {
		return
	}

	if data&0x80 != 0 {
		m.shiftRegister = 0
		m.writeCount = 0
		m.control |= 0x0C
		return
	}

	m.shiftRegister >>= 1
	m.shiftRegister |= (data & 1) << 4
	m.writeCount++
	if m.writeCount < 5 {
		return
	}

	switch (addr >> 13) & 3 {
	case 0:
		m.control = m.shiftRegister
	case 1:
		m.chrBank0 = m.shiftRegister
	case 2:
		m.chrBank1 = m.shiftRegister
	case 3:
		m.prgBank = m.shiftRegister
	}
	m.shiftRegister = 0
	m.writeCount = 0
}

func (m *mmc1) Mirroring() Mirroring {
	switch m.control & 3 {
	case 0:
		return SingleLower
	case 1:
		return SingleUpper
	case 2:
		return Vertical
	}
	return Horizontal
}

// Clock counts CPU cycles for the consecutive-write filter.
func (m *mmc1) Clock() {
	m.cycle++
}

func (m *mmc1) Save() ([]byte, error) {
	return encodeState(MMC1State{m.control, m.chrBank0, m.chrBank1, m.prgBank, m.shiftRegister, m.writeCount, m.cycle, m.lastWrite, m.wrote})
}

func (m *mmc1) Load(b []byte) error {
	var s MMC1State
	if err := decodeState(b, &s); err != nil {
		return err
	}
	m.control, m.chrBank0, m.chrBank1, m.prgBank, m.shiftRegister, m.writeCount = s.Control, s.ChrBank0, s.ChrBank1, s.PrgBank, s.ShiftRegister, s.WriteCount
	m.cycle, m.lastWrite, m.wrote = s.Cycle, s.LastWrite, s.Wrote
	return nil
}
