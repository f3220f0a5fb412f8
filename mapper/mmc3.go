package mapper

import "fmt"

// mmc3 (mapper 4) has eight bank registers, PRG/CHR layout inversion and a
// scanline counter clocked by rising edges of PPU address line A12.
type mmc3 struct {
	mirroring  Mirroring
	fourScreen bool

	targetRegister byte
	prgBankMode    bool // false: $8000 is swappable, true: $C000 is swappable
	chrInversion   bool // false: 2KB banks at $0000, true: 2KB banks at $1000
	registers      [8]byte

	ramEnabled      bool
	ramWriteProtect bool

	prgBanks int // 8KB units
	chrBanks int // 1KB units

	irqCounter byte
	irqLatch   byte
	irqReload  bool
	irqEnabled bool
	irqPending bool

	// A12 has to stay low for a few CPU cycles before a rise counts
	lastA12  bool
	a12Delay int
}

// MMC3State is the serialised register block of an MMC3.
type MMC3State struct {
	TargetRegister                                           byte
	PrgBankMode, ChrInversion                                bool
	Registers                                                [8]byte
	RamEnabled, RamWriteProtect                              bool
	IrqCounter, IrqLatch                                     byte
	IrqReload, IrqEnabled, IrqPending, LastA12, Horizontal bool
	A12Delay                                                 int
}

func newMMC3(mirroring Mirroring) Mapper {
	return &mmc3{
		mirroring:  mirroring,
		fourScreen: mirroring == FourScreen,
	}
}

func (m *mmc3) Init(prgBanks, chrBanks uint8) error {
	if prgBanks < 1 || prgBanks > 32 {
		return fmt.Errorf("%w: MMC3 supports 1-32 PRG banks, got %d", ErrBankCount, prgBanks)
	}
	if chrBanks > 32 {
		return fmt.Errorf("%w: MMC3 supports at most 32 CHR banks, got %d", ErrBankCount, chrBanks)
	}
	*m = mmc3{
		mirroring:  m.mirroring,
		fourScreen: m.fourScreen,
		ramEnabled: true,
		prgBanks:   int(prgBanks) * 2,
		chrBanks:   int(chrBanks) * 8,
	}
	if chrBanks == 0 {
		m.chrBanks = 8
	}
	return nil
}

func (m *mmc3) prgBank(addr uint16) int {
	secondToLast := m.prgBanks - 2
	last := m.prgBanks - 1
	r6 := int(m.registers[6]&0x3F) % m.prgBanks
	r7 := int(m.registers[7]&0x3F) % m.prgBanks

	switch {
	case addr < 0xA000:
		if m.prgBankMode {
			return secondToLast
		}
		return r6
	case addr < 0xC000:
		return r7
	case addr < 0xE000:
		if m.prgBankMode {
			return r6
		}
		return secondToLast
	}
	return last
}

func (m *mmc3) chrBank(addr uint16) int {
	if m.chrInversion {
		addr ^= 0x1000
	}
	var bank int
	switch {
	case addr < 0x0400:
		bank = int(m.registers[0] & 0xFE)
	case addr < 0x0800:
		bank = int(m.registers[0] | 0x01)
	case addr < 0x0C00:
		bank = int(m.registers[1] & 0xFE)
	case addr < 0x1000:
		bank = int(m.registers[1] | 0x01)
	case addr < 0x1400:
		bank = int(m.registers[2])
	case addr < 0x1800:
		bank = int(m.registers[3])
	case addr < 0x1C00:
		bank = int(m.registers[4])
	default:
		bank = int(m.registers[5])
	}
	return bank % m.chrBanks
}

func (m *mmc3) MapRead(addr uint16, dev Device) Location {
	if dev == PPU {
		if addr < 0x2000 {
			return rom(uint32(m.chrBank(addr))*0x0400 + uint32(addr&0x03FF))
		}
		return Location{}
	}

	switch {
	case addr >= 0x8000:
		return rom(uint32(m.prgBank(addr))*0x2000 + uint32(addr&0x1FFF))
	case addr >= 0x6000:
		if m.ramEnabled {
			return ram(uint32(addr - 0x6000))
		}
	}
	return Location{}
}

func (m *mmc3) MapWrite(addr uint16, data byte, dev Device) Location {
	if dev == PPU {
		if addr < 0x2000 {
			return rom(uint32(m.chrBank(addr))*0x0400 + uint32(addr&0x03FF))
		}
		return Location{}
	}

	if addr >= 0x6000 && addr < 0x8000 {
		if m.ramEnabled && !m.ramWriteProtect {
			return ram(uint32(addr - 0x6000))
		}
		return Location{}
	}
	if addr < 0x8000 {
		return Location{}
	}

	even := addr&1 == 0
	switch {
	case addr < 0xA000:
		if even {
			m.targetRegister = data & 0x07
			m.prgBankMode = data&0x40 != 0
			m.chrInversion = data&0x80 != 0
		} else {
			m.registers[m.targetRegister] = data
		}
	case addr < 0xC000:
		if even {
			if data&1 == 0 {
				m.mirroring = Vertical
			} else {
				m.mirroring = Horizontal
			}
		} else {
			m.ramEnabled = data&0x80 != 0
			m.ramWriteProtect = data&0x40 != 0
		}
	case addr < 0xE000:
		if even {
			m.irqLatch = data
		} else {
			m.irqCounter = 0
			m.irqReload = true
		}
	default:
		if even {
			m.irqEnabled = false
			m.irqPending = false
		} else {
			m.irqEnabled = true
		}
	}
	return Location{}
}

// ObservePPUAddress watches pattern-table fetches for filtered A12 rises.
func (m *mmc3) ObservePPUAddress(addr uint16) {
	a12 := addr&0x1000 != 0
	if a12 && !m.lastA12 && m.a12Delay >= 2 {
		m.clockIRQ()
	}
	if a12 {
		m.a12Delay = 0
	}
	m.lastA12 = a12
}

func (m *mmc3) clockIRQ() {
	if m.irqCounter == 0 || m.irqReload {
		m.irqCounter = m.irqLatch
		m.irqReload = false
	} else {
		m.irqCounter--
	}
	if m.irqCounter == 0 && m.irqEnabled {
		m.irqPending = true
	}
}

// Clock advances the A12 low-time filter once per CPU cycle.
func (m *mmc3) Clock() {
	if !m.lastA12 {
		m.a12Delay++
	}
}

func (m *mmc3) IRQ() bool {
	return m.irqPending
}

func (m *mmc3) Mirroring() Mirroring {
	if m.fourScreen {
		return FourScreen
	}
	return m.mirroring
}

func (m *mmc3) Save() ([]byte, error) {
	return encodeState(MMC3State{
		m.targetRegister, m.prgBankMode, m.chrInversion, m.registers,
		m.ramEnabled, m.ramWriteProtect,
		m.irqCounter, m.irqLatch,
		m.irqReload, m.irqEnabled, m.irqPending, m.lastA12, m.mirroring == Horizontal,
		m.a12Delay,
	})
}

func (m *mmc3) Load(b []byte) error {
	var s MMC3State
	if err := decodeState(b, &s); err != nil {
		return err
	}
	if int(s.TargetRegister) >= len(s.Registers) {
		return fmt.Errorf("mmc3: bank register %d out of range", s.TargetRegister)
	}
	m.targetRegister, m.prgBankMode, m.chrInversion, m.registers = s.TargetRegister, s.PrgBankMode, s.ChrInversion, s.Registers
	m.ramEnabled, m.ramWriteProtect = s.RamEnabled, s.RamWriteProtect
	m.irqCounter, m.irqLatch = s.IrqCounter, s.IrqLatch
	m.irqReload, m.irqEnabled, m.irqPending, m.lastA12 = s.IrqReload, s.IrqEnabled, s.IrqPending, s.LastA12
	m.a12Delay = s.A12Delay
	if !m.fourScreen {
		m.mirroring = Vertical
		if s.Horizontal {
			m.mirroring = Horizontal
		}
	}
	return nil
}
