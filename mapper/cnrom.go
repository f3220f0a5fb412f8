package mapper

import "fmt"

// cnrom (mapper 3) has fixed PRG (16KB or 32KB) and switchable 8KB CHR banks
// selected by writing anywhere in $8000-$FFFF.
type cnrom struct {
	mirroring     Mirroring
	prgBanks      uint8
	chrBanks      uint8
	chrBankSelect byte
}

// CNROMState is the serialised register block of a CNROM board.
type CNROMState struct {
	ChrBankSelect byte
}

func newCNROM(mirroring Mirroring) Mapper {
	return &cnrom{mirroring: mirroring}
}

func (c *cnrom) Init(prgBanks, chrBanks uint8) error {
	if prgBanks < 1 || prgBanks > 2 {
		return fmt.Errorf("%w: CNROM supports 1 or 2 PRG banks, got %d", ErrBankCount, prgBanks)
	}
	c.prgBanks = prgBanks
	c.chrBanks = chrBanks
	if chrBanks == 0 {
		c.chrBanks = 1
	}
	c.chrBankSelect = 0
	return nil
}

func (c *cnrom) chrOffset(addr uint16) uint32 {
	bank := uint32(c.chrBankSelect) % uint32(c.chrBanks)
	return bank*CHRBankSize + uint32(addr&0x1FFF)
}

func (c *cnrom) MapRead(addr uint16, dev Device) Location {
	if dev == PPU {
		if addr < 0x2000 {
			return rom(c.chrOffset(addr))
		}
		return Location{}
	}
	if addr >= 0x8000 {
		offset := uint32(addr & 0x7FFF)
		if c.prgBanks == 1 {
			offset &= 0x3FFF
		}
		return rom(offset)
	}
	return Location{}
}

func (c *cnrom) MapWrite(addr uint16, data byte, dev Device) Location {
	if dev == PPU {
		if addr < 0x2000 {
			return rom(c.chrOffset(addr))
		}
		return Location{}
	}
	if addr >= 0x8000 {
		c.chrBankSelect = data
	}
	return Location{}
}

func (c *cnrom) Mirroring() Mirroring {
	return c.mirroring
}

func (c *cnrom) BusConflicts() bool { return true }

func (c *cnrom) Save() ([]byte, error) {
	return encodeState(CNROMState{c.chrBankSelect})
}

func (c *cnrom) Load(b []byte) error {
	var s CNROMState
	if err := decodeState(b, &s); err != nil {
		return err
	}
	c.chrBankSelect = s.ChrBankSelect
	return nil
}
