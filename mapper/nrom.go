package mapper

import "fmt"

// nrom (mapper 0) has no registers: 16KB or 32KB of PRG and one 8KB CHR bank.
type nrom struct {
	mirroring Mirroring
	prgBanks  uint8
}

func newNROM(mirroring Mirroring) Mapper {
	return &nrom{mirroring: mirroring}
}

func (n *nrom) Init(prgBanks, chrBanks uint8) error {
	if prgBanks < 1 || prgBanks > 2 {
		return fmt.Errorf("%w: NROM supports 1 or 2 PRG banks, got %d", ErrBankCount, prgBanks)
	}
	if chrBanks > 1 {
		return fmt.Errorf("%w: NROM supports at most 1 CHR bank, got %d", ErrBankCount, chrBanks)
	}
	n.prgBanks = prgBanks
	return nil
}

func (n *nrom) MapRead(addr uint16, dev Device) Location {
	if dev == PPU {
		if addr < 0x2000 {
			return rom(uint32(addr))
		}
		return Location{}
	}

	switch {
	case addr >= 0x8000:
		offset := uint32(addr & 0x7FFF)
		if n.prgBanks == 1 {
			// 16KB PRG ROM is mirrored into the upper 16KB
			offset &= 0x3FFF
		}
		return rom(offset)
	case addr >= 0x6000:
		// Family Basic style work RAM
		return ram(uint32(addr - 0x6000))
	}
	return Location{}
}

func (n *nrom) MapWrite(addr uint16, data byte, dev Device) Location {
	if dev == PPU {
		if addr < 0x2000 {
			return rom(uint32(addr))
		}
		return Location{}
	}
	if addr >= 0x6000 && addr < 0x8000 {
		return ram(uint32(addr - 0x6000))
	}
	return Location{}
}

func (n *nrom) Mirroring() Mirroring {
	return n.mirroring
}

func (n *nrom) Save() ([]byte, error) { return nil, nil }
func (n *nrom) Load(b []byte) error   { return nil }
