package mapper

import "fmt"

// uxrom (mapper 2) switches a 16KB PRG bank at $8000-$BFFF and fixes the
// last bank at $C000-$FFFF. CHR is a single unbanked 8KB page, usually RAM.
type uxrom struct {
	mirroring     Mirroring
	prgBanks      uint8
	prgBankSelect byte
}

// UxROMState is the serialised register block of a UxROM board.
type UxROMState struct {
	PrgBankSelect byte
}

func newUxROM(mirroring Mirroring) Mapper {
	return &uxrom{mirroring: mirroring}
}

func (u *uxrom) Init(prgBanks, chrBanks uint8) error {
	if prgBanks < 1 {
		return fmt.Errorf("%w: UxROM needs at least 1 PRG bank", ErrBankCount)
	}
	if chrBanks > 1 {
		return fmt.Errorf("%w: UxROM supports at most 1 CHR bank, got %d", ErrBankCount, chrBanks)
	}
	u.prgBanks = prgBanks
	u.prgBankSelect = 0
	return nil
}

func (u *uxrom) MapRead(addr uint16, dev Device) Location {
	if dev == PPU {
		if addr < 0x2000 {
			return rom(uint32(addr))
		}
		return Location{}
	}

	switch {
	case addr >= 0xC000:
		return rom(uint32(u.prgBanks-1)*PRGBankSize + uint32(addr&0x3FFF))
	case addr >= 0x8000:
		bank := uint32(u.prgBankSelect) % uint32(u.prgBanks)
		return rom(bank*PRGBankSize + uint32(addr&0x3FFF))
	}
	return Location{}
}

func (u *uxrom) MapWrite(addr uint16, data byte, dev Device) Location {
	if dev == PPU {
		if addr < 0x2000 {
			return rom(uint32(addr))
		}
		return Location{}
	}
	if addr >= 0x8000 {
		u.prgBankSelect = data
	}
	return Location{}
}

func (u *uxrom) Mirroring() Mirroring {
	return u.mirroring
}

func (u *uxrom) BusConflicts() bool { return true }

func (u *uxrom) Save() ([]byte, error) {
	return encodeState(UxROMState{u.prgBankSelect})
}

func (u *uxrom) Load(b []byte) error {
	var s UxROMState
	if err := decodeState(b, &s); err != nil {
		return err
	}
	u.prgBankSelect = s.PrgBankSelect
	return nil
}
