package mapper

import "fmt"

// axrom (mapper 7) switches all 32KB of PRG at once and selects one of the
// two nametable pages for single-screen mirroring.
//
//	7  bit  0
//	---- ----
//	xxxM xPPP
//	   |  |||
//	   |  +++- 32KB PRG bank for $8000-$FFFF
//	   +------ 1KB VRAM page for all four nametables
type axrom struct {
	prgBanks uint8 // 32KB units
	bank     byte
}

// AxROMState is the serialised register block of an AxROM board.
type AxROMState struct {
	Bank byte
}

func newAxROM(Mirroring) Mapper {
	return &axrom{}
}

func (a *axrom) Init(prgBanks, chrBanks uint8) error {
	if prgBanks < 2 || prgBanks > 16 || prgBanks%2 != 0 {
		return fmt.Errorf("%w: AxROM needs an even 2-16 PRG banks, got %d", ErrBankCount, prgBanks)
	}
	if chrBanks > 1 {
		return fmt.Errorf("%w: AxROM supports at most 1 CHR bank, got %d", ErrBankCount, chrBanks)
	}
	a.prgBanks = prgBanks / 2
	a.bank = 0
	return nil
}

func (a *axrom) MapRead(addr uint16, dev Device) Location {
	if dev == PPU {
		if addr < 0x2000 {
			return rom(uint32(addr))
		}
		return Location{}
	}
	if addr >= 0x8000 {
		bank := uint32(a.bank&0x07) % uint32(a.prgBanks)
		return rom(bank*0x8000 + uint32(addr&0x7FFF))
	}
	return Location{}
}

func (a *axrom) MapWrite(addr uint16, data byte, dev Device) Location {
	if dev == PPU {
		if addr < 0x2000 {
			return rom(uint32(addr))
		}
		return Location{}
	}
	if addr >= 0x8000 {
		a.bank = data
	}
	return Location{}
}

func (a *axrom) Mirroring() Mirroring {
	if a.bank&0x10 != 0 {
		return SingleUpper
	}
	return SingleLower
}

func (a *axrom) Save() ([]byte, error) {
	return encodeState(AxROMState{a.bank})
}

func (a *axrom) Load(b []byte) error {
	var s AxROMState
	if err := decodeState(b, &s); err != nil {
		return err
	}
	a.bank = s.Bank
	return nil
}
