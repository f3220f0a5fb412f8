package cartridge

import "fmt"

// State is the mutable part of a cartridge. ROM images are not included;
// they are supplied again by loading the same game.
type State struct {
	MapperID uint8
	Mapper   []byte
	PRGRAM   []byte
	CHRRAM   []byte
}

func (c *Cartridge) SaveState() (State, error) {
	m, err := c.mapper.Save()
	if err != nil {
		return State{}, fmt.Errorf("saving %s registers: %w", c.MapperName(), err)
	}
	s := State{
		MapperID: c.Header.MapperID,
		Mapper:   m,
		PRGRAM:   append([]byte(nil), c.PRGRAM...),
	}
	if c.IsCHRRAM {
		s.CHRRAM = append([]byte(nil), c.CHR...)
	}
	return s, nil
}

// Validate checks that s can be applied to c without partial failure.
func (c *Cartridge) Validate(s State) error {
	if s.MapperID != c.Header.MapperID {
		return fmt.Errorf("state is for mapper %d, cartridge uses %d", s.MapperID, c.Header.MapperID)
	}
	if len(s.PRGRAM) != len(c.PRGRAM) {
		return fmt.Errorf("PRG-RAM size %d, expected %d", len(s.PRGRAM), len(c.PRGRAM))
	}
	if c.IsCHRRAM && len(s.CHRRAM) != len(c.CHR) {
		return fmt.Errorf("CHR-RAM size %d, expected %d", len(s.CHRRAM), len(c.CHR))
	}
	return nil
}

func (c *Cartridge) LoadState(s State) error {
	if err := c.Validate(s); err != nil {
		return err
	}
	if err := c.mapper.Load(s.Mapper); err != nil {
		return fmt.Errorf("restoring %s registers: %w", c.MapperName(), err)
	}
	copy(c.PRGRAM, s.PRGRAM)
	if c.IsCHRRAM {
		copy(c.CHR, s.CHRRAM)
	}
	return nil
}
