package bus

import (
	"errors"
	"fmt"

	"github.com/meadori/nesmachine/apu"
	"github.com/meadori/nesmachine/cartridge"
	"github.com/meadori/nesmachine/controller"
	"github.com/meadori/nesmachine/cpu"
	"github.com/meadori/nesmachine/ppu"
)

var ErrNoCartridge = errors.New("no cartridge inserted")

// State is a snapshot of everything on the board except the ROM images.
type State struct {
	CPU          cpu.State
	Ram          [2048]byte
	PPU          ppu.State
	APU          apu.State
	Controllers  [2]controller.State
	Cartridge    cartridge.State
	SystemClocks uint64
	OpenBus      byte
}

// SaveState captures the state of the whole board.
func (b *Bus) SaveState() (State, error) {
	if b.cart == nil {
		return State{}, ErrNoCartridge
	}
	cs, err := b.cart.SaveState()
	if err != nil {
		return State{}, err
	}
	return State{
		CPU:          b.CPU.SaveState(),
		Ram:          b.ram,
		PPU:          b.PPU.SaveState(),
		APU:          b.APU.SaveState(),
		Controllers:  [2]controller.State{b.Controllers[0].SaveState(), b.Controllers[1].SaveState()},
		Cartridge:    cs,
		SystemClocks: b.SystemClocks,
		OpenBus:      b.openBus,
	}, nil
}

// LoadState restores a snapshot taken with SaveState. The cartridge part
// is validated before anything is touched, so a failed restore leaves
// the board as it was.
func (b *Bus) LoadState(s State) error {
	if b.cart == nil {
		return ErrNoCartridge
	}
	if err := s.CPU.Validate(); err != nil {
		return err
	}
	if err := s.PPU.Validate(); err != nil {
		return err
	}
	if err := s.APU.Validate(); err != nil {
		return fmt.Errorf("apu: %w", err)
	}
	if err := b.cart.Validate(s.Cartridge); err != nil {
		return fmt.Errorf("cartridge state: %w", err)
	}
	// mapper registers are the only part that can still fail to decode
	before, err := b.cart.SaveState()
	if err != nil {
		return err
	}
	if err := b.cart.LoadState(s.Cartridge); err != nil {
		if rerr := b.cart.LoadState(before); rerr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rerr)
		}
		return err
	}

	b.CPU.LoadState(s.CPU)
	b.ram = s.Ram
	b.PPU.LoadState(s.PPU)
	b.APU.LoadState(s.APU)
	b.Controllers[0].LoadState(s.Controllers[0])
	b.Controllers[1].LoadState(s.Controllers[1])
	b.SystemClocks = s.SystemClocks
	b.openBus = s.OpenBus
	return nil
}
