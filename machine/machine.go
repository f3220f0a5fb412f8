// Package machine ties the chips of the console together and drives them
// one video frame at a time.
package machine

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/meadori/nesmachine/bus"
	"github.com/meadori/nesmachine/cartridge"
	"github.com/meadori/nesmachine/controller"
	"github.com/meadori/nesmachine/ppu"
)

var ErrNoCartridge = errors.New("no cartridge loaded")

// Ports is the number of controller ports.
const Ports = 2

// Config holds the construction parameters of a Machine.
type Config struct {
	// SampleRate is the audio output rate in Hz.
	SampleRate int
	// ClockRate is the CPU clock the APU resamples from. Picking exactly
	// 60 frames worth of cycles per second keeps one frame of audio at
	// SampleRate/60 samples.
	ClockRate float64
	Logger    *slog.Logger
}

// DefaultConfig returns the settings used by the front ends.
func DefaultConfig() Config {
	return Config{
		SampleRate: 44100,
		ClockRate:  60 * 29780.5,
		Logger:     slog.Default(),
	}
}

// Machine is a console with an optional cartridge. It is not safe for
// concurrent use, except for Frame and DrainAudioSamples which may be
// called from any goroutine.
type Machine struct {
	cfg  Config
	log  *slog.Logger
	bus  *bus.Bus
	cart *cartridge.Cartridge

	frame   *FrameBuffer
	audio   audioBuffer
	scratch []float32

	illegal [256]bool
}

// New creates an empty machine.
func New(cfg Config) *Machine {
	def := DefaultConfig()
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = def.SampleRate
	}
	if cfg.ClockRate <= 0 {
		cfg.ClockRate = def.ClockRate
	}
	if cfg.Logger == nil {
		cfg.Logger = def.Logger
	}
	m := &Machine{
		cfg:   cfg,
		log:   cfg.Logger,
		frame: newFrameBuffer(ppu.Width, ppu.Height),
	}
	m.bus = m.newBus()
	return m
}

func (m *Machine) newBus() *bus.Bus {
	b := bus.New(m.cfg.SampleRate, m.cfg.ClockRate)
	b.CPU.IllegalOpcode = m.illegalOpcode
	if m.bus != nil {
		for i := range b.Controllers {
			b.Controllers[i].SetButtons(m.bus.Controllers[i].Buttons())
		}
	}
	return b
}

func (m *Machine) illegalOpcode(op byte, pc uint16) {
	if m.illegal[op] {
		return
	}
	m.illegal[op] = true
	m.log.Warn("unsupported opcode executed as NOP",
		"opcode", fmt.Sprintf("$%02X", op),
		"pc", fmt.Sprintf("$%04X", pc))
}

// Load parses a ROM image and powers the machine on with it. On error the
// machine keeps its previous cartridge, if any.
func (m *Machine) Load(rom []byte) error {
	cart, err := cartridge.New(rom)
	if err != nil {
		m.log.Error("loading cartridge failed", "err", err)
		return fmt.Errorf("loading cartridge: %w", err)
	}
	m.insert(cart)
	return nil
}

// LoadReader is Load for a ROM image read from r.
func (m *Machine) LoadReader(r io.Reader) error {
	cart, err := cartridge.Load(r)
	if err != nil {
		m.log.Error("loading cartridge failed", "err", err)
		return fmt.Errorf("loading cartridge: %w", err)
	}
	m.insert(cart)
	return nil
}

func (m *Machine) insert(cart *cartridge.Cartridge) {
	m.bus = m.newBus()
	m.bus.LoadCartridge(cart)
	m.cart = cart
	m.illegal = [256]bool{}
	m.powerUp()
	m.log.Info("cartridge loaded",
		"id", cart.ID(),
		"mapper", cart.MapperName(),
		"prg_banks", cart.Header.PRGBanks,
		"chr_banks", cart.Header.CHRBanks,
		"mirroring", cart.Mirroring().String())
}

// powerUp resets the chips and runs to the first vertical blank, so that
// every StepFrame afterwards covers one whole frame.
func (m *Machine) powerUp() {
	m.bus.Reset()
	m.runToVBlank()
	m.bus.APU.DrainSamples(nil)
	m.audio.drain()
	m.frame.clear()
}

func (m *Machine) runToVBlank() {
	p := m.bus.PPU
	p.FrameComplete = false
	for !p.FrameComplete {
		m.bus.Clock()
	}
}

// Unload removes the cartridge and leaves the machine empty.
func (m *Machine) Unload() {
	if m.cart == nil {
		return
	}
	m.cart = nil
	m.bus = m.newBus()
	m.audio.drain()
	m.frame.clear()
	m.log.Info("cartridge unloaded")
}

// IsEmpty reports whether no cartridge is loaded.
func (m *Machine) IsEmpty() bool {
	return m.cart == nil
}

// Reset presses the console's reset button. RAM and cartridge RAM keep
// their contents.
func (m *Machine) Reset() error {
	if m.cart == nil {
		return ErrNoCartridge
	}
	m.powerUp()
	m.log.Info("reset")
	return nil
}

// StepFrame runs the machine until the PPU finishes the next frame, then
// publishes the frame and the audio produced along the way. It does
// nothing when the machine is empty.
func (m *Machine) StepFrame() {
	if m.cart == nil {
		return
	}
	m.runToVBlank()
	m.frame.publish(m.bus.PPU.GetFrame())
	m.scratch = m.bus.APU.DrainSamples(m.scratch[:0])
	m.audio.append(m.scratch)
}

// Frame returns the shared buffer holding the last completed frame.
func (m *Machine) Frame() *FrameBuffer {
	return m.frame
}

// FrameSize returns the frame dimensions in pixels.
func (m *Machine) FrameSize() (width, height int) {
	return ppu.Width, ppu.Height
}

// SampleRate returns the audio output rate in Hz.
func (m *Machine) SampleRate() int {
	return m.cfg.SampleRate
}

// DrainAudioSamples returns the mono samples produced since the last call,
// in the range [0, 1].
func (m *Machine) DrainAudioSamples() []float32 {
	return m.audio.drain()
}

// SetButton presses or releases a button on a controller port (0 or 1).
func (m *Machine) SetButton(port int, b controller.Button, pressed bool) {
	if port < 0 || port >= Ports {
		return
	}
	m.bus.Controllers[port].SetState(b, pressed)
}

// SetButtons sets every button of a controller port from a mask, bit n
// being controller.Button n.
func (m *Machine) SetButtons(port int, mask byte) {
	if port < 0 || port >= Ports {
		return
	}
	m.bus.Controllers[port].SetButtons(mask)
}

// Buttons returns the button mask of a controller port.
func (m *Machine) Buttons(port int) byte {
	if port < 0 || port >= Ports {
		return 0
	}
	return m.bus.Controllers[port].Buttons()
}

// CartridgeID identifies the loaded game, or is empty.
func (m *Machine) CartridgeID() string {
	if m.cart == nil {
		return ""
	}
	return m.cart.ID()
}

// Cartridge returns the loaded cartridge, or nil.
func (m *Machine) Cartridge() *cartridge.Cartridge {
	return m.cart
}

// Peek reads CPU address space without side effects.
func (m *Machine) Peek(addr uint16) byte {
	return m.bus.Peek(addr)
}

// Bus exposes the system bus.
func (m *Machine) Bus() *bus.Bus {
	return m.bus
}
