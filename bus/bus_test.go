package bus

import (
	"errors"
	"testing"

	"github.com/meadori/nesmachine/cartridge"
	"github.com/meadori/nesmachine/controller"
	"github.com/meadori/nesmachine/mapper"
)

const dotsPerFrame = 341 * 262

// newTestBus returns a bus with an NROM cartridge holding prg at $8000
// (mirrored at $C000) and the given interrupt vectors.
func newTestBus(t *testing.T, prg []byte, nmi, reset, irq uint16) *Bus {
	t.Helper()
	rom := make([]byte, mapper.PRGBankSize)
	copy(rom, prg)
	rom[0x3FFA], rom[0x3FFB] = byte(nmi), byte(nmi>>8)
	rom[0x3FFC], rom[0x3FFD] = byte(reset), byte(reset>>8)
	rom[0x3FFE], rom[0x3FFF] = byte(irq), byte(irq>>8)

	cart, err := cartridge.New(cartridge.Encode(cartridge.Header{PRGBanks: 1, CHRBanks: 1}, rom, nil))
	if err != nil {
		t.Fatalf("cartridge.New: %v", err)
	}
	b := New(44100, 1786830)
	b.LoadCartridge(cart)
	b.Reset()
	return b
}

func clockN(b *Bus, n int) {
	for i := 0; i < n; i++ {
		b.Clock()
	}
}

func TestMapIsTotalAndDisjoint(t *testing.T) {
	for a := 0; a <= 0xFFFF; a++ {
		var owners []Region
		for _, s := range Map {
			if a >= int(s.Lo) && a <= int(s.Hi) {
				owners = append(owners, s.Region)
			}
		}
		if len(owners) != 1 {
			t.Fatalf("$%04X: expected exactly one region, got %v", a, owners)
		}
		if got := Route(uint16(a)); got != owners[0] {
			t.Fatalf("$%04X: Route returned %v, map says %v", a, got, owners[0])
		}
	}
}

func TestRoute(t *testing.T) {
	tests := []struct {
		addr uint16
		want Region
	}{
		{0x0000, RAM},
		{0x1FFF, RAM},
		{0x2000, PPU},
		{0x3FFF, PPU},
		{0x4000, APU},
		{0x4013, APU},
		{0x4014, OAMDMA},
		{0x4015, APU},
		{0x4016, IO},
		{0x4017, IO},
		{0x4018, Test},
		{0x401F, Test},
		{0x4020, Cartridge},
		{0x6000, Cartridge},
		{0xFFFF, Cartridge},
	}
	for _, tt := range tests {
		if got := Route(tt.addr); got != tt.want {
			t.Errorf("Route($%04X) = %v, want %v", tt.addr, got, tt.want)
		}
	}
}

func TestRAMMirroring(t *testing.T) {
	b := New(44100, 1786830)
	for _, base := range []uint16{0x0000, 0x0123, 0x07FF} {
		for i, w := range []uint16{base, base + 0x0800, base + 0x1000, base + 0x1800} {
			data := byte(base) ^ byte(i+1)
			b.Write(w, data)
			for _, r := range []uint16{base, base + 0x0800, base + 0x1000, base + 0x1800} {
				if got := b.Read(r); got != data {
					t.Errorf("wrote $%02X to $%04X, read $%02X from $%04X", data, w, got, r)
				}
			}
		}
	}
}

func TestPPURegisterMirroring(t *testing.T) {
	b := New(44100, 1786830)
	// PPUADDR through two different mirrors, PPUDATA through a third
	b.Write(0x2006, 0x3F)
	b.Write(0x3FFE, 0x01)
	b.Write(0x2FFF, 0x2A)

	b.Write(0x200E, 0x3F)
	b.Write(0x2006, 0x01)
	if got := b.Read(0x3FF7); got != 0x2A {
		t.Errorf("Expected palette byte $2A through mirrored registers, got $%02X", got)
	}
}

func TestControllers(t *testing.T) {
	b := New(44100, 1786830)
	b.Controllers[0].SetState(controller.A, true)
	b.Controllers[0].SetState(controller.Start, true)
	b.Controllers[1].SetState(controller.Right, true)

	b.Write(0x4016, 1)
	b.Write(0x4016, 0)

	want1 := []byte{1, 0, 0, 1, 0, 0, 0, 0, 1, 1}
	want2 := []byte{0, 0, 0, 0, 0, 0, 0, 1, 1, 1}
	for i := range want1 {
		if got := b.Read(0x4016) & 1; got != want1[i] {
			t.Errorf("port 1 read %d: expected %d, got %d", i, want1[i], got)
		}
		if got := b.Read(0x4017) & 1; got != want2[i] {
			t.Errorf("port 2 read %d: expected %d, got %d", i, want2[i], got)
		}
	}
}

func TestOAMDMA(t *testing.T) {
	b := newTestBus(t, []byte{0x4C, 0x00, 0x80}, 0x8000, 0x8000, 0x8000)
	for i := 0; i < 256; i++ {
		b.Write(0x0200+uint16(i), byte(255-i))
	}
	for !b.CPU.Complete() {
		b.Clock()
	}
	b.Write(0x4014, 0x02)
	if b.CPU.Complete() {
		t.Error("Expected the CPU to be stalled by OAM DMA")
	}

	for _, i := range []byte{0, 5, 128, 255} {
		b.Write(0x2003, i)
		if got := b.Read(0x2004); got != 255-i {
			t.Errorf("OAM[%d]: expected $%02X, got $%02X", i, 255-i, got)
		}
	}
}

func TestOpenBus(t *testing.T) {
	b := newTestBus(t, nil, 0x8000, 0x8000, 0x8000)
	b.Write(0x0000, 0x5A)
	b.Read(0x0000)
	if got := b.Read(0x4018); got != 0x5A {
		t.Errorf("Expected test registers to return the last bus value, got $%02X", got)
	}
	// NROM leaves $4020-$5FFF undriven
	if got := b.Read(0x5000); got != 0x5A {
		t.Errorf("Expected undriven cartridge space to return the last bus value, got $%02X", got)
	}
}

func TestCartridgeSpace(t *testing.T) {
	prg := []byte{0x11, 0x22, 0x33}
	b := newTestBus(t, prg, 0x8000, 0x8000, 0x8000)
	for i, v := range prg {
		lo := 0x8000 + uint16(i)
		if got := b.Read(lo); got != v {
			t.Errorf("$%04X: expected $%02X, got $%02X", lo, v, got)
		}
		if got := b.Peek(lo + 0x4000); got != v {
			t.Errorf("$%04X: expected mirror of $%04X, got $%02X", lo+0x4000, lo, got)
		}
	}

	b.Write(0x6000, 0x99)
	if got := b.Read(0x6000); got != 0x99 {
		t.Errorf("Expected PRG-RAM write to stick, got $%02X", got)
	}
}

func TestClockRatio(t *testing.T) {
	b := newTestBus(t, []byte{0x4C, 0x00, 0x80}, 0x8000, 0x8000, 0x8000)
	start := b.CPU.Cycles()
	clockN(b, 3000)
	if got := b.CPU.Cycles() - start; got != 1000 {
		t.Errorf("Expected 1000 CPU cycles per 3000 dots, got %d", got)
	}
}

func TestNMIReachesCPU(t *testing.T) {
	prg := make([]byte, 0x1003)
	copy(prg, []byte{0x4C, 0x00, 0x80}) // JMP $8000
	copy(prg[0x1000:], []byte{0xE6, 0x10, 0x40})
	b := newTestBus(t, prg, 0x9000, 0x8000, 0x8000)

	b.Write(0x2000, 0x80)
	clockN(b, 3*dotsPerFrame)
	if got := b.Peek(0x0010); got < 2 {
		t.Errorf("Expected an NMI per frame, handler ran %d times", got)
	}
}

func TestAPUFrameIRQReachesCPU(t *testing.T) {
	prg := make([]byte, 0x1006)
	copy(prg, []byte{0x58, 0x4C, 0x01, 0x80}) // CLI; JMP $8001
	// LDA $4015 acknowledges the frame IRQ
	copy(prg[0x1000:], []byte{0xAD, 0x15, 0x40, 0xE6, 0x11, 0x40})
	b := newTestBus(t, prg, 0x8000, 0x8000, 0x9000)

	clockN(b, 3*30000)
	if got := b.Peek(0x0011); got != 1 {
		t.Errorf("Expected one frame IRQ, handler ran %d times", got)
	}
}

func TestStateRoundTrip(t *testing.T) {
	prg := []byte{
		0xE6, 0x00,       // INC $00
		0xA5, 0x00,       // LDA $00
		0x8D, 0x00, 0x60, // STA $6000
		0x4C, 0x00, 0x80,
	}
	b := newTestBus(t, prg, 0x8000, 0x8000, 0x8000)
	clockN(b, 12345)

	s, err := b.SaveState()
	if err != nil {
		t.Fatalf("SaveState: %v", err)
	}
	clockN(b, 5000)
	want := [2]byte{b.Peek(0x0000), b.Peek(0x6000)}
	wantCPU := b.CPU.SaveState()

	if err := b.LoadState(s); err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	clockN(b, 5000)
	if got := [2]byte{b.Peek(0x0000), b.Peek(0x6000)}; got != want {
		t.Errorf("Expected memory %v after restore, got %v", want, got)
	}
	if got := b.CPU.SaveState(); got != wantCPU {
		t.Errorf("Expected CPU %+v after restore, got %+v", wantCPU, got)
	}
}

func TestLoadStateRejectsOtherMapper(t *testing.T) {
	b := newTestBus(t, nil, 0x8000, 0x8000, 0x8000)
	b.Write(0x0042, 0x77)
	s, err := b.SaveState()
	if err != nil {
		t.Fatalf("SaveState: %v", err)
	}
	s.Cartridge.MapperID = 4
	s.Ram[0x42] = 0x00
	if err := b.LoadState(s); err == nil {
		t.Fatal("Expected an error for a state from another mapper")
	}
	if got := b.Peek(0x0042); got != 0x77 {
		t.Errorf("Expected RAM untouched by a failed restore, got $%02X", got)
	}
}

func TestLoadStateRejectsOutOfRange(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*State)
	}{
		{"cpu cycles", func(s *State) { s.CPU.Cycles = -1 }},
		{"scanline", func(s *State) { s.PPU.Scanline = 400 }},
		{"dot", func(s *State) { s.PPU.Cycle = 341 }},
		{"sprite count", func(s *State) { s.PPU.SpriteCount = 9 }},
		{"frame buffer", func(s *State) { s.PPU.FrameBuffer = s.PPU.FrameBuffer[:100] }},
		{"duty", func(s *State) { s.APU.Pulse2.DutyCycle = 4 }},
		{"duty step", func(s *State) { s.APU.Pulse1.DutySequencer = 8 }},
		{"envelope", func(s *State) { s.APU.Noise.Envelope.Decay = 16 }},
		{"triangle step", func(s *State) { s.APU.Triangle.Sequencer = 32 }},
		{"noise period", func(s *State) { s.APU.Noise.TimerPeriod = 16 }},
		{"dmc rate", func(s *State) { s.APU.DMC.RateIndex = 16 }},
		{"dmc level", func(s *State) { s.APU.DMC.OutputLevel = 128 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBus(t, nil, 0x8000, 0x8000, 0x8000)
			b.Write(0x0042, 0x77)
			s, err := b.SaveState()
			if err != nil {
				t.Fatalf("SaveState: %v", err)
			}
			s.Ram[0x42] = 0x00
			tt.mutate(&s)
			if err := b.LoadState(s); err == nil {
				t.Fatal("Expected an error for an out-of-range state")
			}
			if got := b.Peek(0x0042); got != 0x77 {
				t.Errorf("Expected RAM untouched by a failed restore, got $%02X", got)
			}
			// the machine still runs
			for i := 0; i < dotsPerFrame; i++ {
				b.Clock()
			}
		})
	}
}

func TestNoCartridge(t *testing.T) {
	b := New(44100, 1786830)
	if _, err := b.SaveState(); !errors.Is(err, ErrNoCartridge) {
		t.Errorf("SaveState: expected ErrNoCartridge, got %v", err)
	}
	if err := b.LoadState(State{}); !errors.Is(err, ErrNoCartridge) {
		t.Errorf("LoadState: expected ErrNoCartridge, got %v", err)
	}
	if got := b.Read(0x8000); got != 0 {
		t.Errorf("Expected an empty slot to read open bus, got $%02X", got)
	}
}
