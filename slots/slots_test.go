package slots

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/meadori/nesmachine/cartridge"
	"github.com/meadori/nesmachine/machine"
	"github.com/meadori/nesmachine/mapper"
)

func newMachine(t *testing.T) *machine.Machine {
	t.Helper()
	prg := make([]byte, mapper.PRGBankSize)
	copy(prg, []byte{0xE6, 0x00, 0x4C, 0x00, 0x80}) // INC $00; JMP $8000
	prg[0x3FFD] = 0x80
	cfg := machine.DefaultConfig()
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	m := machine.New(cfg)
	if err := m.Load(cartridge.Encode(cartridge.Header{PRGBanks: 1, CHRBanks: 1}, prg, nil)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return m
}

func TestNew(t *testing.T) {
	tests := []struct {
		rom  string
		want string
	}{
		{"/roms/Super Game (U).nes", "Super Game (U)"},
		{"game.nes", "game"},
		{"noext", "noext"},
		{"", "game"},
	}
	for _, tt := range tests {
		if got := New("dir", tt.rom).Name; got != tt.want {
			t.Errorf("New(%q).Name = %q, want %q", tt.rom, got, tt.want)
		}
	}
}

func TestPath(t *testing.T) {
	s := New("/states", "/roms/mario.nes")
	got, err := s.Path("0123456789abcdef0123", 7)
	if err != nil {
		t.Fatalf("Path: %v", err)
	}
	if want := filepath.Join("/states", "mario-0123456789ab-7.state"); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}

	for _, n := range []int{-1, Count} {
		if _, err := s.Path("abc", n); !errors.Is(err, ErrSlot) {
			t.Errorf("slot %d: expected ErrSlot, got %v", n, err)
		}
	}
	if _, err := s.Path("", 0); !errors.Is(err, machine.ErrNoCartridge) {
		t.Errorf("Expected ErrNoCartridge without a game, got %v", err)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	s := New(dir, "test.nes")
	m := newMachine(t)
	m.StepFrame()

	if err := s.Save(m, 3); err != nil {
		t.Fatalf("Save: %v", err)
	}
	present := s.Present(m.CartridgeID())
	for n, ok := range present {
		if ok != (n == 3) {
			t.Errorf("slot %d: present = %v", n, ok)
		}
	}

	want := m.Peek(0x0000)
	m.StepFrame()
	if m.Peek(0x0000) == want {
		t.Fatal("Expected the program to change RAM")
	}
	if err := s.Load(m, 3); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := m.Peek(0x0000); got != want {
		t.Errorf("Expected $%02X after loading the slot, got $%02X", want, got)
	}

	if err := s.Load(m, 4); !errors.Is(err, ErrEmpty) {
		t.Errorf("Expected ErrEmpty, got %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected only the slot file in %s, got %d entries", dir, len(entries))
	}
}

func TestSaveEmptyMachine(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, "test.nes")
	m := machine.New(machine.Config{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	if err := s.Save(m, 0); !errors.Is(err, machine.ErrNoCartridge) {
		t.Errorf("Expected ErrNoCartridge, got %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("Expected no files, got %d", len(entries))
	}
}
