package display

import (
	"bytes"
	"errors"
	"testing"
	"testing/fstest"
)

func TestDroppedROM(t *testing.T) {
	files := fstest.MapFS{
		"notes.txt":    {Data: []byte("hello")},
		"saves/a.nes":  {Data: []byte("nested")},
		"Zelda.NES":    {Data: []byte("NES\x1a")},
		"zz_other.nes": {Data: []byte("second")},
	}
	name, rom, err := droppedROM(files)
	if err != nil {
		t.Fatalf("droppedROM: %v", err)
	}
	if name != "Zelda.NES" || !bytes.Equal(rom, []byte("NES\x1a")) {
		t.Errorf("Expected Zelda.NES, got %q (%q)", name, rom)
	}
}

func TestDroppedROMWithoutROM(t *testing.T) {
	files := fstest.MapFS{"cover.png": {Data: []byte{0x89}}}
	if _, _, err := droppedROM(files); !errors.Is(err, errNoROM) {
		t.Errorf("Expected errNoROM, got %v", err)
	}
}
