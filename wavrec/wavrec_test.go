package wavrec

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"
)

func TestPCM16(t *testing.T) {
	tests := []struct {
		in   float32
		want int16
	}{
		{0, 0},
		{-0.5, 0},
		{0.5, 16383},
		{1, 32767},
		{1.5, 32767},
	}
	for _, tt := range tests {
		if got := PCM16(tt.in); got != tt.want {
			t.Errorf("PCM16(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	r, err := Create(path, 44100)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	in := []float32{0, 0.25, 0.5, 1}
	for i := 0; i < 3; i++ {
		if err := r.Write(in); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := r.Write(nil); err != nil {
		t.Fatalf("Write(nil): %v", err)
	}
	if r.Samples() != 12 {
		t.Errorf("Expected 12 samples, got %d", r.Samples())
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		t.Fatal("Expected a valid WAV file")
	}
	if dec.SampleRate != 44100 || dec.NumChans != 1 || dec.BitDepth != 16 {
		t.Errorf("Unexpected format: %d Hz, %d channels, %d bits", dec.SampleRate, dec.NumChans, dec.BitDepth)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("FullPCMBuffer: %v", err)
	}
	if len(buf.Data) != 12 {
		t.Fatalf("Expected 12 samples in the file, got %d", len(buf.Data))
	}
	for i, v := range buf.Data {
		if want := int(PCM16(in[i%len(in)])); v != want {
			t.Errorf("sample %d: expected %d, got %d", i, want, v)
		}
	}
}
