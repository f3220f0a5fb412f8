package display

import (
	"bytes"
	"testing"

	"github.com/meadori/nesmachine/controller"
)

func TestRecorder(t *testing.T) {
	var buf bytes.Buffer
	r := &recorder{w: &buf}
	a := byte(1 << controller.A)
	right := byte(1 << controller.Right)
	for _, m := range []byte{0, 0, 0, a, a | right, a | right, 0} {
		r.frame(m)
	}
	if err := r.flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	want := "3 NONE\n1 A\n2 A+RIGHT\n1 NONE\n"
	if got := buf.String(); got != want {
		t.Errorf("Expected script\n%s\ngot\n%s", want, got)
	}
}

func TestSoundStream(t *testing.T) {
	s := newSoundStream(44100)
	s.push([]float32{0, 1})

	p := make([]byte, 16)
	n, err := s.Read(p)
	if err != nil || n != 8 {
		t.Fatalf("Read: expected 8 bytes, got %d (%v)", n, err)
	}
	want := []byte{0, 0, 0, 0, 0xFF, 0x7F, 0xFF, 0x7F}
	if !bytes.Equal(p[:n], want) {
		t.Errorf("Expected %v, got %v", want, p[:n])
	}

	// underrun plays silence
	p[0] = 0xAA
	n, _ = s.Read(p)
	if n != len(p) || p[0] != 0 {
		t.Errorf("Expected %d bytes of silence, got %d starting $%02X", len(p), n, p[0])
	}
}

func TestSoundStreamBounded(t *testing.T) {
	s := newSoundStream(400)
	s.push(make([]float32, 1000))
	if len(s.buf) != s.max || s.max != 400 {
		t.Errorf("Expected the queue capped at %d bytes, got %d", s.max, len(s.buf))
	}
}
