package display

import (
	"sync"

	"github.com/meadori/nesmachine/wavrec"
)

// soundStream feeds the ebiten audio player. It holds 16-bit stereo
// little endian PCM built from the machine's mono samples.
type soundStream struct {
	mu  sync.Mutex
	buf []byte
	max int
}

// underrun is the most silence handed out per read when no samples are
// queued.
const underrun = 1024

func newSoundStream(sampleRate int) *soundStream {
	// a quarter second of stereo int16 at most
	return &soundStream{max: sampleRate / 4 * 4}
}

func (s *soundStream) push(samples []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range samples {
		x := wavrec.PCM16(v)
		s.buf = append(s.buf, byte(x), byte(x>>8), byte(x), byte(x>>8))
	}
	if over := len(s.buf) - s.max; over > 0 {
		s.buf = append(s.buf[:0], s.buf[over:]...)
	}
}

func (s *soundStream) reset() {
	s.mu.Lock()
	s.buf = s.buf[:0]
	s.mu.Unlock()
}

func (s *soundStream) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.buf) == 0 {
		n := min(len(p), underrun)
		clear(p[:n])
		return n, nil
	}
	n := copy(p, s.buf)
	s.buf = append(s.buf[:0], s.buf[n:]...)
	return n, nil
}
