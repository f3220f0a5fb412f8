package machine

import (
	"image"
	"sync"
)

// FrameBuffer holds the last completed frame. The emulation goroutine
// publishes into it once per frame; any other goroutine may read it.
type FrameBuffer struct {
	mu  sync.RWMutex
	img *image.RGBA
	seq uint64
}

func newFrameBuffer(width, height int) *FrameBuffer {
	return &FrameBuffer{img: image.NewRGBA(image.Rect(0, 0, width, height))}
}

func (f *FrameBuffer) Width() int {
	return f.img.Rect.Dx()
}

func (f *FrameBuffer) Height() int {
	return f.img.Rect.Dy()
}

// Sequence counts published frames. Readers can compare it to skip
// frames they have already seen.
func (f *FrameBuffer) Sequence() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.seq
}

// Snapshot copies the RGBA pixels (row major, 4 bytes per pixel) into
// dst, growing it if needed, and returns it.
func (f *FrameBuffer) Snapshot(dst []byte) []byte {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append(dst[:0], f.img.Pix...)
}

// Pixels returns a copy of the RGBA pixels.
func (f *FrameBuffer) Pixels() []byte {
	return f.Snapshot(nil)
}

// Image returns a copy of the frame.
func (f *FrameBuffer) Image() *image.RGBA {
	f.mu.RLock()
	defer f.mu.RUnlock()
	img := image.NewRGBA(f.img.Rect)
	copy(img.Pix, f.img.Pix)
	return img
}

func (f *FrameBuffer) publish(src *image.RGBA) {
	f.mu.Lock()
	copy(f.img.Pix, src.Pix)
	f.seq++
	f.mu.Unlock()
}

func (f *FrameBuffer) clear() {
	f.mu.Lock()
	clear(f.img.Pix)
	f.seq++
	f.mu.Unlock()
}

// audioBuffer accumulates mono samples between drains.
type audioBuffer struct {
	mu      sync.Mutex
	samples []float32
}

func (a *audioBuffer) append(s []float32) {
	a.mu.Lock()
	a.samples = append(a.samples, s...)
	a.mu.Unlock()
}

func (a *audioBuffer) drain() []float32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := a.samples
	a.samples = nil
	return out
}
