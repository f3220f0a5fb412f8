// Package wavrec records the machine's audio output to a WAV file.
package wavrec

import (
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const bitDepth = 16

// Recorder streams mono samples into a 16 bit PCM WAV file.
type Recorder struct {
	f       *os.File
	enc     *wav.Encoder
	buf     *audio.IntBuffer
	written int
}

// Create opens path for writing and returns a recorder for audio at
// sampleRate.
func Create(path string, sampleRate int) (*Recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("wavrec: %w", err)
	}
	r := New(f, sampleRate)
	r.f = f
	return r, nil
}

// New returns a recorder writing to ws. The header is patched with the
// final sizes on Close, which is why ws must be seekable.
func New(ws io.WriteSeeker, sampleRate int) *Recorder {
	return &Recorder{
		enc: wav.NewEncoder(ws, sampleRate, bitDepth, 1, 1),
		buf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
			SourceBitDepth: bitDepth,
		},
	}
}

// Write appends samples in the range [0, 1].
func (r *Recorder) Write(samples []float32) error {
	if len(samples) == 0 {
		return nil
	}
	r.buf.Data = r.buf.Data[:0]
	for _, s := range samples {
		r.buf.Data = append(r.buf.Data, int(PCM16(s)))
	}
	if err := r.enc.Write(r.buf); err != nil {
		return fmt.Errorf("wavrec: %w", err)
	}
	r.written += len(samples)
	return nil
}

// Samples returns the number of samples written so far.
func (r *Recorder) Samples() int {
	return r.written
}

// Close finishes the WAV header and closes the file if the recorder
// opened it.
func (r *Recorder) Close() error {
	err := r.enc.Close()
	if r.f != nil {
		if cerr := r.f.Close(); err == nil {
			err = cerr
		}
	}
	if err != nil {
		return fmt.Errorf("wavrec: %w", err)
	}
	return nil
}

// PCM16 converts a mixer sample in [0, 1] to signed 16 bit PCM. Silence
// maps to 0.
func PCM16(s float32) int16 {
	switch {
	case s <= 0:
		return 0
	case s >= 1:
		return 32767
	}
	return int16(s * 32767)
}
