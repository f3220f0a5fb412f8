package display

import (
	"fmt"
	"io"

	"github.com/meadori/nesmachine/controller"
)

// recorder writes player one's input as a replay script, one line per run
// of frames with the same buttons held:
//
//	<frames> <BUTTON+BUTTON|NONE>
type recorder struct {
	w      io.Writer
	mask   byte
	frames int
	err    error
}

func (r *recorder) frame(mask byte) {
	if r.frames > 0 && mask != r.mask {
		r.write()
	}
	if r.frames == 0 {
		r.mask = mask
	}
	r.frames++
}

func (r *recorder) write() {
	if r.err == nil {
		_, r.err = fmt.Fprintf(r.w, "%d %s\n", r.frames, controller.FormatMask(r.mask))
	}
	r.frames = 0
}

func (r *recorder) flush() error {
	if r.frames > 0 {
		r.write()
	}
	return r.err
}
