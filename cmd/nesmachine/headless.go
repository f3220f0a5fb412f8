package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/meadori/nesmachine/machine"
	"github.com/meadori/nesmachine/server"
	"github.com/meadori/nesmachine/wavrec"
)

// frameTime paces headless runs that serve remote clients.
const frameTime = time.Second / 60

// headless steps the machine without a window.
type headless struct {
	host     server.Host
	srv      *server.GRPCServer
	wav      *wavrec.Recorder
	frames   int
	saveSlot int
}

func (h *headless) run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var tick <-chan time.Time
	if h.srv != nil {
		t := time.NewTicker(frameTime)
		defer t.Stop()
		tick = t.C
	}

	m := h.host.Machine
	start := time.Now()
	n := 0
	for h.frames <= 0 || n < h.frames {
		if tick != nil {
			select {
			case <-ctx.Done():
				return h.finish(n, start)
			case <-tick:
			}
		} else if ctx.Err() != nil {
			return h.finish(n, start)
		}

		if h.srv != nil {
			h.srv.RunPending(h.host)
			for port := 0; port < machine.Ports; port++ {
				m.SetButtons(port, h.srv.Buttons(port))
			}
			if h.srv.Paused() {
				continue
			}
		}

		m.StepFrame()
		n++
		samples := m.DrainAudioSamples()
		if h.wav != nil {
			if err := h.wav.Write(samples); err != nil {
				return err
			}
		}
	}
	return h.finish(n, start)
}

func (h *headless) finish(frames int, start time.Time) error {
	elapsed := time.Since(start)
	log.Printf("Ran %d frames in %v (%.1f fps)", frames, elapsed.Round(time.Millisecond),
		float64(frames)/elapsed.Seconds())
	if h.saveSlot < 0 {
		return nil
	}
	if err := h.host.SaveSlot(h.saveSlot); err != nil {
		return fmt.Errorf("saving slot %d: %w", h.saveSlot, err)
	}
	log.Printf("Saved state to slot %d", h.saveSlot)
	return nil
}
