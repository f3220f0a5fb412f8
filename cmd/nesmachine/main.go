// Command nesmachine runs NES games in a window, or headless for a fixed
// number of frames.
package main

import (
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/meadori/nesmachine/display"
	"github.com/meadori/nesmachine/machine"
	"github.com/meadori/nesmachine/server"
	"github.com/meadori/nesmachine/slots"
	"github.com/meadori/nesmachine/wavrec"
)

type options struct {
	rom        string
	headless   bool
	frames     int
	wav        string
	record     string
	grpcPort   int
	slotsDir   string
	saveSlot   int
	statsview  bool
	sampleRate int
	verbose    bool
}

func parseFlags() options {
	var o options
	flag.StringVar(&o.rom, "rom", "", "Path to the NES ROM to load")
	flag.BoolVar(&o.headless, "headless", false, "Run without a window")
	flag.IntVar(&o.frames, "frames", 600, "Frames to run in headless mode, 0 runs until interrupted")
	flag.StringVar(&o.wav, "wav", "", "Record audio to a WAV file")
	flag.StringVar(&o.record, "record", "", "Record player one's input to a replay script")
	flag.IntVar(&o.grpcPort, "grpc-port", 0, "Serve the remote controller on this port, 0 disables it")
	flag.StringVar(&o.slotsDir, "slots-dir", "", "Directory for save state slots (default: user config dir)")
	flag.IntVar(&o.saveSlot, "save-slot", -1, "Headless: save the final state into this slot")
	flag.BoolVar(&o.statsview, "statsview", false, "Serve runtime statistics on "+statsAddr)
	flag.IntVar(&o.sampleRate, "sample-rate", 44100, "Audio sample rate in Hz")
	flag.BoolVar(&o.verbose, "v", false, "Log debug messages")
	flag.Parse()
	return o
}

func main() {
	o := parseFlags()

	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg := machine.DefaultConfig()
	cfg.SampleRate = o.sampleRate
	cfg.Logger = logger
	m := machine.New(cfg)

	if o.rom != "" {
		rom, err := os.ReadFile(o.rom)
		if err != nil {
			log.Fatalf("Error reading ROM: %v", err)
		}
		if err := m.Load(rom); err != nil {
			log.Fatalf("Error loading ROM: %v", err)
		}
	}

	o.slotsDir = resolveSlotsDir(o.slotsDir, slots.DefaultDir)

	if o.statsview {
		launchStatsview()
	}

	var rec *wavrec.Recorder
	if o.wav != "" {
		var err error
		rec, err = wavrec.Create(o.wav, m.SampleRate())
		if err != nil {
			log.Fatalf("Error creating WAV file: %v", err)
		}
		defer func() {
			if err := rec.Close(); err != nil {
				log.Printf("Error closing WAV file: %v", err)
			}
		}()
	}

	var srv *server.GRPCServer
	if o.grpcPort != 0 {
		srv = server.NewGRPCServer(m.Frame())
		if err := srv.Start(o.grpcPort); err != nil {
			log.Fatalf("Failed to start gRPC server: %v", err)
		}
		defer srv.Stop()
	}

	if o.headless {
		if m.IsEmpty() {
			log.Fatalf("Headless mode needs -rom")
		}
		h := headless{
			host:     server.Host{Machine: m, Slots: slotStore(o.slotsDir, o.rom)},
			srv:      srv,
			wav:      rec,
			frames:   o.frames,
			saveSlot: o.saveSlot,
		}
		if err := h.run(); err != nil {
			log.Printf("Headless run failed: %v", err)
		}
		return
	}

	var script *os.File
	if o.record != "" {
		var err error
		script, err = os.Create(o.record)
		if err != nil {
			log.Fatalf("Error creating replay script: %v", err)
		}
		defer script.Close()
	}

	opts := display.Options{Server: srv, SlotsDir: o.slotsDir, WAV: rec}
	if script != nil {
		opts.Record = script
	}
	d := display.New(m, o.rom, opts)

	ebiten.SetWindowSize(display.WindowWidth(), display.WindowHeight())
	ebiten.SetWindowTitle("nesmachine")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	if err := ebiten.RunGame(d); err != nil {
		log.Printf("Error running game: %v", err)
	}
	if err := d.Close(); err != nil {
		log.Printf("Error writing replay script: %v", err)
	}
}

// resolveSlotsDir returns dir, or the default location when dir is empty.
// An empty result disables save slots.
func resolveSlotsDir(dir string, defaultDir func() (string, error)) string {
	if dir != "" {
		return dir
	}
	dir, err := defaultDir()
	if err != nil {
		log.Printf("Warning: save slots disabled: %v", err)
		return ""
	}
	return dir
}

func slotStore(dir, rom string) *slots.Store {
	if dir == "" {
		return nil
	}
	return slots.New(dir, rom)
}
