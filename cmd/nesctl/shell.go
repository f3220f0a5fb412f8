package main

import (
	"bufio"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/meadori/nesmachine/api"
	"github.com/meadori/nesmachine/ppu"
)

const rpcTimeout = 5 * time.Second

type shell struct {
	client api.ControllerClient
	out    io.Writer
}

func newShell(client api.ControllerClient, out io.Writer) *shell {
	return &shell{client: client, out: out}
}

func (s *shell) run(in io.Reader) {
	fmt.Fprintln(s.out, "Connected. Type 'help' for commands.")
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(s.out, "(nesctl) ")
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		if !s.exec(parts[0], parts[1:]) {
			return
		}
	}
}

// exec runs one command and reports whether the shell should go on.
func (s *shell) exec(cmd string, args []string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
	defer cancel()

	var err error
	switch cmd {
	case "help", "h":
		fmt.Fprintln(s.out, "Commands:")
		fmt.Fprintln(s.out, "  pause, p           - Pause execution")
		fmt.Fprintln(s.out, "  run, c             - Resume execution")
		fmt.Fprintln(s.out, "  reset              - Press the reset button")
		fmt.Fprintln(s.out, "  save <slot>        - Save state to a slot (0-9)")
		fmt.Fprintln(s.out, "  load <slot>        - Load state from a slot (0-9)")
		fmt.Fprintln(s.out, "  x <addr> [count]   - Examine memory (hex address)")
		fmt.Fprintln(s.out, "  frame <file.png>   - Write the current frame to a PNG")
		fmt.Fprintln(s.out, "  quit, q            - Exit")
	case "quit", "q", "exit":
		return false
	case "pause", "p":
		if _, err = s.client.Pause(ctx, &emptypb.Empty{}); err == nil {
			fmt.Fprintln(s.out, "Emulator paused.")
		}
	case "run", "c", "continue":
		if _, err = s.client.Resume(ctx, &emptypb.Empty{}); err == nil {
			fmt.Fprintln(s.out, "Emulator running...")
		}
	case "reset":
		_, err = s.client.Reset(ctx, &emptypb.Empty{})
	case "save", "load":
		var n uint64
		if len(args) != 1 {
			err = fmt.Errorf("usage: %s <slot>", cmd)
			break
		}
		if n, err = strconv.ParseUint(args[0], 10, 32); err != nil {
			break
		}
		if cmd == "save" {
			_, err = s.client.SaveSlot(ctx, wrapperspb.UInt32(uint32(n)))
		} else {
			_, err = s.client.LoadSlot(ctx, wrapperspb.UInt32(uint32(n)))
		}
	case "x":
		err = s.examine(ctx, args)
	case "frame":
		if len(args) != 1 {
			err = fmt.Errorf("usage: frame <file.png>")
			break
		}
		err = s.frame(ctx, args[0])
	default:
		err = fmt.Errorf("unknown command: %s", cmd)
	}
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
	}
	return true
}

func (s *shell) examine(ctx context.Context, args []string) error {
	if len(args) == 0 || len(args) > 2 {
		return fmt.Errorf("usage: x <addr> [count]")
	}
	addr, err := strconv.ParseUint(strings.TrimPrefix(strings.TrimPrefix(args[0], "$"), "0x"), 16, 16)
	if err != nil {
		return fmt.Errorf("invalid address: %s", args[0])
	}
	count := 1
	if len(args) == 2 {
		if count, err = strconv.Atoi(args[1]); err != nil || count <= 0 {
			return fmt.Errorf("invalid count: %s", args[1])
		}
	}

	res, err := s.client.PeekMemory(ctx, api.Peek(uint16(addr), count))
	if err != nil {
		return err
	}
	printHexDump(s.out, uint16(addr), res.GetValue())
	return nil
}

func (s *shell) frame(ctx context.Context, path string) error {
	res, err := s.client.GetFrame(ctx, &emptypb.Empty{})
	if err != nil {
		return err
	}
	img := image.NewRGBA(image.Rect(0, 0, ppu.Width, ppu.Height))
	if len(res.GetValue()) != len(img.Pix) {
		return fmt.Errorf("unexpected frame size %d", len(res.GetValue()))
	}
	copy(img.Pix, res.GetValue())

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Wrote %s\n", path)
	return nil
}

func printHexDump(w io.Writer, startAddr uint16, data []byte) {
	for i := 0; i < len(data); i += 16 {
		fmt.Fprintf(w, "%04X:", startAddr+uint16(i))
		end := min(i+16, len(data))
		for j := i; j < end; j++ {
			fmt.Fprintf(w, " %02X", data[j])
		}
		fmt.Fprintln(w)
	}
}
