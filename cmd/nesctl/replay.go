package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/meadori/nesmachine/api"
	"github.com/meadori/nesmachine/controller"
)

// frameDuration is one frame at 60Hz.
const frameDuration = time.Second / 60

// step is one script line: hold mask for frames frames.
type step struct {
	frames int
	mask   byte
}

// parseScript reads lines of the form "<frames> <BUTTON+BUTTON|NONE>".
// Blank lines and lines starting with '#' are skipped.
func parseScript(r io.Reader) ([]step, error) {
	var steps []step
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		parts := strings.Fields(text)
		if len(parts) != 2 {
			return nil, fmt.Errorf("line %d: expected \"<frames> <buttons>\", got %q", line, text)
		}
		frames, err := strconv.Atoi(parts[0])
		if err != nil || frames < 0 {
			return nil, fmt.Errorf("line %d: invalid frame count %q", line, parts[0])
		}
		mask, err := controller.ParseMask(parts[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		steps = append(steps, step{frames: frames, mask: mask})
	}
	return steps, scanner.Err()
}

// replay streams a script to the given controller port, holding every
// line's buttons for its frame count.
func replay(client api.ControllerClient, r io.Reader, port int, delay time.Duration) error {
	steps, err := parseScript(r)
	if err != nil {
		return err
	}

	stream, err := client.StreamInput(context.Background())
	if err != nil {
		return fmt.Errorf("failed to open stream: %w", err)
	}
	time.Sleep(delay)

	for _, s := range steps {
		if err := stream.Send(api.Input(port, s.mask)); err != nil {
			return fmt.Errorf("failed to send state: %w", err)
		}
		time.Sleep(time.Duration(s.frames) * frameDuration)
	}
	// release everything before disconnecting
	if err := stream.Send(api.Input(port, 0)); err != nil {
		return fmt.Errorf("failed to send state: %w", err)
	}
	_, err = stream.CloseAndRecv()
	return err
}
