package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/meadori/nesmachine/api"
	"github.com/meadori/nesmachine/controller"
)

func TestParseScript(t *testing.T) {
	script := `
# title screen
30 NONE
2 start
10 A+RIGHT
`
	steps, err := parseScript(strings.NewReader(script))
	if err != nil {
		t.Fatalf("parseScript: %v", err)
	}
	want := []step{
		{30, 0},
		{2, 1 << controller.Start},
		{10, 1<<controller.A | 1<<controller.Right},
	}
	if len(steps) != len(want) {
		t.Fatalf("Expected %d steps, got %d", len(want), len(steps))
	}
	for i := range want {
		if steps[i] != want[i] {
			t.Errorf("step %d: expected %+v, got %+v", i, want[i], steps[i])
		}
	}
}

func TestParseScriptErrors(t *testing.T) {
	for _, script := range []string{
		"10",
		"x A",
		"-1 A",
		"5 A+TURBO",
		"5 A B",
	} {
		if _, err := parseScript(strings.NewReader(script)); err == nil {
			t.Errorf("Expected an error for %q", script)
		}
	}
}

func TestPrintHexDump(t *testing.T) {
	var buf bytes.Buffer
	data := make([]byte, 18)
	for i := range data {
		data[i] = byte(i)
	}
	printHexDump(&buf, 0x00F8, data)
	want := "00F8: 00 01 02 03 04 05 06 07 08 09 0A 0B 0C 0D 0E 0F\n0108: 10 11\n"
	if got := buf.String(); got != want {
		t.Errorf("Expected\n%s\ngot\n%s", want, got)
	}
}

// stubClient answers the calls the shell makes and records them.
type stubClient struct {
	api.ControllerClient
	calls []string
}

func (c *stubClient) Pause(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	c.calls = append(c.calls, "pause")
	return &emptypb.Empty{}, nil
}

func (c *stubClient) SaveSlot(ctx context.Context, in *wrapperspb.UInt32Value, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	c.calls = append(c.calls, "save")
	return &emptypb.Empty{}, nil
}

func (c *stubClient) PeekMemory(ctx context.Context, in *wrapperspb.UInt32Value, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	c.calls = append(c.calls, "peek")
	_, n := api.ParsePeek(in)
	return wrapperspb.Bytes(make([]byte, n)), nil
}

func TestShell(t *testing.T) {
	c := &stubClient{}
	var out bytes.Buffer
	newShell(c, &out).run(strings.NewReader("p\nsave 3\nsave\nx 8000 2\nbogus\nq\npause\n"))

	if got := strings.Join(c.calls, ","); got != "pause,save,peek" {
		t.Errorf("Expected calls pause,save,peek, got %s", got)
	}
	for _, want := range []string{"Emulator paused.", "usage: save <slot>", "8000: 00 00", "unknown command: bogus"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out.String())
		}
	}
}
