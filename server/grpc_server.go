package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/meadori/nesmachine/api"
	"github.com/meadori/nesmachine/machine"
	"github.com/meadori/nesmachine/slots"
)

// Emulator is what remote commands act on. Its methods are only called
// from RunPending, on the goroutine that steps the machine.
type Emulator interface {
	Reset() error
	Peek(addr uint16) byte
	SaveSlot(n int) error
	LoadSlot(n int) error
	DrainAudioSamples() []float32
}

// FrameSource provides the last completed frame as RGBA bytes. It must be
// safe to call from any goroutine.
type FrameSource interface {
	Pixels() []byte
}

// Host adapts a machine and its save slots to Emulator.
type Host struct {
	*machine.Machine
	Slots *slots.Store
}

var errNoSlots = errors.New("save slots are not configured")

func (h Host) SaveSlot(n int) error {
	if h.Slots == nil {
		return errNoSlots
	}
	return h.Slots.Save(h.Machine, n)
}

func (h Host) LoadSlot(n int) error {
	if h.Slots == nil {
		return errNoSlots
	}
	return h.Slots.Load(h.Machine, n)
}

type command struct {
	run  func(Emulator) error
	done chan error
}

// GRPCServer manages the network controller connections
type GRPCServer struct {
	api.UnimplementedControllerServer

	mu      sync.Mutex
	buttons [machine.Ports]byte
	paused  bool

	frames   FrameSource
	commands chan command
	listener net.Listener
	server   *grpc.Server
}

// NewGRPCServer initializes the gRPC controller server. frames may be nil
// if GetFrame is not needed.
func NewGRPCServer(frames FrameSource) *GRPCServer {
	return &GRPCServer{
		frames:   frames,
		commands: make(chan command),
	}
}

// Buttons returns the remote button mask for a controller port.
func (s *GRPCServer) Buttons(port int) byte {
	if port < 0 || port >= machine.Ports {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buttons[port]
}

// Paused reports whether a client paused emulation.
func (s *GRPCServer) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

func (s *GRPCServer) setPaused(p bool) {
	s.mu.Lock()
	s.paused = p
	s.mu.Unlock()
}

// RunPending executes the commands clients are waiting on. Call it from
// the emulation goroutine between frames, paused or not.
func (s *GRPCServer) RunPending(e Emulator) {
	for {
		select {
		case c := <-s.commands:
			c.done <- c.run(e)
		default:
			return
		}
	}
}

// do queues f for the emulation goroutine and waits for its result.
func (s *GRPCServer) do(ctx context.Context, f func(Emulator) error) error {
	c := command{run: f, done: make(chan error, 1)}
	select {
	case s.commands <- c:
	case <-ctx.Done():
		return status.FromContextError(ctx.Err()).Err()
	}
	select {
	case err := <-c.done:
		return toStatus(err)
	case <-ctx.Done():
		return status.FromContextError(ctx.Err()).Err()
	}
}

func toStatus(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, machine.ErrNoCartridge), errors.Is(err, errNoSlots):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, slots.ErrSlot):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, slots.ErrEmpty):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, machine.ErrStateVersion), errors.Is(err, machine.ErrStateCartridge):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, machine.ErrStateCorrupt):
		return status.Error(codes.DataLoss, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}

// StreamInput handles incoming controller streams from clients. The last
// mask received for a port stays applied after the stream ends.
func (s *GRPCServer) StreamInput(stream grpc.ClientStreamingServer[wrapperspb.UInt32Value, emptypb.Empty]) error {
	for {
		req, err := stream.Recv()
		if err == io.EOF {
			return stream.SendAndClose(&emptypb.Empty{})
		}
		if err != nil {
			return err
		}

		port, mask := api.ParseInput(req)
		if port >= machine.Ports {
			return status.Errorf(codes.InvalidArgument, "no controller port %d", port)
		}
		s.mu.Lock()
		s.buttons[port] = mask
		s.mu.Unlock()
	}
}

// Pause suspends the emulator loop
func (s *GRPCServer) Pause(ctx context.Context, in *emptypb.Empty) (*emptypb.Empty, error) {
	s.setPaused(true)
	return &emptypb.Empty{}, nil
}

// Resume restarts the emulator loop. Audio left over from before the
// pause is dropped.
func (s *GRPCServer) Resume(ctx context.Context, in *emptypb.Empty) (*emptypb.Empty, error) {
	err := s.do(ctx, func(e Emulator) error {
		e.DrainAudioSamples()
		s.setPaused(false)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &emptypb.Empty{}, nil
}

// Reset triggers a hardware reset of the NES, returning to the title screen
func (s *GRPCServer) Reset(ctx context.Context, in *emptypb.Empty) (*emptypb.Empty, error) {
	if err := s.do(ctx, Emulator.Reset); err != nil {
		return nil, err
	}
	return &emptypb.Empty{}, nil
}

// SaveSlot saves the machine state into a numbered slot.
func (s *GRPCServer) SaveSlot(ctx context.Context, in *wrapperspb.UInt32Value) (*emptypb.Empty, error) {
	n := int(in.GetValue())
	if err := s.do(ctx, func(e Emulator) error { return e.SaveSlot(n) }); err != nil {
		return nil, err
	}
	return &emptypb.Empty{}, nil
}

// LoadSlot restores the machine state from a numbered slot.
func (s *GRPCServer) LoadSlot(ctx context.Context, in *wrapperspb.UInt32Value) (*emptypb.Empty, error) {
	n := int(in.GetValue())
	if err := s.do(ctx, func(e Emulator) error { return e.LoadSlot(n) }); err != nil {
		return nil, err
	}
	return &emptypb.Empty{}, nil
}

// GetFrame returns the raw pixel data of the last completed frame.
func (s *GRPCServer) GetFrame(ctx context.Context, in *emptypb.Empty) (*wrapperspb.BytesValue, error) {
	if s.frames == nil {
		return nil, status.Error(codes.Unavailable, "no frame source")
	}
	return wrapperspb.Bytes(s.frames.Pixels()), nil
}

// PeekMemory reads a block of CPU address space without side effects.
func (s *GRPCServer) PeekMemory(ctx context.Context, in *wrapperspb.UInt32Value) (*wrapperspb.BytesValue, error) {
	addr, n := api.ParsePeek(in)
	data := make([]byte, n)
	err := s.do(ctx, func(e Emulator) error {
		for i := range data {
			data[i] = e.Peek(addr + uint16(i))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return wrapperspb.Bytes(data), nil
}

// Start begins listening for gRPC connections on the given port
func (s *GRPCServer) Start(port int) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	log.Printf("gRPC server listening on :%d", port)
	s.Serve(lis)
	return nil
}

// Serve accepts connections on lis in a background goroutine.
func (s *GRPCServer) Serve(lis net.Listener) {
	s.listener = lis
	s.server = grpc.NewServer()
	api.RegisterControllerServer(s.server, s)

	go func() {
		if err := s.server.Serve(lis); err != nil {
			log.Printf("gRPC server error: %v", err)
		}
	}()
}

// Stop gracefully shuts down the gRPC server
func (s *GRPCServer) Stop() {
	if s.server != nil {
		s.server.GracefulStop()
	}
}
