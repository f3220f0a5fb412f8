// Package api describes the remote controller service. Messages are
// protobuf well-known types, so no generated message code is needed; the
// service description below is what protoc-gen-go-grpc would emit for
//
//	service Controller {
//	  rpc StreamInput(stream google.protobuf.UInt32Value) returns (google.protobuf.Empty);
//	  rpc Pause(google.protobuf.Empty) returns (google.protobuf.Empty);
//	  rpc Resume(google.protobuf.Empty) returns (google.protobuf.Empty);
//	  rpc Reset(google.protobuf.Empty) returns (google.protobuf.Empty);
//	  rpc SaveSlot(google.protobuf.UInt32Value) returns (google.protobuf.Empty);
//	  rpc LoadSlot(google.protobuf.UInt32Value) returns (google.protobuf.Empty);
//	  rpc GetFrame(google.protobuf.Empty) returns (google.protobuf.BytesValue);
//	  rpc PeekMemory(google.protobuf.UInt32Value) returns (google.protobuf.BytesValue);
//	}
package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const ServiceName = "nesmachine.v1.Controller"

const (
	Controller_StreamInput_FullMethodName = "/" + ServiceName + "/StreamInput"
	Controller_Pause_FullMethodName       = "/" + ServiceName + "/Pause"
	Controller_Resume_FullMethodName      = "/" + ServiceName + "/Resume"
	Controller_Reset_FullMethodName       = "/" + ServiceName + "/Reset"
	Controller_SaveSlot_FullMethodName    = "/" + ServiceName + "/SaveSlot"
	Controller_LoadSlot_FullMethodName    = "/" + ServiceName + "/LoadSlot"
	Controller_GetFrame_FullMethodName    = "/" + ServiceName + "/GetFrame"
	Controller_PeekMemory_FullMethodName  = "/" + ServiceName + "/PeekMemory"
)

// ControllerClient is the client API for the Controller service.
type ControllerClient interface {
	StreamInput(ctx context.Context, opts ...grpc.CallOption) (grpc.ClientStreamingClient[wrapperspb.UInt32Value, emptypb.Empty], error)
	Pause(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*emptypb.Empty, error)
	Resume(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*emptypb.Empty, error)
	Reset(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*emptypb.Empty, error)
	SaveSlot(ctx context.Context, in *wrapperspb.UInt32Value, opts ...grpc.CallOption) (*emptypb.Empty, error)
	LoadSlot(ctx context.Context, in *wrapperspb.UInt32Value, opts ...grpc.CallOption) (*emptypb.Empty, error)
	GetFrame(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
	PeekMemory(ctx context.Context, in *wrapperspb.UInt32Value, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
}

type controllerClient struct {
	cc grpc.ClientConnInterface
}

func NewControllerClient(cc grpc.ClientConnInterface) ControllerClient {
	return &controllerClient{cc}
}

func (c *controllerClient) StreamInput(ctx context.Context, opts ...grpc.CallOption) (grpc.ClientStreamingClient[wrapperspb.UInt32Value, emptypb.Empty], error) {
	stream, err := c.cc.NewStream(ctx, &Controller_ServiceDesc.Streams[0], Controller_StreamInput_FullMethodName, opts...)
	if err != nil {
		return nil, err
	}
	return &grpc.GenericClientStream[wrapperspb.UInt32Value, emptypb.Empty]{ClientStream: stream}, nil
}

func (c *controllerClient) Pause(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, Controller_Pause_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *controllerClient) Resume(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, Controller_Resume_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *controllerClient) Reset(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, Controller_Reset_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *controllerClient) SaveSlot(ctx context.Context, in *wrapperspb.UInt32Value, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, Controller_SaveSlot_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *controllerClient) LoadSlot(ctx context.Context, in *wrapperspb.UInt32Value, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, Controller_LoadSlot_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *controllerClient) GetFrame(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, Controller_GetFrame_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *controllerClient) PeekMemory(ctx context.Context, in *wrapperspb.UInt32Value, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, Controller_PeekMemory_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// ControllerServer is the server API for the Controller service.
type ControllerServer interface {
	StreamInput(grpc.ClientStreamingServer[wrapperspb.UInt32Value, emptypb.Empty]) error
	Pause(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	Resume(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	Reset(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	SaveSlot(context.Context, *wrapperspb.UInt32Value) (*emptypb.Empty, error)
	LoadSlot(context.Context, *wrapperspb.UInt32Value) (*emptypb.Empty, error)
	GetFrame(context.Context, *emptypb.Empty) (*wrapperspb.BytesValue, error)
	PeekMemory(context.Context, *wrapperspb.UInt32Value) (*wrapperspb.BytesValue, error)
}

// UnimplementedControllerServer can be embedded to have forward compatible
// implementations.
type UnimplementedControllerServer struct{}

func (UnimplementedControllerServer) StreamInput(grpc.ClientStreamingServer[wrapperspb.UInt32Value, emptypb.Empty]) error {
	return status.Errorf(codes.Unimplemented, "method StreamInput not implemented")
}
func (UnimplementedControllerServer) Pause(context.Context, *emptypb.Empty) (*emptypb.Empty, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Pause not implemented")
}
func (UnimplementedControllerServer) Resume(context.Context, *emptypb.Empty) (*emptypb.Empty, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Resume not implemented")
}
func (UnimplementedControllerServer) Reset(context.Context, *emptypb.Empty) (*emptypb.Empty, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Reset not implemented")
}
func (UnimplementedControllerServer) SaveSlot(context.Context, *wrapperspb.UInt32Value) (*emptypb.Empty, error) {
	return nil, status.Errorf(codes.Unimplemented, "method SaveSlot not implemented")
}
func (UnimplementedControllerServer) LoadSlot(context.Context, *wrapperspb.UInt32Value) (*emptypb.Empty, error) {
	return nil, status.Errorf(codes.Unimplemented, "method LoadSlot not implemented")
}
func (UnimplementedControllerServer) GetFrame(context.Context, *emptypb.Empty) (*wrapperspb.BytesValue, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetFrame not implemented")
}
func (UnimplementedControllerServer) PeekMemory(context.Context, *wrapperspb.UInt32Value) (*wrapperspb.BytesValue, error) {
	return nil, status.Errorf(codes.Unimplemented, "method PeekMemory not implemented")
}

func RegisterControllerServer(s grpc.ServiceRegistrar, srv ControllerServer) {
	s.RegisterService(&Controller_ServiceDesc, srv)
}

func _Controller_StreamInput_Handler(srv any, stream grpc.ServerStream) error {
	return srv.(ControllerServer).StreamInput(&grpc.GenericServerStream[wrapperspb.UInt32Value, emptypb.Empty]{ServerStream: stream})
}

// unary adapts a typed unary method to a grpc.MethodDesc handler.
func unary[Req any, Res any](fullMethod string, call func(ControllerServer, context.Context, *Req) (*Res, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ControllerServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ControllerServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// Controller_ServiceDesc is the grpc.ServiceDesc for the Controller service.
var Controller_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ControllerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Pause", Handler: unary(Controller_Pause_FullMethodName, ControllerServer.Pause)},
		{MethodName: "Resume", Handler: unary(Controller_Resume_FullMethodName, ControllerServer.Resume)},
		{MethodName: "Reset", Handler: unary(Controller_Reset_FullMethodName, ControllerServer.Reset)},
		{MethodName: "SaveSlot", Handler: unary(Controller_SaveSlot_FullMethodName, ControllerServer.SaveSlot)},
		{MethodName: "LoadSlot", Handler: unary(Controller_LoadSlot_FullMethodName, ControllerServer.LoadSlot)},
		{MethodName: "GetFrame", Handler: unary(Controller_GetFrame_FullMethodName, ControllerServer.GetFrame)},
		{MethodName: "PeekMemory", Handler: unary(Controller_PeekMemory_FullMethodName, ControllerServer.PeekMemory)},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "StreamInput",
			Handler:       _Controller_StreamInput_Handler,
			ClientStreams: true,
		},
	},
	Metadata: "nesmachine/v1/controller.proto",
}
