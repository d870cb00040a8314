// Package ipc implements the optional IPC surface mentioned in spec.md
// §4.11: a minimal RPC server wrapping the Driver Façade. It runs on real
// google.golang.org/grpc machinery with a hand-registered ServiceDesc
// (the same shape protoc-gen-go-grpc would emit) instead of protoc-generated
// message types, using jsoncodec so payloads are plain JSON-tagged structs.
package ipc

import (
	"context"

	"google.golang.org/grpc"

	_ "github.com/HEM-RnD/fsct-host-sub000/internal/ipc/jsoncodec" // registers the "json" grpc codec
)

// ProtocolVersion is the fixed version string GetProtocolVersion reports.
const ProtocolVersion = "1.0"

// GetProtocolVersionRequest carries no fields; defined as a struct (rather
// than passing nil) so the codec always has a concrete type to decode into.
type GetProtocolVersionRequest struct{}

type GetProtocolVersionResponse struct {
	Version string `json:"version"`
}

type RegisterPlayerRequest struct {
	SelfID string `json:"self_id"`
}

type RegisterPlayerResponse struct {
	PlayerID uint32 `json:"player_id"`
}

type UnregisterPlayerRequest struct {
	PlayerID uint32 `json:"player_id"`
}

type UnregisterPlayerResponse struct{}

type PlayerStateUpdate struct {
	PlayerID uint32  `json:"player_id"`
	Status   uint8   `json:"status"`
	Title    *string `json:"title,omitempty"`
	Author   *string `json:"author,omitempty"`
	Album    *string `json:"album,omitempty"`
	Genre    *string `json:"genre,omitempty"`
}

type UpdatePlayerStateResponse struct{}

type SetPreferredPlayerRequest struct {
	PlayerID *uint32 `json:"player_id,omitempty"`
}

type SetPreferredPlayerResponse struct{}

// PlayerEventMessage is what StreamPlayerEvents sends for every PlayerEvent
// the Driver's broadcast publishes.
type PlayerEventMessage struct {
	Kind     string `json:"kind"`
	PlayerID uint32 `json:"player_id"`
}

type StreamPlayerEventsRequest struct{}

// Service is the method surface the IPC server dispatches to; Server (in
// server.go) implements it over a *driver.Driver.
type Service interface {
	GetProtocolVersion(ctx context.Context, req *GetProtocolVersionRequest) (*GetProtocolVersionResponse, error)
	RegisterPlayer(ctx context.Context, req *RegisterPlayerRequest) (*RegisterPlayerResponse, error)
	UnregisterPlayer(ctx context.Context, req *UnregisterPlayerRequest) (*UnregisterPlayerResponse, error)
	UpdatePlayerState(ctx context.Context, req *PlayerStateUpdate) (*UpdatePlayerStateResponse, error)
	SetPreferredPlayer(ctx context.Context, req *SetPreferredPlayerRequest) (*SetPreferredPlayerResponse, error)
	StreamPlayerEvents(req *StreamPlayerEventsRequest, stream PlayerEventsServer) error
}

// PlayerEventsServer is the narrow server-streaming interface
// StreamPlayerEvents sends on; grpc.ServerStream satisfies it once a real
// stream is handed in by the generated-shaped handler below.
type PlayerEventsServer interface {
	Send(*PlayerEventMessage) error
	Context() context.Context
}

type playerEventsServer struct {
	grpc.ServerStream
}

func (s *playerEventsServer) Send(m *PlayerEventMessage) error {
	return s.ServerStream.SendMsg(m)
}

// ServiceDesc mirrors what protoc-gen-go-grpc would generate for a
// "fsct.Driver" service with these six methods.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: "fsct.Driver",
	HandlerType: (*Service)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetProtocolVersion", Handler: getProtocolVersionHandler},
		{MethodName: "RegisterPlayer", Handler: registerPlayerHandler},
		{MethodName: "UnregisterPlayer", Handler: unregisterPlayerHandler},
		{MethodName: "UpdatePlayerState", Handler: updatePlayerStateHandler},
		{MethodName: "SetPreferredPlayer", Handler: setPreferredPlayerHandler},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "StreamPlayerEvents",
			Handler:       streamPlayerEventsHandler,
			ServerStreams: true,
		},
	},
	Metadata: "fsct_driver.proto",
}

func getProtocolVersionHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetProtocolVersionRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Service).GetProtocolVersion(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/fsct.Driver/GetProtocolVersion"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(Service).GetProtocolVersion(ctx, req.(*GetProtocolVersionRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func registerPlayerHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(RegisterPlayerRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Service).RegisterPlayer(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/fsct.Driver/RegisterPlayer"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(Service).RegisterPlayer(ctx, req.(*RegisterPlayerRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func unregisterPlayerHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(UnregisterPlayerRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Service).UnregisterPlayer(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/fsct.Driver/UnregisterPlayer"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(Service).UnregisterPlayer(ctx, req.(*UnregisterPlayerRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func updatePlayerStateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(PlayerStateUpdate)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Service).UpdatePlayerState(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/fsct.Driver/UpdatePlayerState"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(Service).UpdatePlayerState(ctx, req.(*PlayerStateUpdate))
	}
	return interceptor(ctx, in, info, handler)
}

func setPreferredPlayerHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(SetPreferredPlayerRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Service).SetPreferredPlayer(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/fsct.Driver/SetPreferredPlayer"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(Service).SetPreferredPlayer(ctx, req.(*SetPreferredPlayerRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func streamPlayerEventsHandler(srv any, stream grpc.ServerStream) error {
	req := new(StreamPlayerEventsRequest)
	if err := stream.RecvMsg(req); err != nil {
		return err
	}
	return srv.(Service).StreamPlayerEvents(req, &playerEventsServer{ServerStream: stream})
}
