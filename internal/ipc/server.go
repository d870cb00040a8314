package ipc

import (
	"context"
	"fmt"
	"net"

	"google.golang.org/grpc"

	"github.com/HEM-RnD/fsct-host-sub000/internal/driver"
	"github.com/HEM-RnD/fsct-host-sub000/internal/fsctcore"
	"github.com/HEM-RnD/fsct-host-sub000/internal/ipc/jsoncodec"
	"github.com/HEM-RnD/fsct-host-sub000/internal/playermanager"
)

// Server implements Service over a *driver.Driver, translating wire structs
// to and from the Player Manager's domain types.
type Server struct {
	driver *driver.Driver
}

// NewServer wraps d for RPC dispatch.
func NewServer(d *driver.Driver) *Server {
	return &Server{driver: d}
}

func (s *Server) GetProtocolVersion(_ context.Context, _ *GetProtocolVersionRequest) (*GetProtocolVersionResponse, error) {
	return &GetProtocolVersionResponse{Version: ProtocolVersion}, nil
}

func (s *Server) RegisterPlayer(_ context.Context, req *RegisterPlayerRequest) (*RegisterPlayerResponse, error) {
	id := s.driver.RegisterPlayer(req.SelfID)
	return &RegisterPlayerResponse{PlayerID: uint32(id)}, nil
}

func (s *Server) UnregisterPlayer(_ context.Context, req *UnregisterPlayerRequest) (*UnregisterPlayerResponse, error) {
	if err := s.driver.UnregisterPlayer(playermanager.PlayerID(req.PlayerID)); err != nil {
		return nil, err
	}
	return &UnregisterPlayerResponse{}, nil
}

func (s *Server) UpdatePlayerState(_ context.Context, req *PlayerStateUpdate) (*UpdatePlayerStateResponse, error) {
	id := playermanager.PlayerID(req.PlayerID)
	if err := s.driver.UpdatePlayerStatus(id, fsctcore.FsctStatus(req.Status)); err != nil {
		return nil, err
	}
	texts := fsctcore.TrackMetadata{
		Title:  req.Title,
		Author: req.Author,
		Album:  req.Album,
		Genre:  req.Genre,
	}
	if err := s.driver.UpdatePlayerMetadata(id, texts); err != nil {
		return nil, err
	}
	return &UpdatePlayerStateResponse{}, nil
}

func (s *Server) SetPreferredPlayer(_ context.Context, req *SetPreferredPlayerRequest) (*SetPreferredPlayerResponse, error) {
	if req.PlayerID == nil {
		s.driver.SetPreferredPlayer(nil)
		return &SetPreferredPlayerResponse{}, nil
	}
	id := playermanager.PlayerID(*req.PlayerID)
	s.driver.SetPreferredPlayer(&id)
	return &SetPreferredPlayerResponse{}, nil
}

// StreamPlayerEvents forwards every event on the Driver's player broadcast
// until the client disconnects or the stream's context is cancelled.
func (s *Server) StreamPlayerEvents(_ *StreamPlayerEventsRequest, stream PlayerEventsServer) error {
	sub := s.driver.SubscribePlayerEvents()
	defer sub.Unsubscribe()

	for {
		select {
		case <-stream.Context().Done():
			return stream.Context().Err()
		case ev, ok := <-sub.C:
			if !ok {
				return nil
			}
			if err := stream.Send(&PlayerEventMessage{
				Kind:     playerEventKindName(ev.Kind),
				PlayerID: uint32(ev.Player),
			}); err != nil {
				return err
			}
		}
	}
}

func playerEventKindName(kind playermanager.PlayerEventKind) string {
	switch kind {
	case playermanager.EventRegistered:
		return "registered"
	case playermanager.EventUnregistered:
		return "unregistered"
	case playermanager.EventAssigned:
		return "assigned"
	case playermanager.EventUnassigned:
		return "unassigned"
	case playermanager.EventStateUpdated:
		return "state_updated"
	case playermanager.EventPreferredChanged:
		return "preferred_changed"
	default:
		return "unknown"
	}
}

// Listen starts a grpc.Server on a TCP listener bound to addr, forced onto
// jsoncodec so no protoc-generated message types are needed, serving the
// ServiceDesc over d. It runs Serve in its own goroutine and returns at
// once; the caller stops it via the returned *grpc.Server's GracefulStop.
func Listen(addr string, d *driver.Driver) (*grpc.Server, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("ipc: listen %s: %w", addr, err)
	}
	srv := grpc.NewServer(grpc.ForceServerCodec(jsoncodec.Codec{}))
	srv.RegisterService(&ServiceDesc, NewServer(d))
	go func() {
		_ = srv.Serve(lis)
	}()
	return srv, nil
}
