// Package grpcapi serves the casino over gRPC. Messages are
// google.protobuf.Struct documents carrying the same JSON shapes as the HTTP
// API, so the service needs no generated stubs.
package grpcapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/cory-johannsen/starcase/internal/game/event"
	"github.com/cory-johannsen/starcase/internal/game/gameerr"
	"github.com/cory-johannsen/starcase/internal/game/session"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "starcase.v1.Casino"

// Casino is the part of session.Manager the service drives.
type Casino interface {
	Apply(ctx context.Context, player string, in session.Intent) (session.Reply, error)
	View(ctx context.Context, player string) (session.View, error)
}

// CasinoServer is the server API of starcase.v1.Casino.
type CasinoServer interface {
	// Apply takes {"player": id, "intent": {...}} and returns the reply.
	Apply(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	// Profile takes {"player": id} and returns the profile view.
	Profile(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	// Events takes {"player": id} and streams the player's events.
	Events(req *structpb.Struct, stream grpc.ServerStream) error
}

// Register adds srv to s under ServiceName.
func Register(s grpc.ServiceRegistrar, srv CasinoServer) {
	s.RegisterService(&serviceDesc, srv)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CasinoServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Apply", Handler: unary(CasinoServer.Apply, "Apply")},
		{MethodName: "Profile", Handler: unary(CasinoServer.Profile, "Profile")},
	},
	Streams: []grpc.StreamDesc{{
		StreamName:    "Events",
		ServerStreams: true,
		Handler: func(srv any, stream grpc.ServerStream) error {
			req := new(structpb.Struct)
			if err := stream.RecvMsg(req); err != nil {
				return err
			}
			return srv.(CasinoServer).Events(req, stream)
		},
	}},
	Metadata: "starcase/v1/casino.proto",
}

type unaryFunc func(CasinoServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(fn unaryFunc, method string) grpc.MethodHandler {
	fullMethod := "/" + ServiceName + "/" + method
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		req := new(structpb.Struct)
		if err := dec(req); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return fn(srv.(CasinoServer), ctx, req)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		return interceptor(ctx, req, info, func(ctx context.Context, req any) (any, error) {
			return fn(srv.(CasinoServer), ctx, req.(*structpb.Struct))
		})
	}
}

// Server implements CasinoServer on top of a Casino and the event bus.
type Server struct {
	casino Casino
	bus    *event.Bus
	logger *zap.Logger
}

// NewServer creates a Server.
//
// Precondition: casino, bus and logger must be non-nil.
func NewServer(casino Casino, bus *event.Bus, logger *zap.Logger) *Server {
	return &Server{casino: casino, bus: bus, logger: logger}
}

type applyRequest struct {
	Player string         `json:"player"`
	Intent session.Intent `json:"intent"`
}

// Apply dispatches one intent.
func (s *Server) Apply(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in applyRequest
	if err := decode(req, &in); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "decoding request: %v", err)
	}
	reply, err := s.casino.Apply(ctx, in.Player, in.Intent)
	if err != nil && reply.Kind == "" {
		return nil, toStatus(err)
	}
	if err != nil {
		s.logger.Error("intent applied without save", zap.String("player", in.Player), zap.Error(err))
	}
	return encode(reply)
}

type playerRequest struct {
	Player string `json:"player"`
}

// Profile returns the player's view.
func (s *Server) Profile(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in playerRequest
	if err := decode(req, &in); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "decoding request: %v", err)
	}
	view, err := s.casino.View(ctx, in.Player)
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(view)
}

// Events streams the player's events until the client cancels.
func (s *Server) Events(req *structpb.Struct, stream grpc.ServerStream) error {
	var in playerRequest
	if err := decode(req, &in); err != nil {
		return status.Errorf(codes.InvalidArgument, "decoding request: %v", err)
	}
	ctx := stream.Context()
	if _, err := s.casino.View(ctx, in.Player); err != nil {
		return toStatus(err)
	}
	sub := s.bus.Subscribe(in.Player)
	defer s.bus.Unsubscribe(sub)

	// An empty document marks the subscription as live.
	if err := stream.SendMsg(&structpb.Struct{}); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-sub.Events():
			if !ok {
				return nil
			}
			msg, err := encode(ev)
			if err != nil {
				s.logger.Error("encoding event", zap.String("kind", string(ev.Kind)), zap.Error(err))
				continue
			}
			if err := stream.SendMsg(msg); err != nil {
				return err
			}
		}
	}
}

// toStatus maps the error taxonomy onto gRPC codes.
func toStatus(err error) error {
	switch {
	case errors.Is(err, gameerr.ErrUnknownItem), errors.Is(err, gameerr.ErrUnknownTier):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, gameerr.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, gameerr.ErrConcurrentRound):
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

func encode(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encoding response: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, status.Errorf(codes.Internal, "encoding response: %v", err)
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encoding response: %v", err)
	}
	return out, nil
}

func decode(s *structpb.Struct, v any) error {
	data, err := s.MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshalling struct: %w", err)
	}
	return json.Unmarshal(data, v)
}
