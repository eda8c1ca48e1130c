package grpcapi

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/cory-johannsen/starcase/internal/game/event"
	"github.com/cory-johannsen/starcase/internal/game/session"
)

// Client calls starcase.v1.Casino over an established connection.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Apply sends one intent for player.
func (c *Client) Apply(ctx context.Context, player string, in session.Intent) (session.Reply, error) {
	req, err := encode(applyRequest{Player: player, Intent: in})
	if err != nil {
		return session.Reply{}, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/Apply", req, out); err != nil {
		return session.Reply{}, err
	}
	var reply session.Reply
	if err := decode(out, &reply); err != nil {
		return session.Reply{}, fmt.Errorf("decoding reply: %w", err)
	}
	return reply, nil
}

// Profile returns the player's view as a raw document.
func (c *Client) Profile(ctx context.Context, player string) (map[string]any, error) {
	req, err := encode(playerRequest{Player: player})
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/Profile", req, out); err != nil {
		return nil, err
	}
	return out.AsMap(), nil
}

// EventStream receives a player's events.
type EventStream struct {
	stream grpc.ClientStream
}

// Recv blocks for the next event.
func (s *EventStream) Recv() (event.Event, error) {
	msg := new(structpb.Struct)
	if err := s.stream.RecvMsg(msg); err != nil {
		return event.Event{}, err
	}
	data, err := msg.MarshalJSON()
	if err != nil {
		return event.Event{}, err
	}
	var ev event.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return event.Event{}, fmt.Errorf("decoding event: %w", err)
	}
	return ev, nil
}

// Events opens the player's event stream. It returns once the server has
// registered the subscription.
func (c *Client) Events(ctx context.Context, player string) (*EventStream, error) {
	desc := &grpc.StreamDesc{StreamName: "Events", ServerStreams: true}
	stream, err := c.cc.NewStream(ctx, desc, "/"+ServiceName+"/Events")
	if err != nil {
		return nil, err
	}
	req, err := encode(playerRequest{Player: player})
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(req); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	if err := stream.RecvMsg(new(structpb.Struct)); err != nil {
		return nil, err
	}
	return &EventStream{stream: stream}, nil
}
