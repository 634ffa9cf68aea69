// Package transport holds the session logic shared by the tcp and ws
// listeners: handshake, command routing, and the travel re-bind. The
// listeners own framing and liveness; the session owns which world the
// connection speaks to.
package transport

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"islebound.gg/internal/protocol"
	"islebound.gg/internal/sim/regions"
)

const (
	// OutboxDepth bounds the per-connection batch queue. The world drops
	// batches past this; the read deadline eventually reaps the peer.
	OutboxDepth = 64
)

var (
	ErrBadHandshake = errors.New("expected hello")
	ErrBadVersion   = errors.New("protocol version mismatch")
	ErrNoName       = errors.New("empty character name")
)

// Session is one authenticated connection bound to one region world.
// Rebinding on travel swaps Region and PlayerID; the Send channel and
// session id live as long as the connection.
type Session struct {
	ID   uuid.UUID
	Name string

	Region   string
	PlayerID uint32

	Send chan []byte

	mgr *regions.Manager
	log *zap.Logger
}

func NewSession(mgr *regions.Manager, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	id := uuid.New()
	return &Session{
		ID:   id,
		Send: make(chan []byte, OutboxDepth),
		mgr:  mgr,
		log:  log.With(zap.String("session", id.String())),
	}
}

// Handshake consumes the hello record and joins the character's world.
// The join replay (welcome, actor snapshot, private state) arrives on
// Send as the first batch.
func (s *Session) Handshake(ev protocol.Event) error {
	hello, ok := ev.(*protocol.Hello)
	if !ok {
		return ErrBadHandshake
	}
	if hello.Version != protocol.Version {
		return fmt.Errorf("%w: got %d, want %d", ErrBadVersion, hello.Version, protocol.Version)
	}
	if hello.Name == "" {
		return ErrNoName
	}
	region, id, err := s.mgr.Join(hello.Name, s.Send)
	if err != nil {
		return err
	}
	s.Name = hello.Name
	s.Region = region
	s.PlayerID = id
	s.log.Info("session joined",
		zap.String("player", s.Name), zap.String("region", region), zap.Uint32("id", id))
	return nil
}

// HandleEvent routes one decoded client record. Keepalives are absorbed
// here; the region-ready record re-binds the session to the world the
// character was persisted into; everything else queues for the bound
// world's next tick.
func (s *Session) HandleEvent(ev protocol.Event) error {
	switch e := ev.(type) {
	case protocol.Ack:
		return nil
	case *protocol.Hello:
		// A second hello on a live session is a client bug.
		return ErrBadHandshake
	case *protocol.RegionReady:
		return s.rebind(e.Region)
	default:
		s.mgr.Command(s.Region, s.PlayerID, ev)
		return nil
	}
}

// rebind completes a cross-region travel: detach from the origin world
// and join the one the character now belongs to. The origin already
// persisted the character at the destination post.
func (s *Session) rebind(want string) error {
	s.mgr.Leave(s.Region, s.PlayerID)
	region, id, err := s.mgr.Join(s.Name, s.Send)
	if err != nil {
		return fmt.Errorf("rebind %q: %w", s.Name, err)
	}
	if want != "" && want != region {
		s.log.Warn("client loaded a different region than persisted",
			zap.String("player", s.Name), zap.String("client", want), zap.String("server", region))
	}
	s.Region = region
	s.PlayerID = id
	s.log.Info("session rebound", zap.String("player", s.Name), zap.String("region", region))
	return nil
}

// Close detaches the session from its world. Safe before handshake.
func (s *Session) Close() {
	if s.PlayerID == 0 {
		return
	}
	s.mgr.Leave(s.Region, s.PlayerID)
	s.log.Info("session closed", zap.String("player", s.Name))
}
