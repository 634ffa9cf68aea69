// Package ws serves the binary protocol over websockets: one binary
// message per outbound batch, inbound messages holding one or more
// records.
package ws

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"islebound.gg/internal/protocol"
	"islebound.gg/internal/sim/regions"
	"islebound.gg/internal/transport"
)

const (
	handshakeTimeout = 5 * time.Second
	readTimeout      = 60 * time.Second
	writeTimeout     = 5 * time.Second
	keepaliveEvery   = 15 * time.Second
)

type Server struct {
	mgr *regions.Manager
	log *zap.Logger

	upgrader websocket.Upgrader
}

func NewServer(mgr *regions.Manager, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		mgr: mgr,
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		s.handle(r.Context(), conn)
	}
}

func (s *Server) handle(ctx context.Context, conn *websocket.Conn) {
	sess := transport.NewSession(s.mgr, s.log)

	_ = conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	evs, err := readRecords(conn)
	if err != nil || len(evs) == 0 {
		return
	}
	if err := sess.Handshake(evs[0]); err != nil {
		closeWith(conn, websocket.ClosePolicyViolation, err.Error())
		return
	}
	defer sess.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.writeLoop(ctx, cancel, conn, sess)

	// Records that rode in the same message as the hello still count.
	for _, ev := range evs[1:] {
		if err := sess.HandleEvent(ev); err != nil {
			return
		}
	}
	for {
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		evs, err := readRecords(conn)
		if err != nil {
			cancel()
			return
		}
		for _, ev := range evs {
			if err := sess.HandleEvent(ev); err != nil {
				s.log.Warn("session error", zap.String("player", sess.Name), zap.Error(err))
				cancel()
				return
			}
		}
	}
}

func (s *Server) writeLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, sess *transport.Session) {
	var ackBuf protocol.Writer
	protocol.Encode(&ackBuf, protocol.Ack{})
	ack := ackBuf.Bytes()

	ticker := time.NewTicker(keepaliveEvery)
	defer ticker.Stop()

	write := func(b []byte) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.BinaryMessage, b); err != nil {
			cancel()
			return false
		}
		return true
	}
	for {
		select {
		case <-ctx.Done():
			return
		case b := <-sess.Send:
			if !write(b) {
				return
			}
		case <-ticker.C:
			if !write(ack) {
				return
			}
		}
	}
}

// readRecords decodes every record in the next binary message.
func readRecords(conn *websocket.Conn) ([]protocol.Event, error) {
	t, msg, err := conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	if t != websocket.BinaryMessage {
		return nil, nil
	}
	r := protocol.NewReader(bytes.NewReader(msg))
	var evs []protocol.Event
	for {
		ev, err := protocol.Decode(r, protocol.ClientEvents)
		if err == io.EOF {
			return evs, nil
		}
		if err != nil {
			return nil, err
		}
		evs = append(evs, ev)
	}
}

func closeWith(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
}
