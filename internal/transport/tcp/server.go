// Package tcp serves the binary protocol over plain TCP: a raw record
// stream in each direction, no framing beyond the records themselves.
package tcp

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"time"

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
}

func NewServer(mgr *regions.Manager, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{mgr: mgr, log: log}
}

// Serve accepts until the listener closes or ctx ends. Each connection
// gets a session, a reader loop on this goroutine's child, and a writer
// goroutine.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		go s.handle(ctx, conn)
	}
}

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
	}

	sess := transport.NewSession(s.mgr, s.log)
	br := bufio.NewReaderSize(conn, 64*1024)
	r := protocol.NewReader(br)

	_ = conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	ev, err := protocol.Decode(r, protocol.ClientEvents)
	if err != nil {
		return
	}
	if err := sess.Handshake(ev); err != nil {
		s.log.Debug("handshake rejected", zap.Error(err))
		return
	}
	defer sess.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.writeLoop(ctx, cancel, conn, sess)

	for {
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		ev, err := protocol.Decode(r, protocol.ClientEvents)
		if err != nil {
			if err != io.EOF && ctx.Err() == nil {
				s.log.Debug("read failed", zap.String("player", sess.Name), zap.Error(err))
			}
			cancel()
			return
		}
		if err := sess.HandleEvent(ev); err != nil {
			s.log.Warn("session error", zap.String("player", sess.Name), zap.Error(err))
			cancel()
			return
		}
	}
}

// writeLoop drains the session outbox onto the wire and keeps the peer
// alive with acks when the world has nothing to say.
func (s *Server) writeLoop(ctx context.Context, cancel context.CancelFunc, conn net.Conn, sess *transport.Session) {
	var ackBuf protocol.Writer
	protocol.Encode(&ackBuf, protocol.Ack{})
	ack := ackBuf.Bytes()

	ticker := time.NewTicker(keepaliveEvery)
	defer ticker.Stop()

	write := func(b []byte) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if _, err := conn.Write(b); err != nil {
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
