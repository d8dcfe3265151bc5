package server

import (
	"context"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/fenggwsx/StudyShelf/internal/protocol"
)

// clientSession tracks per-connection state and outbound delivery.
type clientSession struct {
	id     string
	conn   net.Conn
	sendCh chan protocol.Envelope
}

func newClientSession(conn net.Conn) *clientSession {
	return &clientSession{
		id:     uuid.NewString(),
		conn:   conn,
		sendCh: make(chan protocol.Envelope, 64),
	}
}

func (s *clientSession) send(ctx context.Context, env protocol.Envelope) error {
	select {
	case s.sendCh <- env:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *clientSession) writeLoop(ctx context.Context, encoder *protocol.Encoder, writeTimeout time.Duration) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case env := <-s.sendCh:
			if s.conn != nil && writeTimeout > 0 {
				if err := s.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
					return err
				}
			}
			if err := encoder.Encode(ctx, env); err != nil {
				return err
			}
		}
	}
}

func (s *clientSession) remoteAddr() string {
	if s.conn == nil {
		return ""
	}
	if addr := s.conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}
