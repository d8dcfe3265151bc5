package client

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fenggwsx/StudyShelf/internal/config"
	"github.com/fenggwsx/StudyShelf/internal/protocol"
)

const maxInboundFrameBytes = 8 << 20

var errNotConnected = errors.New("not connected")

// Session manages client-side socket interactions with the portal server.
type Session struct {
	cfg      config.ClientConfig
	conn     net.Conn
	encoder  *protocol.Encoder
	decoder  *protocol.Decoder
	messages chan protocol.Envelope
	writeMu  sync.Mutex
	cancelFn context.CancelFunc
}

// NewSession initializes a session with configuration.
func NewSession(cfg config.ClientConfig) *Session {
	return &Session{
		cfg:      cfg,
		messages: make(chan protocol.Envelope, 32),
	}
}

// Connect dials the server and prepares framed JSON encoders/decoders.
func (s *Session) Connect(ctx context.Context) error {
	if s.cfg.ServerAddr == "" {
		return errNotConnected
	}
	dialer := &net.Dialer{Timeout: 5 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", s.cfg.ServerAddr)
	if err != nil {
		return err
	}
	s.conn = conn
	s.encoder = protocol.NewEncoder(conn)
	s.decoder = protocol.NewDecoder(conn, maxInboundFrameBytes)
	readCtx, cancel := context.WithCancel(context.Background())
	s.cancelFn = cancel
	go s.readLoop(readCtx)
	return nil
}

// Messages returns the channel of inbound envelopes. It is closed when the
// connection ends.
func (s *Session) Messages() <-chan protocol.Envelope {
	return s.messages
}

// Close terminates the session.
func (s *Session) Close() error {
	if s.cancelFn != nil {
		s.cancelFn()
	}
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// Send dispatches an envelope to the server.
func (s *Session) Send(ctx context.Context, env protocol.Envelope) error {
	if s.encoder == nil {
		return errNotConnected
	}
	if env.ID == "" {
		env.ID = uuid.NewString()
	}
	if env.Timestamp.IsZero() {
		env.Timestamp = time.Now()
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.encoder.Encode(ctx, env)
}

func (s *Session) readLoop(ctx context.Context) {
	defer close(s.messages)
	for {
		if ctx.Err() != nil {
			return
		}
		env, err := s.decoder.Decode(ctx)
		if err != nil {
			return
		}
		select {
		case s.messages <- env:
		case <-ctx.Done():
			return
		}
	}
}
