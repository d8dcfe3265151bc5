package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"sync"
	"time"

	"github.com/fenggwsx/StudyShelf/internal/config"
	"github.com/fenggwsx/StudyShelf/internal/portal"
	"github.com/fenggwsx/StudyShelf/internal/protocol"
)

// App coordinates network listeners, connection lifecycle, and command routing
// against the single portal state provider.
type App struct {
	cfg       config.ServerConfig
	provider  *portal.Provider
	hub       *Hub
	listener  net.Listener
	closeOnce sync.Once
}

// NewApp constructs a server instance using the provided dependencies.
func NewApp(cfg config.ServerConfig, provider *portal.Provider) *App {
	return &App{
		cfg:      cfg,
		provider: provider,
		hub:      NewHub(),
	}
}

// Run starts accepting connections until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", a.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return a.Serve(ctx, listener)
}

// Serve accepts connections on listener until the context is canceled.
func (a *App) Serve(ctx context.Context, listener net.Listener) error {
	a.listener = listener
	log.Printf("listening addr=%s", listener.Addr())

	errCh := make(chan error, 1)

	go func() {
		<-ctx.Done()
		a.closeOnce.Do(func() {
			_ = a.listener.Close()
		})
	}()

	go func() {
		for {
			conn, err := a.listener.Accept()
			if err != nil {
				if errors.Is(err, net.ErrClosed) {
					errCh <- nil
					return
				}
				errCh <- err
				return
			}
			go a.handleConnection(ctx, conn)
		}
	}()

	return <-errCh
}

func (a *App) handleConnection(parentCtx context.Context, conn net.Conn) {
	defer conn.Close()

	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	session := newClientSession(conn)
	a.hub.Register(session.id, session.sendCh)
	defer a.hub.Unregister(session.id)
	log.Printf("connection open session=%s remote=%s", session.id, session.remoteAddr())

	encoder := protocol.NewEncoder(conn)
	go func() {
		if err := session.writeLoop(ctx, encoder, a.cfg.WriteTimeout); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("write loop session=%s err=%v", session.id, err)
		}
		cancel()
	}()

	decoder := protocol.NewDecoder(conn, a.cfg.MaxFrameBytes)
	for {
		if a.cfg.ReadTimeout > 0 {
			if err := conn.SetReadDeadline(time.Now().Add(a.cfg.ReadTimeout)); err != nil {
				log.Printf("set read deadline: %v", err)
				return
			}
		}
		env, err := decoder.Decode(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				log.Printf("connection closed session=%s remote=%s", session.id, session.remoteAddr())
				return
			}
			log.Printf("decode session=%s err=%v", session.id, err)
			return
		}

		a.dispatch(ctx, session, env)
	}
}

// dispatch routes one inbound envelope. Envelopes from a connection are
// handled in arrival order.
func (a *App) dispatch(ctx context.Context, session *clientSession, env protocol.Envelope) {
	var err error
	switch env.Type {
	case protocol.MessageTypeAuthRequest:
		err = a.handleAuth(ctx, session, env)
	case protocol.MessageTypeCommand:
		err = a.handleCommand(ctx, session, env)
	default:
		a.sendAck(ctx, session, env.ID, protocol.AckStatusError, "unsupported message type")
	}
	if err != nil {
		log.Printf("dispatch type=%s action=%s session=%s err=%v", env.Type, env.Action(), session.id, err)
	}
}
