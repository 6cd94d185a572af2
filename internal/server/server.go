// Package server runs the TCP game server: it accepts connections, reads
// framed requests on a goroutine per client and dispatches them to the
// session, auth and match layers.
package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"

	"github.com/pvidal/battlegrid/internal/dependencies/clock"
	"github.com/pvidal/battlegrid/internal/protocol"
	"github.com/pvidal/battlegrid/internal/services/auth"
	"github.com/pvidal/battlegrid/internal/services/match"
	"github.com/pvidal/battlegrid/internal/services/session"
	"github.com/pvidal/battlegrid/internal/storage"
)

// Server ties the accept loop to the service layers.
type Server struct {
	logger   *slog.Logger
	auth     *auth.Service
	sessions *session.Registry
	matches  *match.Registry
	store    storage.Store
	clock    clock.Clock

	ln net.Listener
}

// New creates a server. Call Listen then Serve.
func New(
	logger *slog.Logger,
	authService *auth.Service,
	sessions *session.Registry,
	matches *match.Registry,
	store storage.Store,
	clk clock.Clock,
) *Server {
	return &Server{
		logger:   logger,
		auth:     authService,
		sessions: sessions,
		matches:  matches,
		store:    store,
		clock:    clk,
	}
}

// Listen binds the TCP listener. Split from Serve so callers (and tests)
// can learn the bound address before serving.
func (s *Server) Listen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.ln = ln
	s.logger.Info("listening", slog.String("addr", ln.Addr().String()))
	return nil
}

// Addr returns the listener address. Valid after Listen.
func (s *Server) Addr() net.Addr {
	return s.ln.Addr()
}

// Serve accepts connections until ctx is cancelled. Each connection gets
// its own goroutine; Serve returns once the listener is closed.
func (s *Server) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		_ = s.ln.Close()
	}()

	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		sess := s.sessions.Register(conn)
		go s.serveConn(ctx, sess)
	}
}

// serveConn is the per-connection read loop. It exits when the client
// disconnects or sends a broken frame, tearing down the session and
// abandoning any active match on the way out.
func (s *Server) serveConn(ctx context.Context, sess *session.Session) {
	defer s.teardown(sess)

	for {
		req, err := protocol.ReadRequest(sess.Conn())
		if err != nil {
			var unknown *protocol.UnknownTypeError
			if errors.As(err, &unknown) {
				// Frame was consumed; the stream is still in sync.
				s.logger.Warn("unknown request type",
					slog.String("addr", sess.RemoteAddr()),
					slog.Int("type", int(unknown.Type)),
				)
				continue
			}
			if !errors.Is(err, io.EOF) {
				s.logger.Debug("read failed",
					slog.String("addr", sess.RemoteAddr()),
					slog.String("error", err.Error()),
				)
			}
			return
		}
		s.handle(ctx, sess, req)
	}
}

// teardown runs once per connection. The opponent of an abandoned match
// keeps their match reference; their next gameplay request observes the
// closed state and reports the abandonment.
func (s *Server) teardown(sess *session.Session) {
	s.abandonMatch(sess)
	s.sessions.Unregister(sess)
}

// abandonMatch closes the session's active match, if any, and notifies the
// opponent best effort so a client blocked on a read does not hang.
func (s *Server) abandonMatch(sess *session.Session) {
	m := sess.Match()
	if m == nil {
		return
	}
	opponent, _ := m.Other(sess).(*session.Session)
	s.matches.Close(m)
	sess.ClearMatch()
	if opponent != nil {
		_ = opponent.Send(&protocol.GameAbandonedNotice{})
		s.logger.Info("match abandoned",
			slog.Uint64("match_id", uint64(m.ID())),
			slog.String("by", sess.RemoteAddr()),
		)
	}
}
