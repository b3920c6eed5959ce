// Package websocket serves the binary frames over WebSocket. A message may
// carry any number of whole or partial frames; each response is sent as one
// binary message.
package websocket

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zeusync/killzone/internal/core/observability/log"
	"github.com/zeusync/killzone/internal/core/protocol"
)

const (
	transportName = "websocket"

	DefaultPath         = "/ws"
	maxMessageSize      = 4096
	defaultWriteTimeout = 5 * time.Second
	shutdownTimeout     = 5 * time.Second
)

type Server struct {
	addr     string
	path     string
	handler  *protocol.Handler
	logger   log.Log
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*Connection]struct{}
	wg    sync.WaitGroup

	listener net.Listener
}

func NewServer(addr, path string, handler *protocol.Handler, logger log.Log) *Server {
	if path == "" {
		path = DefaultPath
	}
	return &Server{
		addr:    addr,
		path:    path,
		handler: handler,
		logger:  logger.With(log.String("component", "websocket")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		conns: make(map[*Connection]struct{}),
	}
}

func (s *Server) Name() string { return transportName }
func (s *Server) Path() string { return s.path }

// ServeHTTP upgrades the request and runs a session on it until the peer
// goes away.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", log.String("remote_addr", r.RemoteAddr), log.Error(err))
		return
	}
	ws.SetReadLimit(maxMessageSize)

	conn := NewConnection(ws, defaultWriteTimeout)
	s.track(conn)
	s.wg.Add(1)
	defer func() {
		_ = conn.Close()
		s.untrack(conn)
		s.wg.Done()
	}()

	s.serve(conn)
}

func (s *Server) serve(conn *Connection) {
	sess := protocol.NewSession(transportName, conn.RemoteAddr())
	s.handler.Open(sess)
	defer s.handler.Close(sess)

	dec := protocol.NewDecoder()
	for {
		data, err := conn.Receive()
		if err != nil {
			if errors.Is(err, errUnsupportedMessage) {
				continue
			}
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && !conn.IsClosed() {
				s.logger.Debug("WebSocket read failed", log.String("session_id", sess.ID()), log.Error(err))
			}
			return
		}

		dec.Feed(data)
		if err = s.handler.Drain(sess, dec, conn); err != nil {
			s.logger.Debug("WebSocket write failed", log.String("session_id", sess.ID()), log.Error(err))
			return
		}
	}
}

// Listen binds the configured address.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.listener = ln
	return nil
}

func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// ListenAndServe serves the upgrade endpoint until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	mux := http.NewServeMux()
	mux.Handle(s.path, s)
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("WebSocket server listening",
			log.String("addr", s.listener.Addr().String()),
			log.String("path", s.path),
		)
		errCh <- srv.Serve(s.listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)

	// Hijacked connections are not closed by Shutdown.
	s.closeConns()
	s.wg.Wait()

	s.logger.Info("WebSocket server stopped")
	return err
}

func (s *Server) track(c *Connection) {
	s.mu.Lock()
	s.conns[c] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) untrack(c *Connection) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
}

func (s *Server) closeConns() {
	s.mu.Lock()
	conns := make([]*Connection, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		_ = c.Close()
	}
}

func (s *Server) Connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}
