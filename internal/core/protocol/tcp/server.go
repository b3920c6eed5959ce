// Package tcp serves the binary frames over plain TCP, one session per
// connection.
package tcp

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"

	"github.com/zeusync/killzone/internal/core/observability/log"
	"github.com/zeusync/killzone/internal/core/protocol"
)

const transportName = "tcp"

var ErrServerAlreadyRunning = errors.New("tcp server already running")

type Server struct {
	addr    string
	handler *protocol.Handler
	logger  log.Log

	listener net.Listener
	running  atomic.Bool

	mu    sync.Mutex
	conns map[net.Conn]struct{}
	wg    sync.WaitGroup
}

func NewServer(addr string, handler *protocol.Handler, logger log.Log) *Server {
	return &Server{
		addr:    addr,
		handler: handler,
		logger:  logger.With(log.String("component", "tcp")),
		conns:   make(map[net.Conn]struct{}),
	}
}

func (s *Server) Name() string { return transportName }

// Listen binds the configured address.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.listener = ln
	return nil
}

// Addr is the bound address; nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// ListenAndServe binds if needed and serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	return s.Serve(ctx)
}

// Serve accepts connections until ctx is cancelled, then closes the listener
// and every open connection and waits for their sessions to end.
func (s *Server) Serve(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrServerAlreadyRunning
	}
	defer s.running.Store(false)

	stop := context.AfterFunc(ctx, func() {
		_ = s.listener.Close()
		s.closeConns()
	})
	defer stop()

	s.logger.Info("TCP server listening", log.String("addr", s.listener.Addr().String()))

	var err error
	for {
		var conn net.Conn
		conn, err = s.listener.Accept()
		if err != nil {
			break
		}
		s.track(conn)
		if ctx.Err() != nil {
			_ = conn.Close()
		}
		s.wg.Add(1)
		go s.handle(conn)
	}

	s.wg.Wait()
	if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
		s.logger.Info("TCP server stopped")
		return nil
	}
	return err
}

func (s *Server) handle(conn net.Conn) {
	defer s.wg.Done()
	defer s.untrack(conn)
	defer func() { _ = conn.Close() }()

	sess := protocol.NewSession(transportName, conn.RemoteAddr())
	if err := s.handler.Serve(sess, conn); err != nil && !errors.Is(err, net.ErrClosed) {
		s.logger.Debug("Session ended with error", log.String("session_id", sess.ID()), log.Error(err))
	}
}

func (s *Server) track(conn net.Conn) {
	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
}

func (s *Server) closeConns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		_ = conn.Close()
	}
}

// Connections is the number of open sessions.
func (s *Server) Connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}
