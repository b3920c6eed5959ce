package quic

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"sync"

	"github.com/quic-go/quic-go"

	"github.com/zeusync/killzone/internal/core/observability/log"
	"github.com/zeusync/killzone/internal/core/protocol"
)

const transportName = "quic"

type Server struct {
	addr    string
	tlsConf *tls.Config
	handler *protocol.Handler
	logger  log.Log

	listener *quic.Listener

	mu    sync.Mutex
	conns map[*quic.Conn]struct{}
	wg    sync.WaitGroup
}

func NewServer(addr string, tlsConf *tls.Config, handler *protocol.Handler, logger log.Log) *Server {
	return &Server{
		addr:    addr,
		tlsConf: tlsConf,
		handler: handler,
		logger:  logger.With(log.String("component", "quic")),
		conns:   make(map[*quic.Conn]struct{}),
	}
}

func (s *Server) Name() string { return transportName }

func (s *Server) Listen() error {
	ln, err := quic.ListenAddr(s.addr, s.tlsConf, &quic.Config{
		MaxIdleTimeout:  DefaultIdleTimeout,
		KeepAlivePeriod: DefaultKeepAlive,
	})
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

func (s *Server) ListenAndServe(ctx context.Context) error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	return s.Serve(ctx)
}

// Serve accepts connections until ctx is cancelled, then closes every
// connection and waits for their sessions.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("QUIC server listening", log.String("addr", s.listener.Addr().String()))
	defer func() { _ = s.listener.Close() }()

	var err error
	for {
		var conn *quic.Conn
		conn, err = s.listener.Accept(ctx)
		if err != nil {
			break
		}
		s.track(conn)
		s.wg.Add(1)
		go s.handleConn(ctx, conn)
	}

	s.closeConns()
	s.wg.Wait()

	if ctx.Err() != nil || errors.Is(err, quic.ErrServerClosed) {
		s.logger.Info("QUIC server stopped")
		return nil
	}
	return err
}

func (s *Server) handleConn(ctx context.Context, conn *quic.Conn) {
	defer s.wg.Done()
	defer s.untrack(conn)

	var streams sync.WaitGroup
	defer streams.Wait()

	for {
		stream, err := conn.AcceptStream(ctx)
		if err != nil {
			return
		}
		streams.Add(1)
		go func() {
			defer streams.Done()
			s.handleStream(conn, stream)
		}()
	}
}

func (s *Server) handleStream(conn *quic.Conn, stream *quic.Stream) {
	defer func() { _ = stream.Close() }()

	sess := protocol.NewSession(transportName, conn.RemoteAddr())
	err := s.handler.Serve(sess, stream)

	var appErr *quic.ApplicationError
	var idleErr *quic.IdleTimeoutError
	if err != nil && !errors.Is(err, io.EOF) && !errors.As(err, &appErr) && !errors.As(err, &idleErr) {
		s.logger.Debug("Stream ended with error", log.String("session_id", sess.ID()), log.Error(err))
	}
}

func (s *Server) track(c *quic.Conn) {
	s.mu.Lock()
	s.conns[c] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) untrack(c *quic.Conn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
}

func (s *Server) closeConns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.conns {
		_ = c.CloseWithError(0, "server shutting down")
	}
}
