// Package server runs the KillZone process: the HTTP API, the socket
// transports and the maintenance sweep, bound to one context.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zeusync/killzone/internal/core/observability/log"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// Transport is a socket front end serving the binary frames.
type Transport interface {
	Name() string
	ListenAndServe(ctx context.Context) error
}

// Config holds the server settings not owned by a component.
type Config struct {
	HTTPAddr string
	Version  string
}

type Server struct {
	cfg         Config
	api         *API
	maintenance *Maintenance
	transports  []Transport
	logger      log.Log

	listener net.Listener
	running  atomic.Bool
}

func New(cfg Config, api *API, maintenance *Maintenance, transports []Transport, logger log.Log) *Server {
	return &Server{
		cfg:         cfg,
		api:         api,
		maintenance: maintenance,
		transports:  transports,
		logger:      logger.With(log.String("component", "server")),
	}
}

// Listen binds the HTTP address ahead of Run.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.cfg.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listen http %s: %w", s.cfg.HTTPAddr, err)
	}
	s.listener = ln
	return nil
}

// Addr is the bound HTTP address; nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *Server) Handler() http.Handler { return s.api }

// Run serves until ctx is cancelled or any component fails, then stops the
// rest and returns the first error.
func (s *Server) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrServerAlreadyRunning
	}
	defer s.running.Store(false)

	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	names := make([]string, 0, len(s.transports))
	for _, t := range s.transports {
		names = append(names, t.Name())
	}
	s.logger.Info("Starting server",
		log.String("version", s.cfg.Version),
		log.String("http_addr", s.listener.Addr().String()),
		log.Strings("transports", names),
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return s.serveHTTP(ctx) })
	if s.maintenance != nil {
		g.Go(func() error { return s.maintenance.Run(ctx) })
	}
	for _, t := range s.transports {
		g.Go(func() error {
			if err := t.ListenAndServe(ctx); err != nil {
				return fmt.Errorf("%s transport: %w", t.Name(), err)
			}
			return nil
		})
	}

	err := g.Wait()
	if err != nil {
		s.logger.Error("Server stopped with error", log.Error(err))
		return err
	}
	s.logger.Info("Server stopped")
	return nil
}

func (s *Server) serveHTTP(ctx context.Context) error {
	srv := &http.Server{
		Handler:           s.api,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(s.listener) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
