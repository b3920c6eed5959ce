// Package client is a Go SDK for the KillZone socket protocol. One Client is
// one session: it joins once and then issues moves and state polls in
// lockstep with the server's replies.
package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zeusync/killzone/internal/core/observability/log"
	"github.com/zeusync/killzone/internal/core/protocol"
)

const (
	TransportTCP       = "tcp"
	TransportWebSocket = "websocket"
	TransportQUIC      = "quic"
)

// Config holds configuration for the client
type Config struct {
	Transport string
	// ServerAddr is host:port for tcp and quic, or a ws:// URL for websocket.
	ServerAddr      string
	ConnectTimeout  time.Duration
	ResponseTimeout time.Duration

	Logger log.Log
}

// DefaultClientConfig returns default client configuration
func DefaultClientConfig() Config {
	return Config{
		Transport:       TransportTCP,
		ServerAddr:      "localhost:3001",
		ConnectTimeout:  10 * time.Second,
		ResponseTimeout: 5 * time.Second,
	}
}

// conn is what every transport adapter provides.
type conn interface {
	io.ReadWriteCloser
	SetReadDeadline(t time.Time) error
}

// Client is safe for concurrent use; requests are serialized.
type Client struct {
	config Config
	logger log.Log

	mu       sync.Mutex
	conn     conn
	reader   *bufio.Reader
	playerID string

	closed atomic.Bool
}

// Dial connects to the server over the configured transport.
func Dial(ctx context.Context, config Config) (*Client, error) {
	if config.ServerAddr == "" {
		return nil, fmt.Errorf("%w: server address is required", ErrInvalidConfig)
	}
	if config.ConnectTimeout <= 0 {
		config.ConnectTimeout = DefaultClientConfig().ConnectTimeout
	}
	if config.ResponseTimeout <= 0 {
		config.ResponseTimeout = DefaultClientConfig().ResponseTimeout
	}
	if config.Logger == nil {
		config.Logger = log.NewNop()
	}

	dialCtx, cancel := context.WithTimeout(ctx, config.ConnectTimeout)
	defer cancel()

	var (
		c   conn
		err error
	)
	switch config.Transport {
	case TransportTCP, "":
		var d net.Dialer
		c, err = d.DialContext(dialCtx, "tcp", config.ServerAddr)
	case TransportWebSocket:
		c, err = dialWebSocket(dialCtx, config.ServerAddr)
	case TransportQUIC:
		c, err = dialQUIC(dialCtx, config.ServerAddr)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTransport, config.Transport)
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s", ErrConnectionTimeout, config.ServerAddr)
		}
		return nil, fmt.Errorf("dial %s %s: %w", config.Transport, config.ServerAddr, err)
	}

	logger := config.Logger.With(log.String("component", "client"), log.String("transport", config.Transport))
	logger.Debug("Connected to server", log.String("addr", config.ServerAddr))

	return &Client{
		config: config,
		logger: logger,
		conn:   c,
		reader: bufio.NewReader(c),
	}, nil
}

// PlayerID is the id assigned by the last successful Join.
func (c *Client) PlayerID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playerID
}

// Join enters the world as name. Joining again with the same name after a
// disconnect restores the previous player.
func (c *Client) Join(name string) (protocol.JoinResponse, error) {
	req, err := protocol.AppendJoinRequest(nil, name)
	if err != nil {
		return protocol.JoinResponse{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var resp protocol.JoinResponse
	err = c.roundTrip(req, func(r io.Reader) (err error) {
		resp, err = protocol.ReadJoinResponse(r)
		return err
	})
	if err != nil {
		return protocol.JoinResponse{}, err
	}
	c.playerID = resp.ID
	return resp, nil
}

// Move steps the player one cell. dir is 'u', 'd', 'l' or 'r'.
func (c *Client) Move(dir byte) (protocol.MoveResponse, error) {
	switch dir {
	case 'u', 'd', 'l', 'r':
	default:
		return protocol.MoveResponse{}, ErrInvalidDirection
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.playerID == "" {
		return protocol.MoveResponse{}, ErrNotJoined
	}

	var resp protocol.MoveResponse
	err := c.roundTrip(protocol.AppendMoveRequest(nil, dir), func(r io.Reader) (err error) {
		resp, err = protocol.ReadMoveResponse(r)
		return err
	})
	return resp, err
}

// State polls the world. Every poll advances the server's tick.
func (c *Client) State() (protocol.StateResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var resp protocol.StateResponse
	err := c.roundTrip(protocol.AppendStateRequest(nil), func(r io.Reader) (err error) {
		resp, err = protocol.ReadStateResponse(r)
		return err
	})
	return resp, err
}

func (c *Client) roundTrip(req []byte, read func(io.Reader) error) error {
	if c.closed.Load() {
		return ErrClientClosed
	}

	if _, err := c.conn.Write(req); err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	if err := c.conn.SetReadDeadline(time.Now().Add(c.config.ResponseTimeout)); err != nil {
		return fmt.Errorf("set read deadline: %w", err)
	}
	if err := read(c.reader); err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return fmt.Errorf("read response: %w", ErrConnectionTimeout)
		}
		return fmt.Errorf("read response: %w", err)
	}
	return nil
}

// Close ends the session. The server retires the player.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.logger.Debug("Disconnecting from server")
	return c.conn.Close()
}
