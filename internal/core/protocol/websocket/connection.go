package websocket

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

var errUnsupportedMessage = errors.New("unsupported message type")

// Connection wraps a WebSocket so that every frame response goes out as its
// own binary message. Writes are serialized.
type Connection struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
	closed       atomic.Bool

	writeMu sync.Mutex

	bytesSent     atomic.Uint64
	bytesReceived atomic.Uint64
}

func NewConnection(conn *websocket.Conn, writeTimeout time.Duration) *Connection {
	return &Connection{conn: conn, writeTimeout: writeTimeout}
}

func (c *Connection) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// Write sends p as one binary message.
func (c *Connection) Write(p []byte) (int, error) {
	if c.closed.Load() {
		return 0, net.ErrClosed
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.writeTimeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	if err := c.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, fmt.Errorf("failed to write message: %w", err)
	}

	c.bytesSent.Add(uint64(len(p)))
	return len(p), nil
}

// Receive blocks for the next text or binary message.
func (c *Connection) Receive() ([]byte, error) {
	messageType, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	if messageType != websocket.TextMessage && messageType != websocket.BinaryMessage {
		return nil, errUnsupportedMessage
	}

	c.bytesReceived.Add(uint64(len(data)))
	return data, nil
}

// Close sends a close frame and drops the connection. It is idempotent.
func (c *Connection) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	c.writeMu.Lock()
	_ = c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	c.writeMu.Unlock()

	return c.conn.Close()
}

func (c *Connection) IsClosed() bool { return c.closed.Load() }

func (c *Connection) BytesSent() uint64     { return c.bytesSent.Load() }
func (c *Connection) BytesReceived() uint64 { return c.bytesReceived.Load() }
