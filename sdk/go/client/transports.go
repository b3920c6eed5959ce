package client

import (
	"bytes"
	"context"
	"time"

	"github.com/gorilla/websocket"
	"github.com/quic-go/quic-go"

	kzquic "github.com/zeusync/killzone/internal/core/protocol/quic"
)

// wsConn reads binary messages as one continuous byte stream.
type wsConn struct {
	ws  *websocket.Conn
	buf bytes.Reader
}

func dialWebSocket(ctx context.Context, url string) (*wsConn, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return &wsConn{ws: ws}, nil
}

func (c *wsConn) Read(p []byte) (int, error) {
	for c.buf.Len() == 0 {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return 0, err
		}
		c.buf.Reset(data)
	}
	return c.buf.Read(p)
}

func (c *wsConn) Write(p []byte) (int, error) {
	if err := c.ws.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *wsConn) SetReadDeadline(t time.Time) error {
	return c.ws.SetReadDeadline(t)
}

func (c *wsConn) Close() error {
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return c.ws.Close()
}

// quicConn is one bidirectional stream; closing it closes the connection.
type quicConn struct {
	conn *quic.Conn
	*quic.Stream
}

func dialQUIC(ctx context.Context, addr string) (*quicConn, error) {
	conn, err := quic.DialAddr(ctx, addr, kzquic.ClientTLS(), &quic.Config{
		MaxIdleTimeout:  kzquic.DefaultIdleTimeout,
		KeepAlivePeriod: kzquic.DefaultKeepAlive,
	})
	if err != nil {
		return nil, err
	}
	stream, err := conn.OpenStreamSync(ctx)
	if err != nil {
		_ = conn.CloseWithError(0, "")
		return nil, err
	}
	return &quicConn{conn: conn, Stream: stream}, nil
}

func (c *quicConn) Close() error {
	_ = c.Stream.Close()
	return c.conn.CloseWithError(0, "client closed")
}
