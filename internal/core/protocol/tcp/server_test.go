package tcp

import (
	"context"
	"io"
	"math/rand"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/killzone/internal/core/observability/log"
	"github.com/zeusync/killzone/internal/core/protocol"
	"github.com/zeusync/killzone/internal/core/world"
)

func startServer(t *testing.T) (*Server, *world.World, context.CancelFunc, <-chan error) {
	t.Helper()

	w := world.New(world.DefaultWidth, world.DefaultHeight, world.WithRand(rand.New(rand.NewSource(7))))
	h := protocol.NewHandler(w, "test", log.NewNop())
	s := NewServer("127.0.0.1:0", h, log.NewNop())
	require.NoError(t, s.Listen())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()

	t.Cleanup(cancel)
	return s, w, cancel, done
}

func TestServer_JoinMoveState(t *testing.T) {
	s, w, _, _ := startServer(t)

	conn, err := net.Dial("tcp", s.Addr().String())
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))

	req, err := protocol.AppendJoinRequest(nil, "Alice")
	require.NoError(t, err)
	_, err = conn.Write(req)
	require.NoError(t, err)

	head := make([]byte, 2)
	_, err = io.ReadFull(conn, head)
	require.NoError(t, err)
	assert.Equal(t, protocol.FrameJoin, head[0])

	rest := make([]byte, int(head[1])+3+1+len("test"))
	_, err = io.ReadFull(conn, rest)
	require.NoError(t, err)
	id := string(rest[:head[1]])
	assert.Equal(t, byte(100), rest[head[1]+2])

	p, ok := w.GetPlayer(id)
	require.True(t, ok)

	_, err = conn.Write(protocol.AppendStateRequest(nil))
	require.NoError(t, err)
	state := make([]byte, 4+3)
	_, err = io.ReadFull(conn, state)
	require.NoError(t, err)
	assert.Equal(t, []byte{protocol.FrameState, 1, 1, 0, protocol.EntitySelf, byte(p.X), byte(p.Y)}, state)

	_, err = conn.Write(protocol.AppendMoveRequest(nil, 'u'))
	require.NoError(t, err)
	move := make([]byte, 5)
	_, err = io.ReadFull(conn, move)
	require.NoError(t, err)
	assert.Equal(t, protocol.FrameMove, move[0])
	assert.Equal(t, byte(p.X), move[1])
	assert.Equal(t, byte(max(p.Y-1, 0)), move[2])
	assert.Equal(t, byte(0), move[4])
}

func TestServer_DisconnectRetiresPlayer(t *testing.T) {
	s, w, _, _ := startServer(t)

	conn, err := net.Dial("tcp", s.Addr().String())
	require.NoError(t, err)

	req, err := protocol.AppendJoinRequest(nil, "Bob")
	require.NoError(t, err)
	_, err = conn.Write(req)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return w.PlayerCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool {
		return w.PlayerCount() == 0 && s.Connections() == 0
	}, 2*time.Second, 10*time.Millisecond)

	_, ok := w.DisconnectedPlayer("Bob")
	assert.True(t, ok)
}

func TestServer_ShutdownClosesSessions(t *testing.T) {
	s, w, cancel, done := startServer(t)

	conn, err := net.Dial("tcp", s.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	req, err := protocol.AppendJoinRequest(nil, "Carol")
	require.NoError(t, err)
	_, err = conn.Write(req)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return w.PlayerCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.Zero(t, w.PlayerCount())
}
