package protocol

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Session is the server side of one socket connection. It is bound to at
// most one player, set by a successful join.
type Session struct {
	id          string
	transport   string
	remote      net.Addr
	connectedAt time.Time
	lastSeen    atomic.Int64

	mu       sync.Mutex
	playerID string
	closed   bool
}

func NewSession(transport string, remote net.Addr) *Session {
	now := time.Now()
	s := &Session{
		id:          uuid.NewString(),
		transport:   transport,
		remote:      remote,
		connectedAt: now,
	}
	s.lastSeen.Store(now.UnixMilli())
	return s
}

func (s *Session) ID() string             { return s.id }
func (s *Session) Transport() string      { return s.transport }
func (s *Session) ConnectedAt() time.Time { return s.connectedAt }

func (s *Session) RemoteAddr() string {
	if s.remote == nil {
		return ""
	}
	return s.remote.String()
}

func (s *Session) Touch() {
	s.lastSeen.Store(time.Now().UnixMilli())
}

func (s *Session) LastSeen() time.Time {
	return time.UnixMilli(s.lastSeen.Load())
}

// PlayerID is the bound player, or "" before the first join.
func (s *Session) PlayerID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playerID
}

// Bind attaches the session to playerID, replacing any earlier binding.
func (s *Session) Bind(playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	s.playerID = playerID
	return nil
}

// close marks the session closed and hands back the bound player, once.
func (s *Session) close() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", false
	}
	s.closed = true
	id := s.playerID
	s.playerID = ""
	return id, true
}

func (s *Session) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
