package protocol

import (
	"errors"
	"fmt"
	"io"

	"github.com/zeusync/killzone/internal/core/entity"
	"github.com/zeusync/killzone/internal/core/observability/log"
	"github.com/zeusync/killzone/internal/core/world"
	"github.com/zeusync/killzone/pkg/generic"
)

const readBufferSize = 1024

var readBuffers = generic.NewResettingPool(
	func() *[]byte {
		b := make([]byte, readBufferSize)
		return &b
	},
	func(b *[]byte) { *b = (*b)[:readBufferSize] },
)

// World is the part of the world a socket session drives.
type World interface {
	Join(name string) (world.JoinResult, error)
	Move(id string, dir entity.Direction) (world.MoveResult, error)
	State() world.State
	TouchPlayer(id string) bool
	Retire(id string) bool
}

// Observer is notified about session activity. Implementations must be safe
// for concurrent use across sessions.
type Observer interface {
	OnConnect(s *Session)
	OnFrame(s *Session, req Request, err error)
	OnDisconnect(s *Session)
}

// Handler turns decoded requests into world commands and encoded responses.
// One Handler serves every session of every socket transport.
type Handler struct {
	world     World
	version   string
	logger    log.Log
	observers []Observer
}

func NewHandler(w World, version string, logger log.Log) *Handler {
	if logger == nil {
		logger = log.Provide()
	}
	return &Handler{
		world:   w,
		version: version,
		logger:  logger.With(log.String("component", "protocol")),
	}
}

// AddObserver registers o. It must be called before any session opens.
func (h *Handler) AddObserver(o Observer) {
	h.observers = append(h.observers, o)
}

// Open announces a new session to the observers.
func (h *Handler) Open(s *Session) {
	for _, o := range h.observers {
		o.OnConnect(s)
	}
}

// Handle executes one request. A nil response with a non-nil error means the
// frame was dropped; the connection stays usable either way.
func (h *Handler) Handle(s *Session, req Request) ([]byte, error) {
	s.Touch()

	resp, err := h.handle(s, req)
	for _, o := range h.observers {
		o.OnFrame(s, req, err)
	}
	return resp, err
}

func (h *Handler) handle(s *Session, req Request) ([]byte, error) {
	switch req.Type {
	case FrameJoin:
		res, err := h.world.Join(req.Name)
		if err != nil {
			return nil, fmt.Errorf("join: %w", err)
		}
		prev := s.PlayerID()
		if err = s.Bind(res.Player.ID); err != nil {
			return nil, err
		}
		// A session owns at most one player.
		if prev != "" && prev != res.Player.ID {
			h.world.Retire(prev)
		}
		p := res.Player
		return EncodeJoinResponse(p.ID, p.X, p.Y, p.Health, h.version)

	case FrameMove:
		id := s.PlayerID()
		if id == "" {
			return nil, ErrSessionUnbound
		}
		dir, err := entity.DirectionFromByte(req.Direction)
		if err != nil {
			return nil, fmt.Errorf("move %q: %w", req.Direction, err)
		}
		res, err := h.world.Move(id, dir)
		if err != nil {
			return nil, fmt.Errorf("move: %w", err)
		}
		return EncodeMoveResponse(res.Player.X, res.Player.Y, res.Player.Health, res.Collision)

	case FrameState:
		id := s.PlayerID()
		if id != "" {
			h.world.TouchPlayer(id)
		}
		return EncodeStateResponse(h.world.State(), id)

	default:
		return nil, fmt.Errorf("%w: 0x%02x", ErrUnknownFrame, req.Type)
	}
}

// Close retires the session's player, if any. It is safe to call twice.
func (h *Handler) Close(s *Session) {
	id, first := s.close()
	if !first {
		return
	}
	if id != "" {
		h.world.Retire(id)
	}
	for _, o := range h.observers {
		o.OnDisconnect(s)
	}
}

// Drain handles every complete frame buffered in dec and writes each
// response to w. Only write errors are returned.
func (h *Handler) Drain(s *Session, dec *Decoder, w io.Writer) error {
	for {
		req, err := dec.Next()
		switch {
		case errors.Is(err, ErrIncompleteFrame):
			return nil
		case errors.Is(err, ErrUnknownFrame):
			h.logger.Warn("Unknown frame type, discarding buffered bytes",
				log.String("session_id", s.ID()),
				log.Uint8("type", req.Type),
			)
			for _, o := range h.observers {
				o.OnFrame(s, req, err)
			}
			continue
		}

		resp, err := h.Handle(s, req)
		if err != nil {
			h.logger.Debug("Frame dropped",
				log.String("session_id", s.ID()),
				log.Uint8("type", req.Type),
				log.Error(err),
			)
			continue
		}
		if _, err = w.Write(resp); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
	}
}

// Serve runs a stream session until rw fails or reaches EOF, then closes the
// session. Transports end it early by closing the underlying connection.
func (h *Handler) Serve(s *Session, rw io.ReadWriter) error {
	h.Open(s)
	defer h.Close(s)

	bufp := readBuffers.Get()
	defer readBuffers.Put(bufp)
	buf := *bufp

	dec := NewDecoder()
	for {
		n, err := rw.Read(buf)
		if n > 0 {
			dec.Feed(buf[:n])
			if werr := h.Drain(s, dec, rw); werr != nil {
				return werr
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}
