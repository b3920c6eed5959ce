package middlewares

import (
	"time"

	"github.com/zeusync/killzone/internal/core/observability/log"
	"github.com/zeusync/killzone/internal/core/protocol"
)

var _ protocol.Observer = (*LoggingMiddleware)(nil)

// LoggingMiddleware logs session lifecycle and frame outcomes.
type LoggingMiddleware struct {
	logger log.Log
}

func NewLoggingMiddleware(logger log.Log) *LoggingMiddleware {
	return &LoggingMiddleware{logger: logger.With(log.String("middleware", "logging"))}
}

// Name returns the middleware name
func (m *LoggingMiddleware) Name() string {
	return "logging"
}

func (m *LoggingMiddleware) OnConnect(s *protocol.Session) {
	m.logger.Info("Client connected",
		log.String("session_id", s.ID()),
		log.String("transport", s.Transport()),
		log.String("remote_addr", s.RemoteAddr()),
	)
}

func (m *LoggingMiddleware) OnFrame(s *protocol.Session, req protocol.Request, err error) {
	fields := []log.Field{
		log.String("session_id", s.ID()),
		log.String("frame", frameName(req.Type)),
		log.String("player_id", s.PlayerID()),
	}
	if err != nil {
		m.logger.Debug("Frame not handled", append(fields, log.Error(err))...)
		return
	}
	m.logger.Debug("Frame handled", fields...)
}

func (m *LoggingMiddleware) OnDisconnect(s *protocol.Session) {
	m.logger.Info("Client disconnected",
		log.String("session_id", s.ID()),
		log.String("transport", s.Transport()),
		log.String("remote_addr", s.RemoteAddr()),
		log.Duration("duration", time.Since(s.ConnectedAt())),
	)
}

func frameName(t byte) string {
	switch t {
	case protocol.FrameJoin:
		return "join"
	case protocol.FrameMove:
		return "move"
	case protocol.FrameState:
		return "state"
	default:
		return "unknown"
	}
}
