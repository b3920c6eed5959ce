package server

import (
	"github.com/zeusync/killzone/internal/core/combat"
	"github.com/zeusync/killzone/internal/core/entity"
	"github.com/zeusync/killzone/internal/core/events/bus"
	"github.com/zeusync/killzone/internal/core/observability/log"
)

// SubscribeEventLog logs every world event published on b.
func SubscribeEventLog(b bus.EventBus, logger log.Log) (bus.Subscription, error) {
	logger = logger.With(log.String("component", "events"))

	return b.Subscribe(bus.Wildcard, func(e bus.Event) error {
		fields := []log.Field{
			log.String("event", e.Type()),
			log.String("event_id", e.ID()),
			log.String("source", e.Source()),
		}

		switch data := e.Data().(type) {
		case entity.Snapshot:
			fields = append(fields,
				log.String("entity_id", data.ID),
				log.String("name", data.Name),
				log.Int("x", data.X),
				log.Int("y", data.Y),
			)
		case *combat.Result:
			fields = append(fields,
				log.String("winner", data.FinalWinnerName),
				log.String("loser", data.FinalLoserName),
				log.String("score", data.FinalScore),
			)
		case string:
			fields = append(fields, log.String("message", data))
		}
		if reason, ok := e.Metadata()["reason"].(string); ok {
			fields = append(fields, log.String("reason", reason))
		}

		logger.Debug("World event", fields...)
		return nil
	})
}
