package world

import (
	"github.com/zeusync/killzone/internal/core/events/bus"
	"github.com/zeusync/killzone/internal/core/observability/log"
)

// Event types published on the bus.
const (
	EventPlayerJoined   = "player.joined"
	EventPlayerRejoined = "player.rejoined"
	EventPlayerLeft     = "player.left"
	EventPlayerEvicted  = "player.evicted"
	EventCombat         = "combat.resolved"
	EventKill           = "combat.kill"
	EventMobSpawned     = "mob.spawned"
	EventLevelChanged   = "level.changed"
	EventWorldReset     = "world.reset"

	eventSource = "world"
)

// Reasons attached to EventPlayerLeft.
const (
	ReasonLeave      = "leave"
	ReasonDisconnect = "disconnect"
	ReasonDefeated   = "defeated"
)

// emitLocked queues an event. Queued events go out once the lock is released.
func (w *World) emitLocked(typ string, data any, meta map[string]any) {
	if w.bus == nil {
		return
	}
	w.pending = append(w.pending, bus.NewEventAt(typ, eventSource, w.now(), data, meta))
}

func (w *World) lock() {
	w.mu.Lock()
}

// unlock releases the world and then flushes queued events, so subscribers
// may call back into the world.
func (w *World) unlock() {
	events := w.pending
	w.pending = nil
	w.mu.Unlock()

	if len(events) == 0 {
		return
	}
	if err := w.bus.PublishBatch(events...); err != nil {
		w.logger.Warn("Event handler failed",
			log.Int("events", len(events)),
			log.String("first_event", events[0].Type()),
			log.Error(err),
		)
	}
}
