package world

import (
	"math/rand"
	"time"

	"github.com/zeusync/killzone/internal/core/combat"
	"github.com/zeusync/killzone/internal/core/events/bus"
	"github.com/zeusync/killzone/internal/core/level"
	"github.com/zeusync/killzone/internal/core/mobai"
	"github.com/zeusync/killzone/internal/core/observability/log"
)

// Option configures a World at construction.
type Option func(*World)

// WithClock sets the time source for activity stamps, message expiry and
// combat timestamps.
func WithClock(now func() time.Time) Option {
	return func(w *World) { w.now = now }
}

// WithRand sets the source used for spawn placement. Resolver and Brain
// defaults are seeded from it too.
func WithRand(rng *rand.Rand) Option {
	return func(w *World) { w.rng = rng }
}

func WithLogger(logger log.Log) Option {
	return func(w *World) { w.logger = logger }
}

// WithBus publishes world events to b after every mutation.
func WithBus(b bus.EventBus) Option {
	return func(w *World) { w.bus = b }
}

func WithLevel(l *level.Level) Option {
	return func(w *World) { w.level = l }
}

func WithLevelLoader(ld *level.Loader) Option {
	return func(w *World) { w.loader = ld }
}

func WithResolver(r *combat.Resolver) Option {
	return func(w *World) { w.resolver = r }
}

func WithBrain(b *mobai.Brain) Option {
	return func(w *World) { w.brain = b }
}
