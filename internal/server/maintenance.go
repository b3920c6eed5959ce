package server

import (
	"context"
	"time"

	"github.com/zeusync/killzone/internal/core/entity"
	"github.com/zeusync/killzone/internal/core/observability/log"
	"github.com/zeusync/killzone/internal/core/world"
)

// MaintenanceConfig drives the periodic sweep.
type MaintenanceConfig struct {
	Interval    time.Duration
	IdleTimeout time.Duration
	MinMobs     int
}

// Maintenance evicts idle players and tops up the mob population on a
// fixed interval.
type Maintenance struct {
	world  *world.World
	cfg    MaintenanceConfig
	logger log.Log
}

func NewMaintenance(w *world.World, cfg MaintenanceConfig, logger log.Log) *Maintenance {
	return &Maintenance{
		world:  w,
		cfg:    cfg,
		logger: logger.With(log.String("component", "maintenance")),
	}
}

// Run sweeps every interval until ctx is cancelled.
func (m *Maintenance) Run(ctx context.Context) error {
	m.logger.Debug("Maintenance started", log.Duration("interval", m.cfg.Interval))

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Sweep()
		case <-ctx.Done():
			m.logger.Debug("Maintenance stopped")
			return nil
		}
	}
}

// Sweep runs one eviction and respawn pass.
func (m *Maintenance) Sweep() ([]world.Evicted, []entity.Snapshot) {
	evicted := m.world.CleanupInactivePlayers(m.cfg.IdleTimeout)
	for _, e := range evicted {
		m.logger.Info("Evicted inactive player",
			log.String("player_id", e.ID),
			log.String("name", e.Name),
		)
	}

	spawned := m.world.RespawnMobs(m.cfg.MinMobs)
	for _, s := range spawned {
		m.logger.Info("Spawned mob",
			log.String("mob_id", s.ID),
			log.String("name", s.Name),
			log.Bool("hunter", s.IsHunter),
			log.Int("x", s.X),
			log.Int("y", s.Y),
		)
	}

	if len(evicted) > 0 || len(spawned) > 0 {
		m.logger.Debug("Maintenance sweep completed",
			log.Int("evicted", len(evicted)),
			log.Int("spawned", len(spawned)),
			log.Int("players", m.world.PlayerCount()),
			log.Int("mobs", m.world.MobCount()),
		)
	}
	return evicted, spawned
}
