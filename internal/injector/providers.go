package injector

import (
	"fmt"
	"math/rand"

	"github.com/google/wire"

	"github.com/zeusync/killzone/internal/config"
	"github.com/zeusync/killzone/internal/core/events/bus"
	"github.com/zeusync/killzone/internal/core/level"
	"github.com/zeusync/killzone/internal/core/observability/log"
	"github.com/zeusync/killzone/internal/core/protocol"
	"github.com/zeusync/killzone/internal/core/protocol/middlewares"
	"github.com/zeusync/killzone/internal/core/protocol/quic"
	"github.com/zeusync/killzone/internal/core/protocol/tcp"
	"github.com/zeusync/killzone/internal/core/protocol/websocket"
	"github.com/zeusync/killzone/internal/core/world"
	"github.com/zeusync/killzone/internal/server"
)

var ServerSet = wire.NewSet(
	ProvideLogger,
	ProvideEventBus,
	ProvideWorld,
	ProvideHandler,
	ProvideTransports,
	ProvideAPI,
	ProvideMaintenance,
	ProvideServer,
)

// ProvideLogger builds the process logger. The cleanup flushes it.
func ProvideLogger(cfg config.Config) (log.Log, func(), error) {
	logger, err := log.NewWithConfig(log.Config{
		Level:    log.ParseLevel(cfg.Log.Level),
		Encoding: cfg.Log.Encoding,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}
	return logger, func() { _ = logger.Sync() }, nil
}

// ProvideEventBus returns the bus world events are published on, with the
// event log already subscribed.
func ProvideEventBus(logger log.Log) (bus.EventBus, error) {
	b := bus.New()
	if _, err := server.SubscribeEventLog(b, logger); err != nil {
		return nil, fmt.Errorf("subscribe event log: %w", err)
	}
	return b, nil
}

// ProvideWorld builds the world, loads the configured level and spawns the
// initial mobs.
func ProvideWorld(cfg config.Config, logger log.Log, b bus.EventBus) (*world.World, error) {
	opts := []world.Option{
		world.WithLogger(logger.With(log.String("component", "world"))),
		world.WithBus(b),
		world.WithLevelLoader(level.NewLoader(cfg.World.LevelsDir)),
	}
	if cfg.Seed != 0 {
		opts = append(opts, world.WithRand(rand.New(rand.NewSource(cfg.Seed))))
	}

	w := world.New(cfg.World.Width, cfg.World.Height, opts...)
	if err := w.LoadLevel(cfg.World.Level); err != nil {
		return nil, err
	}
	w.RespawnMobs(cfg.Maintenance.MinMobs)

	logger.Info("World ready",
		log.Int("width", w.Width()),
		log.Int("height", w.Height()),
		log.String("level", cfg.World.Level),
		log.Int("mobs", w.MobCount()),
	)
	return w, nil
}

func ProvideHandler(cfg config.Config, w *world.World, logger log.Log) *protocol.Handler {
	h := protocol.NewHandler(w, cfg.Version, logger)
	h.AddObserver(middlewares.NewLoggingMiddleware(logger))
	return h
}

// ProvideTransports returns the enabled socket transports.
func ProvideTransports(cfg config.Config, h *protocol.Handler, logger log.Log) ([]server.Transport, error) {
	if cfg.SocketsEnabled() {
		if err := protocol.ValidateDimensions(cfg.World.Width, cfg.World.Height); err != nil {
			return nil, err
		}
	}

	var transports []server.Transport
	if cfg.TCP.Enabled {
		transports = append(transports, tcp.NewServer(cfg.TCP.Addr, h, logger))
	}
	if cfg.WebSocket.Enabled {
		transports = append(transports, websocket.NewServer(cfg.WebSocket.Addr, cfg.WebSocket.Path, h, logger))
	}
	if cfg.QUIC.Enabled {
		tlsConf, err := quic.LoadTLS(cfg.QUIC.CertFile, cfg.QUIC.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("quic tls: %w", err)
		}
		transports = append(transports, quic.NewServer(cfg.QUIC.Addr, tlsConf, h, logger))
	}
	return transports, nil
}

func ProvideAPI(cfg config.Config, w *world.World, logger log.Log) *server.API {
	return server.NewAPI(w, cfg.Version, logger)
}

func ProvideMaintenance(cfg config.Config, w *world.World, logger log.Log) *server.Maintenance {
	return server.NewMaintenance(w, server.MaintenanceConfig{
		Interval:    cfg.Maintenance.Interval,
		IdleTimeout: cfg.Maintenance.IdleTimeout,
		MinMobs:     cfg.Maintenance.MinMobs,
	}, logger)
}

func ProvideServer(
	cfg config.Config,
	api *server.API,
	maintenance *server.Maintenance,
	transports []server.Transport,
	logger log.Log,
) *server.Server {
	return server.New(server.Config{HTTPAddr: cfg.HTTP.Addr, Version: cfg.Version}, api, maintenance, transports, logger)
}
