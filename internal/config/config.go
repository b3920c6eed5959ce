// Package config loads the server configuration from a YAML file, an
// optional .env file and KILLZONE_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvConfigPath = "KILLZONE_CONFIG"
	EnvPort       = "PORT"
	EnvHTTPAddr   = "KILLZONE_HTTP_ADDR"
	EnvTCPAddr    = "KILLZONE_TCP_ADDR"
	EnvWSAddr     = "KILLZONE_WS_ADDR"
	EnvQUICAddr   = "KILLZONE_QUIC_ADDR"
	EnvLogLevel   = "KILLZONE_LOG_LEVEL"
	EnvSeed       = "KILLZONE_SEED"

	maxSocketDimension = 255
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Version     string            `yaml:"version"`
	Seed        int64             `yaml:"seed"`
	World       WorldConfig       `yaml:"world"`
	HTTP        HTTPConfig        `yaml:"http"`
	TCP         TCPConfig         `yaml:"tcp"`
	WebSocket   WebSocketConfig   `yaml:"websocket"`
	QUIC        QUICConfig        `yaml:"quic"`
	Maintenance MaintenanceConfig `yaml:"maintenance"`
	Log         LogConfig         `yaml:"log"`
}

type WorldConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Level  string `yaml:"level"`
	// LevelsDir overrides the embedded level files when set.
	LevelsDir string `yaml:"levels_dir"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

type TCPConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

type WebSocketConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Path    string `yaml:"path"`
}

type QUICConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

type MaintenanceConfig struct {
	Interval    time.Duration `yaml:"interval"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
	MinMobs     int           `yaml:"min_mobs"`
}

type LogConfig struct {
	Level    string `yaml:"level"`
	Encoding string `yaml:"encoding"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Version: "1.2.0",
		World: WorldConfig{
			Width:  40,
			Height: 20,
			Level:  "level1",
		},
		HTTP:      HTTPConfig{Addr: ":3000"},
		TCP:       TCPConfig{Enabled: true, Addr: ":3001"},
		WebSocket: WebSocketConfig{Enabled: true, Addr: ":3002", Path: "/ws"},
		QUIC:      QUICConfig{Enabled: false, Addr: ":3003"},
		Maintenance: MaintenanceConfig{
			Interval:    10 * time.Second,
			IdleTimeout: 120 * time.Second,
			MinMobs:     3,
		},
		Log: LogConfig{Level: "info", Encoding: "json"},
	}
}

// Load reads path over the defaults. Keys missing from the file keep their
// default values.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadEnv loads envFile (if it exists), then the file named by
// KILLZONE_CONFIG (if set), then applies environment overrides and
// validates the result.
func LoadEnv(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := Default()
	if path := os.Getenv(EnvConfigPath); path != "" {
		var err error
		if cfg, err = Load(path); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from the environment. PORT sets the HTTP port
// and is itself overridden by KILLZONE_HTTP_ADDR.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvPort); ok && v != "" {
		c.HTTP.Addr = ":" + v
	}
	if v, ok := lookup(EnvHTTPAddr); ok && v != "" {
		c.HTTP.Addr = v
	}
	if v, ok := lookup(EnvTCPAddr); ok && v != "" {
		c.TCP.Addr = v
	}
	if v, ok := lookup(EnvWSAddr); ok && v != "" {
		c.WebSocket.Addr = v
	}
	if v, ok := lookup(EnvQUICAddr); ok && v != "" {
		c.QUIC.Addr = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = v
	}
	if v, ok := lookup(EnvSeed); ok && v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %w", ErrInvalidConfig, EnvSeed, v, err)
		}
		c.Seed = seed
	}
	return nil
}

// SocketsEnabled reports whether any binary-frame transport is on.
func (c *Config) SocketsEnabled() bool {
	return c.TCP.Enabled || c.WebSocket.Enabled || c.QUIC.Enabled
}

func (c *Config) Validate() error {
	switch {
	case c.World.Width <= 0 || c.World.Height <= 0:
		return fmt.Errorf("%w: world dimensions must be positive, got %dx%d", ErrInvalidConfig, c.World.Width, c.World.Height)
	case c.SocketsEnabled() && (c.World.Width > maxSocketDimension || c.World.Height > maxSocketDimension):
		return fmt.Errorf("%w: socket transports carry one-byte coordinates, world %dx%d exceeds %d",
			ErrInvalidConfig, c.World.Width, c.World.Height, maxSocketDimension)
	case c.HTTP.Addr == "":
		return fmt.Errorf("%w: http.addr is required", ErrInvalidConfig)
	case c.TCP.Enabled && c.TCP.Addr == "":
		return fmt.Errorf("%w: tcp.addr is required", ErrInvalidConfig)
	case c.WebSocket.Enabled && c.WebSocket.Addr == "":
		return fmt.Errorf("%w: websocket.addr is required", ErrInvalidConfig)
	case c.QUIC.Enabled && c.QUIC.Addr == "":
		return fmt.Errorf("%w: quic.addr is required", ErrInvalidConfig)
	case (c.QUIC.CertFile == "") != (c.QUIC.KeyFile == ""):
		return fmt.Errorf("%w: quic.cert_file and quic.key_file go together", ErrInvalidConfig)
	case c.Maintenance.Interval <= 0:
		return fmt.Errorf("%w: maintenance.interval must be positive", ErrInvalidConfig)
	case c.Maintenance.IdleTimeout <= 0:
		return fmt.Errorf("%w: maintenance.idle_timeout must be positive", ErrInvalidConfig)
	case c.Maintenance.MinMobs < 0:
		return fmt.Errorf("%w: maintenance.min_mobs must not be negative", ErrInvalidConfig)
	}
	return nil
}
