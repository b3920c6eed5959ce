package log

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		" WARN ":  LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
		"fatal":   LevelFatal,
		"info":    LevelInfo,
		"":        LevelInfo,
		"verbose": LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), in)
	}
	assert.Equal(t, "warn", LevelWarn.String())
}

func TestLoggerWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")

	logger, err := NewWithConfig(Config{Level: LevelInfo, OutputPaths: []string{path}})
	require.NoError(t, err)

	child := logger.With(String("component", "world"))
	child.Debug("hidden")
	child.Info("player joined", String("name", "alice"), Int("x", 3))
	child.Warn("frame dropped", Error(errors.New("unknown frame")))

	logger.SetLevel(LevelDebug)
	assert.Equal(t, LevelDebug, child.GetLevel())
	child.Debug("visible")
	require.NoError(t, logger.Sync())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 3)

	assert.Contains(t, lines[0], `"msg":"player joined"`)
	assert.Contains(t, lines[0], `"component":"world"`)
	assert.Contains(t, lines[0], `"name":"alice"`)
	assert.Contains(t, lines[0], `"x":3`)
	assert.Contains(t, lines[1], `"error":"unknown frame"`)
	assert.Contains(t, lines[2], `"msg":"visible"`)
	assert.NotContains(t, string(raw), "hidden")
}

func TestNopLogger(t *testing.T) {
	logger := NewNop()
	logger.Info("discarded", String("k", "v"))
	assert.Equal(t, LevelFatal, logger.GetLevel())
	assert.NotNil(t, logger.With(Bool("ok", true)))
}
