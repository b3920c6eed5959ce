package world

import (
	"fmt"

	"github.com/zeusync/killzone/internal/core/level"
	"github.com/zeusync/killzone/internal/core/observability/log"
)

// Level returns the current wall layout. Walls are informational only:
// movement and spawn placement check bounds, not walls.
func (w *World) Level() *level.Level {
	w.lock()
	defer w.unlock()
	return w.level
}

// LoadLevel reads the named level and makes it current. The registry is
// left untouched.
func (w *World) LoadLevel(name string) error {
	if w.loader == nil {
		return ErrNoLevelLoader
	}

	l, err := w.loader.Load(name, w.width, w.height)
	if err != nil {
		return fmt.Errorf("load level: %w", err)
	}

	w.lock()
	w.level = l
	w.timestamp = w.now().UnixMilli()
	w.emitLocked(EventLevelChanged, l.View(), nil)
	w.unlock()

	w.logger.Debug("Level loaded", log.String("level", name), log.Int("walls", len(l.Walls())))
	return nil
}

// NextLevel switches to the level after the current one in the rotation
// and returns its name.
func (w *World) NextLevel() (string, error) {
	next := level.Next(w.Level().Name())
	if err := w.LoadLevel(next); err != nil {
		return next, err
	}
	return next, nil
}
