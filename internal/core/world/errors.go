package world

import (
	"errors"

	"github.com/zeusync/killzone/internal/core/entity"
)

var (
	ErrPlayerNotFound   = errors.New("player not found")
	ErrInvalidName      = errors.New("player name is required and must be a non-empty string")
	ErrInvalidDirection = entity.ErrInvalidDirection
	ErrNoLevelLoader    = errors.New("world has no level loader")
)
