package level

import "errors"

var (
	ErrLevelNotFound    = errors.New("level not found")
	ErrInvalidLevelName = errors.New("invalid level name")
	ErrInvalidSize      = errors.New("level dimensions must be positive")
)
