package protocol

import "errors"

var (
	// Framing errors

	ErrIncompleteFrame = errors.New("incomplete frame")
	ErrUnknownFrame    = errors.New("unknown frame type")
	ErrUnexpectedFrame = errors.New("unexpected response frame")

	// Encoding errors

	ErrFieldTooLong       = errors.New("field longer than 255 bytes")
	ErrCoordinateRange    = errors.New("coordinate outside single-byte range")
	ErrDimensionsTooLarge = errors.New("world dimensions exceed single-byte coordinates")

	// Session errors

	ErrSessionUnbound = errors.New("session has no player")
	ErrSessionClosed  = errors.New("session is closed")
)
