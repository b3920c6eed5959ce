package client

import "errors"

// Client-specific errors
var (
	ErrClientClosed      = errors.New("client is closed")
	ErrNotJoined         = errors.New("client has not joined")
	ErrInvalidConfig     = errors.New("invalid client configuration")
	ErrInvalidDirection  = errors.New("direction must be one of 'u', 'd', 'l', 'r'")
	ErrUnknownTransport  = errors.New("unknown transport")
	ErrConnectionTimeout = errors.New("connection timeout")
)
