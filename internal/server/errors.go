package server

import "errors"

// Server-specific errors
var (
	ErrServerAlreadyRunning = errors.New("server is already running")
	ErrInvalidRequestBody   = errors.New("invalid request body")
)

// Client-facing error messages. The wording is part of the HTTP API.
const (
	msgInvalidName      = "Player name is required and must be a non-empty string"
	msgInvalidDirection = "Invalid direction. Must be: up, down, left, right"
	msgPlayerIDRequired = "Player ID is required"
	msgPlayerNotFound   = "Player not found"
	msgNotFound         = "Endpoint not found"
	msgInternal         = "Internal server error"
	msgInvalidBody      = "Invalid request body"
)
