package service

import "errors"

// Failure taxonomy. Handlers and the HTTP error handler switch on these
// with errors.Is; nothing here is fatal, every failure is per-request.
var (
	// ErrInvalidCredentials never distinguishes unknown identity from a
	// wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrConflict           = errors.New("email already registered")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
)
