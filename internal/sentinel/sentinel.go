package sentinel

import "errors"

// Sentinel dependency errors. Stores return these (optionally wrapped) so the
// services can translate them into domain errors exactly once.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnavailable   = errors.New("unavailable")
	ErrCorrupt       = errors.New("corrupt data")
)
