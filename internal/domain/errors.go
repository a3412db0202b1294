package domain

import "errors"

// Sentinel errors shared across the domain. Services return these directly
// so controllers can map them to HTTP statuses with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
)
