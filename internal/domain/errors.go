package domain

import "errors"

// Domain errors shared across entities
var (
	ErrNotFound      = errors.New("resource not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrInternalError = errors.New("internal error")
	ErrInvalidToken  = errors.New("invalid or expired token")
)

// Validation constants
const (
	MaxEmailLength     = 255
	MaxGuestNameLength = 50
)
