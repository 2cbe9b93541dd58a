package domain

import "errors"

// Sentinel errors for the application. Services wrap these with context via
// fmt.Errorf("...: %w", err); handlers map them to HTTP statuses with errors.Is.
var (
	ErrNotFound           = errors.New("resource not found")
	ErrUnauthorized       = errors.New("unauthorized access")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("resource already exists")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInsufficientPoints = errors.New("insufficient eco-points")
	ErrInternal           = errors.New("internal server error")
)
