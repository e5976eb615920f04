package domain

import "errors"

var (
	// ErrAuthRequired means no usable credential exists; it aborts the run.
	ErrAuthRequired  = errors.New("authentication required")
	ErrNoCredentials = errors.New("no credentials configured")
	ErrTokenNotFound = errors.New("token not found")
)
