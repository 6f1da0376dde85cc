package repository

import "errors"

// Sentinel kinds for history store errors.
var (
	ErrNotFound     = errors.New("critique not found")
	ErrInvalidLimit = errors.New("invalid history limit")
	ErrStore        = errors.New("history store failure")
)
