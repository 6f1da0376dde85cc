package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrUnknownPersona = errors.New("unknown persona")
	ErrEmptyBatch     = errors.New("empty batch")
)
