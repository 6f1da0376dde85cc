package registry

import "errors"

// Sentinel kinds for registry errors. Callers use errors.Is to detect
// configuration problems, which are fatal at startup.
var (
	ErrConfig = errors.New("invalid registry config")
)
