package settings

import "errors"

// Sentinel kinds for settings errors.
var (
	ErrMalformedValue = errors.New("malformed settings value")
	ErrUnknownBackend = errors.New("unknown settings backend")
	ErrPathRequired   = errors.New("settings path required")
)
