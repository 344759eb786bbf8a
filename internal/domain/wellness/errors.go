package wellness

import "errors"

// ErrUnknownMood is returned by ParseMood.
var ErrUnknownMood = errors.New("unknown mood")
