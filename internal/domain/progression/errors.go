package progression

import "errors"

// ErrRitualNotFound is returned when a ritual id is not in today's set.
var ErrRitualNotFound = errors.New("ritual not found")
