package growth

import "errors"

// ErrUnknownStage is returned when a stage key or value is not recognised.
var ErrUnknownStage = errors.New("unknown growth stage")
