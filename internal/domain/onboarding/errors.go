package onboarding

import "errors"

// Sentinel errors for questionnaire input that does not fit the catalog.
var (
	ErrOptionOutOfRange = errors.New("option index out of range")
	ErrAnswerCount      = errors.New("answer count does not match questionnaire")
)
