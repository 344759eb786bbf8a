package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted          = errors.New("service not started")
	ErrOnboardingCompleted = errors.New("onboarding already completed")
	ErrInvalidInput        = errors.New("invalid input")
)
