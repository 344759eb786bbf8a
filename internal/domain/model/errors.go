package model

import "errors"

// ErrInvalidProfile is returned by UserProfile.Validate.
var ErrInvalidProfile = errors.New("invalid user profile")
