// Package model contains domain values passed between layers.
package model

import (
	"fmt"
	"strings"
)

// ActivityLevel describes how much the user moves on a typical day.
type ActivityLevel string

// Activity levels.
const (
	ActivityLow      ActivityLevel = "low"
	ActivityModerate ActivityLevel = "moderate"
	ActivityHigh     ActivityLevel = "high"
)

// StressLevel describes the user's typical stress.
type StressLevel string

// Stress levels.
const (
	StressLow    StressLevel = "low"
	StressMedium StressLevel = "medium"
	StressHigh   StressLevel = "high"
)

// HydrationLevel describes the user's typical water intake.
type HydrationLevel string

// Hydration levels.
const (
	HydrationPoor    HydrationLevel = "poor"
	HydrationAverage HydrationLevel = "average"
	HydrationGood    HydrationLevel = "good"
)

// UserProfile holds the inputs the ritual generator works from.
type UserProfile struct {
	SleepHours     float64        `json:"sleep_hours" koanf:"sleep_hours"`
	ActivityLevel  ActivityLevel  `json:"activity_level" koanf:"activity_level"`
	StressLevel    StressLevel    `json:"stress_level" koanf:"stress_level"`
	HydrationLevel HydrationLevel `json:"hydration_level" koanf:"hydration_level"`
}

// DemoProfile is the fixed profile used until real profile capture exists.
func DemoProfile() UserProfile {
	return UserProfile{
		SleepHours:     7,
		ActivityLevel:  ActivityModerate,
		StressLevel:    StressMedium,
		HydrationLevel: HydrationAverage,
	}
}

// Validate reports the first field outside its enumeration.
func (p UserProfile) Validate() error {
	switch p.ActivityLevel {
	case ActivityLow, ActivityModerate, ActivityHigh:
	default:
		return fmt.Errorf("%w: activity level %q", ErrInvalidProfile, p.ActivityLevel)
	}
	switch p.StressLevel {
	case StressLow, StressMedium, StressHigh:
	default:
		return fmt.Errorf("%w: stress level %q", ErrInvalidProfile, p.StressLevel)
	}
	switch p.HydrationLevel {
	case HydrationPoor, HydrationAverage, HydrationGood:
	default:
		return fmt.Errorf("%w: hydration level %q", ErrInvalidProfile, p.HydrationLevel)
	}
	if p.SleepHours < 0 || p.SleepHours > 24 {
		return fmt.Errorf("%w: sleep hours %v", ErrInvalidProfile, p.SleepHours)
	}
	return nil
}

// Normalize lower-cases and trims the enumerated fields.
func (p UserProfile) Normalize() UserProfile {
	p.ActivityLevel = ActivityLevel(strings.ToLower(strings.TrimSpace(string(p.ActivityLevel))))
	p.StressLevel = StressLevel(strings.ToLower(strings.TrimSpace(string(p.StressLevel))))
	p.HydrationLevel = HydrationLevel(strings.ToLower(strings.TrimSpace(string(p.HydrationLevel))))
	return p
}
