// Package types contains read shapes shared by the service and its adapters.
package types

import (
	"time"

	"github.com/okian/grove/internal/domain/growth"
	"github.com/okian/grove/internal/domain/model"
	"github.com/okian/grove/internal/domain/wellness"
)

// Screen names the top-level view the client should show.
type Screen string

// Screens in routing order.
const (
	ScreenWelcome    Screen = "welcome"
	ScreenOnboarding Screen = "onboarding"
	ScreenDashboard  Screen = "dashboard"
)

// Route picks the screen from the persisted flags. Completing onboarding
// wins over an unseen welcome.
func Route(hasSeenWelcome, hasCompletedOnboarding bool) Screen {
	switch {
	case hasCompletedOnboarding:
		return ScreenDashboard
	case hasSeenWelcome:
		return ScreenOnboarding
	default:
		return ScreenWelcome
	}
}

// StageView is a growth stage with its display metadata.
type StageView struct {
	Stage   growth.Stage `json:"stage"`
	Title   string       `json:"title"`
	Message string       `json:"message"`
	Image   string       `json:"image"`
	// NextXP is the total XP at which the next stage begins; omitted at the
	// final stage.
	NextXP *int `json:"next_xp,omitempty"`
}

// NewStageView describes the stage for totalXP.
func NewStageView(totalXP int) StageView {
	s := growth.ForXP(totalXP)
	v := StageView{Stage: s, Title: s.Title(), Message: s.Message(), Image: s.ImageKey()}
	if next, ok := growth.NextThreshold(totalXP); ok {
		v.NextXP = &next
	}
	return v
}

// Snapshot is everything the dashboard renders.
type Snapshot struct {
	HasSeenWelcome         bool            `json:"has_seen_welcome"`
	HasCompletedOnboarding bool            `json:"has_completed_onboarding"`
	Screen                 Screen          `json:"screen"`
	TotalXP                int             `json:"total_xp"`
	TodayXP                int             `json:"today_xp"`
	LastReset              time.Time       `json:"last_reset"`
	Stage                  StageView       `json:"stage"`
	Rituals                []model.Ritual  `json:"rituals"`
	CompletionPercent      float64         `json:"completion_percent"`
	Mood                   wellness.Mood   `json:"mood"`
	Scores                 wellness.Scores `json:"scores"`
}
