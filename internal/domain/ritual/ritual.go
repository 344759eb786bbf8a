// Package ritual turns a user profile into the day's recommended rituals.
package ritual

import (
	"github.com/google/uuid"

	"github.com/okian/grove/internal/domain/model"
)

// Ritual titles. Callers match on these when they need a specific ritual.
const (
	TitleTrackSleep     = "Track Sleep Quality"
	TitleLightWalk      = "15 min Light Walk"
	TitleWorkout        = "30 min Workout"
	TitleStrengthCardio = "Strength + Cardio Session"
	TitleDeepBreathing  = "10 min Deep Breathing"
	TitleMeditation     = "5 min Mindful Meditation"
	TitleHydration      = "Drink 2L Water Today"
)

// Option applies a configuration option to the Generator.
type Option func(*Generator)

// WithIDFunc replaces the identity source for generated rituals.
func WithIDFunc(fn func() string) Option {
	return func(g *Generator) {
		if fn != nil {
			g.newID = fn
		}
	}
}

// Generator builds ritual lists. The zero value is not usable; call New.
type Generator struct {
	newID func() string
}

// New creates a Generator that assigns random UUIDs.
func New(opts ...Option) *Generator {
	g := &Generator{newID: uuid.NewString}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns three or four incomplete rituals for profile in fixed
// order: sleep, activity, stress, then hydration when intake is poor.
func (g *Generator) Generate(profile model.UserProfile) []model.Ritual {
	rituals := make([]model.Ritual, 0, 4)
	add := func(title string, category model.RitualCategory, icon string) {
		rituals = append(rituals, model.Ritual{
			ID:       g.newID(),
			Title:    title,
			Category: category,
			Icon:     icon,
		})
	}

	add(TitleTrackSleep, model.RitualPhysical, "moon.fill")

	switch profile.ActivityLevel {
	case model.ActivityHigh:
		add(TitleStrengthCardio, model.RitualPhysical, "flame.fill")
	case model.ActivityModerate:
		add(TitleWorkout, model.RitualPhysical, "figure.walk")
	default:
		add(TitleLightWalk, model.RitualPhysical, "figure.walk")
	}

	if profile.StressLevel == model.StressHigh {
		add(TitleDeepBreathing, model.RitualMental, "wind")
	} else {
		add(TitleMeditation, model.RitualMental, "brain.head.profile")
	}

	if profile.HydrationLevel == model.HydrationPoor {
		add(TitleHydration, model.RitualPhysical, "drop.fill")
	}

	return rituals
}

var defaultGenerator = New()

// Generate builds rituals with random identities.
func Generate(profile model.UserProfile) []model.Ritual {
	return defaultGenerator.Generate(profile)
}
