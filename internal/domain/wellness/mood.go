// Package wellness tracks the user's mood and the four wellness scores it
// nudges: mind, body, recovery and energy.
package wellness

import (
	"fmt"
	"strings"

	"github.com/okian/grove/internal/domain/growth"
)

// Mood is the user's self-reported state.
type Mood string

// Moods.
const (
	MoodCalm        Mood = "calm"
	MoodHappy       Mood = "happy"
	MoodStressed    Mood = "stressed"
	MoodTired       Mood = "tired"
	MoodOverwhelmed Mood = "overwhelmed"
)

// Moods lists every mood in display order.
var Moods = []Mood{MoodCalm, MoodHappy, MoodStressed, MoodTired, MoodOverwhelmed}

// ParseMood resolves a mood name, case-insensitively.
func ParseMood(s string) (Mood, error) {
	m := Mood(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Moods {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMood, s)
}

// Scores are the four wellness dimensions, each 0..100.
type Scores struct {
	Mind     float64 `json:"mind"`
	Body     float64 `json:"body"`
	Recovery float64 `json:"recovery"`
	Energy   float64 `json:"energy"`
}

// Overall is the mean of the four dimensions.
func (s Scores) Overall() float64 {
	return (s.Mind + s.Body + s.Recovery + s.Energy) / 4
}

// Stage maps Overall onto the onboarding bands.
func (s Scores) Stage() growth.Stage {
	return growth.ForScore(s.Overall())
}

// BaseScores are the dimension values before any mood effect.
func BaseScores() Scores {
	return Scores{Mind: 80, Body: 95, Recovery: 70, Energy: 90}
}

// Tracker holds the current mood and its derived scores.
type Tracker struct {
	base   Scores
	mood   Mood
	scores Scores
}

// NewTracker starts calm on the base scores. The calm effect only applies
// once a mood is chosen.
func NewTracker() *Tracker {
	base := BaseScores()
	return &Tracker{base: base, mood: MoodCalm, scores: base}
}

// Mood returns the current mood.
func (t *Tracker) Mood() Mood { return t.mood }

// Scores returns the current scores.
func (t *Tracker) Scores() Scores { return t.scores }

// Apply sets the mood and recomputes scores from the base values, so effects
// never stack across changes.
func (t *Tracker) Apply(m Mood) {
	t.mood = m
	t.scores = Effect(t.base, m)
}

// Effect returns base adjusted by mood, each dimension clamped to 0..100.
func Effect(base Scores, m Mood) Scores {
	s := base
	switch m {
	case MoodCalm:
		s.Mind += 2
	case MoodHappy:
		s.Mind += 3
		s.Energy += 2
	case MoodStressed:
		s.Mind -= 5
	case MoodTired:
		s.Recovery -= 4
	case MoodOverwhelmed:
		s.Mind -= 6
		s.Energy -= 3
	}
	return Scores{
		Mind:     clamp(s.Mind),
		Body:     clamp(s.Body),
		Recovery: clamp(s.Recovery),
		Energy:   clamp(s.Energy),
	}
}

func clamp(v float64) float64 {
	return min(max(v, 0), 100)
}
