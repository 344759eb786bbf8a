// Package progression accumulates XP from ritual completion, applies the
// daily reset and derives the growth stage from total XP.
package progression

import (
	"fmt"
	"time"

	"github.com/okian/grove/internal/domain/growth"
	"github.com/okian/grove/internal/domain/model"
	"github.com/okian/grove/internal/domain/ritual"
)

// XP awards.
const (
	XPPerRitual    = 10
	XPDayCompleted = 20
)

// Generator produces a fresh ritual list for a profile.
type Generator interface {
	Generate(profile model.UserProfile) []model.Ritual
}

// State is the persisted and derived progression data.
type State struct {
	TotalXP   int            `json:"total_xp"`
	TodayXP   int            `json:"today_xp"`
	LastReset time.Time      `json:"last_reset"`
	Rituals   []model.Ritual `json:"rituals"`
}

// Option applies a configuration option to the Tracker.
type Option func(*Tracker)

// WithGenerator replaces the ritual generator used on daily reset.
func WithGenerator(g Generator) Option {
	return func(t *Tracker) {
		if g != nil {
			t.generator = g
		}
	}
}

// WithLocation sets the time zone that defines calendar days.
func WithLocation(loc *time.Location) Option {
	return func(t *Tracker) {
		if loc != nil {
			t.loc = loc
		}
	}
}

// WithPublisher sets the event sink.
func WithPublisher(p Publisher) Option {
	return func(t *Tracker) {
		if p != nil {
			t.publisher = p
		}
	}
}

// WithClock sets the time source used to stamp events.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// Tracker is the progression state machine. It is not safe for concurrent
// use; the application service serializes access.
type Tracker struct {
	generator Generator
	loc       *time.Location
	publisher Publisher
	now       func() time.Time

	totalXP   int
	todayXP   int
	lastReset time.Time
	rituals   []model.Ritual

	// observed is the last stage seen, kept only to detect stage edges.
	observed growth.Stage
}

// NewTracker restores a tracker from state. No event is emitted for the
// restored stage.
func NewTracker(state State, opts ...Option) *Tracker {
	t := &Tracker{
		generator: ritual.New(),
		loc:       time.Local,
		publisher: PublisherFunc(func(Event) {}),
		now:       time.Now,
		totalXP:   max(state.TotalXP, 0),
		todayXP:   max(state.TodayXP, 0),
		lastReset: state.LastReset,
		rituals:   cloneRituals(state.Rituals),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.observed = growth.ForXP(t.totalXP)
	return t
}

// TotalXP is the accumulated XP across all days.
func (t *Tracker) TotalXP() int { return t.totalXP }

// TodayXP is the XP attributable to the current ritual set.
func (t *Tracker) TodayXP() int { return t.todayXP }

// LastReset is when the ritual set was last regenerated.
func (t *Tracker) LastReset() time.Time { return t.lastReset }

// Stage derives the growth stage from total XP.
func (t *Tracker) Stage() growth.Stage { return growth.ForXP(t.totalXP) }

// Rituals returns a copy of the current ritual list.
func (t *Tracker) Rituals() []model.Ritual { return cloneRituals(t.rituals) }

// Snapshot returns a copy of the full state.
func (t *Tracker) Snapshot() State {
	return State{
		TotalXP:   t.totalXP,
		TodayXP:   t.todayXP,
		LastReset: t.lastReset,
		Rituals:   cloneRituals(t.rituals),
	}
}

// CompletionPercent is the share of today's rituals completed, 0..100, and 0
// when there are no rituals.
func (t *Tracker) CompletionPercent() float64 {
	if len(t.rituals) == 0 {
		return 0
	}
	return float64(model.CountCompleted(t.rituals)) / float64(len(t.rituals)) * 100
}

// Toggle flips the completion flag of ritual id and recalculates XP.
func (t *Tracker) Toggle(id string) (model.Ritual, error) {
	i, err := t.indexOf(id)
	if err != nil {
		return model.Ritual{}, err
	}
	t.rituals[i].IsCompleted = !t.rituals[i].IsCompleted
	t.Recalculate()
	return t.rituals[i], nil
}

// SetCompleted sets the completion flag of ritual id and recalculates XP.
// Setting a flag to its current value changes nothing.
func (t *Tracker) SetCompleted(id string, done bool) (model.Ritual, error) {
	i, err := t.indexOf(id)
	if err != nil {
		return model.Ritual{}, err
	}
	t.rituals[i].IsCompleted = done
	t.Recalculate()
	return t.rituals[i], nil
}

// Recalculate recomputes today's XP from the completion flags and applies the
// difference to the total, so undoing a completion takes back exactly what it
// granted, bonus included.
func (t *Tracker) Recalculate() {
	completed := model.CountCompleted(t.rituals)
	newToday := completed * XPPerRitual
	if completed == len(t.rituals) && len(t.rituals) > 0 {
		newToday += XPDayCompleted
	}

	t.totalXP += newToday - t.todayXP
	t.todayXP = newToday

	t.publishState(EventStateChanged)
	t.observeStage()
}

// CheckDailyReset regenerates the rituals from profile and zeroes today's XP
// when now falls on a later calendar day than the last reset. Total XP is
// kept. It reports whether a reset happened.
func (t *Tracker) CheckDailyReset(now time.Time, profile model.UserProfile) bool {
	if sameDay(t.lastReset, now, t.loc) {
		return false
	}
	t.rituals = t.generator.Generate(profile)
	t.todayXP = 0
	t.lastReset = now

	t.publishState(EventDailyReset)
	t.publishState(EventStateChanged)
	return true
}

// Seed sets total XP to the starting XP of stage, as happens once when
// onboarding completes. The day is re-based with it: completions made before
// seeding are cleared and today's XP restarts at zero, so later toggles only
// move XP that is part of the seeded total. The stage baseline moves silently.
func (t *Tracker) Seed(stage growth.Stage) {
	for i := range t.rituals {
		t.rituals[i].IsCompleted = false
	}
	t.todayXP = 0
	t.Restore(stage.StartingXP())
	t.publishState(EventStateChanged)
}

// Restore replaces total XP with a value read back from storage, keeping
// today's XP. The stage baseline moves silently. A total below today's XP is
// raised to it, so today's completions can always be undone.
func (t *Tracker) Restore(totalXP int) {
	t.totalXP = max(totalXP, t.todayXP, 0)
	t.observed = growth.ForXP(t.totalXP)
}

func (t *Tracker) observeStage() {
	current := growth.ForXP(t.totalXP)
	if current == t.observed {
		return
	}
	kind := EventPromotion
	if current < t.observed {
		kind = EventDemotion
	}
	e := t.event(kind)
	e.From, e.To = t.observed, current
	t.observed = current
	t.publisher.Publish(e)
}

func (t *Tracker) publishState(kind EventKind) {
	t.publisher.Publish(t.event(kind))
}

func (t *Tracker) event(kind EventKind) Event {
	stage := growth.ForXP(t.totalXP)
	return Event{
		Kind:    kind,
		From:    stage,
		To:      stage,
		TotalXP: t.totalXP,
		TodayXP: t.todayXP,
		At:      t.now(),
	}
}

func (t *Tracker) indexOf(id string) (int, error) {
	for i := range t.rituals {
		if t.rituals[i].ID == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %s", ErrRitualNotFound, id)
}

// sameDay reports whether a and b share a calendar date in loc.
func sameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

func cloneRituals(rs []model.Ritual) []model.Ritual {
	if rs == nil {
		return nil
	}
	return append([]model.Ritual(nil), rs...)
}
