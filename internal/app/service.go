// Package service owns the application state: persisted flags, the
// progression tracker and the mood tracker. It serializes every operation
// and implements the dependencies required by the HTTP API and CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/grove/internal/adapters/settings"
	"github.com/okian/grove/internal/domain/model"
	"github.com/okian/grove/internal/domain/onboarding"
	"github.com/okian/grove/internal/domain/progression"
	"github.com/okian/grove/internal/domain/ritual"
	"github.com/okian/grove/internal/domain/types"
	"github.com/okian/grove/internal/domain/wellness"
	"github.com/okian/grove/pkg/logger"
	"github.com/okian/grove/pkg/metrics"
)

const defaultEventBuffer = 64

// Service implements the API dependencies for the growth engine.
type Service struct {
	mu sync.Mutex

	// Configuration
	store       settings.Store
	profile     model.UserProfile
	loc         *time.Location
	now         func() time.Time
	generator   progression.Generator
	eventBuffer int

	// State
	started          bool
	seenWelcome      bool
	completedOnboard bool
	tracker          *progression.Tracker
	mood             *wellness.Tracker
	bus              *progression.Bus
	pending          <-chan progression.Event
	cancelPending    func()
	cancelStore      func()

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore sets the settings store. The service closes it on Stop.
func WithStore(store settings.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithProfile sets the profile rituals are generated from.
func WithProfile(p model.UserProfile) Option {
	return func(s *Service) {
		s.profile = p
	}
}

// WithLocation sets the time zone that decides calendar days.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithGenerator replaces the ritual generator.
func WithGenerator(g progression.Generator) Option {
	return func(s *Service) {
		if g != nil {
			s.generator = g
		}
	}
}

// WithEventBuffer sets the buffer of the pending-events subscription.
func WithEventBuffer(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.eventBuffer = n
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		profile:     model.DemoProfile(),
		loc:         time.Local,
		now:         time.Now,
		generator:   ritual.New(),
		eventBuffer: defaultEventBuffer,
		bus:         progression.NewBus(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = settings.NewMemoryStore()
	}
	return s
}

// Start loads persisted settings and builds today's rituals. Rituals are not
// persisted, so a restart always begins with a fresh set and zero XP for
// today while total XP carries over.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting growth service...")

	var errs []error
	keep := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}
	var err error
	s.seenWelcome, err = settings.Bool(ctx, s.store, settings.KeyHasSeenWelcome, false)
	keep(err)
	s.completedOnboard, err = settings.Bool(ctx, s.store, settings.KeyHasCompletedOnboarding, false)
	keep(err)
	totalXP, err := settings.Int(ctx, s.store, settings.KeyTotalXP, 0)
	keep(err)
	lastReset, err := settings.Time(ctx, s.store, settings.KeyLastResetDate)
	keep(err)
	for _, err := range errs {
		if !errors.Is(err, settings.ErrMalformedValue) {
			return fmt.Errorf("load settings: %w", err)
		}
		s.logger.Warn(ctx, "ignoring malformed setting", logger.Error(err))
	}

	s.tracker = progression.NewTracker(
		progression.State{
			TotalXP:   totalXP,
			LastReset: lastReset,
			Rituals:   s.generator.Generate(s.profile),
		},
		progression.WithGenerator(s.generator),
		progression.WithLocation(s.loc),
		progression.WithClock(s.now),
		progression.WithPublisher(progression.PublisherFunc(s.publish)),
	)
	s.mood = wellness.NewTracker()
	s.pending, s.cancelPending = s.bus.Subscribe(s.eventBuffer)
	s.cancelStore = s.store.Subscribe(s.applyExternal)
	s.updateGauges()

	s.started = true
	s.logger.Info(ctx, "growth service started",
		logger.Int("totalXP", totalXP),
		logger.String("stage", s.tracker.Stage().String()),
		logger.Int("rituals", len(s.tracker.Rituals())),
		logger.Bool("hasCompletedOnboarding", s.completedOnboard),
	)
	return nil
}

// Stop releases the pending-events subscription and closes the store.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping growth service...")
	s.cancelStore()
	s.cancelPending()
	s.started = false
	if err := s.store.Close(); err != nil {
		return fmt.Errorf("close settings: %w", err)
	}
	s.logger.Info(ctx, "growth service stopped")
	return nil
}

// Activate runs the daily reset check, as happens whenever the app becomes
// active. It reports whether a reset happened.
func (s *Service) Activate(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return false, ErrNotStarted
	}
	return s.checkDailyReset(ctx)
}

// ToggleRitual flips one ritual's completion. The daily reset check runs
// first, so an id from yesterday's set yields progression.ErrRitualNotFound.
func (s *Service) ToggleRitual(ctx context.Context, id string) (model.Ritual, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return model.Ritual{}, ErrNotStarted
	}
	if _, err := s.checkDailyReset(ctx); err != nil {
		return model.Ritual{}, err
	}

	r, err := s.tracker.Toggle(id)
	if err != nil {
		return model.Ritual{}, err
	}
	metrics.RecordRitualToggled(r.IsCompleted)
	s.logger.Debug(ctx, "ritual toggled",
		logger.String("id", r.ID),
		logger.String("title", r.Title),
		logger.Bool("completed", r.IsCompleted),
		logger.Int("todayXP", s.tracker.TodayXP()),
		logger.Int("totalXP", s.tracker.TotalXP()),
	)
	if err := s.persistInt(ctx, settings.KeyTotalXP, s.tracker.TotalXP()); err != nil {
		return r, err
	}
	return r, nil
}

// MarkWelcomeSeen records that the welcome screen was dismissed.
func (s *Service) MarkWelcomeSeen(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return ErrNotStarted
	}
	if s.seenWelcome {
		return nil
	}
	if err := s.persistBool(ctx, settings.KeyHasSeenWelcome, true); err != nil {
		return err
	}
	s.seenWelcome = true
	return nil
}

// Questions returns the onboarding questionnaire.
func (s *Service) Questions() []onboarding.Question {
	return onboarding.Questions()
}

// CompleteOnboarding scores the chosen option indexes, one per question, and
// seeds total XP with the resulting stage's starting XP. It can happen once.
func (s *Service) CompleteOnboarding(ctx context.Context, answers []int) (onboarding.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return onboarding.Result{}, ErrNotStarted
	}
	if s.completedOnboard {
		return onboarding.Result{}, ErrOnboardingCompleted
	}
	res, err := onboarding.Score(answers)
	if err != nil {
		return onboarding.Result{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	s.tracker.Seed(res.Stage)
	if err := s.persistInt(ctx, settings.KeyTotalXP, s.tracker.TotalXP()); err != nil {
		return res, err
	}
	if err := s.persistBool(ctx, settings.KeyHasCompletedOnboarding, true); err != nil {
		return res, err
	}
	s.completedOnboard = true

	metrics.RecordOnboardingCompleted(res.Stage.String())
	s.logger.Info(ctx, "onboarding completed",
		logger.Float64("score", res.Score),
		logger.String("stage", res.Stage.String()),
		logger.Int("totalXP", s.tracker.TotalXP()),
	)
	return res, nil
}

// SetMood records the selected mood and returns it, resolved, with the
// adjusted scores.
func (s *Service) SetMood(ctx context.Context, name string) (wellness.Mood, wellness.Scores, error) {
	m, err := wellness.ParseMood(name)
	if err != nil {
		return "", wellness.Scores{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return "", wellness.Scores{}, ErrNotStarted
	}
	s.mood.Apply(m)
	metrics.RecordMoodChange(string(m))
	s.logger.Debug(ctx, "mood set", logger.String("mood", string(m)))
	return m, s.mood.Scores(), nil
}

// State returns a snapshot of everything the dashboard shows. The daily reset
// check runs first so a snapshot never lists yesterday's rituals.
func (s *Service) State(ctx context.Context) (types.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return types.Snapshot{}, ErrNotStarted
	}
	// A failed lastResetDate write is logged by persist; the fresh day is
	// still served.
	_, _ = s.checkDailyReset(ctx)

	st := s.tracker.Snapshot()
	return types.Snapshot{
		HasSeenWelcome:         s.seenWelcome,
		HasCompletedOnboarding: s.completedOnboard,
		Screen:                 types.Route(s.seenWelcome, s.completedOnboard),
		TotalXP:                st.TotalXP,
		TodayXP:                st.TodayXP,
		LastReset:              st.LastReset,
		Stage:                  types.NewStageView(st.TotalXP),
		Rituals:                st.Rituals,
		CompletionPercent:      s.tracker.CompletionPercent(),
		Mood:                   s.mood.Mood(),
		Scores:                 s.mood.Scores(),
	}, nil
}

// Screen reports which top-level view to show.
func (s *Service) Screen() types.Screen {
	s.mu.Lock()
	defer s.mu.Unlock()
	return types.Route(s.seenWelcome, s.completedOnboard)
}

// Subscribe registers an additional event subscriber.
func (s *Service) Subscribe(buffer int) (<-chan progression.Event, func()) {
	return s.bus.Subscribe(buffer)
}

// PendingEvents drains the events buffered since the last call. Events
// beyond the buffer are dropped.
func (s *Service) PendingEvents() []progression.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	var out []progression.Event
	for {
		select {
		case e := <-s.pending:
			out = append(out, e)
		default:
			return out
		}
	}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := map[string]any{
		"started":     s.started,
		"subscribers": s.bus.Subscribers(),
	}
	if s.started {
		stats["totalXP"] = s.tracker.TotalXP()
		stats["todayXP"] = s.tracker.TodayXP()
		stats["stage"] = s.tracker.Stage().String()
		stats["rituals"] = len(s.tracker.Rituals())
	}
	return stats
}

func (s *Service) checkDailyReset(ctx context.Context) (bool, error) {
	now := s.now()
	if !s.tracker.CheckDailyReset(now, s.profile) {
		return false, nil
	}
	s.logger.Info(ctx, "daily reset",
		logger.Time("at", now),
		logger.Int("rituals", len(s.tracker.Rituals())),
		logger.Int("totalXP", s.tracker.TotalXP()),
	)
	if err := s.persist(ctx, settings.KeyLastResetDate, func() error {
		return settings.SetTime(ctx, s.store, settings.KeyLastResetDate, now)
	}); err != nil {
		return true, err
	}
	return true, nil
}

// applyExternal re-hydrates flags and total XP from values another process
// wrote to the store. Writes made by this service arrive without External
// and are ignored, since Set runs while s.mu is held.
func (s *Service) applyExternal(c settings.Change) {
	if !c.External {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	var err error
	switch c.Key {
	case settings.KeyTotalXP:
		var total int
		if total, err = c.Int(); err == nil {
			s.tracker.Restore(total)
			s.updateGauges()
		}
	case settings.KeyHasSeenWelcome:
		var seen bool
		if seen, err = c.Bool(); err == nil {
			s.seenWelcome = seen
		}
	case settings.KeyHasCompletedOnboarding:
		var done bool
		if done, err = c.Bool(); err == nil {
			s.completedOnboard = done
		}
	default:
		return
	}
	if err != nil {
		s.logger.Warn(ctx, "ignoring malformed external setting", logger.Error(err))
		return
	}
	s.logger.Info(ctx, "setting reloaded",
		logger.String("key", c.Key),
		logger.String("value", c.Value),
		logger.Int("totalXP", s.tracker.TotalXP()),
	)
}

// publish runs under s.mu from inside tracker calls.
func (s *Service) publish(e progression.Event) {
	ctx := context.Background()
	switch e.Kind {
	case progression.EventPromotion:
		metrics.RecordStageTransition("promotion", e.To.String())
		s.logger.Info(ctx, "stage promoted",
			logger.String("from", e.From.String()),
			logger.String("to", e.To.String()),
			logger.Int("totalXP", e.TotalXP),
		)
	case progression.EventDemotion:
		metrics.RecordStageTransition("demotion", e.To.String())
		s.logger.Info(ctx, "stage demoted",
			logger.String("from", e.From.String()),
			logger.String("to", e.To.String()),
			logger.Int("totalXP", e.TotalXP),
		)
	case progression.EventDailyReset:
		metrics.RecordDailyReset()
	case progression.EventStateChanged:
		s.updateGauges()
	}
	s.bus.Publish(e)
}

func (s *Service) updateGauges() {
	metrics.UpdateProgress(
		s.tracker.TotalXP(),
		s.tracker.TodayXP(),
		int(s.tracker.Stage()),
		s.tracker.CompletionPercent()/100,
	)
}

func (s *Service) persistInt(ctx context.Context, key string, v int) error {
	return s.persist(ctx, key, func() error { return settings.SetInt(ctx, s.store, key, v) })
}

func (s *Service) persistBool(ctx context.Context, key string, v bool) error {
	return s.persist(ctx, key, func() error { return settings.SetBool(ctx, s.store, key, v) })
}

func (s *Service) persist(ctx context.Context, key string, write func() error) error {
	if err := write(); err != nil {
		metrics.RecordSettingsError("set")
		s.logger.Error(ctx, "persist setting failed", logger.String("key", key), logger.Error(err))
		return fmt.Errorf("persist %s: %w", key, err)
	}
	metrics.RecordSettingsWrite()
	return nil
}
