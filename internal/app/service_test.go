package service_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/grove/internal/adapters/settings"
	service "github.com/okian/grove/internal/app"
	"github.com/okian/grove/internal/domain/growth"
	"github.com/okian/grove/internal/domain/model"
	"github.com/okian/grove/internal/domain/onboarding"
	"github.com/okian/grove/internal/domain/progression"
	"github.com/okian/grove/internal/domain/ritual"
	"github.com/okian/grove/internal/domain/types"
	"github.com/okian/grove/internal/domain/wellness"
	"github.com/okian/grove/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

var day1 = time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

// harness builds a service over store with a movable clock and sequential
// ritual ids.
type harness struct {
	svc   *service.Service
	store settings.Store
	now   time.Time
}

func newHarness(store settings.Store) *harness {
	h := &harness{store: store, now: day1}
	n := 0
	gen := ritual.New(ritual.WithIDFunc(func() string {
		n++
		return fmt.Sprintf("r%d", n)
	}))
	h.svc = service.New(
		service.WithStore(store),
		service.WithLogger(logger.Nop()),
		service.WithLocation(time.UTC),
		service.WithClock(func() time.Time { return h.now }),
		service.WithGenerator(gen),
		service.WithProfile(model.DemoProfile()),
	)
	return h
}

func (h *harness) ids(ctx context.Context) []string {
	st, err := h.svc.State(ctx)
	So(err, ShouldBeNil)
	out := make([]string, 0, len(st.Rituals))
	for _, r := range st.Rituals {
		out = append(out, r.ID)
	}
	return out
}

func kinds(events []progression.Event) []progression.EventKind {
	out := make([]progression.EventKind, 0, len(events))
	for _, e := range events {
		out = append(out, e.Kind)
	}
	return out
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		ctx := context.Background()
		h := newHarness(settings.NewMemoryStore())

		Convey("When used before Start", func() {
			_, err := h.svc.ToggleRitual(ctx, "r1")
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			_, err = h.svc.Activate(ctx)
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			_, err = h.svc.State(ctx)
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			So(h.svc.PendingEvents(), ShouldBeNil)
			So(h.svc.GetStats()["started"], ShouldEqual, false)
		})

		Convey("When started on an empty store", func() {
			So(h.svc.Start(ctx), ShouldBeNil)
			So(h.svc.Start(ctx), ShouldBeNil)
			st, err := h.svc.State(ctx)
			So(err, ShouldBeNil)

			Convey("Then it shows the welcome screen with fresh rituals", func() {
				So(st.Screen, ShouldEqual, types.ScreenWelcome)
				So(st.TotalXP, ShouldEqual, 0)
				So(st.TodayXP, ShouldEqual, 0)
				So(st.Stage.Stage, ShouldEqual, growth.Seed)
				So(st.Rituals, ShouldHaveLength, 3)
				So(st.CompletionPercent, ShouldEqual, 0)
				So(st.Mood, ShouldEqual, wellness.MoodCalm)
				So(h.svc.GetStats()["started"], ShouldEqual, true)
			})

			Convey("And Stop closes it", func() {
				So(h.svc.Stop(ctx), ShouldBeNil)
				So(h.svc.Stop(ctx), ShouldBeNil)
				_, err := h.svc.State(ctx)
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			})
		})
	})
}

func TestService_Routing(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		h := newHarness(settings.NewMemoryStore())
		So(h.svc.Start(ctx), ShouldBeNil)

		Convey("When the welcome is dismissed", func() {
			So(h.svc.MarkWelcomeSeen(ctx), ShouldBeNil)

			Convey("Then onboarding is next and the flag is persisted", func() {
				So(h.svc.Screen(), ShouldEqual, types.ScreenOnboarding)
				seen, err := settings.Bool(ctx, h.store, settings.KeyHasSeenWelcome, false)
				So(err, ShouldBeNil)
				So(seen, ShouldBeTrue)
			})

			Convey("And completing onboarding leads to the dashboard", func() {
				_, err := h.svc.CompleteOnboarding(ctx, []int{1, 1, 1, 1, 1})
				So(err, ShouldBeNil)
				So(h.svc.Screen(), ShouldEqual, types.ScreenDashboard)
			})
		})
	})
}

func TestService_CompleteOnboarding(t *testing.T) {
	Convey("Given a started and activated service", t, func() {
		ctx := context.Background()
		h := newHarness(settings.NewMemoryStore())
		So(h.svc.Start(ctx), ShouldBeNil)
		_, err := h.svc.Activate(ctx)
		So(err, ShouldBeNil)
		h.svc.PendingEvents()

		Convey("When the best option is chosen everywhere", func() {
			res, err := h.svc.CompleteOnboarding(ctx, []int{0, 0, 0, 0, 0})
			So(err, ShouldBeNil)

			Convey("Then total XP is seeded from the stage without a promotion", func() {
				So(res.Score, ShouldEqual, 100)
				So(res.Stage, ShouldEqual, growth.Blooming)

				st, err := h.svc.State(ctx)
				So(err, ShouldBeNil)
				So(st.TotalXP, ShouldEqual, 700)
				So(st.Stage.Stage, ShouldEqual, growth.Blooming)
				So(st.HasCompletedOnboarding, ShouldBeTrue)

				So(kinds(h.svc.PendingEvents()), ShouldResemble, []progression.EventKind{progression.EventStateChanged})

				total, err := settings.Int(ctx, h.store, settings.KeyTotalXP, 0)
				So(err, ShouldBeNil)
				So(total, ShouldEqual, 700)
				done, err := settings.Bool(ctx, h.store, settings.KeyHasCompletedOnboarding, false)
				So(err, ShouldBeNil)
				So(done, ShouldBeTrue)
			})

			Convey("And it cannot run twice", func() {
				_, err := h.svc.CompleteOnboarding(ctx, []int{3, 3, 3, 3, 3})
				So(errors.Is(err, service.ErrOnboardingCompleted), ShouldBeTrue)
			})
		})

		Convey("When rituals were completed before onboarding", func() {
			ids := h.ids(ctx)
			for _, id := range ids {
				_, err := h.svc.ToggleRitual(ctx, id)
				So(err, ShouldBeNil)
			}
			_, err := h.svc.CompleteOnboarding(ctx, []int{3, 3, 3, 3, 3})
			So(err, ShouldBeNil)

			Convey("Then the seeded total starts a clean day", func() {
				st, err := h.svc.State(ctx)
				So(err, ShouldBeNil)
				So(st.TotalXP, ShouldEqual, growth.Seed.StartingXP())
				So(st.TodayXP, ShouldEqual, 0)
				So(model.CountCompleted(st.Rituals), ShouldEqual, 0)
			})

			Convey("And a toggle and its undo leave the total unchanged", func() {
				_, err := h.svc.ToggleRitual(ctx, ids[0])
				So(err, ShouldBeNil)
				_, err = h.svc.ToggleRitual(ctx, ids[0])
				So(err, ShouldBeNil)

				st, err := h.svc.State(ctx)
				So(err, ShouldBeNil)
				So(st.TotalXP, ShouldEqual, growth.Seed.StartingXP())
				So(st.TodayXP, ShouldEqual, 0)
				total, err := settings.Int(ctx, h.store, settings.KeyTotalXP, -1)
				So(err, ShouldBeNil)
				So(total, ShouldEqual, growth.Seed.StartingXP())
			})
		})

		Convey("When the answers are invalid", func() {
			_, err := h.svc.CompleteOnboarding(ctx, []int{0, 0})
			So(errors.Is(err, service.ErrInvalidInput), ShouldBeTrue)
			So(errors.Is(err, onboarding.ErrAnswerCount), ShouldBeTrue)

			_, err = h.svc.CompleteOnboarding(ctx, []int{0, 0, 0, 0, 9})
			So(errors.Is(err, service.ErrInvalidInput), ShouldBeTrue)
			So(errors.Is(err, onboarding.ErrOptionOutOfRange), ShouldBeTrue)

			st, err := h.svc.State(ctx)
			So(err, ShouldBeNil)
			So(st.HasCompletedOnboarding, ShouldBeFalse)
			So(st.TotalXP, ShouldEqual, 0)
		})
	})
}

func TestService_ToggleRitual(t *testing.T) {
	Convey("Given a started and activated service", t, func() {
		ctx := context.Background()
		h := newHarness(settings.NewMemoryStore())
		So(h.svc.Start(ctx), ShouldBeNil)

		reset, err := h.svc.Activate(ctx)
		So(err, ShouldBeNil)
		So(reset, ShouldBeTrue)
		ids := h.ids(ctx)
		So(ids, ShouldHaveLength, 3)
		h.svc.PendingEvents()

		Convey("When one ritual is completed", func() {
			r, err := h.svc.ToggleRitual(ctx, ids[0])
			So(err, ShouldBeNil)
			So(r.IsCompleted, ShouldBeTrue)

			Convey("Then ten XP is earned and persisted", func() {
				st, err := h.svc.State(ctx)
				So(err, ShouldBeNil)
				So(st.TodayXP, ShouldEqual, 10)
				So(st.TotalXP, ShouldEqual, 10)
				total, err := settings.Int(ctx, h.store, settings.KeyTotalXP, 0)
				So(err, ShouldBeNil)
				So(total, ShouldEqual, 10)
			})
		})

		Convey("When every ritual is completed", func() {
			for _, id := range ids {
				_, err := h.svc.ToggleRitual(ctx, id)
				So(err, ShouldBeNil)
			}

			Convey("Then the day bonus applies", func() {
				st, err := h.svc.State(ctx)
				So(err, ShouldBeNil)
				So(st.TodayXP, ShouldEqual, 50)
				So(st.TotalXP, ShouldEqual, 50)
				So(st.CompletionPercent, ShouldEqual, 100)
			})

			Convey("And undoing one removes the bonus too", func() {
				_, err := h.svc.ToggleRitual(ctx, ids[1])
				So(err, ShouldBeNil)
				st, err := h.svc.State(ctx)
				So(err, ShouldBeNil)
				So(st.TodayXP, ShouldEqual, 20)
				So(st.TotalXP, ShouldEqual, 20)
			})
		})

		Convey("When the id is unknown", func() {
			_, err := h.svc.ToggleRitual(ctx, "nope")
			So(errors.Is(err, progression.ErrRitualNotFound), ShouldBeTrue)
		})
	})
}

func TestService_Promotion(t *testing.T) {
	Convey("Given a stored total just below a threshold", t, func() {
		ctx := context.Background()
		store := settings.NewMemoryStore()
		So(settings.SetInt(ctx, store, settings.KeyTotalXP, 90), ShouldBeNil)
		So(settings.SetTime(ctx, store, settings.KeyLastResetDate, day1), ShouldBeNil)
		h := newHarness(store)
		So(h.svc.Start(ctx), ShouldBeNil)
		events, cancel := h.svc.Subscribe(16)
		defer cancel()

		Convey("When a ritual pushes it over", func() {
			ids := h.ids(ctx)
			_, err := h.svc.ToggleRitual(ctx, ids[0])
			So(err, ShouldBeNil)

			Convey("Then exactly one promotion fires", func() {
				got := h.svc.PendingEvents()
				So(kinds(got), ShouldResemble, []progression.EventKind{
					progression.EventStateChanged,
					progression.EventPromotion,
				})
				So(got[1].From, ShouldEqual, growth.Seed)
				So(got[1].To, ShouldEqual, growth.Sprout)
				So(got[1].TotalXP, ShouldEqual, 100)

				So((<-events).Kind, ShouldEqual, progression.EventStateChanged)
				So((<-events).Kind, ShouldEqual, progression.EventPromotion)
			})

			Convey("And undoing it demotes", func() {
				h.svc.PendingEvents()
				_, err := h.svc.ToggleRitual(ctx, ids[0])
				So(err, ShouldBeNil)
				So(kinds(h.svc.PendingEvents()), ShouldResemble, []progression.EventKind{
					progression.EventStateChanged,
					progression.EventDemotion,
				})
			})
		})
	})
}

func TestService_DailyReset(t *testing.T) {
	Convey("Given a day with every ritual completed", t, func() {
		ctx := context.Background()
		h := newHarness(settings.NewMemoryStore())
		So(h.svc.Start(ctx), ShouldBeNil)
		_, err := h.svc.Activate(ctx)
		So(err, ShouldBeNil)
		yesterday := h.ids(ctx)
		for _, id := range yesterday {
			_, err := h.svc.ToggleRitual(ctx, id)
			So(err, ShouldBeNil)
		}

		Convey("When activated again the same day", func() {
			h.now = day1.Add(13 * time.Hour)
			reset, err := h.svc.Activate(ctx)
			So(err, ShouldBeNil)
			So(reset, ShouldBeFalse)
		})

		Convey("When activated the next day", func() {
			h.now = day1.Add(24 * time.Hour)
			h.svc.PendingEvents()
			reset, err := h.svc.Activate(ctx)
			So(err, ShouldBeNil)
			So(reset, ShouldBeTrue)

			Convey("Then today's XP resets while total XP is kept", func() {
				st, err := h.svc.State(ctx)
				So(err, ShouldBeNil)
				So(st.TodayXP, ShouldEqual, 0)
				So(st.TotalXP, ShouldEqual, 50)
				So(model.CountCompleted(st.Rituals), ShouldEqual, 0)
				So(st.LastReset.Equal(h.now), ShouldBeTrue)

				last, err := settings.Time(ctx, h.store, settings.KeyLastResetDate)
				So(err, ShouldBeNil)
				So(last.Unix(), ShouldEqual, h.now.Unix())

				So(kinds(h.svc.PendingEvents()), ShouldResemble, []progression.EventKind{
					progression.EventDailyReset,
					progression.EventStateChanged,
				})
			})
		})

		Convey("When the state is read after midnight", func() {
			h.now = day1.Add(24 * time.Hour)
			st, err := h.svc.State(ctx)
			So(err, ShouldBeNil)

			Convey("Then today's rituals are already fresh", func() {
				So(st.TodayXP, ShouldEqual, 0)
				So(st.TotalXP, ShouldEqual, 50)
				So(model.CountCompleted(st.Rituals), ShouldEqual, 0)
				So(st.Rituals[0].ID, ShouldNotEqual, yesterday[0])

				last, err := settings.Time(ctx, h.store, settings.KeyLastResetDate)
				So(err, ShouldBeNil)
				So(last.Unix(), ShouldEqual, h.now.Unix())
			})

			Convey("And its ids can be toggled", func() {
				_, err := h.svc.ToggleRitual(ctx, st.Rituals[0].ID)
				So(err, ShouldBeNil)
			})
		})

		Convey("When a stale ritual is toggled after midnight", func() {
			h.now = day1.Add(24 * time.Hour)
			_, err := h.svc.ToggleRitual(ctx, yesterday[0])

			Convey("Then the reset runs first and the id is gone", func() {
				So(errors.Is(err, progression.ErrRitualNotFound), ShouldBeTrue)
				st, err := h.svc.State(ctx)
				So(err, ShouldBeNil)
				So(st.TodayXP, ShouldEqual, 0)
				So(st.TotalXP, ShouldEqual, 50)
			})
		})
	})
}

func TestService_SetMood(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		h := newHarness(settings.NewMemoryStore())
		So(h.svc.Start(ctx), ShouldBeNil)

		Convey("When a mood is chosen", func() {
			mood, scores, err := h.svc.SetMood(ctx, "Happy")
			So(err, ShouldBeNil)
			So(mood, ShouldEqual, wellness.MoodHappy)
			So(scores.Mind, ShouldEqual, 83)
			So(scores.Energy, ShouldEqual, 92)

			st, err := h.svc.State(ctx)
			So(err, ShouldBeNil)
			So(st.Mood, ShouldEqual, wellness.MoodHappy)
		})

		Convey("When the mood is unknown", func() {
			_, _, err := h.svc.SetMood(ctx, "grumpy")
			So(errors.Is(err, service.ErrInvalidInput), ShouldBeTrue)
			So(errors.Is(err, wellness.ErrUnknownMood), ShouldBeTrue)
		})
	})
}

func TestService_Persistence(t *testing.T) {
	Convey("Given a service backed by SQLite", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "grove.db")
		store, err := settings.NewSQLiteStore(ctx, path)
		So(err, ShouldBeNil)
		h := newHarness(store)
		So(h.svc.Start(ctx), ShouldBeNil)
		So(h.svc.MarkWelcomeSeen(ctx), ShouldBeNil)
		_, err = h.svc.CompleteOnboarding(ctx, []int{1, 1, 1, 1, 1})
		So(err, ShouldBeNil)
		_, err = h.svc.Activate(ctx)
		So(err, ShouldBeNil)
		_, err = h.svc.ToggleRitual(ctx, h.ids(ctx)[0])
		So(err, ShouldBeNil)
		So(h.svc.Stop(ctx), ShouldBeNil)

		Convey("When a new service opens the same database", func() {
			again, err := settings.NewSQLiteStore(ctx, path)
			So(err, ShouldBeNil)
			h2 := newHarness(again)
			So(h2.svc.Start(ctx), ShouldBeNil)
			defer func() { _ = h2.svc.Stop(ctx) }()

			Convey("Then flags and total XP survive but today's rituals are fresh", func() {
				st, err := h2.svc.State(ctx)
				So(err, ShouldBeNil)
				So(st.Screen, ShouldEqual, types.ScreenDashboard)
				So(st.TotalXP, ShouldEqual, growth.YoungPlant.StartingXP()+10)
				So(st.TodayXP, ShouldEqual, 0)
				So(model.CountCompleted(st.Rituals), ShouldEqual, 0)
				So(st.LastReset.Unix(), ShouldEqual, day1.Unix())

				reset, err := h2.svc.Activate(ctx)
				So(err, ShouldBeNil)
				So(reset, ShouldBeFalse)
			})
		})
	})

	Convey("Given a store holding a malformed total", t, func() {
		ctx := context.Background()
		store := settings.NewMemoryStore()
		So(store.Set(ctx, settings.KeyTotalXP, "lots"), ShouldBeNil)
		h := newHarness(store)

		Convey("Then Start falls back to the default", func() {
			So(h.svc.Start(ctx), ShouldBeNil)
			st, err := h.svc.State(ctx)
			So(err, ShouldBeNil)
			So(st.TotalXP, ShouldEqual, 0)
		})
	})
}

func TestService_ExternalEdits(t *testing.T) {
	Convey("Given a service over a watched YAML store", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		path := filepath.Join(t.TempDir(), "settings.yaml")
		store, err := settings.NewFileStore(path)
		So(err, ShouldBeNil)
		h := newHarness(store)
		So(h.svc.Start(ctx), ShouldBeNil)
		defer func() { _ = h.svc.Stop(context.Background()) }()
		_, err = h.svc.Activate(ctx)
		So(err, ShouldBeNil)

		done := make(chan error, 1)
		go func() { done <- store.Watch(ctx, nil) }()
		// Give the watcher a moment to register the directory.
		time.Sleep(100 * time.Millisecond)

		Convey("When another process rewrites the progress", func() {
			edit := fmt.Sprintf("hasSeenWelcome: \"true\"\nhasCompletedOnboarding: \"true\"\ntotalXP: \"650\"\nlastResetDate: \"%d\"\n", day1.Unix())
			So(os.WriteFile(path, []byte(edit), 0o644), ShouldBeNil)

			Convey("Then the state follows it", func() {
				var st types.Snapshot
				deadline := time.Now().Add(3 * time.Second)
				for time.Now().Before(deadline) {
					st, err = h.svc.State(ctx)
					So(err, ShouldBeNil)
					if st.TotalXP == 650 && st.HasCompletedOnboarding {
						break
					}
					time.Sleep(20 * time.Millisecond)
				}
				So(st.TotalXP, ShouldEqual, 650)
				So(st.Stage.Stage, ShouldEqual, growth.Blooming)
				So(st.Screen, ShouldEqual, types.ScreenDashboard)

				Convey("And later toggles build on the edited total", func() {
					_, err := h.svc.ToggleRitual(ctx, st.Rituals[0].ID)
					So(err, ShouldBeNil)
					total, err := settings.Int(ctx, store, settings.KeyTotalXP, 0)
					So(err, ShouldBeNil)
					So(total, ShouldEqual, 660)
				})

				cancel()
				So(<-done, ShouldBeNil)
			})
		})
	})
}
