package progression_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/okian/grove/internal/domain/growth"
	"github.com/okian/grove/internal/domain/model"
	"github.com/okian/grove/internal/domain/progression"
	"github.com/okian/grove/internal/domain/ritual"
	. "github.com/smartystreets/goconvey/convey"
)

type recorder struct {
	events []progression.Event
}

func (r *recorder) Publish(e progression.Event) { r.events = append(r.events, e) }

func (r *recorder) kinds(kind progression.EventKind) []progression.Event {
	var out []progression.Event
	for _, e := range r.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func countingGenerator() *ritual.Generator {
	n := 0
	return ritual.New(ritual.WithIDFunc(func() string {
		n++
		return fmt.Sprintf("r%d", n)
	}))
}

var (
	day1 = time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	calm = model.UserProfile{
		SleepHours:     8,
		ActivityLevel:  model.ActivityModerate,
		StressLevel:    model.StressLow,
		HydrationLevel: model.HydrationGood,
	}
)

func newTracker(total int, rec *recorder) *progression.Tracker {
	t := progression.NewTracker(
		progression.State{TotalXP: total},
		progression.WithGenerator(countingGenerator()),
		progression.WithLocation(time.UTC),
		progression.WithPublisher(rec),
		progression.WithClock(func() time.Time { return day1 }),
	)
	t.CheckDailyReset(day1, calm)
	rec.events = nil
	return t
}

func TestRecalculate(t *testing.T) {
	Convey("Given a tracker with three fresh rituals", t, func() {
		rec := &recorder{}
		tr := newTracker(0, rec)
		rs := tr.Rituals()
		So(len(rs), ShouldEqual, 3)

		Convey("When completing one ritual", func() {
			r, err := tr.Toggle(rs[0].ID)
			So(err, ShouldBeNil)
			So(r.IsCompleted, ShouldBeTrue)

			Convey("Then ten XP are earned", func() {
				So(tr.TodayXP(), ShouldEqual, 10)
				So(tr.TotalXP(), ShouldEqual, 10)
				So(tr.CompletionPercent(), ShouldAlmostEqual, 100.0/3.0)
			})
		})

		Convey("When completing all rituals", func() {
			for _, r := range rs {
				_, err := tr.Toggle(r.ID)
				So(err, ShouldBeNil)
			}

			Convey("Then the day bonus is included", func() {
				So(tr.TodayXP(), ShouldEqual, 3*progression.XPPerRitual+progression.XPDayCompleted)
				So(tr.TotalXP(), ShouldEqual, 50)
				So(tr.CompletionPercent(), ShouldEqual, 100)
			})

			Convey("And undoing one removes its XP and the bonus", func() {
				_, err := tr.Toggle(rs[2].ID)
				So(err, ShouldBeNil)
				So(tr.TodayXP(), ShouldEqual, 20)
				So(tr.TotalXP(), ShouldEqual, 20)
			})
		})

		Convey("When recalculating repeatedly without changes", func() {
			_, _ = tr.Toggle(rs[0].ID)
			tr.Recalculate()
			tr.Recalculate()

			Convey("Then XP does not accumulate", func() {
				So(tr.TotalXP(), ShouldEqual, 10)
			})
		})

		Convey("When toggling an unknown id", func() {
			_, err := tr.Toggle("nope")

			Convey("Then ErrRitualNotFound is returned", func() {
				So(errors.Is(err, progression.ErrRitualNotFound), ShouldBeTrue)
				So(tr.TotalXP(), ShouldEqual, 0)
			})
		})

		Convey("When setting a flag to its current value", func() {
			_, err := tr.SetCompleted(rs[1].ID, true)
			So(err, ShouldBeNil)
			_, err = tr.SetCompleted(rs[1].ID, true)
			So(err, ShouldBeNil)

			Convey("Then it counts once", func() {
				So(tr.TotalXP(), ShouldEqual, 10)
			})
		})
	})
}

func TestToggleOrderIndependence(t *testing.T) {
	Convey("Given two trackers with the same rituals", t, func() {
		a := newTracker(200, &recorder{})
		b := newTracker(200, &recorder{})
		ra, rb := a.Rituals(), b.Rituals()

		Convey("When one completes everything then undoes one, and the other completes all but that one", func() {
			for _, r := range ra {
				_, _ = a.Toggle(r.ID)
			}
			_, _ = a.Toggle(ra[len(ra)-1].ID)

			for _, r := range rb[:len(rb)-1] {
				_, _ = b.Toggle(r.ID)
			}

			Convey("Then both end with the same totals", func() {
				So(a.TotalXP(), ShouldEqual, b.TotalXP())
				So(a.TodayXP(), ShouldEqual, b.TodayXP())
				So(a.TotalXP(), ShouldEqual, 220)
			})
		})
	})
}

func TestStageEvents(t *testing.T) {
	Convey("Given a tracker just below the sprout threshold", t, func() {
		rec := &recorder{}
		tr := newTracker(90, rec)
		rs := tr.Rituals()
		So(tr.Stage(), ShouldEqual, growth.Seed)

		Convey("When a completion crosses 100 XP", func() {
			_, _ = tr.Toggle(rs[0].ID)

			Convey("Then exactly one promotion fires", func() {
				promos := rec.kinds(progression.EventPromotion)
				So(len(promos), ShouldEqual, 1)
				So(promos[0].From, ShouldEqual, growth.Seed)
				So(promos[0].To, ShouldEqual, growth.Sprout)
				So(promos[0].At, ShouldEqual, day1)
				So(tr.Stage(), ShouldEqual, growth.Sprout)
			})

			Convey("And further gains inside the stage fire no more promotions", func() {
				_, _ = tr.Toggle(rs[1].ID)
				So(len(rec.kinds(progression.EventPromotion)), ShouldEqual, 1)
			})

			Convey("And undoing it fires a demotion", func() {
				_, _ = tr.Toggle(rs[0].ID)
				demos := rec.kinds(progression.EventDemotion)
				So(len(demos), ShouldEqual, 1)
				So(demos[0].To, ShouldEqual, growth.Seed)
			})
		})

		Convey("When seeding from onboarding", func() {
			tr.Seed(growth.Blooming)

			Convey("Then total XP jumps to the starting XP without a promotion", func() {
				So(tr.TotalXP(), ShouldEqual, 700)
				So(tr.Stage(), ShouldEqual, growth.Blooming)
				So(len(rec.kinds(progression.EventPromotion)), ShouldEqual, 0)
				So(len(rec.kinds(progression.EventStateChanged)), ShouldEqual, 1)
			})
		})
	})

	Convey("Given every ritual completed before seeding", t, func() {
		rec := &recorder{}
		tr := newTracker(0, rec)
		rs := tr.Rituals()
		for _, r := range rs {
			_, _ = tr.Toggle(r.ID)
		}
		So(tr.TotalXP(), ShouldEqual, 50)

		Convey("When onboarding seeds the lowest stage", func() {
			tr.Seed(growth.Seed)

			Convey("Then the day starts over from the seeded total", func() {
				So(tr.TotalXP(), ShouldEqual, 0)
				So(tr.TodayXP(), ShouldEqual, 0)
				So(tr.CompletionPercent(), ShouldEqual, 0)
			})

			Convey("And undoing then redoing a ritual is XP neutral", func() {
				_, _ = tr.Toggle(rs[0].ID)
				So(tr.TotalXP(), ShouldEqual, 10)
				_, _ = tr.Toggle(rs[0].ID)
				So(tr.TotalXP(), ShouldEqual, 0)
				So(tr.TodayXP(), ShouldEqual, 0)
			})
		})
	})
}

func TestRestore(t *testing.T) {
	Convey("Given a tracker with one ritual done", t, func() {
		rec := &recorder{}
		tr := newTracker(0, rec)
		rs := tr.Rituals()
		_, _ = tr.Toggle(rs[0].ID)
		rec.events = nil

		Convey("When a stored total replaces the current one", func() {
			tr.Restore(650)

			Convey("Then the stage follows without events and today is kept", func() {
				So(tr.TotalXP(), ShouldEqual, 650)
				So(tr.TodayXP(), ShouldEqual, 10)
				So(tr.Stage(), ShouldEqual, growth.Blooming)
				So(rec.events, ShouldBeEmpty)
			})

			Convey("And undoing the ritual subtracts from the new total", func() {
				_, _ = tr.Toggle(rs[0].ID)
				So(tr.TotalXP(), ShouldEqual, 640)
				So(len(rec.kinds(progression.EventDemotion)), ShouldEqual, 0)
			})
		})

		Convey("When the stored total is below today's XP", func() {
			tr.Restore(-5)
			So(tr.TotalXP(), ShouldEqual, 10)

			_, _ = tr.Toggle(rs[0].ID)
			So(tr.TotalXP(), ShouldEqual, 0)
		})
	})
}

func TestDailyReset(t *testing.T) {
	Convey("Given a tracker with progress earned on day one", t, func() {
		rec := &recorder{}
		tr := newTracker(400, rec)
		before := tr.Rituals()
		for _, r := range before {
			_, _ = tr.Toggle(r.ID)
		}
		So(tr.TodayXP(), ShouldEqual, 50)
		total := tr.TotalXP()

		Convey("When checked again later the same day", func() {
			reset := tr.CheckDailyReset(day1.Add(13*time.Hour+59*time.Minute), calm)

			Convey("Then nothing changes", func() {
				So(reset, ShouldBeFalse)
				So(tr.TodayXP(), ShouldEqual, 50)
				So(tr.Rituals(), ShouldResemble, tr.Snapshot().Rituals)
			})
		})

		Convey("When checked just after midnight", func() {
			next := time.Date(2026, 3, 11, 0, 1, 0, 0, time.UTC)
			reset := tr.CheckDailyReset(next, calm)

			Convey("Then rituals are regenerated and today's XP cleared", func() {
				So(reset, ShouldBeTrue)
				So(tr.TodayXP(), ShouldEqual, 0)
				So(tr.TotalXP(), ShouldEqual, total)
				So(tr.LastReset(), ShouldEqual, next)
				after := tr.Rituals()
				So(len(after), ShouldEqual, len(before))
				So(after[0].ID, ShouldNotEqual, before[0].ID)
				for _, r := range after {
					So(r.IsCompleted, ShouldBeFalse)
				}
				So(len(rec.kinds(progression.EventDailyReset)), ShouldEqual, 1)
			})

			Convey("And a second check the same day is a no-op", func() {
				So(tr.CheckDailyReset(next.Add(time.Hour), calm), ShouldBeFalse)
			})
		})

		Convey("When the calendar day is judged in another time zone", func() {
			tokyo := time.FixedZone("JST", 9*60*60)
			tz := progression.NewTracker(tr.Snapshot(), progression.WithLocation(tokyo))
			// 10:00 UTC on day one is 19:00 JST; 16:00 UTC is 01:00 JST the next day.
			reset := tz.CheckDailyReset(day1.Add(6*time.Hour), calm)

			Convey("Then local midnight decides", func() {
				So(reset, ShouldBeTrue)
			})
		})
	})

	Convey("Given a tracker that has never reset", t, func() {
		tr := progression.NewTracker(progression.State{TotalXP: 120, LastReset: time.Unix(0, 0)})

		Convey("Then the first check resets", func() {
			So(tr.Rituals(), ShouldBeEmpty)
			So(tr.CompletionPercent(), ShouldEqual, 0)
			So(tr.CheckDailyReset(day1, calm), ShouldBeTrue)
			So(len(tr.Rituals()), ShouldEqual, 3)
			So(tr.TotalXP(), ShouldEqual, 120)
		})
	})
}

func TestRecalculateEmpty(t *testing.T) {
	Convey("Given a tracker without rituals", t, func() {
		tr := progression.NewTracker(progression.State{TotalXP: 30})
		tr.Recalculate()

		Convey("Then no bonus is granted", func() {
			So(tr.TodayXP(), ShouldEqual, 0)
			So(tr.TotalXP(), ShouldEqual, 30)
		})
	})
}
