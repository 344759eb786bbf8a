package types_test

import (
	"encoding/json"
	"testing"

	"github.com/okian/grove/internal/domain/growth"
	types "github.com/okian/grove/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRoute(t *testing.T) {
	Convey("Given the persisted flags", t, func() {
		So(types.Route(false, false), ShouldEqual, types.ScreenWelcome)
		So(types.Route(true, false), ShouldEqual, types.ScreenOnboarding)
		So(types.Route(true, true), ShouldEqual, types.ScreenDashboard)
		So(types.Route(false, true), ShouldEqual, types.ScreenDashboard)
	})
}

func TestStageView(t *testing.T) {
	Convey("Given a total XP inside a stage", t, func() {
		v := types.NewStageView(120)

		Convey("Then the view carries the stage metadata and the next threshold", func() {
			So(v.Stage, ShouldEqual, growth.Sprout)
			So(v.Title, ShouldEqual, growth.Sprout.Title())
			So(v.Image, ShouldEqual, "sprout")
			So(v.NextXP, ShouldNotBeNil)
			So(*v.NextXP, ShouldEqual, 300)
		})
	})

	Convey("Given the final stage", t, func() {
		v := types.NewStageView(5000)

		Convey("Then there is no next threshold and it is omitted from JSON", func() {
			So(v.Stage, ShouldEqual, growth.Flourishing)
			So(v.NextXP, ShouldBeNil)

			raw, err := json.Marshal(v)
			So(err, ShouldBeNil)
			So(string(raw), ShouldContainSubstring, `"stage":"flourishing"`)
			So(string(raw), ShouldNotContainSubstring, "next_xp")
		})
	})
}
