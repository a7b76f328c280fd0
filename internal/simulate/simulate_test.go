package simulate

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	logging "github.com/coldcall/arena/pkg/logger"
)

func TestGenerateActions(t *testing.T) {
	Convey("Given a simulation config", t, func() {
		_ = logging.Init()

		config := &Config{NumActions: 200, RosterSize: 4}
		stats := &Stats{}

		Convey("When actions are generated", func() {
			actions, err := generateActions(context.Background(), config, stats)
			So(err, ShouldBeNil)

			Convey("Then the batch has the requested size", func() {
				So(actions, ShouldHaveLength, 200)
				So(stats.ActionsGenerated, ShouldEqual, 200)
			})

			Convey("And every action is well formed", func() {
				ids := make(map[string]bool, len(actions))
				for _, a := range actions {
					So(a.ActionID, ShouldNotBeEmpty)
					So(ids[a.ActionID], ShouldBeFalse)
					ids[a.ActionID] = true

					So(a.ParticipantID, ShouldBeBetweenOrEqual, 1, 4)
					So(a.Kind, ShouldBeIn, "call", "decider_reached", "meeting_booked")
					So(a.Undo, ShouldBeFalse)
				}
			})
		})
	})
}

func TestExpectationsFor(t *testing.T) {
	Convey("Given a generated batch", t, func() {
		actions := []Action{
			{ParticipantID: 1, Kind: "call"},
			{ParticipantID: 1, Kind: "decider_reached"},
			{ParticipantID: 1, Kind: "meeting_booked"},
			{ParticipantID: 2, Kind: "call"},
		}

		Convey("When folded into expected counters", func() {
			expected := expectationsFor(actions)

			Convey("Then deciders and meetings count as calls too", func() {
				So(expected[1].calls, ShouldEqual, 3)
				So(expected[1].deciders, ShouldEqual, 2)
				So(expected[1].meetings, ShouldEqual, 1)
				So(expected[2].calls, ShouldEqual, 1)
				So(expected[2].deciders, ShouldEqual, 0)
			})
		})
	})
}
