package score_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/coldcall/arena/internal/domain/model"
	"github.com/coldcall/arena/internal/domain/score"
)

func participant(id int, calls, deciders, meetings, streak int) model.Participant {
	return model.Participant{
		ID:        id,
		Calls:     calls,
		Deciders:  deciders,
		Meetings:  meetings,
		Streak:    streak,
		UnitValue: 500,
		CallGoal:  20,
	}
}

func TestEngine_Score(t *testing.T) {
	Convey("Given a default engine and a 500/20 participant", t, func() {
		engine := score.NewEngine()

		Convey("When the participant has one meeting and no streak", func() {
			p := participant(1, 20, 5, 1, 0)

			Convey("Then the score is exactly one unit", func() {
				So(engine.Score(p), ShouldEqual, 500.0)
			})
		})

		Convey("When a streak is in flight", func() {
			p := participant(1, 35, 5, 1, 15)

			Convey("Then each streak call advances by unitValue/callGoal", func() {
				So(engine.Score(p), ShouldEqual, 875.0) // 500 + 15 * 25
			})
		})

		Convey("When the streak overshoots the call goal", func() {
			p := participant(1, 60, 5, 1, 40)

			Convey("Then the advance caps strictly below one unit", func() {
				So(engine.Score(p), ShouldEqual, 999.0) // 500 + cap(40*25 -> 499)
			})

			Convey("And a long unconverted streak never outscores a meeting", func() {
				streaker := participant(2, 100, 0, 0, 100)
				closer := participant(3, 1, 1, 1, 0)
				So(engine.Score(streaker), ShouldBeLessThan, engine.Score(closer))
			})
		})

		Convey("When the call goal is below one", func() {
			p := participant(1, 3, 0, 0, 2)
			p.CallGoal = 0

			Convey("Then the goal is coerced to one call per meeting", func() {
				// wpa becomes unitValue/1 = 500, capped at 499.
				So(engine.Score(p), ShouldEqual, 499.0)
			})
		})

		Convey("When every counter is zero", func() {
			p := participant(1, 0, 0, 0, 0)

			Convey("Then the score is zero", func() {
				So(engine.Score(p), ShouldEqual, 0.0)
			})
		})
	})
}

func TestEngine_KPIs(t *testing.T) {
	Convey("Given a default engine", t, func() {
		engine := score.NewEngine()

		Convey("When a participant has activity", func() {
			p := participant(1, 40, 10, 2, 0)
			k := engine.KPIs(p)

			Convey("Then real value per call divides realized revenue by calls", func() {
				So(k.RealValuePerCall, ShouldEqual, 25.0) // 2 * 500 / 40
			})

			Convey("And decider rate divides deciders by calls", func() {
				So(k.DeciderRate, ShouldEqual, 0.25)
			})

			Convey("And meeting rate divides meetings by deciders", func() {
				So(k.MeetingRate, ShouldEqual, 0.2)
			})
		})

		Convey("When a participant has no calls", func() {
			k := engine.KPIs(participant(1, 0, 0, 0, 0))

			Convey("Then all rates are zero instead of NaN", func() {
				So(k.RealValuePerCall, ShouldEqual, 0.0)
				So(k.DeciderRate, ShouldEqual, 0.0)
				So(k.MeetingRate, ShouldEqual, 0.0)
			})
		})

		Convey("When a participant has calls but no deciders", func() {
			k := engine.KPIs(participant(1, 10, 0, 0, 3))

			Convey("Then the meeting rate stays zero", func() {
				So(k.MeetingRate, ShouldEqual, 0.0)
			})
		})
	})
}

func TestEngine_Rank(t *testing.T) {
	Convey("Given a default engine and a mixed roster", t, func() {
		engine := score.NewEngine()
		roster := []model.Participant{
			participant(1, 20, 5, 1, 0),  // 500
			participant(2, 60, 5, 2, 10), // 1250
			participant(3, 0, 0, 0, 0),   // 0
			participant(4, 10, 2, 1, 0),  // 500
		}

		Convey("When the roster is ranked", func() {
			ranked := engine.Rank(roster)

			Convey("Then ordering is by score descending", func() {
				So(ranked[0].Participant.ID, ShouldEqual, 2)
				So(ranked[1].Score, ShouldBeGreaterThanOrEqualTo, ranked[2].Score)
				So(ranked[2].Score, ShouldBeGreaterThanOrEqualTo, ranked[3].Score)
			})

			Convey("And ranks are assigned 1-based", func() {
				for i, r := range ranked {
					So(r.Rank, ShouldEqual, i+1)
				}
			})

			Convey("And equal scores keep roster order", func() {
				So(ranked[1].Participant.ID, ShouldEqual, 1)
				So(ranked[2].Participant.ID, ShouldEqual, 4)
			})
		})

		Convey("When the roster order is permuted", func() {
			permuted := []model.Participant{roster[2], roster[0], roster[3], roster[1]}
			ranked := engine.Rank(permuted)

			Convey("Then the winner is unchanged", func() {
				So(ranked[0].Participant.ID, ShouldEqual, 2)
			})
		})

		Convey("When the roster is empty", func() {
			ranked := engine.Rank(nil)

			Convey("Then the result is empty, not nil panic", func() {
				So(ranked, ShouldBeEmpty)
			})
		})
	})
}

func TestEngine_Leader(t *testing.T) {
	Convey("Given a default engine", t, func() {
		engine := score.NewEngine()

		Convey("When someone has scored", func() {
			ranked := engine.Rank([]model.Participant{
				participant(1, 20, 5, 1, 0),
				participant(2, 0, 0, 0, 0),
			})
			leader, ok := engine.Leader(ranked)

			Convey("Then the top entry leads", func() {
				So(ok, ShouldBeTrue)
				So(leader.Participant.ID, ShouldEqual, 1)
			})
		})

		Convey("When every score is zero", func() {
			ranked := engine.Rank([]model.Participant{
				participant(1, 0, 0, 0, 0),
				participant(2, 0, 0, 0, 0),
			})
			_, ok := engine.Leader(ranked)

			Convey("Then there is no leader", func() {
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When the ranked list is empty", func() {
			_, ok := engine.Leader(nil)

			Convey("Then there is no leader", func() {
				So(ok, ShouldBeFalse)
			})
		})
	})
}

func TestEngine_Nemesis(t *testing.T) {
	Convey("Given a ranked three-way board", t, func() {
		engine := score.NewEngine()
		p1 := participant(1, 60, 5, 2, 10) // 1250
		p1.Name = "Ada"
		p2 := participant(2, 20, 5, 1, 0) // 500
		p2.Name = "Grace"
		p3 := participant(3, 0, 0, 0, 0) // 0
		ranked := engine.Rank([]model.Participant{p1, p2, p3})

		Convey("When the leader asks for a nemesis", func() {
			n := engine.Nemesis(ranked, 1)

			Convey("Then the leader defends against second place", func() {
				So(n.Role, ShouldEqual, score.RoleDefending)
				So(n.RivalName, ShouldEqual, "Grace")
				So(n.Gap, ShouldEqual, 750.0)
			})
		})

		Convey("When a trailing participant asks", func() {
			n := engine.Nemesis(ranked, 3)

			Convey("Then it chases the entry directly above", func() {
				So(n.Role, ShouldEqual, score.RoleChasing)
				So(n.RivalName, ShouldEqual, "Grace")
				So(n.Gap, ShouldEqual, 500.0)
			})
		})

		Convey("When a rival has no name", func() {
			n := engine.Nemesis(ranked, 2)

			Convey("Then the chase gap against the leader is positive", func() {
				So(n.Role, ShouldEqual, score.RoleChasing)
				So(n.RivalName, ShouldEqual, "Ada")
				So(n.Gap, ShouldEqual, 750.0)
			})
		})

		Convey("When the participant is unknown", func() {
			n := engine.Nemesis(ranked, 99)

			Convey("Then the result is a zero nemesis", func() {
				So(n.Role, ShouldBeEmpty)
				So(n.RivalName, ShouldBeEmpty)
			})
		})

		Convey("When the board has a single participant", func() {
			solo := engine.Rank([]model.Participant{p1})
			n := engine.Nemesis(solo, 1)

			Convey("Then it defends with no rival", func() {
				So(n.Role, ShouldEqual, score.RoleDefending)
				So(n.RivalName, ShouldBeEmpty)
				So(n.Gap, ShouldEqual, 0.0)
			})
		})
	})
}

func TestEngine_TeamProgress(t *testing.T) {
	Convey("Given a default engine", t, func() {
		engine := score.NewEngine()

		Convey("When the team is mid-flight", func() {
			roster := []model.Participant{
				participant(1, 20, 5, 1, 0), // 500
				participant(2, 20, 5, 1, 0), // 500
			}
			tp := engine.TeamProgress(roster, 4000)

			Convey("Then totals and percent line up", func() {
				So(tp.Total, ShouldEqual, 1000.0)
				So(tp.Percent, ShouldEqual, 25.0)
			})
		})

		Convey("When the team overshoots the target", func() {
			roster := []model.Participant{participant(1, 60, 5, 2, 10)} // 1250
			tp := engine.TeamProgress(roster, 1000)

			Convey("Then the percent clamps at 100", func() {
				So(tp.Total, ShouldEqual, 1250.0)
				So(tp.Percent, ShouldEqual, 100.0)
			})
		})

		Convey("When the target is not positive", func() {
			roster := []model.Participant{participant(1, 20, 5, 1, 0)}

			Convey("Then a scored team reads as complete", func() {
				So(engine.TeamProgress(roster, 0).Percent, ShouldEqual, 100.0)
			})

			Convey("And an idle team reads as zero", func() {
				idle := []model.Participant{participant(1, 0, 0, 0, 0)}
				So(engine.TeamProgress(idle, 0).Percent, ShouldEqual, 0.0)
			})
		})

		Convey("When the roster is empty", func() {
			tp := engine.TeamProgress(nil, 1000)

			Convey("Then everything is zero", func() {
				So(tp.Total, ShouldEqual, 0.0)
				So(tp.Percent, ShouldEqual, 0.0)
			})
		})
	})
}

func TestEngine_PredictConversion(t *testing.T) {
	Convey("Given an engine with a cold-call average of 40", t, func() {
		engine := score.NewEngine(score.WithColdCallAverage(40), score.WithBlendWeight(2))

		Convey("When no meeting has been booked", func() {
			p := participant(1, 10, 2, 0, 10)
			f := engine.PredictConversion(p)

			Convey("Then the cold average stands in for the estimate", func() {
				So(f.EstimatedCallsPerMeeting, ShouldEqual, 40)
				So(f.CallsRemaining, ShouldEqual, 30)
			})

			Convey("And confidence tracks streak over estimate", func() {
				So(f.Confidence, ShouldEqual, 25.0)
			})
		})

		Convey("When the observed rate is hot", func() {
			// 2 meetings in 20 calls: observed 10, blend (20 + 80) / 4 = 25.
			p := participant(1, 20, 6, 2, 5)
			f := engine.PredictConversion(p)

			Convey("Then the blend pulls the estimate toward the cold average", func() {
				So(f.EstimatedCallsPerMeeting, ShouldEqual, 25)
				So(f.CallsRemaining, ShouldEqual, 20)
			})
		})

		Convey("When the sample is large", func() {
			// 50 meetings in 500 calls: blend (500 + 80) / 52 = 11.15... -> 12.
			p := participant(1, 500, 120, 50, 0)
			f := engine.PredictConversion(p)

			Convey("Then the estimate converges on the observed rate", func() {
				So(f.EstimatedCallsPerMeeting, ShouldEqual, 12)
			})
		})

		Convey("When the streak runs past the estimate", func() {
			p := participant(1, 100, 10, 2, 80)
			f := engine.PredictConversion(p)

			Convey("Then calls remaining goes negative (overdue)", func() {
				So(f.CallsRemaining, ShouldBeLessThan, 0)
			})

			Convey("And confidence caps at 99", func() {
				So(f.Confidence, ShouldEqual, 99.0)
			})
		})
	})
}
