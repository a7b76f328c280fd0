package app_test

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/coldcall/arena/internal/adapters/http/api"
	"github.com/coldcall/arena/internal/app"
	"github.com/coldcall/arena/internal/domain/model"
	logging "github.com/coldcall/arena/pkg/logger"
)

// waitFor polls cond until it holds or the deadline passes.
func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func newService(t *testing.T) *app.Service {
	t.Helper()
	_ = logging.Init()

	svc := app.New(
		app.WithWorkerCount(2),
		app.WithQueueSize(64),
		app.WithRosterSize(4),
		app.WithEventLogPath(":memory:"),
	)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	return svc
}

func submit(ctx context.Context, svc *app.Service, id string, pid int, kind model.ActionKind) bool {
	return svc.Enqueue(ctx, model.Action{
		ActionID:      id,
		SessionID:     "s1",
		ParticipantID: pid,
		Kind:          kind,
		TS:            time.Now(),
	})
}

func TestService_Pipeline(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		svc := newService(t)
		defer svc.Stop()

		Convey("When actions flow through the queue", func() {
			So(submit(ctx, svc, "a1", 1, model.ActionCall), ShouldBeTrue)
			So(submit(ctx, svc, "a2", 1, model.ActionCall), ShouldBeTrue)
			So(submit(ctx, svc, "a3", 1, model.ActionMeeting), ShouldBeTrue)
			So(submit(ctx, svc, "a4", 2, model.ActionDecider), ShouldBeTrue)

			applied := waitFor(func() bool {
				board, err := svc.Scoreboard(ctx, "s1")
				if err != nil {
					return false
				}
				total := 0
				for _, p := range board.Participants {
					total += p.Calls
				}
				return total == 4
			})
			So(applied, ShouldBeTrue)

			Convey("Then the scoreboard reflects every action", func() {
				board, err := svc.Scoreboard(ctx, "s1")
				So(err, ShouldBeNil)
				So(board.Participants, ShouldHaveLength, 4)

				// Rows come back in rank order; participant 1 holds a meeting.
				top := board.Participants[0]
				So(top.ID, ShouldEqual, 1)
				So(top.Calls, ShouldEqual, 3)
				So(top.Meetings, ShouldEqual, 1)
				So(top.Streak, ShouldEqual, 0)
				So(top.Score, ShouldEqual, 500.0)
				So(board.Leader, ShouldNotBeNil)
				So(board.Leader.ID, ShouldEqual, 1)
			})

			Convey("And the history view saw the same activity", func() {
				hist, err := svc.History(ctx, "s1", 1)
				So(err, ShouldBeNil)
				day := hist.Windows["day"]
				So(day.Calls.Current, ShouldEqual, 3.0)
				So(day.Meetings.Current, ShouldEqual, 1.0)
				So(day.Revenue.Current, ShouldEqual, 500.0)
			})
		})

		Convey("When a duplicate action id arrives", func() {
			So(svc.SeenAndRecord(ctx, "dup-1"), ShouldBeFalse)

			Convey("Then the second submission is flagged", func() {
				So(svc.SeenAndRecord(ctx, "dup-1"), ShouldBeTrue)
				So(svc.Size(), ShouldEqual, 1)
			})

			Convey("And unrecording reopens the id", func() {
				svc.Unrecord(ctx, "dup-1")
				So(svc.SeenAndRecord(ctx, "dup-1"), ShouldBeFalse)
			})
		})

		Convey("When an idle session is viewed", func() {
			board, err := svc.Scoreboard(ctx, "empty")
			So(err, ShouldBeNil)

			Convey("Then there is no leader and zero progress", func() {
				So(board.Leader, ShouldBeNil)
				So(board.Team.Total, ShouldEqual, 0.0)
				So(board.Team.Percent, ShouldEqual, 0.0)
				So(board.TimerRunning, ShouldBeFalse)
			})
		})
	})
}

func TestService_SettingsGoalsAndReset(t *testing.T) {
	Convey("Given a started service with activity", t, func() {
		ctx := context.Background()
		svc := newService(t)
		defer svc.Stop()

		So(submit(ctx, svc, "b1", 1, model.ActionMeeting), ShouldBeTrue)
		So(waitFor(func() bool {
			board, err := svc.Scoreboard(ctx, "s1")
			return err == nil && len(board.Participants) > 0 && board.Participants[0].Meetings == 1
		}), ShouldBeTrue)

		Convey("When a participant is renamed and retuned", func() {
			name := "Ada"
			unit := 750.0
			board, err := svc.UpdateSettings(ctx, "s1", 1, &name, &unit, nil)
			So(err, ShouldBeNil)

			Convey("Then the board shows the new settings with counters intact", func() {
				top := board.Participants[0]
				So(top.Name, ShouldEqual, "Ada")
				So(top.UnitValue, ShouldEqual, 750.0)
				So(top.Meetings, ShouldEqual, 1)
				So(top.Score, ShouldEqual, 750.0)
			})
		})

		Convey("When the team target changes", func() {
			board, err := svc.SetTeamTarget(ctx, "s1", 1000)
			So(err, ShouldBeNil)

			Convey("Then progress is recomputed against it", func() {
				So(board.TeamTarget, ShouldEqual, 1000.0)
				So(board.Team.Percent, ShouldEqual, 50.0)
			})
		})

		Convey("When goals are saved and read back through history", func() {
			So(svc.SaveGoals(ctx, "s1", 1, goalsFixture()), ShouldBeNil)

			hist, err := svc.History(ctx, "s1", 1)
			So(err, ShouldBeNil)

			Convey("Then each window pairs totals with its goal column", func() {
				So(hist.Windows["day"].Calls.Goal, ShouldEqual, 30.0)
				So(hist.Windows["week"].Calls.Goal, ShouldEqual, 150.0)
				So(hist.Windows["day"].Revenue.Goal, ShouldEqual, 1000.0)
			})
		})

		Convey("When history targets an unknown participant", func() {
			_, err := svc.History(ctx, "s1", 42)

			Convey("Then it errors", func() {
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When the session is reset", func() {
			board, err := svc.Reset(ctx, "s1")
			So(err, ShouldBeNil)

			Convey("Then counters and history are wiped together", func() {
				for _, p := range board.Participants {
					So(p.Calls, ShouldEqual, 0)
					So(p.Meetings, ShouldEqual, 0)
				}
				So(board.Leader, ShouldBeNil)

				hist, err := svc.History(ctx, "s1", 1)
				So(err, ShouldBeNil)
				So(hist.Windows["year"].Calls.Current, ShouldEqual, 0.0)
			})
		})
	})
}

func TestService_Timer(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		svc := newService(t)
		defer svc.Stop()

		Convey("When the timer starts for 30 minutes", func() {
			board, err := svc.Timer(ctx, "s1", "start", 30)
			So(err, ShouldBeNil)

			Convey("Then all viewers see it running", func() {
				So(board.TimerRunning, ShouldBeTrue)
				So(board.TimerRemainingSeconds, ShouldBeBetweenOrEqual, 1795, 1800)
			})

			Convey("And pause then resume keeps the countdown", func() {
				paused, err := svc.Timer(ctx, "s1", "pause", 0)
				So(err, ShouldBeNil)
				So(paused.TimerRunning, ShouldBeFalse)

				resumed, err := svc.Timer(ctx, "s1", "resume", 0)
				So(err, ShouldBeNil)
				So(resumed.TimerRunning, ShouldBeTrue)
				So(resumed.TimerRemainingSeconds, ShouldBeBetweenOrEqual, 1795, 1800)
			})
		})

		Convey("When the timer starts without a duration", func() {
			board, err := svc.Timer(ctx, "s1", "start", 0)
			So(err, ShouldBeNil)

			Convey("Then the configured default length applies", func() {
				So(board.TimerRunning, ShouldBeTrue)
				So(board.TimerRemainingSeconds, ShouldBeBetweenOrEqual, 3595, 3600)
			})
		})

		Convey("When an unknown op is sent", func() {
			_, err := svc.Timer(ctx, "s1", "restart", 0)

			Convey("Then it errors", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestService_WatchScoreboard(t *testing.T) {
	Convey("Given a started service with a watcher", t, func() {
		ctx, cancelCtx := context.WithCancel(context.Background())
		defer cancelCtx()
		svc := newService(t)
		defer svc.Stop()

		boards, cancel, err := svc.WatchScoreboard(ctx, "s1")
		So(err, ShouldBeNil)
		defer cancel()

		Convey("When an action is applied", func() {
			So(submit(ctx, svc, "w1", 1, model.ActionCall), ShouldBeTrue)

			Convey("Then the watcher receives a derived board", func() {
				select {
				case board := <-boards:
					So(board.SessionID, ShouldEqual, "s1")
					So(board.Version, ShouldBeGreaterThanOrEqualTo, 1)
				case <-time.After(2 * time.Second):
					t.Fatal("watcher did not receive a board")
				}
			})
		})

		Convey("When the watcher cancels", func() {
			cancel()

			Convey("Then the derived board channel closes", func() {
				select {
				case _, ok := <-boards:
					So(ok, ShouldBeFalse)
				case <-time.After(2 * time.Second):
					t.Fatal("board channel was not closed on cancel")
				}
			})
		})
	})
}

func TestService_GetStats(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := newService(t)
		defer svc.Stop()

		Convey("When stats are read", func() {
			stats := svc.GetStats()

			Convey("Then the pipeline shape is reported", func() {
				So(stats["started"], ShouldBeTrue)
				So(stats["workerCount"], ShouldEqual, 2)
				So(stats["queueSize"], ShouldEqual, 64)
				So(stats, ShouldContainKey, "sessions")
			})
		})
	})
}

func goalsFixture() (g api.GoalsRequest) {
	g.DailyCalls = 30
	g.WeeklyCalls = 150
	g.DailyRevenue = 1000
	return g
}
