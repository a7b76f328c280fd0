// Package app wires the session store, event log, action pipeline and
// scoring engine into the service the HTTP API talks to.
package app

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/coldcall/arena/internal/adapters/http/api"
	actionqueue "github.com/coldcall/arena/internal/adapters/mq/queue"
	workerpool "github.com/coldcall/arena/internal/adapters/mq/worker"
	"github.com/coldcall/arena/internal/adapters/repository"
	"github.com/coldcall/arena/internal/domain/dedupe"
	"github.com/coldcall/arena/internal/domain/model"
	"github.com/coldcall/arena/internal/domain/score"
	"github.com/coldcall/arena/internal/domain/types"
	"github.com/coldcall/arena/internal/domain/window"
	"github.com/coldcall/arena/pkg/logger"
	"github.com/coldcall/arena/pkg/metrics"
)

// Service implements the API dependencies for the scoreboard system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store    *repository.RosterStore
	eventLog *repository.EventLog
	deduper  dedupe.Deduper
	queue    actionqueue.Queue
	pool     *workerpool.Pool
	engine   *score.Engine

	// Configuration
	workerCount       int
	queueSize         int
	dedupeSize        int
	rosterSize        int
	teamTarget        float64
	unitValue         float64
	callGoal          float64
	coldCallAverage   int
	oracleBlendWeight int
	timerMinutes      int
	eventLogPath      string

	// State
	started bool

	// Logging
	logger logger.Logger
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:       runtime.NumCPU() * 2,
		queueSize:         4096,
		dedupeSize:        50_000,
		rosterSize:        6,
		teamTarget:        10000,
		unitValue:         500,
		callGoal:          20,
		coldCallAverage:   40,
		oracleBlendWeight: 2,
		timerMinutes:      60,
		eventLogPath:      "arena.db",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting scoreboard service...")

	s.engine = score.NewEngine(
		score.WithColdCallAverage(s.coldCallAverage),
		score.WithBlendWeight(s.oracleBlendWeight),
	)
	s.store = repository.NewRosterStore(ctx,
		repository.WithRosterSize(s.rosterSize),
		repository.WithDefaultTeamTarget(s.teamTarget),
		repository.WithDefaultUnitValue(s.unitValue),
		repository.WithDefaultCallGoal(s.callGoal),
	)

	eventLog, err := repository.NewEventLog(s.eventLogPath)
	if err != nil {
		return fmt.Errorf("start event log: %w", err)
	}
	s.eventLog = eventLog

	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.queue = actionqueue.NewInMemoryQueue(
		actionqueue.WithCapacity(s.queueSize),
	)

	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.store, s.eventLog)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "scoreboard service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("rosterSize", s.rosterSize),
	)
	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping scoreboard service...")

	if s.queue != nil {
		_ = s.queue.Close()
	}
	if s.pool != nil {
		s.pool.Stop()
	}
	if s.eventLog != nil {
		_ = s.eventLog.Close()
	}

	s.started = false
	s.logger.Info(ctx, "scoreboard service stopped")
}

// SeenAndRecord atomically checks and records an action id.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	return s.deduper.SeenAndRecord(ctx, id)
}

// Unrecord removes an action id so the submission can be retried.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Size returns the number of entries in the idempotency cache.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

// Enqueue submits an action for asynchronous processing.
func (s *Service) Enqueue(ctx context.Context, a model.Action) bool {
	s.logger.Debug(ctx, "enqueueing action",
		logger.String("actionID", a.ActionID),
		logger.String("kind", string(a.Kind)),
		logger.Int("participant", a.ParticipantID),
	)
	return s.queue.Enqueue(ctx, a)
}

// Scoreboard returns the full derived view for a session.
func (s *Service) Scoreboard(ctx context.Context, sessionID string) (types.Scoreboard, error) {
	snap, err := s.store.Snapshot(ctx, sessionID)
	if err != nil {
		return types.Scoreboard{}, err
	}
	return s.buildScoreboard(snap), nil
}

// buildScoreboard runs the engine over one snapshot. Everything displayed
// is derived here; nothing of it is ever persisted.
func (s *Service) buildScoreboard(snap repository.Snapshot) types.Scoreboard {
	sess := snap.Session
	ranked := s.engine.Rank(sess.Roster)

	views := make([]types.ParticipantView, len(ranked))
	for i, r := range ranked {
		p := r.Participant
		views[i] = types.ParticipantView{
			ID:        p.ID,
			Name:      p.DisplayName(),
			Calls:     p.Calls,
			Deciders:  p.Deciders,
			Meetings:  p.Meetings,
			Streak:    p.Streak,
			UnitValue: p.UnitValue,
			CallGoal:  p.CallGoal,
			Score:     r.Score,
			Rank:      r.Rank,
			KPIs:      s.engine.KPIs(p),
			Nemesis:   s.engine.Nemesis(ranked, p.ID),
			Forecast:  s.engine.PredictConversion(p),
		}
	}

	board := types.Scoreboard{
		SessionID:    sess.ID,
		Version:      snap.Version,
		Participants: views,
		TeamTarget:   sess.TeamTarget,
		Team:         s.engine.TeamProgress(sess.Roster, sess.TeamTarget),
		TimerRunning: sess.TimerRunning(),
		GeneratedAt:  time.Now(),
	}
	board.TimerRemainingSeconds = int(sess.TimerRemaining(time.Now()).Seconds())
	if leader, ok := s.engine.Leader(ranked); ok {
		for i := range views {
			if views[i].ID == leader.Participant.ID {
				board.Leader = &views[i]
				break
			}
		}
	}
	metrics.UpdateTeamProgress(sess.ID, board.Team.Percent)
	return board
}

// WatchScoreboard subscribes to scoreboard updates for a session.
func (s *Service) WatchScoreboard(ctx context.Context, sessionID string) (<-chan types.Scoreboard, func(), error) {
	snaps, cancel, err := s.store.Watch(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	out := make(chan types.Scoreboard, 1)
	go func() {
		defer close(out)
		for snap := range snaps {
			board := s.buildScoreboard(snap)
			select {
			case out <- board:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, cancel, nil
}

// UpdateSettings patches a participant's name, unit value or call goal.
func (s *Service) UpdateSettings(ctx context.Context, sessionID string, participantID int, name *string, unitValue, callGoal *float64) (types.Scoreboard, error) {
	snap, err := s.store.UpdateSettings(ctx, sessionID, participantID, repository.Settings{
		Name:      name,
		UnitValue: unitValue,
		CallGoal:  callGoal,
	})
	if err != nil {
		return types.Scoreboard{}, err
	}
	return s.buildScoreboard(snap), nil
}

// SetTeamTarget updates the session-wide currency goal.
func (s *Service) SetTeamTarget(ctx context.Context, sessionID string, target float64) (types.Scoreboard, error) {
	snap, err := s.store.SetTeamTarget(ctx, sessionID, target)
	if err != nil {
		return types.Scoreboard{}, err
	}
	return s.buildScoreboard(snap), nil
}

// Reset zeroes all counters, clears the timer and wipes the session's
// event history. Callers confirm before reaching this point.
func (s *Service) Reset(ctx context.Context, sessionID string) (types.Scoreboard, error) {
	snap, err := s.store.Reset(ctx, sessionID)
	if err != nil {
		return types.Scoreboard{}, err
	}
	if err := s.eventLog.Clear(ctx, sessionID); err != nil {
		s.logger.Error(ctx, "failed to clear event log on reset", logger.Error(err))
	}
	return s.buildScoreboard(snap), nil
}

// Timer drives the shared countdown; op is start, pause or resume.
func (s *Service) Timer(ctx context.Context, sessionID, op string, minutes int) (types.Scoreboard, error) {
	var (
		snap repository.Snapshot
		err  error
	)
	switch op {
	case "start":
		// A start without an explicit duration uses the configured default.
		if minutes <= 0 {
			minutes = s.timerMinutes
		}
		snap, err = s.store.StartTimer(ctx, sessionID, minutes)
	case "pause":
		snap, err = s.store.PauseTimer(ctx, sessionID)
	case "resume":
		snap, err = s.store.ResumeTimer(ctx, sessionID)
	default:
		return types.Scoreboard{}, fmt.Errorf("unknown timer op %q", op)
	}
	if err != nil {
		return types.Scoreboard{}, err
	}
	return s.buildScoreboard(snap), nil
}

// History returns window totals measured against the participant's goals.
func (s *Service) History(ctx context.Context, sessionID string, participantID int) (types.History, error) {
	// The roster bounds participant ids; unknown ids get a 404 upstream.
	snap, err := s.store.Snapshot(ctx, sessionID)
	if err != nil {
		return types.History{}, err
	}
	found := false
	for _, p := range snap.Session.Roster {
		if p.ID == participantID {
			found = true
			break
		}
	}
	if !found {
		return types.History{}, repository.ErrParticipantNotFound
	}

	totals, err := s.eventLog.WindowTotals(ctx, sessionID, participantID, time.Now())
	if err != nil {
		return types.History{}, err
	}
	goals, err := s.eventLog.GoalsFor(ctx, sessionID, participantID)
	if err != nil {
		return types.History{}, err
	}

	hist := types.History{
		SessionID:     sessionID,
		ParticipantID: participantID,
		Windows:       make(map[string]types.WindowProgress, len(totals)),
	}
	for w, t := range totals {
		hist.Windows[string(w)] = windowProgress(w, t, goals)
	}
	return hist, nil
}

// windowProgress pairs one window's totals with the matching goal column.
func windowProgress(w window.Window, t repository.Totals, g repository.Goals) types.WindowProgress {
	var calls, deciders, meetings int
	var revenue float64
	switch w {
	case window.Day:
		calls, deciders, meetings, revenue = g.DailyCalls, g.DailyDeciders, g.DailyMeetings, g.DailyRevenue
	case window.Week:
		calls, deciders, meetings, revenue = g.WeeklyCalls, g.WeeklyDeciders, g.WeeklyMeetings, g.WeeklyRevenue
	case window.Month:
		calls, deciders, meetings, revenue = g.MonthlyCalls, g.MonthlyDeciders, g.MonthlyMeetings, g.MonthlyRevenue
	case window.Year:
		calls, deciders, meetings, revenue = g.YearlyCalls, g.YearlyDeciders, g.YearlyMeetings, g.YearlyRevenue
	}
	return types.WindowProgress{
		Calls:    types.MetricProgress{Current: float64(t.Calls), Goal: float64(calls)},
		Deciders: types.MetricProgress{Current: float64(t.Deciders), Goal: float64(deciders)},
		Meetings: types.MetricProgress{Current: float64(t.Meetings), Goal: float64(meetings)},
		Revenue:  types.MetricProgress{Current: t.Revenue, Goal: revenue},
	}
}

// SaveGoals upserts a participant's goal matrix.
func (s *Service) SaveGoals(ctx context.Context, sessionID string, participantID int, g api.GoalsRequest) error {
	return s.eventLog.SaveGoals(ctx, repository.Goals{
		SessionID:       sessionID,
		ParticipantID:   participantID,
		DailyCalls:      g.DailyCalls,
		WeeklyCalls:     g.WeeklyCalls,
		MonthlyCalls:    g.MonthlyCalls,
		YearlyCalls:     g.YearlyCalls,
		DailyDeciders:   g.DailyDeciders,
		WeeklyDeciders:  g.WeeklyDeciders,
		MonthlyDeciders: g.MonthlyDeciders,
		YearlyDeciders:  g.YearlyDeciders,
		DailyMeetings:   g.DailyMeetings,
		WeeklyMeetings:  g.WeeklyMeetings,
		MonthlyMeetings: g.MonthlyMeetings,
		YearlyMeetings:  g.YearlyMeetings,
		DailyRevenue:    g.DailyRevenue,
		WeeklyRevenue:   g.WeeklyRevenue,
		MonthlyRevenue:  g.MonthlyRevenue,
		YearlyRevenue:   g.YearlyRevenue,
	})
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"rosterSize":  s.rosterSize,
	}
	if s.started {
		stats["queueLength"] = s.queue.Len(ctx)
		stats["sessions"] = s.store.Count(ctx)
		stats["dedupeEntries"] = s.deduper.Size()
	}
	return stats
}
