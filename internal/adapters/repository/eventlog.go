package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/coldcall/arena/internal/domain/model"
	"github.com/coldcall/arena/internal/domain/window"
	"github.com/coldcall/arena/pkg/metrics"
)

// ActionEvent is one appended action record. Undo rows carry Sign -1 and a
// negated value so window totals subtract cleanly.
type ActionEvent struct {
	ID            uint      `gorm:"primaryKey"`
	SessionID     string    `gorm:"index:idx_session_participant"`
	ParticipantID int       `gorm:"index:idx_session_participant"`
	Kind          string    `gorm:"index"`
	Sign          int       // +1 apply, -1 undo
	Value         float64   // revenue credit, negative on undo
	CreatedAt     time.Time `gorm:"index"`
}

// Goals is the per-participant target matrix the history view measures
// window totals against.
type Goals struct {
	SessionID     string `gorm:"primaryKey" json:"-"`
	ParticipantID int    `gorm:"primaryKey" json:"-"`

	DailyCalls      int     `json:"daily_calls"`
	WeeklyCalls     int     `json:"weekly_calls"`
	MonthlyCalls    int     `json:"monthly_calls"`
	YearlyCalls     int     `json:"yearly_calls"`
	DailyDeciders   int     `json:"daily_deciders"`
	WeeklyDeciders  int     `json:"weekly_deciders"`
	MonthlyDeciders int     `json:"monthly_deciders"`
	YearlyDeciders  int     `json:"yearly_deciders"`
	DailyMeetings   int     `json:"daily_meetings"`
	WeeklyMeetings  int     `json:"weekly_meetings"`
	MonthlyMeetings int     `json:"monthly_meetings"`
	YearlyMeetings  int     `json:"yearly_meetings"`
	DailyRevenue    float64 `json:"daily_revenue"`
	WeeklyRevenue   float64 `json:"weekly_revenue"`
	MonthlyRevenue  float64 `json:"monthly_revenue"`
	YearlyRevenue   float64 `json:"yearly_revenue"`
}

// Totals are the aggregated counts for one reporting window.
type Totals struct {
	Calls    int     `json:"calls"`
	Deciders int     `json:"deciders"`
	Meetings int     `json:"meetings"`
	Revenue  float64 `json:"revenue"`
}

// EventLog is the append-only record of actions backing the historical
// (career) view. It lives in sqlite so the numbers survive restarts,
// independently of the live in-memory board.
type EventLog struct {
	db *gorm.DB
}

// NewEventLog opens (or creates) the sqlite database at path and migrates
// the schema. Use ":memory:" for tests.
func NewEventLog(path string) (*EventLog, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}
	if err := db.AutoMigrate(&ActionEvent{}, &Goals{}); err != nil {
		return nil, fmt.Errorf("migrate event log: %w", err)
	}
	return &EventLog{db: db}, nil
}

// Append records one action with the revenue credit it carried.
func (l *EventLog) Append(ctx context.Context, a model.Action, value float64) error {
	start := time.Now()
	defer func() {
		metrics.RecordEventLogAppendLatency(float64(time.Since(start).Milliseconds()))
	}()

	sign := 1
	if a.Undo {
		sign = -1
		value = -value
	}
	ts := a.TS
	if ts.IsZero() {
		ts = time.Now()
	}
	rec := ActionEvent{
		SessionID:     a.SessionID,
		ParticipantID: a.ParticipantID,
		Kind:          string(a.Kind),
		Sign:          sign,
		Value:         value,
		CreatedAt:     ts,
	}
	if err := l.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("append action event: %w", err)
	}
	metrics.RecordEventLogged()
	return nil
}

// Totals aggregates counts and revenue for one participant since the given
// instant. Undo rows subtract through their sign.
func (l *EventLog) Totals(ctx context.Context, sessionID string, participantID int, since time.Time) (Totals, error) {
	var rows []struct {
		Kind    string
		Count   int
		Revenue float64
	}
	err := l.db.WithContext(ctx).
		Model(&ActionEvent{}).
		Select("kind, COALESCE(SUM(sign), 0) AS count, COALESCE(SUM(value), 0) AS revenue").
		Where("session_id = ? AND participant_id = ? AND created_at >= ?", sessionID, participantID, since).
		Group("kind").
		Scan(&rows).Error
	if err != nil {
		return Totals{}, fmt.Errorf("window totals: %w", err)
	}

	var t Totals
	for _, r := range rows {
		switch model.ActionKind(r.Kind) {
		case model.ActionCall:
			t.Calls += r.Count
		case model.ActionDecider:
			t.Calls += r.Count
			t.Deciders += r.Count
		case model.ActionMeeting:
			t.Calls += r.Count
			t.Deciders += r.Count
			t.Meetings += r.Count
		}
		t.Revenue += r.Revenue
	}
	return t, nil
}

// WindowTotals aggregates all four reporting windows at once.
func (l *EventLog) WindowTotals(ctx context.Context, sessionID string, participantID int, now time.Time) (map[window.Window]Totals, error) {
	out := make(map[window.Window]Totals, len(window.All()))
	for _, w := range window.All() {
		t, err := l.Totals(ctx, sessionID, participantID, window.Start(w, now))
		if err != nil {
			return nil, err
		}
		out[w] = t
	}
	return out, nil
}

// GoalsFor loads a participant's goal matrix, falling back to zero goals.
func (l *EventLog) GoalsFor(ctx context.Context, sessionID string, participantID int) (Goals, error) {
	var g Goals
	err := l.db.WithContext(ctx).
		Where("session_id = ? AND participant_id = ?", sessionID, participantID).
		First(&g).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Goals{SessionID: sessionID, ParticipantID: participantID}, nil
		}
		return Goals{}, fmt.Errorf("load goals: %w", err)
	}
	return g, nil
}

// SaveGoals upserts a participant's goal matrix.
func (l *EventLog) SaveGoals(ctx context.Context, g Goals) error {
	if err := l.db.WithContext(ctx).Save(&g).Error; err != nil {
		return fmt.Errorf("save goals: %w", err)
	}
	return nil
}

// Clear removes all events for a session. Called on session reset together
// with the counter reset.
func (l *EventLog) Clear(ctx context.Context, sessionID string) error {
	if err := l.db.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&ActionEvent{}).Error; err != nil {
		return fmt.Errorf("clear event log: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (l *EventLog) Close() error {
	sqlDB, err := l.db.DB()
	if err != nil {
		return fmt.Errorf("event log close: %w", err)
	}
	return sqlDB.Close()
}
