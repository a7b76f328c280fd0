// Package types contains the read-side views shared between the service and
// the HTTP layer.
package types

import (
	"time"

	"github.com/coldcall/arena/internal/domain/score"
)

// ParticipantView is one roster row with every derived number the board
// displays. Rows are delivered in rank order.
type ParticipantView struct {
	ID        int     `json:"id"`
	Name      string  `json:"name"`
	Calls     int     `json:"calls"`
	Deciders  int     `json:"deciders"`
	Meetings  int     `json:"meetings"`
	Streak    int     `json:"streak"`
	UnitValue float64 `json:"unit_value"`
	CallGoal  float64 `json:"call_goal"`

	Score    float64        `json:"score"`
	Rank     int            `json:"rank"`
	KPIs     score.KPIs     `json:"kpis"`
	Nemesis  score.Nemesis  `json:"nemesis"`
	Forecast score.Forecast `json:"forecast"`
}

// Scoreboard is the full engine output for one session snapshot.
// Leader is nil when the best score is not strictly positive.
type Scoreboard struct {
	SessionID    string            `json:"session_id"`
	Version      uint64            `json:"version"`
	Participants []ParticipantView `json:"participants"`
	Leader       *ParticipantView  `json:"leader"`

	TeamTarget float64            `json:"team_target"`
	Team       score.TeamProgress `json:"team"`

	TimerRunning          bool `json:"timer_running"`
	TimerRemainingSeconds int  `json:"timer_remaining_seconds"`

	GeneratedAt time.Time `json:"generated_at"`
}

// MetricProgress pairs a window total with its configured goal.
type MetricProgress struct {
	Current float64 `json:"current"`
	Goal    float64 `json:"goal"`
}

// WindowProgress is the set of metric progress bars for one window.
type WindowProgress struct {
	Calls    MetricProgress `json:"calls"`
	Deciders MetricProgress `json:"deciders"`
	Meetings MetricProgress `json:"meetings"`
	Revenue  MetricProgress `json:"revenue"`
}

// History is the career view: window totals against goals for one
// participant, keyed by window name (day, week, month, year).
type History struct {
	SessionID     string                    `json:"session_id"`
	ParticipantID int                       `json:"participant_id"`
	Windows       map[string]WindowProgress `json:"windows"`
}
