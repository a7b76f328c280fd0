// Package model contains domain records passed between layers.
package model

import (
	"strconv"
	"time"
)

// Participant is one caller on the roster. Counters only ever move through
// the action delta table; deciders <= calls and meetings <= deciders hold
// because every delta adjusts the upstream counters together.
type Participant struct {
	ID   int    `json:"id"`
	Name string `json:"name"`

	Calls    int `json:"calls"`
	Deciders int `json:"deciders"`
	Meetings int `json:"meetings"`
	// Streak counts calls since the last booked meeting.
	Streak int `json:"streak"`

	// UnitValue is the currency value credited per booked meeting.
	UnitValue float64 `json:"unit_value"`
	// CallGoal is the number of calls the participant bets will produce one
	// meeting's worth of value. Coerced to >= 1 before any division.
	CallGoal float64 `json:"call_goal"`
}

// DisplayName falls back to a placeholder derived from the id.
func (p Participant) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return "Caller " + strconv.Itoa(p.ID)
}

// Session is the team-level aggregate, keyed by id rather than a hardcoded
// singleton row.
type Session struct {
	ID         string        `json:"id"`
	TeamTarget float64       `json:"team_target"`
	Roster     []Participant `json:"roster"`

	// Countdown timer state, shared by all viewers. EndsAt is the persisted
	// end instant; PausedAt, when non-zero, records when the clock stopped.
	// Resuming shifts EndsAt forward by the paused duration instead of
	// restarting any local clock.
	EndsAt   time.Time `json:"ends_at"`
	PausedAt time.Time `json:"paused_at"`
}

// TimerRunning reports whether the countdown is active.
func (s Session) TimerRunning() bool {
	return !s.EndsAt.IsZero() && s.PausedAt.IsZero()
}

// TimerRemaining returns the countdown remainder at now, honoring a pause.
func (s Session) TimerRemaining(now time.Time) time.Duration {
	if s.EndsAt.IsZero() {
		return 0
	}
	ref := now
	if !s.PausedAt.IsZero() {
		ref = s.PausedAt
	}
	if rem := s.EndsAt.Sub(ref); rem > 0 {
		return rem
	}
	return 0
}
