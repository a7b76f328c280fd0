package model

import (
	"errors"
	"time"
)

// ActionKind identifies one of the three loggable call outcomes.
type ActionKind string

// Action kinds accepted by the pipeline.
const (
	ActionCall    ActionKind = "call"
	ActionDecider ActionKind = "decider_reached"
	ActionMeeting ActionKind = "meeting_booked"
)

// ErrUnknownKind is returned for any kind outside the defined set.
var ErrUnknownKind = errors.New("unknown action kind")

// Valid reports whether k is one of the defined kinds.
func (k ActionKind) Valid() bool {
	switch k {
	case ActionCall, ActionDecider, ActionMeeting:
		return true
	}
	return false
}

// Action is a single logged outcome flowing through the queue.
type Action struct {
	ActionID      string     // unique id for idempotency
	SessionID     string     // owning session
	ParticipantID int        // subject on the roster
	Kind          ActionKind // call, decider_reached, meeting_booked
	Undo          bool       // decrement form
	TS            time.Time  // client timestamp
}

// Delta is the counter adjustment an action produces. ZeroStreak marks the
// meeting case, which resets the streak instead of adding to it.
type Delta struct {
	Calls      int
	Deciders   int
	Meetings   int
	Streak     int
	ZeroStreak bool
}

// DeltaFor returns the counter delta for a kind. The undo forms mirror the
// increments except for the streak: undoing a decider or a meeting leaves the
// streak alone, which is deliberate (the streak was already consumed or never
// touched by those paths).
func DeltaFor(kind ActionKind, undo bool) (Delta, error) {
	var d Delta
	switch kind {
	case ActionCall:
		d = Delta{Calls: 1, Streak: 1}
	case ActionDecider:
		d = Delta{Calls: 1, Deciders: 1, Streak: 1}
	case ActionMeeting:
		d = Delta{Calls: 1, Deciders: 1, Meetings: 1, ZeroStreak: true}
	default:
		return Delta{}, ErrUnknownKind
	}
	if undo {
		d.Calls, d.Deciders, d.Meetings = -d.Calls, -d.Deciders, -d.Meetings
		d.ZeroStreak = false
		if kind == ActionCall {
			d.Streak = -1
		} else {
			d.Streak = 0
		}
	}
	return d, nil
}
