// Package repository holds the session state: the roster of participants
// with their counters, the shared countdown timer, and the change feed that
// fans committed writes out to every connected viewer.
package repository

import (
	"context"

	"github.com/coldcall/arena/internal/domain/model"
)

// Snapshot is an immutable view of one session handed to readers and
// watchers. Version increases by one per committed write, so a viewer can
// discard stale fan-out deliveries.
type Snapshot struct {
	Version uint64        `json:"version"`
	Session model.Session `json:"session"`
}

// Settings carries a partial participant-settings update; nil fields are
// left untouched.
type Settings struct {
	Name      *string
	UnitValue *float64
	CallGoal  *float64
}

// Store provides read/write access to session state. All writes are applied
// atomically under the store's lock; clients never read-modify-write
// counters themselves.
type Store interface {
	// Snapshot returns the current state of a session, creating it with the
	// configured roster if it does not exist yet.
	Snapshot(ctx context.Context, sessionID string) (Snapshot, error)

	// ApplyAction applies one action's counter delta. Deltas that would push
	// any counter below zero, or leave deciders above calls or meetings above
	// deciders, are rejected with ErrFloor and change nothing.
	ApplyAction(ctx context.Context, a model.Action) (Snapshot, error)

	// UpdateSettings patches a participant's name, unit value or call goal.
	UpdateSettings(ctx context.Context, sessionID string, participantID int, s Settings) (Snapshot, error)

	// SetTeamTarget updates the session-wide currency goal.
	SetTeamTarget(ctx context.Context, sessionID string, target float64) (Snapshot, error)

	// Reset zeroes every counter and clears the timer. Destructive; the API
	// layer requires explicit confirmation before calling this.
	Reset(ctx context.Context, sessionID string) (Snapshot, error)

	// Timer operations drive the shared countdown. Pausing records the pause
	// instant; resuming shifts the end forward by the paused duration so all
	// viewers keep agreeing on the same end timestamp.
	StartTimer(ctx context.Context, sessionID string, minutes int) (Snapshot, error)
	PauseTimer(ctx context.Context, sessionID string) (Snapshot, error)
	ResumeTimer(ctx context.Context, sessionID string) (Snapshot, error)

	// Watch subscribes to the session's change feed. The returned channel
	// receives a snapshot after every committed write and is closed once
	// cancel is called or ctx is done. Slow consumers are coalesced to the
	// latest snapshot.
	Watch(ctx context.Context, sessionID string) (<-chan Snapshot, func(), error)

	// Count returns the number of live sessions.
	Count(ctx context.Context) int
}
