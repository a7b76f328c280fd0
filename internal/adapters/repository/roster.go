package repository

import (
	"context"
	"sync"
	"time"

	"github.com/coldcall/arena/internal/domain/model"
	"github.com/coldcall/arena/pkg/metrics"
)

// Default roster configuration. Roster sizes of 4, 6 and 10 are the shapes
// boards are actually run with; 6 is the common case.
const (
	defaultRosterSize = 6
	defaultUnitValue  = 500
	defaultCallGoal   = 20
	defaultTeamTarget = 10000
)

// sessionState is the mutable, lock-guarded state behind one session.
type sessionState struct {
	session  model.Session
	version  uint64
	watchers map[int]chan Snapshot
	nextID   int
}

// RosterStore is the in-memory Store implementation. One mutex guards all
// sessions, which serializes counter updates and removes the
// read-modify-write race two concurrent viewers would otherwise hit.
type RosterStore struct {
	mu       sync.RWMutex
	sessions map[string]*sessionState

	rosterSize int
	unitValue  float64
	callGoal   float64
	teamTarget float64

	now func() time.Time
}

// NewRosterStore creates a roster store with the given options.
func NewRosterStore(ctx context.Context, opts ...Option) *RosterStore {
	s := &RosterStore{
		sessions:   make(map[string]*sessionState),
		rosterSize: defaultRosterSize,
		unitValue:  defaultUnitValue,
		callGoal:   defaultCallGoal,
		teamTarget: defaultTeamTarget,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// getOrCreate returns the session state, creating the configured roster on
// first touch. Caller holds s.mu.
func (s *RosterStore) getOrCreate(sessionID string) *sessionState {
	st, ok := s.sessions[sessionID]
	if ok {
		return st
	}
	roster := make([]model.Participant, s.rosterSize)
	for i := range roster {
		roster[i] = model.Participant{
			ID:        i + 1,
			UnitValue: s.unitValue,
			CallGoal:  s.callGoal,
		}
	}
	st = &sessionState{
		session: model.Session{
			ID:         sessionID,
			TeamTarget: s.teamTarget,
			Roster:     roster,
		},
		watchers: make(map[int]chan Snapshot),
	}
	s.sessions[sessionID] = st
	metrics.UpdateSessionCount(len(s.sessions))
	return st
}

// snapshotLocked builds an immutable snapshot. Caller holds s.mu.
func (st *sessionState) snapshotLocked() Snapshot {
	sess := st.session
	sess.Roster = make([]model.Participant, len(st.session.Roster))
	copy(sess.Roster, st.session.Roster)
	return Snapshot{Version: st.version, Session: sess}
}

// commitLocked bumps the version and fans the new snapshot out to watchers.
// Deliveries coalesce: a watcher that has not drained its buffer gets the
// latest snapshot only. Caller holds s.mu.
func (st *sessionState) commitLocked() Snapshot {
	st.version++
	snap := st.snapshotLocked()
	for _, ch := range st.watchers {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
	return snap
}

// Snapshot returns the current state of a session.
func (s *RosterStore) Snapshot(ctx context.Context, sessionID string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getOrCreate(sessionID).snapshotLocked(), nil
}

// ApplyAction applies one action's counter delta atomically.
func (s *RosterStore) ApplyAction(ctx context.Context, a model.Action) (Snapshot, error) {
	start := time.Now()
	defer func() {
		metrics.RecordApplyLatency(float64(time.Since(start).Milliseconds()))
	}()

	d, err := model.DeltaFor(a.Kind, a.Undo)
	if err != nil {
		return Snapshot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.getOrCreate(a.SessionID)
	p := findParticipant(st.session.Roster, a.ParticipantID)
	if p == nil {
		return Snapshot{}, ErrParticipantNotFound
	}

	calls := p.Calls + d.Calls
	deciders := p.Deciders + d.Deciders
	meetings := p.Meetings + d.Meetings
	// Besides plain underflow, an undo must not strand a downstream counter
	// above its upstream one (deciders <= calls, meetings <= deciders).
	if calls < 0 || deciders < 0 || meetings < 0 || deciders > calls || meetings > deciders {
		metrics.RecordActionRejected()
		return Snapshot{}, ErrFloor
	}

	p.Calls, p.Deciders, p.Meetings = calls, deciders, meetings
	if d.ZeroStreak {
		p.Streak = 0
	} else if streak := p.Streak + d.Streak; streak >= 0 {
		p.Streak = streak
	} else {
		// An undone call after a meeting reset would go below zero; the
		// streak just stays on the floor.
		p.Streak = 0
	}

	return st.commitLocked(), nil
}

// UpdateSettings patches a participant's name, unit value or call goal.
func (s *RosterStore) UpdateSettings(ctx context.Context, sessionID string, participantID int, set Settings) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.getOrCreate(sessionID)
	p := findParticipant(st.session.Roster, participantID)
	if p == nil {
		return Snapshot{}, ErrParticipantNotFound
	}
	if set.Name != nil {
		p.Name = *set.Name
	}
	if set.UnitValue != nil && *set.UnitValue >= 0 {
		p.UnitValue = *set.UnitValue
	}
	if set.CallGoal != nil && *set.CallGoal > 0 {
		p.CallGoal = *set.CallGoal
	}
	return st.commitLocked(), nil
}

// SetTeamTarget updates the session-wide currency goal.
func (s *RosterStore) SetTeamTarget(ctx context.Context, sessionID string, target float64) (Snapshot, error) {
	if target <= 0 {
		return Snapshot{}, ErrInvalidTarget
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.getOrCreate(sessionID)
	st.session.TeamTarget = target
	return st.commitLocked(), nil
}

// Reset zeroes every counter and clears the timer. Names and settings stay.
func (s *RosterStore) Reset(ctx context.Context, sessionID string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.getOrCreate(sessionID)
	for i := range st.session.Roster {
		p := &st.session.Roster[i]
		p.Calls, p.Deciders, p.Meetings, p.Streak = 0, 0, 0, 0
	}
	st.session.EndsAt = time.Time{}
	st.session.PausedAt = time.Time{}
	return st.commitLocked(), nil
}

// StartTimer arms the countdown for the given number of minutes.
func (s *RosterStore) StartTimer(ctx context.Context, sessionID string, minutes int) (Snapshot, error) {
	if minutes <= 0 {
		return Snapshot{}, ErrTimerState
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.getOrCreate(sessionID)
	st.session.EndsAt = s.now().Add(time.Duration(minutes) * time.Minute)
	st.session.PausedAt = time.Time{}
	return st.commitLocked(), nil
}

// PauseTimer records the pause instant without touching the end timestamp.
func (s *RosterStore) PauseTimer(ctx context.Context, sessionID string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.getOrCreate(sessionID)
	if !st.session.TimerRunning() {
		return Snapshot{}, ErrTimerState
	}
	st.session.PausedAt = s.now()
	return st.commitLocked(), nil
}

// ResumeTimer shifts the end timestamp forward by the paused duration, so
// the remaining time picks up exactly where the pause left it.
func (s *RosterStore) ResumeTimer(ctx context.Context, sessionID string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.getOrCreate(sessionID)
	if st.session.PausedAt.IsZero() || st.session.EndsAt.IsZero() {
		return Snapshot{}, ErrTimerState
	}
	st.session.EndsAt = st.session.EndsAt.Add(s.now().Sub(st.session.PausedAt))
	st.session.PausedAt = time.Time{}
	return st.commitLocked(), nil
}

// Watch subscribes to the session's change feed.
func (s *RosterStore) Watch(ctx context.Context, sessionID string) (<-chan Snapshot, func(), error) {
	s.mu.Lock()
	st := s.getOrCreate(sessionID)
	id := st.nextID
	st.nextID++
	ch := make(chan Snapshot, 1)
	st.watchers[id] = ch
	metrics.UpdateWatcherCount(s.watcherTotalLocked())
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(st.watchers, id)
			// Closing under the lock is safe: commitLocked only sends to
			// channels still in the map. Consumers ranging over the feed
			// terminate instead of blocking forever.
			close(ch)
			metrics.UpdateWatcherCount(s.watcherTotalLocked())
			s.mu.Unlock()
		})
	}
	go func() {
		<-ctx.Done()
		cancel()
	}()
	return ch, cancel, nil
}

// watcherTotalLocked counts watchers across sessions. Caller holds s.mu.
func (s *RosterStore) watcherTotalLocked() int {
	total := 0
	for _, st := range s.sessions {
		total += len(st.watchers)
	}
	return total
}

// Count returns the number of live sessions.
func (s *RosterStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func findParticipant(roster []model.Participant, id int) *model.Participant {
	for i := range roster {
		if roster[i].ID == id {
			return &roster[i]
		}
	}
	return nil
}
