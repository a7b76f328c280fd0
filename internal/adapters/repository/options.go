package repository

import "time"

// Option applies a configuration option to the RosterStore.
type Option func(*RosterStore)

// WithRosterSize sets how many participants a new session is created with.
func WithRosterSize(n int) Option {
	return func(s *RosterStore) {
		if n > 0 {
			s.rosterSize = n
		}
	}
}

// WithDefaultUnitValue sets the meeting value new participants start with.
func WithDefaultUnitValue(v float64) Option {
	return func(s *RosterStore) {
		if v >= 0 {
			s.unitValue = v
		}
	}
}

// WithDefaultCallGoal sets the call goal new participants start with.
func WithDefaultCallGoal(g float64) Option {
	return func(s *RosterStore) {
		if g >= 1 {
			s.callGoal = g
		}
	}
}

// WithDefaultTeamTarget sets the team target new sessions start with.
func WithDefaultTeamTarget(t float64) Option {
	return func(s *RosterStore) {
		if t > 0 {
			s.teamTarget = t
		}
	}
}

// WithClock overrides the time source, used by timer tests.
func WithClock(now func() time.Time) Option {
	return func(s *RosterStore) {
		if now != nil {
			s.now = now
		}
	}
}
