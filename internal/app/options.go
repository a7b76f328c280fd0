package app

import "github.com/coldcall/arena/pkg/logger"

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithWorkerCount sets the number of apply workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize bounds the action queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the idempotency cache bound.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithRosterSize sets how many participants a session starts with.
func WithRosterSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.rosterSize = n
		}
	}
}

// WithTeamTarget sets the default session target.
func WithTeamTarget(t float64) Option {
	return func(s *Service) {
		if t > 0 {
			s.teamTarget = t
		}
	}
}

// WithUnitValue sets the default per-meeting value.
func WithUnitValue(v float64) Option {
	return func(s *Service) {
		if v >= 0 {
			s.unitValue = v
		}
	}
}

// WithCallGoal sets the default calls-per-meeting bet.
func WithCallGoal(g float64) Option {
	return func(s *Service) {
		if g >= 1 {
			s.callGoal = g
		}
	}
}

// WithColdCallAverage seeds the conversion forecast.
func WithColdCallAverage(avg int) Option {
	return func(s *Service) {
		if avg > 0 {
			s.coldCallAverage = avg
		}
	}
}

// WithOracleBlendWeight weighs the cold average in the forecast blend.
func WithOracleBlendWeight(w int) Option {
	return func(s *Service) {
		if w >= 0 {
			s.oracleBlendWeight = w
		}
	}
}

// WithTimerMinutes sets the countdown length used when a timer start does
// not specify one.
func WithTimerMinutes(m int) Option {
	return func(s *Service) {
		if m > 0 {
			s.timerMinutes = m
		}
	}
}

// WithEventLogPath sets the sqlite file backing the event log.
func WithEventLogPath(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.eventLogPath = path
		}
	}
}
