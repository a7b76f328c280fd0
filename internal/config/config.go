// Package config defines service configuration structures and loading hooks.
package config

import "runtime"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// RosterSize sets how many participants a session is created with.
	// Boards run with 4, 6 or 10 callers; 6 is the default.
	RosterSize int `koanf:"roster_size"`

	// TeamTarget is the default aggregate currency goal per session.
	TeamTarget float64 `koanf:"team_target"`

	// UnitValue is the default currency value per booked meeting.
	UnitValue float64 `koanf:"unit_value"`

	// CallGoal is the default calls-per-meeting bet per participant.
	CallGoal float64 `koanf:"call_goal"`

	// ColdCallAverage seeds the conversion forecast before any meeting.
	ColdCallAverage int `koanf:"cold_call_average"`

	// OracleBlendWeight weighs the cold average against the observed rate
	// while the sample is small.
	OracleBlendWeight int `koanf:"oracle_blend_weight"`

	// QueueSize bounds the in-memory action queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of apply workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the idempotency cache.
	DedupeSize int `koanf:"dedupe_size"`

	// EventLogPath is the sqlite file backing the event log.
	// ":memory:" keeps it ephemeral.
	EventLogPath string `koanf:"event_log_path"`

	// TimerMinutes is the default countdown length.
	TimerMinutes int `koanf:"timer_minutes"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		Addr:              ":9090",
		RosterSize:        6,
		TeamTarget:        10000,
		UnitValue:         500,
		CallGoal:          20,
		ColdCallAverage:   40,
		OracleBlendWeight: 2,
		QueueSize:         4096,
		WorkerCount:       runtime.NumCPU() * 2,
		DedupeSize:        50_000,
		EventLogPath:      "arena.db",
		TimerMinutes:      60,
	}
}
