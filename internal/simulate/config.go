package simulate

import "time"

// Config holds configuration for a simulation run.
type Config struct {
	BaseURL    string        // Base URL of the service
	SessionID  string        // Session to drive actions into
	NumActions int           // Number of actions to generate
	RosterSize int           // Participants to spread actions across
	Workers    int           // Number of concurrent workers
	Timeout    time.Duration // HTTP request timeout
	OutputFile string        // Output file for generated actions
	LogFile    string        // Log file for simulation output
	Verbose    bool          // Enable verbose logging
}

// Action represents an action to be submitted.
type Action struct {
	ActionID      string `json:"action_id"`
	ParticipantID int    `json:"participant_id"`
	Kind          string `json:"kind"`
	Undo          bool   `json:"undo"`
	TS            string `json:"ts"`
}

// AckResponse represents the response from action submission.
type AckResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// BoardParticipant is one ranked row of the scoreboard response.
type BoardParticipant struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	Calls    int     `json:"calls"`
	Deciders int     `json:"deciders"`
	Meetings int     `json:"meetings"`
	Score    float64 `json:"score"`
	Rank     int     `json:"rank"`
}

// Board is the scoreboard response the simulator verifies against.
type Board struct {
	SessionID    string             `json:"session_id"`
	Version      uint64             `json:"version"`
	Participants []BoardParticipant `json:"participants"`
	Leader       *BoardParticipant  `json:"leader"`
}

// Stats holds simulation statistics.
type Stats struct {
	ActionsGenerated  int
	ActionsSubmitted  int
	ActionsSuccessful int
	ActionsDuplicate  int
	ActionsRejected   int
	ActionsFailed     int
	BoardVersion      uint64
	StartTime         time.Time
	EndTime           time.Time
	Duration          time.Duration
}
