package repository

import "errors"

// Sentinel kinds for session store errors.
var (
	ErrParticipantNotFound = errors.New("participant not found")
	ErrFloor               = errors.New("counter already at zero")
	ErrInvalidTarget       = errors.New("invalid team target")
	ErrTimerState          = errors.New("invalid timer state")
)
