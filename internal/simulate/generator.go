package simulate

import (
	"context"
	"crypto/rand"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/coldcall/arena/pkg/logger"
)

// Action kind mix, out of kindMixTotal. Calls dominate a real session,
// deciders are occasional and booked meetings are rare.
const (
	kindMixTotal  = 100
	deciderCutoff = 75
	meetingCutoff = 92
)

// randomBelow returns a uniform random int in [0, n) using crypto/rand.
func randomBelow(n int) int {
	v, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(v.Int64())
}

// generateActions creates the configured number of actions spread across
// the roster. Every action carries a fresh uuid action id so the run
// exercises the idempotency path only when a submit is retried.
func generateActions(ctx context.Context, config *Config, stats *Stats) ([]Action, error) {
	logger.Get().Info(ctx, "generating actions",
		logger.Int("numActions", config.NumActions),
		logger.Int("rosterSize", config.RosterSize))

	actions := make([]Action, config.NumActions)
	now := time.Now().UTC().Format(time.RFC3339)

	for i := range actions {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		actions[i] = Action{
			ActionID:      uuid.New().String(),
			ParticipantID: randomBelow(config.RosterSize) + 1,
			Kind:          pickKind(),
			TS:            now,
		}
	}

	stats.ActionsGenerated = len(actions)
	logger.Get().Info(ctx, "generated actions successfully", logger.Int("count", len(actions)))
	return actions, nil
}

// pickKind draws an action kind from the weighted mix.
func pickKind() string {
	switch n := randomBelow(kindMixTotal); {
	case n < deciderCutoff:
		return "call"
	case n < meetingCutoff:
		return "decider_reached"
	default:
		return "meeting_booked"
	}
}
