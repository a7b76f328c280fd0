package simulate

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

// Polling behavior while waiting for the pipeline to drain.
const (
	drainPollInterval = 250 * time.Millisecond
	drainTimeout      = 30 * time.Second
)

// expectedCounters holds the per-participant totals implied by a batch
// of generated actions.
type expectedCounters struct {
	calls    int
	deciders int
	meetings int
}

// expectationsFor folds the generated actions into per-participant
// counter totals. Deciders and meetings both count as a call, and a
// meeting also counts as a decider reached.
func expectationsFor(actions []Action) map[int]expectedCounters {
	expected := make(map[int]expectedCounters)
	for _, a := range actions {
		e := expected[a.ParticipantID]
		e.calls++
		switch a.Kind {
		case "decider_reached":
			e.deciders++
		case "meeting_booked":
			e.deciders++
			e.meetings++
		}
		expected[a.ParticipantID] = e
	}
	return expected
}

// fetchBoard retrieves the scoreboard for the configured session.
func fetchBoard(ctx context.Context, client *HTTPClient, config *Config) (*Board, error) {
	url := config.BaseURL + "/sessions/" + config.SessionID + "/scoreboard"

	resp, err := client.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch scoreboard: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read scoreboard response: %w", err)
	}
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("scoreboard request failed with status: %d", resp.StatusCode)
	}

	var board Board
	if err := json.Unmarshal(body, &board); err != nil {
		return nil, fmt.Errorf("failed to decode scoreboard: %w", err)
	}
	return &board, nil
}

// waitForDrain polls the scoreboard until the total call count reaches
// the number of successfully submitted actions, or the deadline passes.
func waitForDrain(ctx context.Context, client *HTTPClient, config *Config, stats *Stats) (*Board, error) {
	deadline := time.Now().Add(drainTimeout)
	wantCalls := stats.ActionsSuccessful

	for {
		board, err := fetchBoard(ctx, client, config)
		if err != nil {
			return nil, err
		}

		total := 0
		for _, p := range board.Participants {
			total += p.Calls
		}
		if total >= wantCalls {
			return board, nil
		}
		if time.Now().After(deadline) {
			return board, fmt.Errorf("pipeline did not drain: %d/%d calls applied", total, wantCalls)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(drainPollInterval):
		}
	}
}

// verifyBoard checks the scoreboard against the generated actions:
// per-participant counters must match the submitted batch, ranking must
// be non-increasing by score, and the leader must be the top ranked
// participant with a positive score.
func verifyBoard(ctx context.Context, config *Config, actions []Action, board *Board, stats *Stats) error {
	log.Println("verifying scoreboard...")

	if len(board.Participants) == 0 {
		return fmt.Errorf("scoreboard has no participants")
	}
	stats.BoardVersion = board.Version

	// Counter totals.
	expected := expectationsFor(actions)
	for _, p := range board.Participants {
		e := expected[p.ID]
		if p.Calls != e.calls || p.Deciders != e.deciders || p.Meetings != e.meetings {
			return fmt.Errorf("participant %d counters mismatch: got calls=%d deciders=%d meetings=%d, want calls=%d deciders=%d meetings=%d",
				p.ID, p.Calls, p.Deciders, p.Meetings, e.calls, e.deciders, e.meetings)
		}
	}

	// Ranking order.
	for i := 1; i < len(board.Participants); i++ {
		if board.Participants[i].Score > board.Participants[i-1].Score {
			return fmt.Errorf("scoreboard not sorted: rank %d has higher score than rank %d",
				i+1, i)
		}
	}

	// Leader consistency.
	top := board.Participants[0]
	switch {
	case board.Leader == nil:
		if top.Score > 0 {
			return fmt.Errorf("no leader reported but top score is %.2f", top.Score)
		}
	case board.Leader.ID != top.ID:
		return fmt.Errorf("leader (%d) does not match top ranked participant (%d)",
			board.Leader.ID, top.ID)
	case board.Leader.Score <= 0:
		return fmt.Errorf("leader reported with non-positive score %.2f", board.Leader.Score)
	}

	displayBoard(board, config.Verbose)

	log.Println("scoreboard verification completed")
	return nil
}

// displayBoard prints the ranked scoreboard rows.
func displayBoard(board *Board, verbose bool) {
	log.Printf("scoreboard (version %d):", board.Version)
	for _, p := range board.Participants {
		log.Printf("   %d. %s - score: %.2f (calls: %d, deciders: %d, meetings: %d)",
			p.Rank, p.Name, p.Score, p.Calls, p.Deciders, p.Meetings)
	}

	if verbose && len(board.Participants) > 0 {
		sum := 0.0
		for _, p := range board.Participants {
			sum += p.Score
		}
		log.Printf("score statistics: average=%.2f max=%.2f min=%.2f",
			sum/float64(len(board.Participants)),
			board.Participants[0].Score,
			board.Participants[len(board.Participants)-1].Score)
	}
}
