package simulate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/coldcall/arena/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
)

// Run executes the complete simulation: health check, session reset,
// action generation, concurrent submission, drain, verification.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting arena simulation",
		logger.String("baseURL", config.BaseURL),
		logger.String("session", config.SessionID),
		logger.Int("actions", config.NumActions),
		logger.Int("rosterSize", config.RosterSize),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.Any("verbose", config.Verbose))

	client := newHTTPClient(config.Timeout)

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, client, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Reset the session so the verification baseline is zero
	if err := resetSession(ctx, client, config); err != nil {
		return fmt.Errorf("session reset failed: %w", err)
	}

	// Step 3: Generate actions
	actions, err := generateActions(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("action generation failed: %w", err)
	}

	// Step 4: Submit actions concurrently
	if err := submitActions(ctx, config, actions, stats); err != nil {
		return fmt.Errorf("action submission failed: %w", err)
	}

	// Step 5: Wait for the pipeline to drain
	logger.Get().Info(ctx, "waiting for actions to be applied")
	board, err := waitForDrain(ctx, client, config, stats)
	if err != nil {
		return fmt.Errorf("drain failed: %w", err)
	}

	// Step 6: Verify the scoreboard
	if err := verifyBoard(ctx, config, actions, board, stats); err != nil {
		return fmt.Errorf("scoreboard verification failed: %w", err)
	}

	// Step 7: Save actions to file
	if err := saveActionsToFile(ctx, config, actions); err != nil {
		logger.Get().Warn(ctx, "failed to save actions to file", logger.Error(err))
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "simulation completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *HTTPClient, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	url := config.BaseURL + "/healthz"

	resp, err := client.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	// Any 200 counts as healthy (the endpoint serves Prometheus metrics).
	if resp.StatusCode != 200 {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// resetSession zeroes the session counters and event history so the
// simulation verifies against a clean baseline.
func resetSession(ctx context.Context, client *HTTPClient, config *Config) error {
	logger.Get().Info(ctx, "resetting session", logger.String("session", config.SessionID))

	url := config.BaseURL + "/sessions/" + config.SessionID + "/reset"

	resp, err := client.Post(ctx, url, map[string]bool{"confirm": true})
	if err != nil {
		return fmt.Errorf("failed to reset session: %w", err)
	}
	if _, err := readResponseBody(resp); err != nil {
		return fmt.Errorf("failed to read reset response: %w", err)
	}
	if resp.StatusCode != 200 {
		return fmt.Errorf("session reset failed with status: %d", resp.StatusCode)
	}
	return nil
}

// saveActionsToFile saves the generated actions to a JSON file.
func saveActionsToFile(ctx context.Context, config *Config, actions []Action) error {
	if len(actions) == 0 {
		return fmt.Errorf("no actions to save")
	}

	filename := config.OutputFile
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = "generated_actions_" + timestamp + ".json"
	}

	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close file", logger.Error(err))
		}
	}()

	if _, err := file.WriteString("[\n"); err != nil {
		return fmt.Errorf("failed to write opening bracket: %w", err)
	}

	for i, action := range actions {
		jsonData, err := marshalJSON(action)
		if err != nil {
			return fmt.Errorf("failed to marshal action %d: %w", i, err)
		}

		if _, err := file.Write(jsonData); err != nil {
			return fmt.Errorf("failed to write action %d: %w", i, err)
		}

		if i < len(actions)-1 {
			if _, err := file.WriteString(","); err != nil {
				return fmt.Errorf("failed to write comma: %w", err)
			}
		}
		_, _ = file.WriteString("\n")
	}

	if _, err := file.WriteString("]\n"); err != nil {
		return fmt.Errorf("failed to write closing bracket: %w", err)
	}

	logger.Get().Info(ctx, "actions saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats prints the final simulation statistics.
func displayFinalStats(stats *Stats) {
	var successRate, actionsPerSecond float64

	if stats.ActionsSubmitted > 0 {
		successRate = float64(stats.ActionsSuccessful) / float64(stats.ActionsSubmitted) * 100
	}

	if stats.Duration > 0 {
		actionsPerSecond = float64(stats.ActionsSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("actionsGenerated", stats.ActionsGenerated),
		logger.Int("actionsSubmitted", stats.ActionsSubmitted),
		logger.Int("actionsSuccessful", stats.ActionsSuccessful),
		logger.Int("actionsDuplicate", stats.ActionsDuplicate),
		logger.Int("actionsRejected", stats.ActionsRejected),
		logger.Int("actionsFailed", stats.ActionsFailed),
		logger.Any("boardVersion", stats.BoardVersion),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("actionsPerSecond", actionsPerSecond))
}
