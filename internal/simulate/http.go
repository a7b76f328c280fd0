package simulate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Retry behavior for backpressured submits.
const (
	maxSubmitAttempts = 3
	retryBackoff      = 50 * time.Millisecond
)

// HTTPClient wraps http.Client with timeout.
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

// newHTTPClient creates a new HTTP client with timeout.
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body.
func (c *HTTPClient) Post(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// marshalJSON marshals a struct to JSON.
func marshalJSON(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// readResponseBody reads and closes the response body.
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// submitActions submits actions concurrently using a worker pool.
func submitActions(ctx context.Context, config *Config, actions []Action, stats *Stats) error {
	log.Printf("submitting %d actions with %d workers...", len(actions), config.Workers)

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/sessions/" + config.SessionID + "/actions"

	var (
		successful int64
		duplicate  int64
		rejected   int64
		failed     int64
		submitted  int64
	)

	actionChan := make(chan Action, config.Workers*2)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for action := range actionChan {
				select {
				case <-ctx.Done():
					return
				default:
					result := submitSingleAction(ctx, client, url, action)

					atomic.AddInt64(&submitted, 1)
					switch result {
					case "success":
						atomic.AddInt64(&successful, 1)
					case "duplicate":
						atomic.AddInt64(&duplicate, 1)
					case "rejected":
						atomic.AddInt64(&rejected, 1)
					case "failed":
						atomic.AddInt64(&failed, 1)
					}

					if config.Verbose {
						total := atomic.LoadInt64(&submitted)
						if total%1000 == 0 {
							log.Printf("progress: %d/%d submitted (success: %d, duplicate: %d, rejected: %d, failed: %d)",
								total, len(actions),
								atomic.LoadInt64(&successful),
								atomic.LoadInt64(&duplicate),
								atomic.LoadInt64(&rejected),
								atomic.LoadInt64(&failed))
						}
					}
				}
			}
		}()
	}

	go func() {
		defer close(actionChan)
		for _, action := range actions {
			select {
			case <-ctx.Done():
				return
			case actionChan <- action:
			}
		}
	}()

	wg.Wait()

	stats.ActionsSubmitted = int(atomic.LoadInt64(&submitted))
	stats.ActionsSuccessful = int(atomic.LoadInt64(&successful))
	stats.ActionsDuplicate = int(atomic.LoadInt64(&duplicate))
	stats.ActionsRejected = int(atomic.LoadInt64(&rejected))
	stats.ActionsFailed = int(atomic.LoadInt64(&failed))

	log.Printf("action submission completed: successful=%d duplicate=%d rejected=%d failed=%d",
		stats.ActionsSuccessful, stats.ActionsDuplicate, stats.ActionsRejected, stats.ActionsFailed)

	return nil
}

// submitSingleAction submits one action, retrying on backpressure, and
// returns the outcome.
func submitSingleAction(ctx context.Context, client *HTTPClient, url string, action Action) string {
	for attempt := 0; attempt < maxSubmitAttempts; attempt++ {
		resp, err := client.Post(ctx, url, action)
		if err != nil {
			return "failed"
		}

		body, err := readResponseBody(resp)
		if err != nil {
			return "failed"
		}

		switch resp.StatusCode {
		case http.StatusAccepted:
			return "success"
		case http.StatusOK:
			var ack AckResponse
			if err := json.Unmarshal(body, &ack); err == nil && ack.Duplicate {
				return "duplicate"
			}
			return "duplicate"
		case http.StatusTooManyRequests:
			// Queue is full. Back off and resend the same action id.
			select {
			case <-ctx.Done():
				return "rejected"
			case <-time.After(retryBackoff << attempt):
			}
			continue
		default:
			return "failed"
		}
	}
	return "rejected"
}
