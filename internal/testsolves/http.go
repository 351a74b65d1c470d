package testsolves

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

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// Get performs a GET request
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body
func (c *HTTPClient) Post(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	jsonData, err := marshalJSON(body)
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

// marshalJSON marshals a struct to JSON
func marshalJSON(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// unmarshalJSON unmarshals JSON to a struct
func unmarshalJSON(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// submitBatches submits batches concurrently using worker pools and
// returns the run IDs of accepted submissions.
func submitBatches(ctx context.Context, config *Config, batches []Batch, stats *Stats) ([]string, error) {
	log.Printf("📤 Submitting %d batches with %d workers...", len(batches), config.Workers)

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/api/v1/solves"

	// Counters for statistics
	var (
		accepted  int64
		duplicate int64
		failed    int64
		submitted int64
	)

	// Progress reporting
	var lastReport int64
	reportInterval := 1 * time.Second

	// Accepted run IDs, in no particular order
	var (
		mu     sync.Mutex
		runIDs []string
	)

	// Create worker pool
	batchChan := make(chan Batch, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for batch := range batchChan {
				select {
				case <-ctx.Done():
					return
				default:
					runID, result := submitSingleBatch(ctx, client, url, batch)

					// Update counters
					atomic.AddInt64(&submitted, 1)
					switch result {
					case "accepted":
						atomic.AddInt64(&accepted, 1)
						mu.Lock()
						runIDs = append(runIDs, runID)
						mu.Unlock()
					case "duplicate":
						atomic.AddInt64(&duplicate, 1)
					case "failed":
						atomic.AddInt64(&failed, 1)
					}

					// Progress reporting
					now := time.Now().UnixNano()
					last := atomic.LoadInt64(&lastReport)
					if now-last >= int64(reportInterval) && atomic.CompareAndSwapInt64(&lastReport, last, now) {
						total := atomic.LoadInt64(&submitted)
						acc := atomic.LoadInt64(&accepted)
						dup := atomic.LoadInt64(&duplicate)
						fail := atomic.LoadInt64(&failed)

						if config.Verbose {
							log.Printf("📊 Progress: %d/%d submitted (accepted: %d, duplicate: %d, failed: %d)",
								total, len(batches), acc, dup, fail)
						} else {
							fmt.Printf("\r📤 Submitted: %d/%d (accepted: %d, duplicate: %d, failed: %d)",
								total, len(batches), acc, dup, fail)
						}
					}
				}
			}
		}()
	}

	// Send batches to workers
	go func() {
		defer close(batchChan)
		for _, batch := range batches {
			select {
			case <-ctx.Done():
				return
			case batchChan <- batch:
			}
		}
	}()

	// Wait for all workers to complete
	wg.Wait()

	// Final progress report
	if !config.Verbose {
		fmt.Println() // New line after progress indicator
	}

	// Update stats
	stats.BatchesSubmitted = int(atomic.LoadInt64(&submitted))
	stats.BatchesAccepted = int(atomic.LoadInt64(&accepted))
	stats.BatchesDuplicate = int(atomic.LoadInt64(&duplicate))
	stats.BatchesFailed = int(atomic.LoadInt64(&failed))

	log.Printf(`✅ Batch submission completed:
   Accepted: %d
   Duplicate: %d
   Failed: %d
`, stats.BatchesAccepted, stats.BatchesDuplicate, stats.BatchesFailed)

	return runIDs, nil
}

// submitSingleBatch submits one batch and returns the run ID and result
func submitSingleBatch(ctx context.Context, client *HTTPClient, url string, batch Batch) (string, string) {
	resp, err := client.Post(ctx, url, batch)
	if err != nil {
		return "", "failed"
	}

	// Read response body
	body, err := readResponseBody(resp)
	if err != nil {
		return "", "failed"
	}

	// Parse response based on status code
	switch resp.StatusCode {
	case StatusAccepted:
		// Accepted - new run
		var ack AckResponse
		if err := unmarshalJSON(body, &ack); err != nil {
			return "", "failed"
		}
		return ack.RunID, "accepted"
	case StatusOK:
		// OK - duplicate request id
		var ack AckResponse
		if err := unmarshalJSON(body, &ack); err != nil {
			return "", "failed"
		}
		return ack.RunID, "duplicate"
	default:
		// Error
		return "", "failed"
	}
}
