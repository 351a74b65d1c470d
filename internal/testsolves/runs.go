package testsolves

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// Run states the service reports.
const (
	stateDone   = "done"
	stateFailed = "failed"
)

// pollRuns polls all accepted runs concurrently until each reaches a
// terminal state or the context expires.
func pollRuns(ctx context.Context, config *Config, runIDs []string, stats *Stats) ([]Run, error) {
	log.Printf("⏳ Polling %d runs with %d workers...", len(runIDs), config.Workers)

	client := newHTTPClient(config.Timeout)

	// Results storage
	runs := make([]Run, len(runIDs))
	var (
		completed int64
		failed    int64
		pending   int64
	)

	// Progress reporting
	var lastReport int64
	reportInterval := 1 * time.Second

	// Create worker pool
	indexChan := make(chan int, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for index := range indexChan {
				runID := runIDs[index]
				run, err := pollSingleRun(ctx, client, config, runID)

				switch {
				case err != nil:
					atomic.AddInt64(&pending, 1)
					if config.Verbose {
						log.Printf("⚠️  Run %s did not finish: %v", runID, err)
					}
				case run.State == stateFailed:
					runs[index] = run
					atomic.AddInt64(&failed, 1)
				default:
					runs[index] = run
					atomic.AddInt64(&completed, 1)
				}

				// Progress reporting
				now := time.Now().UnixNano()
				last := atomic.LoadInt64(&lastReport)
				if now-last >= int64(reportInterval) && atomic.CompareAndSwapInt64(&lastReport, last, now) {
					done := atomic.LoadInt64(&completed)
					fail := atomic.LoadInt64(&failed)
					pend := atomic.LoadInt64(&pending)
					total := done + fail + pend

					if config.Verbose {
						log.Printf("📊 Poll progress: %d/%d terminal (done: %d, failed: %d, pending: %d)",
							total, len(runIDs), done, fail, pend)
					} else {
						fmt.Printf("\r⏳ Runs: %d/%d terminal (done: %d, failed: %d, pending: %d)",
							total, len(runIDs), done, fail, pend)
					}
				}
			}
		}()
	}

	// Send run indices to workers
	go func() {
		defer close(indexChan)
		for i := range runIDs {
			select {
			case <-ctx.Done():
				return
			case indexChan <- i:
			}
		}
	}()

	// Wait for all workers to complete
	wg.Wait()

	// Final progress report
	if !config.Verbose {
		fmt.Println() // New line after progress indicator
	}

	// Filter out empty entries (runs that never finished)
	terminal := make([]Run, 0, len(runs))
	for _, run := range runs {
		if run.ID != "" {
			terminal = append(terminal, run)
		}
	}

	// Update stats
	stats.RunsCompleted = int(atomic.LoadInt64(&completed))
	stats.RunsFailed = int(atomic.LoadInt64(&failed))
	stats.RunsPending = int(atomic.LoadInt64(&pending))

	log.Printf(`✅ Run polling completed:
   Done: %d
   Failed: %d
   Pending: %d
`, stats.RunsCompleted, stats.RunsFailed, stats.RunsPending)

	return terminal, nil
}

// pollSingleRun fetches one run until it reaches a terminal state.
func pollSingleRun(ctx context.Context, client *HTTPClient, config *Config, runID string) (Run, error) {
	for {
		run, err := fetchRun(ctx, client, config.BaseURL, runID)
		if err != nil {
			return Run{}, err
		}
		if run.State == stateDone || run.State == stateFailed {
			return run, nil
		}

		select {
		case <-ctx.Done():
			return Run{}, fmt.Errorf("run still %s: %w", run.State, ctx.Err())
		case <-time.After(config.PollInterval):
		}
	}
}

// fetchRun retrieves one run record.
func fetchRun(ctx context.Context, client *HTTPClient, baseURL, runID string) (Run, error) {
	url := fmt.Sprintf("%s/api/v1/solves/%s", baseURL, runID)

	resp, err := client.Get(ctx, url)
	if err != nil {
		return Run{}, fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return Run{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != StatusOK {
		return Run{}, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var run Run
	if err := unmarshalJSON(body, &run); err != nil {
		return Run{}, fmt.Errorf("failed to parse response: %w", err)
	}

	return run, nil
}

// getRecentRuns retrieves the most recent runs from the service.
func getRecentRuns(ctx context.Context, config *Config, stats *Stats) ([]Run, error) {
	log.Printf("📋 Getting %d most recent runs...", config.ListLimit)

	client := newHTTPClient(config.Timeout)
	url := fmt.Sprintf("%s/api/v1/solves?limit=%d", config.BaseURL, config.ListLimit)

	resp, err := client.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var runs []Run
	if err := unmarshalJSON(body, &runs); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	stats.RecentRuns = len(runs)
	log.Printf("✅ Retrieved %d recent runs", len(runs))

	return runs, nil
}

// getAnalyticsSample fetches demand analytics for the first completed
// run, exercising the analytics endpoint.
func getAnalyticsSample(ctx context.Context, config *Config, runs []Run, stats *Stats) error {
	var target string
	for _, run := range runs {
		if run.State == stateDone {
			target = run.ID
			break
		}
	}
	if target == "" {
		log.Println("📈 No completed run to sample analytics from")
		return nil
	}

	client := newHTTPClient(config.Timeout)
	url := fmt.Sprintf("%s/api/v1/solves/%s/analytics", config.BaseURL, target)

	resp, err := client.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != StatusOK {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var rows []AnalyticsRow
	if err := unmarshalJSON(body, &rows); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	stats.AnalyticsRows = len(rows)
	log.Printf("📈 Retrieved %d analytics rows for run %s", len(rows), target)

	if config.Verbose {
		for _, row := range rows {
			log.Printf("   %s demand=%d weighted=%d top=%d competition=%.2f",
				row.Option, row.Demand, row.WeightedDemand, row.TopChoiceDemand, row.CompetitionIndex)
		}
	}

	return nil
}
