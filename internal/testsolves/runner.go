package testsolves

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/kismet/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
)

// Run executes the complete solve test.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting kismet solve test",
		logger.String("baseURL", config.BaseURL),
		logger.Int("batches", config.NumBatches),
		logger.Int("participants", config.Participants),
		logger.Int("options", config.Options),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.String("pollInterval", config.PollInterval.String()),
		logger.String("logFile", config.LogFile),
		logger.Bool("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate batches
	batches, err := generateBatches(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("batch generation failed: %w", err)
	}

	// Step 3: Submit batches concurrently
	runIDs, err := submitBatches(ctx, config, batches, stats)
	if err != nil {
		return fmt.Errorf("batch submission failed: %w", err)
	}

	// Step 4: Poll runs to completion
	runs, err := pollRuns(ctx, config, runIDs, stats)
	if err != nil {
		return fmt.Errorf("run polling failed: %w", err)
	}

	// Step 5: Fetch the recent-run list
	if _, err := getRecentRuns(ctx, config, stats); err != nil {
		return fmt.Errorf("recent run retrieval failed: %w", err)
	}

	// Step 6: Sample the analytics endpoint
	if err := getAnalyticsSample(ctx, config, runs, stats); err != nil {
		return fmt.Errorf("analytics retrieval failed: %w", err)
	}

	// Step 7: Verify solutions against their batches
	if err := verifyResults(config, batches, runs, stats); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	// Step 8: Verify resubmission is idempotent
	if len(batches) > 0 {
		if err := verifyIdempotency(ctx, config, batches[0], runs); err != nil {
			return fmt.Errorf("idempotency verification failed: %w", err)
		}
	}

	// Step 9: Save batches to file
	if err := saveBatchesToFile(ctx, config, batches); err != nil {
		logger.Get().Warn(ctx, "failed to save batches to file", logger.Error(err))
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "test completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
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

	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// saveBatchesToFile saves the generated batches to a JSON file.
func saveBatchesToFile(ctx context.Context, config *Config, batches []Batch) error {
	if len(batches) == 0 {
		return fmt.Errorf("no batches to save")
	}

	// Determine output filename
	filename := config.OutputFile
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = "generated_batches_" + timestamp + ".json"
	}

	// Ensure the directory exists
	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// Write batches to file
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close file", logger.Error(err))
		}
	}()

	// Write JSON array
	if _, err := file.WriteString("[\n"); err != nil {
		return fmt.Errorf("failed to write opening bracket: %w", err)
	}

	for i, batch := range batches {
		jsonData, err := marshalJSON(batch)
		if err != nil {
			return fmt.Errorf("failed to marshal batch %d: %w", i, err)
		}

		if _, err := file.Write(jsonData); err != nil {
			return fmt.Errorf("failed to write batch %d: %w", i, err)
		}

		// Add comma except for last batch
		if i < len(batches)-1 {
			if _, err := file.WriteString(","); err != nil {
				return fmt.Errorf("failed to write comma: %w", err)
			}
		}
		_, _ = file.WriteString("\n")
	}

	if _, err := file.WriteString("]\n"); err != nil {
		return fmt.Errorf("failed to write closing bracket: %w", err)
	}

	logger.Get().Info(ctx, "batches saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats prints the final test statistics.
func displayFinalStats(stats *Stats) {
	var acceptRate, batchesPerSecond float64

	if stats.BatchesSubmitted > 0 {
		acceptRate = float64(stats.BatchesAccepted) / float64(stats.BatchesSubmitted) * PercentageMultiplier
	}

	if stats.Duration > 0 {
		batchesPerSecond = float64(stats.BatchesSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("batchesGenerated", stats.BatchesGenerated),
		logger.Int("batchesSubmitted", stats.BatchesSubmitted),
		logger.Int("batchesAccepted", stats.BatchesAccepted),
		logger.Int("batchesDuplicate", stats.BatchesDuplicate),
		logger.Int("batchesFailed", stats.BatchesFailed),
		logger.Int("runsCompleted", stats.RunsCompleted),
		logger.Int("runsOptimal", stats.RunsOptimal),
		logger.Int("runsInfeasible", stats.RunsInfeasible),
		logger.Int("runsFailed", stats.RunsFailed),
		logger.Int("runsPending", stats.RunsPending),
		logger.Int("recentRuns", stats.RecentRuns),
		logger.Int("violations", stats.Violations),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("acceptRate", acceptRate),
		logger.Float64("batchesPerSecond", batchesPerSecond))
}
