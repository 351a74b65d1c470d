package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/kismet/internal/testsolves"
)

// Default configuration constants.
const (
	defaultNumBatches   = 100
	defaultParticipants = 40
	defaultOptions      = 8
	defaultListLimit    = 50
	defaultWorkers      = 2 // multiplier for runtime.NumCPU()
	defaultTimeout      = 30 * time.Second
	defaultPollInterval = 500 * time.Millisecond
	defaultTestTimeout  = 10 * time.Minute
)

func main() {
	var (
		baseURL      = flag.String("url", "http://localhost:9080", "Base URL of the service")
		numBatches   = flag.Int("batches", defaultNumBatches, "Number of solve batches to generate and submit")
		participants = flag.Int("participants", defaultParticipants, "Participants per batch")
		options      = flag.Int("options", defaultOptions, "Options per batch")
		listLimit    = flag.Int("list", defaultListLimit, "Number of recent runs to fetch")
		workers      = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout      = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		pollInterval = flag.Duration("poll", defaultPollInterval, "Delay between run status polls")
		outputFile   = flag.String("output", "", "Output file for generated batches (default: generated_batches_TIMESTAMP.json)")
		logFile      = flag.String("log", "", "Log file for test output (default: test_log_TIMESTAMP.log)")
		verbose      = flag.Bool("verbose", false, "Enable verbose logging")
		help         = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		testsolves.ShowHelp()
		return
	}

	// Setup logging
	if err := testsolves.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	// Create test configuration
	config := &testsolves.Config{
		BaseURL:      *baseURL,
		NumBatches:   *numBatches,
		Participants: *participants,
		Options:      *options,
		ListLimit:    *listLimit,
		Workers:      *workers,
		Timeout:      *timeout,
		PollInterval: *pollInterval,
		OutputFile:   *outputFile,
		LogFile:      *logFile,
		Verbose:      *verbose,
	}

	// Run the test
	if err := testsolves.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Test failed: " + err.Error() + "\n")
		return
	}
}
