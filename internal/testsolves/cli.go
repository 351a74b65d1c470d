package testsolves

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/okian/kismet/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	// Initialize the logger first
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "test_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the solve test tool.
func ShowHelp() {
	os.Stdout.WriteString(`Kismet Solve Test Tool
======================

A concurrent tool for exercising the Kismet assignment service end to
end: it generates solve batches, submits them, polls the runs to
completion and verifies the returned solutions.

Usage:
  go run cmd/test-solves/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -batches int
        Number of solve batches to generate and submit (default 100)
  -participants int
        Participants per batch (default 40)
  -options int
        Options per batch (default 8)
  -list int
        Number of recent runs to fetch after the test (default 50)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -poll duration
        Delay between run status polls (default 500ms)
  -output string
        Output file for generated batches (default: generated_batches_TIMESTAMP.json)
  -log string
        Log file for test output (default: test_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Test with default settings
  go run cmd/test-solves/main.go

  # Test with custom parameters
  go run cmd/test-solves/main.go -batches 500 -workers 16 -url http://localhost:8080

  # Large batches with verbose output
  go run cmd/test-solves/main.go -verbose -participants 200 -options 20

  # Test with custom log file
  go run cmd/test-solves/main.go -batches 500 -log my_test.log
`)
}
