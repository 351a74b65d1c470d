package testsolves

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/okian/kismet/pkg/logger"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
	requestIDDivisor   = 10000
	prefShapeDivisor   = 6
	quotaShapeDivisor  = 4
	weightShapeDivisor = 4
)

// Constants for preference shape cases.
const (
	caseFullRanking  = 0 // ranks every option
	caseTopHeavy     = 1 // ranks about half the options
	caseSparse       = 2 // ranks one or two options
	caseNoPreference = 3 // submits an empty list
)

// Constants for quota shape cases.
const (
	caseQuotaLoose = 0 // capacity comfortably above demand
	caseQuotaEven  = 1 // capacity close to demand
	caseQuotaTight = 2 // capacity at demand; popular options fill up
)

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// getRandomInt returns a random int in [0, n) using crypto/rand.
func getRandomInt(n int) int {
	if n <= 0 {
		return 0
	}
	v, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(v.Int64())
}

// generateBatches creates the specified number of solve batches with
// unique request IDs.
func generateBatches(ctx context.Context, config *Config, stats *Stats) ([]Batch, error) {
	logger.Get().Info(ctx, "generating solve batches",
		logger.Int("numBatches", config.NumBatches),
		logger.Int("participants", config.Participants),
		logger.Int("options", config.Options))

	batches := make([]Batch, config.NumBatches)

	// Generate batches concurrently
	type batchResult struct {
		index int
		batch Batch
		err   error
	}

	resultChan := make(chan batchResult, config.NumBatches)

	// Use worker pool for batch generation
	workerCount := minInt(config.Workers, config.NumBatches)
	batchesPerWorker := config.NumBatches / workerCount

	for worker := 0; worker < workerCount; worker++ {
		start := worker * batchesPerWorker
		end := start + batchesPerWorker
		if worker == workerCount-1 {
			end = config.NumBatches // Last worker gets remaining batches
		}

		go func(start, end int) {
			for i := start; i < end; i++ {
				select {
				case <-ctx.Done():
					resultChan <- batchResult{index: i, err: ctx.Err()}
					return
				default:
					batch := generateSingleBatch(i, config.Participants, config.Options)
					resultChan <- batchResult{index: i, batch: batch, err: nil}
				}
			}
		}(start, end)
	}

	// Collect results
	for i := 0; i < config.NumBatches; i++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during batch generation: %w", ctx.Err())
		case result := <-resultChan:
			if result.err != nil {
				return nil, fmt.Errorf("failed to generate batch %d: %w", result.index, result.err)
			}
			batches[result.index] = result.batch
		}
	}

	stats.BatchesGenerated = len(batches)
	logger.Get().Info(ctx, "generated batches successfully", logger.Int("count", len(batches)))

	return batches, nil
}

// generateSingleBatch creates one batch with the given index and sizes.
func generateSingleBatch(index, pCount, oCount int) Batch {
	// Generate unique request ID
	randNum, _ := rand.Int(rand.Reader, big.NewInt(requestIDDivisor))
	requestID := "batch_" + strconv.FormatInt(int64(index), 10) + "_" + strconv.FormatInt(time.Now().Unix(), 10) + "_" + strconv.FormatInt(randNum.Int64(), 10)

	participants := make([]string, pCount)
	for i := range participants {
		participants[i] = fmt.Sprintf("participant-%03d", i)
	}

	options := make([]string, oCount)
	for i := range options {
		options[i] = fmt.Sprintf("option-%02d", i)
	}

	preferences := make(map[string][]string, pCount)
	for _, p := range participants {
		prefs := generatePreferenceList(options)
		if len(prefs) > 0 {
			preferences[p] = prefs
		}
	}

	minQuota, maxQuota := generateQuotaBounds(pCount, oCount)

	return Batch{
		RequestID:    requestID,
		Participants: participants,
		Options:      options,
		Preferences:  preferences,
		MinQuota:     minQuota,
		MaxQuota:     maxQuota,
		OptionWeight: generateOptionWeight(),
	}
}

// generatePreferenceList builds one participant's ranked options with a
// varied shape distribution.
func generatePreferenceList(options []string) []string {
	shuffled := shuffledCopy(options)

	switch getRandomInt(prefShapeDivisor) {
	case caseFullRanking:
		// Ranks every option - most common since the default arm
		// lands here too
		return shuffled
	case caseTopHeavy:
		// Ranks about half the options
		n := len(shuffled)/2 + 1
		return shuffled[:n]
	case caseSparse:
		// Ranks one or two options
		n := 1 + getRandomInt(2)
		if n > len(shuffled) {
			n = len(shuffled)
		}
		return shuffled[:n]
	case caseNoPreference:
		// Sits out of the optimization
		return nil
	default:
		return shuffled
	}
}

// generateQuotaBounds derives per-option bounds from the batch shape.
func generateQuotaBounds(pCount, oCount int) (minQuota, maxQuota int) {
	// Smallest per-option capacity that can seat everyone
	base := (pCount + oCount - 1) / oCount
	if base < 1 {
		base = 1
	}

	switch getRandomInt(quotaShapeDivisor) {
	case caseQuotaLoose:
		return 1, base*2 + 1
	case caseQuotaEven:
		return 1, base + 1
	case caseQuotaTight:
		return 1, base
	default:
		return 1, base*2 + 1
	}
}

// generateOptionWeight varies the reward for activating an option.
func generateOptionWeight() float64 {
	switch getRandomInt(weightShapeDivisor) {
	case 0:
		return 0
	case 1:
		return 0.5
	case 2:
		return 1.0
	default:
		return 2.0
	}
}

// shuffledCopy returns a Fisher-Yates shuffled copy of options.
func shuffledCopy(options []string) []string {
	out := make([]string, len(options))
	copy(out, options)
	for i := len(out) - 1; i > 0; i-- {
		j := getRandomInt(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// minInt returns the minimum of two integers.
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
