package testsolves

import (
	"context"
	"fmt"
	"log"
	"sort"
)

// Result statuses the service reports.
const (
	statusOptimal    = "optimal"
	statusInfeasible = "infeasible"
)

// verifyResults checks every completed run's solution against the batch
// it was produced from.
func verifyResults(config *Config, batches []Batch, runs []Run, stats *Stats) error {
	log.Println("🔍 Verifying results...")

	if len(runs) == 0 {
		return fmt.Errorf("no runs to verify")
	}

	// Index batches by request ID to find each run's source
	byRequest := make(map[string]Batch, len(batches))
	for _, batch := range batches {
		byRequest[batch.RequestID] = batch
	}

	violations := 0
	for _, run := range runs {
		if run.State != stateDone || run.Result == nil {
			continue
		}

		switch run.Result.Status {
		case statusOptimal:
			stats.RunsOptimal++
		case statusInfeasible:
			stats.RunsInfeasible++
			continue
		default:
			continue
		}

		batch, ok := byRequest[run.RequestID]
		if !ok {
			// Run from an earlier test session, nothing to check against
			continue
		}

		for _, problem := range verifyRunSolution(batch, run) {
			violations++
			log.Printf("⚠️  Run %s: %s", run.ID, problem)
		}
	}

	stats.Violations = violations
	if violations > 0 {
		log.Printf("⚠️  Verification found %d violations", violations)
	} else {
		log.Println("✅ All solutions verified")
	}

	displaySolveQuality(runs, config.Verbose)

	log.Println("✅ Result verification completed")
	return nil
}

// verifyRunSolution checks one optimal solution against its batch and
// returns a description of every problem found.
func verifyRunSolution(batch Batch, run Run) []string {
	var problems []string
	result := run.Result

	// Option counts must be zero or within the quota bounds
	countTotal := 0
	for option, count := range result.OptionCounts {
		countTotal += count
		if count == 0 {
			continue
		}
		if count < batch.MinQuota || count > batch.MaxQuota {
			problems = append(problems, fmt.Sprintf(
				"option %s has %d assignees outside [%d, %d]",
				option, count, batch.MinQuota, batch.MaxQuota))
		}
	}

	// Every assigned participant must hold one of their own preferences
	assigned := 0
	scoreTotal := 0
	for participant, assignment := range result.Assignments {
		if assignment.Status != "assigned" {
			continue
		}
		assigned++
		scoreTotal += assignment.Score

		if assignment.Option == "" {
			problems = append(problems, fmt.Sprintf(
				"participant %s is assigned with no option", participant))
			continue
		}

		prefs := batch.Preferences[participant]
		if assignment.Rank < 1 || assignment.Rank > len(prefs) {
			problems = append(problems, fmt.Sprintf(
				"participant %s has rank %d outside their %d preferences",
				participant, assignment.Rank, len(prefs)))
			continue
		}
		if prefs[assignment.Rank-1] != assignment.Option {
			problems = append(problems, fmt.Sprintf(
				"participant %s assigned %s but rank %d names %s",
				participant, assignment.Option, assignment.Rank, prefs[assignment.Rank-1]))
		}
	}

	// Assignee totals must agree across views
	if countTotal != assigned {
		problems = append(problems, fmt.Sprintf(
			"option counts sum to %d but %d participants are assigned",
			countTotal, assigned))
	}

	// Reported satisfaction must equal the sum of assigned scores
	if result.Metrics != nil && result.Metrics.PreferenceSatisfaction != scoreTotal {
		problems = append(problems, fmt.Sprintf(
			"metrics report satisfaction %d but assigned scores sum to %d",
			result.Metrics.PreferenceSatisfaction, scoreTotal))
	}

	return problems
}

// verifyIdempotency resubmits a known batch and checks the service
// reports a duplicate with the original run id.
func verifyIdempotency(ctx context.Context, config *Config, batch Batch, runs []Run) error {
	log.Println("🔁 Verifying resubmission is idempotent...")

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/api/v1/solves"

	resp, err := client.Post(ctx, url, batch)
	if err != nil {
		return fmt.Errorf("resubmission failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != StatusOK {
		return fmt.Errorf("expected HTTP %d for duplicate, got %d: %s", StatusOK, resp.StatusCode, string(body))
	}

	var ack AckResponse
	if err := unmarshalJSON(body, &ack); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if !ack.Duplicate {
		return fmt.Errorf("resubmission of %s was not flagged duplicate", batch.RequestID)
	}

	for _, run := range runs {
		if run.RequestID == batch.RequestID && run.ID != ack.RunID {
			return fmt.Errorf("duplicate ack returned run %s but the original run is %s", ack.RunID, run.ID)
		}
	}

	log.Println("✅ Resubmission returned the original run")
	return nil
}

// displaySolveQuality shows the best solutions and aggregate quality.
func displaySolveQuality(runs []Run, verbose bool) {
	// Collect optimal runs with metrics
	scored := make([]Run, 0, len(runs))
	for _, run := range runs {
		if run.State == stateDone && run.Result != nil &&
			run.Result.Status == statusOptimal && run.Result.Metrics != nil {
			scored = append(scored, run)
		}
	}
	if len(scored) == 0 {
		log.Println("📊 No optimal solutions to summarize")
		return
	}

	sort.Slice(scored, func(i, j int) bool {
		return scored[i].Result.Metrics.AverageSatisfaction > scored[j].Result.Metrics.AverageSatisfaction
	})

	topN := 10
	if len(scored) < topN {
		topN = len(scored)
	}

	log.Printf("🏆 Top %d solutions by average satisfaction:", topN)
	for i := 0; i < topN; i++ {
		m := scored[i].Result.Metrics
		log.Printf("   %d. %s - avg: %.3f, active options: %d, objective: %.1f",
			i+1, scored[i].ID, m.AverageSatisfaction, m.ActiveOptions, m.ObjectiveValue)
	}

	if verbose {
		avg := calculateAverageSatisfaction(scored)
		best := scored[0].Result.Metrics.AverageSatisfaction
		worst := scored[len(scored)-1].Result.Metrics.AverageSatisfaction

		log.Printf(`📊 Satisfaction statistics:
   Average: %.3f
   Maximum: %.3f
   Minimum: %.3f
`, avg, best, worst)
	}
}

// calculateAverageSatisfaction averages the per-run satisfaction means.
func calculateAverageSatisfaction(runs []Run) float64 {
	if len(runs) == 0 {
		return 0
	}

	sum := 0.0
	for _, run := range runs {
		sum += run.Result.Metrics.AverageSatisfaction
	}

	return sum / float64(len(runs))
}
