package engine

import (
	"fmt"
	"sort"
)

// computeMetrics derives the solution-quality metrics from an optimal
// result: satisfaction totals, the rank histogram, unused options, and
// a quota check on the produced counts.
func computeMetrics(prob *Problem, result *Result, objective float64) *Metrics {
	m := &Metrics{
		ObjectiveValue:       objective,
		RankHistogram:        RankHistogram{ByRank: make(map[int]int)},
		UnusedOptions:        []string{},
		ConstraintViolations: []string{},
	}

	for _, a := range result.Assignments {
		switch a.Status {
		case Assigned:
			m.PreferenceSatisfaction += a.Score
			m.RankHistogram.ByRank[a.Rank]++
		case Unassigned:
			m.RankHistogram.Unassigned++
		case NoPreferences:
			m.RankHistogram.NoPreferences++
		}
	}

	for _, option := range prob.Options {
		count := result.OptionCounts[option]
		if count > 0 {
			m.ActiveOptions++
		} else {
			m.UnusedOptions = append(m.UnusedOptions, option)
		}
		// A conforming backend never produces out-of-range counts; a
		// non-empty list means the backend broke the quota coupling.
		if count > 0 && (count < prob.MinQuota || count > prob.MaxQuota) {
			m.ConstraintViolations = append(m.ConstraintViolations,
				fmt.Sprintf("option %s has %d assignees, want 0 or %d to %d",
					option, count, prob.MinQuota, prob.MaxQuota))
		}
	}
	sort.Strings(m.UnusedOptions)

	if n := len(prob.Participants); n > 0 {
		m.AverageSatisfaction = float64(m.PreferenceSatisfaction) / float64(n)
	}

	return m
}
