// Package analytics derives option-demand statistics from a solve
// problem's preference data. The rows answer the capacity-planning
// questions that come up when quotas are tuned: how contested is each
// option, and is the contest driven by top choices or by long-tail
// listings.
package analytics

import (
	"math"
	"sort"

	"github.com/okian/kismet/internal/domain/engine"
)

// defaultTopChoiceWindow is how many of a participant's highest-ranked
// preferences count as top choices.
const defaultTopChoiceWindow = 2

// Row is the demand profile of one option.
type Row struct {
	// Option is the option id. Rows cover the union of the declared
	// option list and every option participants listed, so demand for
	// an undeclared option is still visible.
	Option string `json:"option"`

	// Demand counts listings at any rank.
	Demand int `json:"demand"`

	// WeightedDemand sums the preference scores of every listing, so a
	// first choice moves it more than a last choice.
	WeightedDemand int `json:"weighted_demand"`

	// TopChoiceDemand counts listings within the top-choice window.
	TopChoiceDemand int `json:"top_choice_demand"`

	// CompetitionIndex is TopChoiceDemand divided by the maximum quota,
	// rounded to two decimals. Above 1.0 means the option cannot seat
	// everyone who wants it badly.
	CompetitionIndex float64 `json:"competition_index"`
}

type analyzer struct {
	topChoiceWindow int
}

// Option configures Analyze.
type Option func(*analyzer)

// WithTopChoiceWindow sets how many leading preferences count as top
// choices. Values below one are ignored.
func WithTopChoiceWindow(n int) Option {
	return func(a *analyzer) {
		if n > 0 {
			a.topChoiceWindow = n
		}
	}
}

// Analyze computes one Row per option, ordered by weighted demand
// descending with option id ascending breaking ties.
func Analyze(prob engine.Problem, opts ...Option) []Row {
	a := &analyzer{topChoiceWindow: defaultTopChoiceWindow}
	for _, opt := range opts {
		opt(a)
	}

	demand := make(map[string]int, len(prob.Options))
	weighted := make(map[string]int, len(prob.Options))
	topChoice := make(map[string]int, len(prob.Options))

	for _, participant := range prob.Participants {
		for i, pref := range prob.Preferences[participant] {
			demand[pref.Option]++
			weighted[pref.Option] += pref.Score
			if i < a.topChoiceWindow {
				topChoice[pref.Option]++
			}
		}
	}

	// Row set is the union of declared and listed options.
	known := make(map[string]bool, len(prob.Options))
	options := make([]string, 0, len(prob.Options)+len(demand))
	for _, option := range prob.Options {
		known[option] = true
		options = append(options, option)
	}
	for option := range demand {
		if !known[option] {
			options = append(options, option)
		}
	}

	rows := make([]Row, 0, len(options))
	for _, option := range options {
		rows = append(rows, Row{
			Option:           option,
			Demand:           demand[option],
			WeightedDemand:   weighted[option],
			TopChoiceDemand:  topChoice[option],
			CompetitionIndex: competitionIndex(topChoice[option], prob.MaxQuota),
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].WeightedDemand != rows[j].WeightedDemand {
			return rows[i].WeightedDemand > rows[j].WeightedDemand
		}
		return rows[i].Option < rows[j].Option
	})

	return rows
}

// competitionIndex guards the division: a non-positive quota means the
// ratio is undefined, reported as zero.
func competitionIndex(topChoiceDemand, maxQuota int) float64 {
	if maxQuota < 1 {
		return 0
	}
	return math.Round(float64(topChoiceDemand)/float64(maxQuota)*100) / 100
}
