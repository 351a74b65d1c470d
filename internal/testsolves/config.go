package testsolves

import "time"

// Config holds configuration for the solve test
type Config struct {
	BaseURL      string        // Base URL of the service
	NumBatches   int           // Number of solve batches to generate
	Participants int           // Participants per batch
	Options      int           // Options per batch
	ListLimit    int           // Number of recent runs to fetch
	Workers      int           // Number of concurrent workers
	Timeout      time.Duration // HTTP request timeout
	PollInterval time.Duration // Delay between run status polls
	OutputFile   string        // Output file for generated batches
	LogFile      string        // Log file for test output
	Verbose      bool          // Enable verbose logging
}

// Batch is one solve request submitted by the tool
type Batch struct {
	RequestID    string              `json:"request_id"`
	Participants []string            `json:"participants"`
	Options      []string            `json:"options"`
	Preferences  map[string][]string `json:"preferences"`
	MinQuota     int                 `json:"min_quota"`
	MaxQuota     int                 `json:"max_quota"`
	OptionWeight float64             `json:"option_weight"`
}

// AckResponse represents the response from batch submission
type AckResponse struct {
	RunID     string `json:"run_id"`
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// Run is the run record returned by the service
type Run struct {
	ID        string  `json:"id"`
	RequestID string  `json:"request_id"`
	State     string  `json:"state"`
	Result    *Result `json:"result,omitempty"`
	Err       string  `json:"error,omitempty"`
}

// Result carries the solver outcome fields the tool inspects
type Result struct {
	Status       string                `json:"status"`
	Assignments  map[string]Assignment `json:"assignments"`
	OptionCounts map[string]int        `json:"option_counts"`
	Metrics      *ResultMetrics        `json:"metrics,omitempty"`
}

// Assignment is one participant's outcome within a result
type Assignment struct {
	Participant string `json:"participant"`
	Status      string `json:"status"`
	Option      string `json:"option,omitempty"`
	Rank        int    `json:"rank,omitempty"`
	Score       int    `json:"score,omitempty"`
}

// ResultMetrics summarizes solution quality
type ResultMetrics struct {
	PreferenceSatisfaction int     `json:"preference_satisfaction"`
	ActiveOptions          int     `json:"active_options"`
	AverageSatisfaction    float64 `json:"average_satisfaction"`
	ObjectiveValue         float64 `json:"objective_value"`
}

// AnalyticsRow is one option's demand profile
type AnalyticsRow struct {
	Option           string  `json:"option"`
	Demand           int     `json:"demand"`
	WeightedDemand   int     `json:"weighted_demand"`
	TopChoiceDemand  int     `json:"top_choice_demand"`
	CompetitionIndex float64 `json:"competition_index"`
}

// Stats holds test statistics
type Stats struct {
	BatchesGenerated int
	BatchesSubmitted int
	BatchesAccepted  int
	BatchesDuplicate int
	BatchesFailed    int
	RunsCompleted    int
	RunsOptimal      int
	RunsInfeasible   int
	RunsFailed       int
	RunsPending      int
	RecentRuns       int
	AnalyticsRows    int
	Violations       int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
