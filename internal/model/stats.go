package model

// RunStats counts what happened on the wire during a collection run.
// The execution model is strictly sequential, so plain counters are
// enough: only one component mutates them at a time.
type RunStats struct {
	Requests       int
	Retries        int
	RateLimitWaits int
	CommitsFetched int
	DetailFailures int

	skipped map[SkipReason]int
}

// NewRunStats returns zeroed run statistics shared by reference between
// the executor, the aggregator and the orchestrator.
func NewRunStats() *RunStats {
	return &RunStats{skipped: make(map[SkipReason]int)}
}

// Skip records one commit excluded by a filter.
func (s *RunStats) Skip(reason SkipReason) {
	s.skipped[reason]++
}

// Skipped returns the number of commits excluded for the given reason.
func (s *RunStats) Skipped(reason SkipReason) int {
	return s.skipped[reason]
}

// SkippedTotal returns the number of commits excluded by any filter.
func (s *RunStats) SkippedTotal() int {
	var total int
	for _, n := range s.skipped {
		total += n
	}
	return total
}

// Snapshot returns a read-only copy for reporting.
func (s *RunStats) Snapshot() RunStatsSnapshot {
	return RunStatsSnapshot{
		Requests:       s.Requests,
		Retries:        s.Retries,
		RateLimitWaits: s.RateLimitWaits,
		CommitsFetched: s.CommitsFetched,
		CommitsSkipped: s.SkippedTotal(),
		DetailFailures: s.DetailFailures,
	}
}

// RunStatsSnapshot is an immutable view of RunStats for export.
type RunStatsSnapshot struct {
	Requests       int `json:"requests"`
	Retries        int `json:"retries"`
	RateLimitWaits int `json:"rate_limit_waits"`
	CommitsFetched int `json:"commits_fetched"`
	CommitsSkipped int `json:"commits_skipped"`
	DetailFailures int `json:"detail_failures"`
}
