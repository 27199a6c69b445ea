package model

import "time"

// RepoStatus is the collection state of one configured repository.
type RepoStatus string

const (
	RepoPending     RepoStatus = "pending"
	RepoPaginating  RepoStatus = "paginating"
	RepoAggregating RepoStatus = "aggregating"
	RepoCompleted   RepoStatus = "completed"
	RepoFailed      RepoStatus = "failed"
)

// SkipReason explains why a commit was excluded from the result set.
type SkipReason string

const (
	SkipOutOfRange     SkipReason = "out_of_range"
	SkipAuthorFiltered SkipReason = "author_filtered"
)

// RepoReport is the per-repository outcome of a collection run.
type RepoReport struct {
	Repository string     `json:"repository"`
	Branch     string     `json:"branch,omitempty"`
	Status     RepoStatus `json:"status"`
	Commits    int        `json:"commits"`
	Error      string     `json:"error,omitempty"`
}

// CollectionResult accumulates everything a run produced: commits in
// provider return order plus one report per configured repository.
// A failed repository never removes the results of a successful one.
type CollectionResult struct {
	Commits []Commit     `json:"commits"`
	Reports []RepoReport `json:"reports"`
}

// Failures returns the reports of repositories that did not complete.
func (r *CollectionResult) Failures() []RepoReport {
	var out []RepoReport
	for _, report := range r.Reports {
		if report.Status == RepoFailed {
			out = append(out, report)
		}
	}
	return out
}

// Completed reports whether at least one repository finished successfully.
func (r *CollectionResult) Completed() bool {
	for _, report := range r.Reports {
		if report.Status == RepoCompleted {
			return true
		}
	}
	return false
}

// RepositoryStats is an aggregated view over the commits of one repository.
type RepositoryStats struct {
	Repository        string    `json:"repository"`
	TotalCommits      int       `json:"total_commits"`
	TotalAdditions    int       `json:"total_additions"`
	TotalDeletions    int       `json:"total_deletions"`
	TotalFilesChanged int       `json:"total_files_changed"`
	UniqueAuthors     int       `json:"unique_authors"`
	DateRangeStart    time.Time `json:"date_range_start"`
	DateRangeEnd      time.Time `json:"date_range_end"`
	TeamsInvolved     []string  `json:"teams_involved"`
}

// CollectionMetadata describes the run itself for reporting.
type CollectionMetadata struct {
	CollectionDate    time.Time         `json:"collection_date"`
	TotalRepositories int               `json:"total_repositories"`
	TotalCommits      int               `json:"total_commits_collected"`
	Repositories      []string          `json:"repositories_processed"`
	FiltersApplied    map[string]string `json:"filters_applied,omitempty"`
}
