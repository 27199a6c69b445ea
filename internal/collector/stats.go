package collector

import (
	"sort"
	"strings"
	"time"

	"github.com/commitscope/commitscope/internal/config"
	"github.com/commitscope/commitscope/internal/model"
)

// CalculateRepositoryStats aggregates the collected commits per
// repository, in first-seen order.
func CalculateRepositoryStats(commits []model.Commit) []model.RepositoryStats {
	var order []string
	grouped := make(map[string][]model.Commit)
	for _, commit := range commits {
		key := commit.RepositoryOwner + "/" + commit.RepositoryName
		if _, ok := grouped[key]; !ok {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], commit)
	}

	out := make([]model.RepositoryStats, 0, len(order))
	for _, key := range order {
		repoCommits := grouped[key]
		stats := model.RepositoryStats{
			Repository:   key,
			TotalCommits: len(repoCommits),
		}

		authors := make(map[string]bool)
		teams := make(map[string]bool)
		for _, commit := range repoCommits {
			if commit.AuthorLogin != "" {
				authors[commit.AuthorLogin] = true
			}
			teams[commit.Team] = true
			if commit.Stats != nil {
				stats.TotalAdditions += commit.Stats.Additions
				stats.TotalDeletions += commit.Stats.Deletions
				stats.TotalFilesChanged += commit.Stats.FilesChanged
			}
			if stats.DateRangeStart.IsZero() || commit.Date.Before(stats.DateRangeStart) {
				stats.DateRangeStart = commit.Date
			}
			if commit.Date.After(stats.DateRangeEnd) {
				stats.DateRangeEnd = commit.Date
			}
		}

		stats.UniqueAuthors = len(authors)
		for teamName := range teams {
			stats.TeamsInvolved = append(stats.TeamsInvolved, teamName)
		}
		sort.Strings(stats.TeamsInvolved)
		out = append(out, stats)
	}
	return out
}

// BuildMetadata describes the run for reporting: which repositories
// were processed, which filters were in effect and how much came back.
func BuildMetadata(result *model.CollectionResult, filters config.Filters) model.CollectionMetadata {
	meta := model.CollectionMetadata{
		CollectionDate:    time.Now(),
		TotalRepositories: len(result.Reports),
		TotalCommits:      len(result.Commits),
	}
	for _, report := range result.Reports {
		meta.Repositories = append(meta.Repositories, report.Repository)
	}

	applied := make(map[string]string)
	if filters.DateFrom != "" {
		applied["date_from"] = filters.DateFrom
	}
	if filters.DateTo != "" {
		applied["date_to"] = filters.DateTo
	}
	if len(filters.Authors) > 0 {
		applied["authors"] = strings.Join(filters.Authors, ",")
	}
	if len(filters.Teams) > 0 {
		applied["teams"] = strings.Join(filters.Teams, ",")
	}
	if len(applied) > 0 {
		meta.FiltersApplied = applied
	}
	return meta
}
