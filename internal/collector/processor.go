package collector

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/commitscope/commitscope/internal/model"
	"github.com/commitscope/commitscope/internal/provider/github"
	"github.com/commitscope/commitscope/internal/team"
	"github.com/maxbolgarin/lang"
	"github.com/maxbolgarin/logze/v2"
)

// EffectiveFilters is the merged, parsed filter set for one repository.
// Bounds are inclusive; zero values mean no constraint.
type EffectiveFilters struct {
	From    time.Time
	To      time.Time
	Authors []string
}

// RepoContext identifies the repository a commit belongs to while it
// is being processed.
type RepoContext struct {
	Owner   string
	Name    string
	URL     string
	Branch  string
	Filters EffectiveFilters
}

// FullName returns the owner/name form of the repository.
func (r RepoContext) FullName() string {
	return r.Owner + "/" + r.Name
}

// Processor turns raw listing entries into enriched commit records:
// filters first, then the optional detail fetch, then team resolution.
type Processor struct {
	client       *github.Client
	teams        *team.Mapper
	stats        *model.RunStats
	details      bool
	includePatch bool
	logger       logze.Logger
}

// NewProcessor creates a commit processor. When details is false no
// per-commit detail request is made and commits carry no file-level
// statistics.
func NewProcessor(client *github.Client, teams *team.Mapper, stats *model.RunStats, details, includePatch bool) *Processor {
	return &Processor{
		client:       client,
		teams:        teams,
		stats:        stats,
		details:      details,
		includePatch: includePatch,
		logger:       logze.With("component", "processor"),
	}
}

// Process converts one listing entry into an enriched commit, or
// reports the reason it was skipped. Filters short-circuit in order:
// date range first, then the author allow-list.
func (p *Processor) Process(ctx context.Context, item github.CommitItem, repo RepoContext) (*model.Commit, model.SkipReason) {
	date := item.Commit.Author.Date
	if !repo.Filters.From.IsZero() && date.Before(repo.Filters.From) {
		p.stats.Skip(model.SkipOutOfRange)
		return nil, model.SkipOutOfRange
	}
	if !repo.Filters.To.IsZero() && date.After(repo.Filters.To) {
		p.stats.Skip(model.SkipOutOfRange)
		return nil, model.SkipOutOfRange
	}

	var login string
	if item.Author != nil {
		login = item.Author.Login
	}
	if len(repo.Filters.Authors) > 0 && !matchesAuthor(repo.Filters.Authors, login, item.Commit.Author.Name) {
		p.stats.Skip(model.SkipAuthorFiltered)
		return nil, model.SkipAuthorFiltered
	}

	commit := &model.Commit{
		RepositoryOwner: repo.Owner,
		RepositoryName:  repo.Name,
		RepositoryURL:   repo.URL,
		SHA:             item.SHA,
		Message:         item.Commit.Message,
		Date:            date,
		URL:             item.HTMLURL,
		Branch:          repo.Branch,
		AuthorName:      item.Commit.Author.Name,
		AuthorLogin:     login,
		AuthorEmail:     item.Commit.Author.Email,
	}

	if p.details {
		p.attachDetail(ctx, commit, repo)
	}

	commit.Team = p.teams.Resolve(login)
	p.stats.CommitsFetched++
	return commit, ""
}

// attachDetail fetches file-level statistics for the commit. A failed
// detail request never fails the run: the commit is kept with unknown
// stats and a warning is logged.
func (p *Processor) attachDetail(ctx context.Context, commit *model.Commit, repo RepoContext) {
	detail, err := p.client.GetCommitDetail(ctx, repo.Owner, repo.Name, commit.SHA)
	if err != nil {
		p.stats.DetailFailures++
		p.logger.Warn("could not fetch commit detail",
			"repository", repo.FullName(),
			"sha", lang.TruncateString(commit.SHA, 8),
			"error", err)
		return
	}

	stats := &model.CommitStats{
		Additions:    detail.Stats.Additions,
		Deletions:    detail.Stats.Deletions,
		TotalChanges: lang.Check(detail.Stats.Total, detail.Stats.Additions+detail.Stats.Deletions),
		FilesChanged: len(detail.Files),
	}

	files := make([]model.FileChange, 0, len(detail.Files))
	for _, file := range detail.Files {
		change := model.FileChange{
			Filename:  file.Filename,
			Status:    lang.Check(file.Status, "modified"),
			Additions: file.Additions,
			Deletions: file.Deletions,
			Changes:   file.Changes,
		}
		if p.includePatch {
			change.Patch = file.Patch
		}
		files = append(files, change)
	}

	commit.Stats = stats
	commit.FileChanges = files
}

func matchesAuthor(allowed []string, login, name string) bool {
	for _, author := range allowed {
		if strings.EqualFold(author, login) || strings.EqualFold(author, name) {
			return true
		}
	}
	return false
}

// FilterByTeams returns the commits whose resolved team is in teams.
// An empty team list keeps everything.
func FilterByTeams(commits []model.Commit, teams []string) []model.Commit {
	if len(teams) == 0 {
		return commits
	}
	var out []model.Commit
	for _, commit := range commits {
		if slices.Contains(teams, commit.Team) {
			out = append(out, commit)
		}
	}
	return out
}
