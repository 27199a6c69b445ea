package collector

import (
	"context"

	"github.com/commitscope/commitscope/internal/config"
	"github.com/commitscope/commitscope/internal/model"
	"github.com/commitscope/commitscope/internal/provider/github"
	"github.com/maxbolgarin/abstract"
	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/logze/v2"
)

// Collector sequences collection across the configured repositories:
// pagination through the commit listing, per-item aggregation and
// per-repository failure accounting. One repository failing never
// aborts the others; the run reports both results and failures.
type Collector struct {
	client    *github.Client
	processor *Processor
	branches  *BranchDetector
	stats     *model.RunStats

	repos         []config.RepositoryConfig
	globalFilters config.Filters
	perPage       int

	logger logze.Logger
}

// New creates a collector over the given client and processor.
func New(client *github.Client, processor *Processor, stats *model.RunStats,
	repos []config.RepositoryConfig, globalFilters config.Filters, perPage int) *Collector {
	return &Collector{
		client:        client,
		processor:     processor,
		branches:      NewBranchDetector(client),
		stats:         stats,
		repos:         repos,
		globalFilters: globalFilters,
		perPage:       perPage,
		logger:        logze.With("component", "collector"),
	}
}

// Run collects commits from every enabled repository sequentially.
// Cancellation stops the run cleanly: already-accumulated commits are
// returned so the caller can still export them.
func (c *Collector) Run(ctx context.Context) *model.CollectionResult {
	result := &model.CollectionResult{}
	timer := abstract.StartTimer()

	for _, repoCfg := range c.repos {
		if !repoCfg.IsEnabled() {
			continue
		}
		result.Reports = append(result.Reports, c.collectRepository(ctx, repoCfg, result))
		if ctx.Err() != nil {
			c.logger.Warn("collection interrupted, keeping accumulated commits",
				"commits", len(result.Commits))
			break
		}
	}

	c.logger.Info("collection finished",
		"commits", len(result.Commits),
		"repositories", len(result.Reports),
		"failures", len(result.Failures()),
		"elapsed", timer.ElapsedTime().String())
	return result
}

// collectRepository walks one repository through the state machine
// pending -> paginating -> aggregating -> completed or failed.
func (c *Collector) collectRepository(ctx context.Context, repoCfg config.RepositoryConfig, result *model.CollectionResult) model.RepoReport {
	report := model.RepoReport{Repository: repoCfg.URL, Status: model.RepoPending}

	owner, name, err := ParseRepoURL(repoCfg.URL)
	if err != nil {
		return c.failRepository(report, err)
	}
	report.Repository = owner + "/" + name
	log := c.logger.WithFields("repository", report.Repository)

	filters := repoCfg.Filters.MergedOver(c.globalFilters)
	from, to, err := filters.Window()
	if err != nil {
		return c.failRepository(report, err)
	}
	eff := EffectiveFilters{From: from, To: to, Authors: filters.Authors}

	info, err := c.branches.Repository(ctx, owner, name)
	if err != nil {
		return c.failRepository(report, errm.Wrap(err, "get repository"))
	}

	branch := c.branches.Resolve(ctx, owner, name, repoCfg.Branch)
	report.Branch = branch
	log.Info("collecting commits", "branch", branch)

	repoCtx := RepoContext{
		Owner:   owner,
		Name:    name,
		URL:     info.HTMLURL,
		Branch:  branch,
		Filters: eff,
	}

	opts := github.CommitListOptions{
		Branch:  branch,
		Since:   eff.From,
		Until:   eff.To,
		PerPage: c.perPage,
	}
	// Provider-side narrowing when the allow-list is a single author;
	// the processor enforces the list locally either way.
	if len(eff.Authors) == 1 {
		opts.Author = eff.Authors[0]
	}

	report.Status = model.RepoPaginating
	pages := c.client.CommitPages(owner, name, opts)

	for pages.Next(ctx) {
		items, err := github.DecodeCommits(pages.Page())
		if err != nil {
			return c.failRepository(report, err)
		}
		if len(items) == 0 {
			break
		}

		report.Status = model.RepoAggregating
		for _, item := range items {
			commit, skipped := c.processor.Process(ctx, item, repoCtx)
			if skipped != "" {
				continue
			}
			result.Commits = append(result.Commits, *commit)
			report.Commits++
		}
		report.Status = model.RepoPaginating
	}
	if err := pages.Err(); err != nil {
		return c.failRepository(report, errm.Wrap(err, "list commits"))
	}

	report.Status = model.RepoCompleted
	log.Info("repository collected", "commits", report.Commits)
	return report
}

func (c *Collector) failRepository(report model.RepoReport, err error) model.RepoReport {
	report.Status = model.RepoFailed
	report.Error = err.Error()
	c.logger.Error("repository collection failed",
		"repository", report.Repository, "error", err)
	return report
}
