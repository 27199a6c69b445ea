package app

import (
	"context"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/maxbolgarin/contem"
	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/logze/v2"

	"github.com/commitscope/commitscope/internal/collector"
	"github.com/commitscope/commitscope/internal/config"
	"github.com/commitscope/commitscope/internal/export"
	"github.com/commitscope/commitscope/internal/model"
	"github.com/commitscope/commitscope/internal/provider/github"
	"github.com/commitscope/commitscope/internal/team"
)

// App wires the collection pipeline together: the API client, the
// per-repository collector, team resolution and the exporters.
type App struct {
	client    *github.Client
	collector *collector.Collector
	exporter  *export.Exporter
	teams     *team.Mapper
	stats     *model.RunStats

	cfg config.Config
	log logze.Logger
}

// New creates the application from a validated configuration.
func New(ctx contem.Context, cfg config.Config) (*App, error) {
	app := &App{
		cfg:   cfg,
		stats: model.NewRunStats(),
		log:   logze.With("component", "app"),
	}

	if err := app.init(ctx, cfg); err != nil {
		return nil, errm.Wrap(err, "failed to initialize application")
	}

	return app, nil
}

// LoadConfig reads the configuration from a YAML file when path is
// given, otherwise from environment variables only. The caller is
// expected to run PrepareAndValidate after applying any overrides.
func LoadConfig(path string) (cfg config.Config, err error) {
	if path != "" {
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		return cfg, errm.Wrap(err, "read config")
	}
	return cfg, nil
}

func (a *App) init(_ contem.Context, cfg config.Config) (err error) {
	a.client, err = github.NewClient(github.Config{
		Token:           cfg.API.Token,
		BaseURL:         cfg.API.BaseURL,
		Timeout:         cfg.API.Timeout,
		MaxRetries:      cfg.API.MaxRetries,
		RateLimitBuffer: cfg.API.RateLimitBuffer,
	}, a.stats)
	if err != nil {
		return errm.Wrap(err, "failed to create API client")
	}

	a.teams = team.NewMapper(cfg.Teams)

	processor := collector.NewProcessor(a.client, a.teams, a.stats,
		!cfg.Collection.SkipDetails, cfg.Collection.IncludePatch)
	a.collector = collector.New(a.client, processor, a.stats,
		cfg.Repositories, cfg.Filters, cfg.API.MaxCommitsPerPage)

	a.exporter, err = export.New(cfg.Output.Directory)
	if err != nil {
		return errm.Wrap(err, "failed to create exporter")
	}

	return nil
}

// TestConnection verifies the token by asking the API who it belongs to.
func (a *App) TestConnection(ctx context.Context) error {
	user, err := a.client.GetAuthenticatedUser(ctx)
	if err != nil {
		return errm.Wrap(err, "failed to authenticate")
	}
	a.log.Info("connection successful", "login", user.Login,
		"rate_limit", a.client.Budget().Limit,
		"rate_remaining", a.client.Budget().Remaining)
	return nil
}

// Run executes a full collection: gather commits from every enabled
// repository, apply the team filter, compute aggregates and export.
// Some repositories failing is not an error as long as at least one
// completed; the failures are reported in the logs and the metadata.
func (a *App) Run(ctx context.Context) error {
	repos := a.cfg.EnabledRepositories()
	if len(repos) == 0 {
		return config.ErrNoRepositories
	}

	result := a.collector.Run(ctx)

	commits := collector.FilterByTeams(result.Commits, a.cfg.Filters.Teams)
	if filtered := len(result.Commits) - len(commits); filtered > 0 {
		a.log.Info("team filter applied", "kept", len(commits), "filtered", filtered)
	}

	stats := collector.CalculateRepositoryStats(commits)
	meta := collector.BuildMetadata(result, a.cfg.Filters)

	if err := a.export(commits, stats, meta); err != nil {
		return err
	}

	a.logSummary(result, commits)

	if !result.Completed() {
		return errm.New("no repository completed successfully")
	}
	return nil
}

func (a *App) export(commits []model.Commit, stats []model.RepositoryStats, meta model.CollectionMetadata) error {
	format := a.cfg.Output.Format

	if format == "json" || format == "both" {
		if _, err := a.exporter.JSON(commits, "", &meta); err != nil {
			return errm.Wrap(err, "export json")
		}
	}
	if format == "csv" || format == "both" {
		if _, err := a.exporter.CSV(commits, "", a.cfg.Output.IncludeFileDetails); err != nil {
			return errm.Wrap(err, "export csv")
		}
	}

	if _, err := a.exporter.RepositoryStats(stats, ""); err != nil {
		return errm.Wrap(err, "export repository stats")
	}
	if _, err := a.exporter.TeamSummary(commits, ""); err != nil {
		return errm.Wrap(err, "export team summary")
	}
	if _, err := a.exporter.Summary(commits, stats, meta, ""); err != nil {
		return errm.Wrap(err, "export summary")
	}
	return nil
}

func (a *App) logSummary(result *model.CollectionResult, commits []model.Commit) {
	snapshot := a.stats.Snapshot()
	a.log.Info("run summary",
		"commits", len(commits),
		"repositories", len(result.Reports),
		"failures", len(result.Failures()),
		"requests", snapshot.Requests,
		"retries", snapshot.Retries,
		"rate_limit_waits", snapshot.RateLimitWaits,
		"detail_failures", snapshot.DetailFailures,
		"skipped", snapshot.CommitsSkipped)

	for _, report := range result.Failures() {
		a.log.Warn("repository failed", "repository", report.Repository, "error", report.Error)
	}
}
