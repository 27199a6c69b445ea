package main

import (
	"github.com/alecthomas/kingpin/v2"
	"github.com/maxbolgarin/contem"
	"github.com/maxbolgarin/erro"
	"github.com/maxbolgarin/lang"
	"github.com/maxbolgarin/logze/v2"

	"github.com/commitscope/commitscope/internal/app"
	"github.com/commitscope/commitscope/internal/config"
)

var (
	Version, Branch, Commit, BuildDate string
)

var (
	configPath = kingpin.Flag("config", "path to config file").Short('c').String()

	repos        = kingpin.Flag("repo", "repository to collect from, repeatable").Short('r').Strings()
	branch       = kingpin.Flag("branch", "branch to collect from").Short('b').String()
	dateFrom     = kingpin.Flag("date-from", "collect commits on or after this date").String()
	dateTo       = kingpin.Flag("date-to", "collect commits on or before this date").String()
	authors      = kingpin.Flag("author", "only commits by this author, repeatable").Strings()
	teams        = kingpin.Flag("team", "only commits by this team, repeatable").Strings()
	format       = kingpin.Flag("format", "output format: json, csv or both").Short('f').String()
	outputDir    = kingpin.Flag("output-dir", "directory for output files").Short('o').String()
	includePatch = kingpin.Flag("include-patch", "include patch content in file changes").Bool()
	noDetails    = kingpin.Flag("no-details", "skip per-commit detail requests").Bool()
	testConn     = kingpin.Flag("test-connection", "verify the token and exit").Bool()
	debug        = kingpin.Flag("debug", "enable debug logging").Bool()
)

func main() {
	kingpin.Parse()
	var err error
	ctx := contem.New(contem.WithLogger(logze.DefaultPtr()), contem.Exit(&err))
	defer ctx.Shutdown()
	err = run(ctx)
	if err != nil {
		logze.DefaultPtr().Error("cannot run", "error", err)
	}
}

func run(ctx contem.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return erro.Wrap(err, "load config")
	}
	logze.Init(logze.C().WithConsole().WithLevel(
		lang.If(*debug || cfg.Output.Debug, logze.LevelDebug, logze.LevelInfo)))

	service, err := app.New(ctx, cfg)
	if err != nil {
		return erro.Wrap(err, "new app")
	}

	if *testConn {
		return service.TestConnection(ctx)
	}

	if err := service.Run(ctx); err != nil {
		return erro.Wrap(err, "run collection")
	}

	return nil
}

// loadConfig reads the file or environment configuration and lays the
// command line flags over it. Flag overrides are applied before
// validation so they go through the same checks as the file.
func loadConfig() (config.Config, error) {
	cfg, err := app.LoadConfig(*configPath)
	if err != nil {
		return cfg, err
	}

	applyFlags(&cfg)
	if err := cfg.PrepareAndValidate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyFlags(cfg *config.Config) {
	for _, repo := range *repos {
		cfg.Repositories = append(cfg.Repositories, config.RepositoryConfig{
			URL:    repo,
			Branch: *branch,
		})
	}
	cfg.Filters.DateFrom = lang.Check(*dateFrom, cfg.Filters.DateFrom)
	cfg.Filters.DateTo = lang.Check(*dateTo, cfg.Filters.DateTo)
	if len(*authors) > 0 {
		cfg.Filters.Authors = *authors
	}
	if len(*teams) > 0 {
		cfg.Filters.Teams = *teams
	}
	cfg.Output.Format = lang.Check(*format, cfg.Output.Format)
	cfg.Output.Directory = lang.Check(*outputDir, cfg.Output.Directory)
	if *includePatch {
		cfg.Collection.IncludePatch = true
	}
	if *noDetails {
		cfg.Collection.SkipDetails = true
	}
}
