package config

import (
	"sort"
	"strings"
	"time"

	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/lang"
)

const (
	defaultOutputDir   = "output"
	defaultFormat      = "json"
	defaultTeam        = "unassigned"
	defaultPerPage     = 100
	defaultTimeout     = 30 * time.Second
	defaultMaxRetries  = 3
	defaultRateBuffer  = 10
)

var supportedFormats = []string{"json", "csv", "both"}

// Config is the root application configuration, loaded from a YAML
// file with environment variable overrides.
type Config struct {
	API          APIConfig          `yaml:"api"`
	Collection   CollectionConfig   `yaml:"collection"`
	Filters      Filters            `yaml:"filters"`
	Teams        TeamsConfig        `yaml:"teams"`
	Output       OutputConfig       `yaml:"output"`
	Repositories []RepositoryConfig `yaml:"repositories"`
}

// APIConfig configures the GitHub API client.
type APIConfig struct {
	Token            string        `yaml:"token" env:"GITHUB_TOKEN"`
	BaseURL          string        `yaml:"base_url" env:"GITHUB_API_URL"`
	Timeout          time.Duration `yaml:"timeout" env:"GITHUB_API_TIMEOUT"`
	MaxRetries       int           `yaml:"max_retries" env:"MAX_RETRIES"`
	RateLimitBuffer  int           `yaml:"rate_limit_buffer" env:"RATE_LIMIT_BUFFER"`
	MaxCommitsPerPage int          `yaml:"max_commits_per_page" env:"MAX_COMMITS_PER_REQUEST"`
}

// CollectionConfig configures how commits are collected.
type CollectionConfig struct {
	// SkipDetails disables the per-commit detail request; commits are
	// then emitted without file-level statistics.
	SkipDetails  bool `yaml:"skip_details" env:"SKIP_DETAILS"`
	IncludePatch bool `yaml:"include_patch" env:"INCLUDE_PATCH"`
}

// Filters narrows which commits are collected. Zero fields mean no
// constraint. Repository-level filters override global ones per field,
// never as a whole.
type Filters struct {
	DateFrom string   `yaml:"date_from" env:"DATE_FROM"`
	DateTo   string   `yaml:"date_to" env:"DATE_TO"`
	Authors  []string `yaml:"authors" env:"AUTHORS"`
	Teams    []string `yaml:"teams" env:"TEAMS"`
}

// MergedOver returns global with every non-zero field of f applied on
// top of it.
func (f Filters) MergedOver(global Filters) Filters {
	out := global
	if f.DateFrom != "" {
		out.DateFrom = f.DateFrom
	}
	if f.DateTo != "" {
		out.DateTo = f.DateTo
	}
	if len(f.Authors) > 0 {
		out.Authors = f.Authors
	}
	if len(f.Teams) > 0 {
		out.Teams = f.Teams
	}
	return out
}

// Window parses the date bounds. Date-only values are interpreted as
// the start of the day for the lower bound and the end of the day for
// the upper one, so both bounds stay inclusive.
func (f Filters) Window() (from, to time.Time, err error) {
	if f.DateFrom != "" {
		from, err = parseDate(f.DateFrom, false)
		if err != nil {
			return from, to, errm.Wrap(err, "parse date_from")
		}
	}
	if f.DateTo != "" {
		to, err = parseDate(f.DateTo, true)
		if err != nil {
			return from, to, errm.Wrap(err, "parse date_to")
		}
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return from, to, errm.New("date_to %s is before date_from %s", f.DateTo, f.DateFrom)
	}
	return from, to, nil
}

func parseDate(value string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, errm.New("invalid date %q, expected YYYY-MM-DD or RFC3339", value)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Second)
	}
	return t, nil
}

// RepositoryConfig is one repository to collect from.
type RepositoryConfig struct {
	URL     string  `yaml:"url"`
	Branch  string  `yaml:"branch"`
	Enabled *bool   `yaml:"enabled"`
	Filters Filters `yaml:"filters"`
}

// IsEnabled reports whether the repository takes part in the run.
// Repositories are enabled unless explicitly turned off.
func (r RepositoryConfig) IsEnabled() bool {
	return r.Enabled == nil || *r.Enabled
}

// TeamsConfig maps usernames to team names.
type TeamsConfig struct {
	DefaultTeam string              `yaml:"default_team" env:"DEFAULT_TEAM"`
	Teams       map[string][]string `yaml:"teams"`
}

// PrepareAndValidate fills defaults and rejects ambiguous mappings:
// a username under more than one team would make resolution depend on
// map order, so it is a configuration error, not a runtime choice.
func (c *TeamsConfig) PrepareAndValidate() error {
	c.DefaultTeam = lang.Check(c.DefaultTeam, defaultTeam)

	seen := make(map[string]string)
	for _, teamName := range sortedKeys(c.Teams) {
		for _, username := range c.Teams[teamName] {
			key := strings.ToLower(username)
			if other, ok := seen[key]; ok && other != teamName {
				return errm.New("username %q is mapped to both %q and %q", username, other, teamName)
			}
			seen[key] = teamName
		}
	}
	return nil
}

// OutputConfig configures the exporter.
type OutputConfig struct {
	Format             string `yaml:"format" env:"OUTPUT_FORMAT"`
	Directory          string `yaml:"directory" env:"OUTPUT_DIR"`
	IncludeFileDetails bool   `yaml:"include_file_details" env:"INCLUDE_FILE_DETAILS"`
	Debug              bool   `yaml:"debug" env:"DEBUG"`
}

func (c *OutputConfig) PrepareAndValidate() error {
	c.Format = lang.Check(c.Format, defaultFormat)
	c.Directory = lang.Check(c.Directory, defaultOutputDir)

	for _, format := range supportedFormats {
		if c.Format == format {
			return nil
		}
	}
	return errm.New("unsupported output format %q", c.Format)
}

// PrepareAndValidate validates the whole configuration before any
// network activity happens.
func (c *Config) PrepareAndValidate() error {
	if c.API.Token == "" {
		return ErrMissingToken
	}
	c.API.Timeout = lang.Check(c.API.Timeout, defaultTimeout)
	c.API.MaxRetries = lang.Check(c.API.MaxRetries, defaultMaxRetries)
	c.API.RateLimitBuffer = lang.Check(c.API.RateLimitBuffer, defaultRateBuffer)
	c.API.MaxCommitsPerPage = lang.Check(c.API.MaxCommitsPerPage, defaultPerPage)

	if err := c.Teams.PrepareAndValidate(); err != nil {
		return errm.Wrap(err, "teams")
	}
	if err := c.Output.PrepareAndValidate(); err != nil {
		return errm.Wrap(err, "output")
	}

	if _, _, err := c.Filters.Window(); err != nil {
		return errm.Wrap(err, "filters")
	}
	for _, repo := range c.Repositories {
		if repo.URL == "" {
			return ErrEmptyRepositoryURL
		}
		if _, _, err := repo.Filters.MergedOver(c.Filters).Window(); err != nil {
			return errm.Wrap(err, "repository "+repo.URL+" filters")
		}
	}

	return nil
}

// EnabledRepositories returns the repositories taking part in the run.
func (c *Config) EnabledRepositories() []RepositoryConfig {
	var out []RepositoryConfig
	for _, repo := range c.Repositories {
		if repo.IsEnabled() {
			out = append(out, repo)
		}
	}
	return out
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
