// Package export writes collection results to disk as JSON and CSV.
package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/logze/v2"

	"github.com/commitscope/commitscope/internal/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const timestampLayout = "20060102_150405"

// Exporter writes commits and run statistics into an output directory.
// Filenames are timestamped unless an explicit name is given.
type Exporter struct {
	dir    string
	now    func() time.Time
	logger logze.Logger
}

// New creates an exporter, creating the output directory if needed.
func New(dir string) (*Exporter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errm.Wrap(err, "create output directory")
	}
	return &Exporter{
		dir:    dir,
		now:    time.Now,
		logger: logze.With("component", "exporter"),
	}, nil
}

// JSON writes commits with an optional metadata block to a JSON file
// and returns its path.
func (e *Exporter) JSON(commits []model.Commit, filename string, meta *model.CollectionMetadata) (string, error) {
	path := e.path(filename, "commits", "json")

	out := map[string]any{
		"commits":       commits,
		"total_commits": len(commits),
	}
	if meta != nil {
		out["metadata"] = meta
	}

	if err := e.writeJSON(path, out); err != nil {
		return "", err
	}
	e.logger.Info("exported commits to json", "path", path, "commits", len(commits))
	return path, nil
}

// CSV writes commits as a flat table and returns the file path. Commits
// with unknown statistics get empty numeric cells, never zeros.
// When includeFileDetails is set a second file with one row per changed
// file is written next to the main one.
func (e *Exporter) CSV(commits []model.Commit, filename string, includeFileDetails bool) (string, error) {
	if len(commits) == 0 {
		e.logger.Warn("no commits to export to csv")
		return "", nil
	}
	path := e.path(filename, "commits", "csv")

	rows := [][]string{{
		"repository", "sha", "date", "branch",
		"author_name", "author_login", "author_email", "team",
		"message", "additions", "deletions", "total_changes", "files_changed", "url",
	}}
	for _, c := range commits {
		var additions, deletions, total, files string
		if c.Stats != nil {
			additions = strconv.Itoa(c.Stats.Additions)
			deletions = strconv.Itoa(c.Stats.Deletions)
			total = strconv.Itoa(c.Stats.TotalChanges)
			files = strconv.Itoa(c.Stats.FilesChanged)
		}
		rows = append(rows, []string{
			c.RepositoryOwner + "/" + c.RepositoryName,
			c.SHA,
			c.Date.Format(time.RFC3339),
			c.Branch,
			c.AuthorName, c.AuthorLogin, c.AuthorEmail, c.Team,
			c.Message,
			additions, deletions, total, files,
			c.URL,
		})
	}

	if err := writeCSV(path, rows); err != nil {
		return "", err
	}
	e.logger.Info("exported commits to csv", "path", path, "commits", len(commits))

	if includeFileDetails {
		detailsPath, err := e.fileChangesCSV(commits, path)
		if err != nil {
			return "", err
		}
		e.logger.Info("exported file changes to csv", "path", detailsPath)
	}
	return path, nil
}

// fileChangesCSV writes one row per changed file, keyed by commit sha.
func (e *Exporter) fileChangesCSV(commits []model.Commit, basePath string) (string, error) {
	path := basePath[:len(basePath)-len(".csv")] + "_file_changes.csv"

	rows := [][]string{{
		"commit_sha", "commit_date", "author_login", "team", "repository",
		"filename", "status", "additions", "deletions", "changes",
	}}
	for _, c := range commits {
		for _, fc := range c.FileChanges {
			rows = append(rows, []string{
				c.SHA,
				c.Date.Format(time.RFC3339),
				c.AuthorLogin,
				c.Team,
				c.RepositoryOwner + "/" + c.RepositoryName,
				fc.Filename,
				fc.Status,
				strconv.Itoa(fc.Additions),
				strconv.Itoa(fc.Deletions),
				strconv.Itoa(fc.Changes),
			})
		}
	}
	if err := writeCSV(path, rows); err != nil {
		return "", err
	}
	return path, nil
}

// RepositoryStats writes per-repository aggregates to a JSON file.
func (e *Exporter) RepositoryStats(stats []model.RepositoryStats, filename string) (string, error) {
	path := e.path(filename, "repository_stats", "json")
	if err := e.writeJSON(path, stats); err != nil {
		return "", err
	}
	e.logger.Info("exported repository statistics", "path", path, "repositories", len(stats))
	return path, nil
}

// Summary writes run metadata, overall totals and per-repository
// aggregates into one file.
func (e *Exporter) Summary(commits []model.Commit, stats []model.RepositoryStats,
	meta model.CollectionMetadata, filename string) (string, error) {
	path := e.path(filename, "collection_summary", "json")

	authors := make(map[string]bool)
	teams := make(map[string]bool)
	var additions, deletions, filesChanged int
	for _, c := range commits {
		if c.AuthorLogin != "" {
			authors[c.AuthorLogin] = true
		}
		teams[c.Team] = true
		if c.Stats != nil {
			additions += c.Stats.Additions
			deletions += c.Stats.Deletions
			filesChanged += c.Stats.FilesChanged
		}
	}

	out := map[string]any{
		"metadata": meta,
		"overall_statistics": map[string]any{
			"total_commits":       len(commits),
			"unique_authors":      len(authors),
			"unique_teams":        len(teams),
			"total_additions":     additions,
			"total_deletions":     deletions,
			"total_files_changed": filesChanged,
		},
		"repository_statistics": stats,
	}

	if err := e.writeJSON(path, out); err != nil {
		return "", err
	}
	e.logger.Info("exported collection summary", "path", path)
	return path, nil
}

// TeamStats is the per-team aggregate written by TeamSummary.
type TeamStats struct {
	TeamName          string `json:"team_name"`
	TotalCommits      int    `json:"total_commits"`
	TotalAdditions    int    `json:"total_additions"`
	TotalDeletions    int    `json:"total_deletions"`
	TotalFilesChanged int    `json:"total_files_changed"`
	UniqueAuthors     int    `json:"unique_authors"`
}

// TeamSummary aggregates commits by resolved team and writes the
// result sorted by commit count, busiest team first.
func (e *Exporter) TeamSummary(commits []model.Commit, filename string) (string, error) {
	path := e.path(filename, "team_summary", "json")

	perTeam := make(map[string]*TeamStats)
	authors := make(map[string]map[string]bool)
	var order []string
	for _, c := range commits {
		stats, ok := perTeam[c.Team]
		if !ok {
			stats = &TeamStats{TeamName: c.Team}
			perTeam[c.Team] = stats
			authors[c.Team] = make(map[string]bool)
			order = append(order, c.Team)
		}
		stats.TotalCommits++
		if c.Stats != nil {
			stats.TotalAdditions += c.Stats.Additions
			stats.TotalDeletions += c.Stats.Deletions
			stats.TotalFilesChanged += c.Stats.FilesChanged
		}
		if c.AuthorLogin != "" {
			authors[c.Team][c.AuthorLogin] = true
		}
	}

	summary := make([]TeamStats, 0, len(order))
	for _, name := range order {
		stats := perTeam[name]
		stats.UniqueAuthors = len(authors[name])
		summary = append(summary, *stats)
	}
	sort.SliceStable(summary, func(i, j int) bool {
		return summary[i].TotalCommits > summary[j].TotalCommits
	})

	if err := e.writeJSON(path, summary); err != nil {
		return "", err
	}
	e.logger.Info("exported team summary", "path", path, "teams", len(summary))
	return path, nil
}

func (e *Exporter) path(filename, prefix, ext string) string {
	if filename == "" {
		filename = prefix + "_" + e.now().Format(timestampLayout) + "." + ext
	}
	return filepath.Join(e.dir, filename)
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return errm.Wrap(err, "create csv file")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return errm.Wrap(err, "write csv rows")
	}
	return nil
}

func (e *Exporter) writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errm.Wrap(err, "marshal export data")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errm.Wrap(err, "write export file")
	}
	return nil
}
