package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commitscope/commitscope/internal/model"
)

func testCommits() []model.Commit {
	date := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	return []model.Commit{
		{
			RepositoryOwner: "octo", RepositoryName: "repo",
			SHA: "aaa111", Message: "add feature", Date: date, Branch: "main",
			AuthorName: "Alice", AuthorLogin: "alice", AuthorEmail: "alice@example.com",
			Team:  "backend",
			Stats: &model.CommitStats{Additions: 10, Deletions: 2, TotalChanges: 12, FilesChanged: 1},
			FileChanges: []model.FileChange{
				{Filename: "main.go", Status: "modified", Additions: 10, Deletions: 2, Changes: 12},
			},
		},
		{
			RepositoryOwner: "octo", RepositoryName: "repo",
			SHA: "bbb222", Message: "fix bug", Date: date.Add(time.Hour), Branch: "main",
			AuthorName: "Dave", AuthorLogin: "dave", AuthorEmail: "dave@example.com",
			Team: "unassigned",
		},
	}
}

func newTestExporter(t *testing.T) *Exporter {
	t.Helper()
	e, err := New(t.TempDir())
	require.NoError(t, err)
	return e
}

func TestJSONExport(t *testing.T) {
	e := newTestExporter(t)
	meta := &model.CollectionMetadata{TotalCommits: 2, CollectionDate: time.Now()}

	path, err := e.JSON(testCommits(), "commits.json", meta)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var out struct {
		Commits      []model.Commit `json:"commits"`
		TotalCommits int            `json:"total_commits"`
		Metadata     *model.CollectionMetadata
	}
	require.NoError(t, json.Unmarshal(data, &out))

	assert.Equal(t, 2, out.TotalCommits)
	require.Len(t, out.Commits, 2)
	assert.Equal(t, "aaa111", out.Commits[0].SHA)
	require.NotNil(t, out.Commits[0].Stats)
	assert.Equal(t, 12, out.Commits[0].Stats.TotalChanges)
	assert.Nil(t, out.Commits[1].Stats, "unknown stats stay unknown through export")
}

func TestJSONExportGeneratesTimestampedName(t *testing.T) {
	e := newTestExporter(t)
	e.now = func() time.Time { return time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC) }

	path, err := e.JSON(nil, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "commits_20240615_103000.json", filepath.Base(path))
}

func TestCSVExportKeepsUnknownStatsEmpty(t *testing.T) {
	e := newTestExporter(t)

	path, err := e.CSV(testCommits(), "commits.csv", false)
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3, "header plus one row per commit")

	header := rows[0]
	col := func(name string) int {
		for i, h := range header {
			if h == name {
				return i
			}
		}
		t.Fatalf("missing column %q", name)
		return -1
	}

	withStats := rows[1]
	assert.Equal(t, "aaa111", withStats[col("sha")])
	assert.Equal(t, "10", withStats[col("additions")])
	assert.Equal(t, "12", withStats[col("total_changes")])

	withoutStats := rows[2]
	assert.Equal(t, "bbb222", withoutStats[col("sha")])
	assert.Empty(t, withoutStats[col("additions")], "unknown is an empty cell, not a zero")
	assert.Empty(t, withoutStats[col("total_changes")])
}

func TestCSVExportWithFileDetails(t *testing.T) {
	e := newTestExporter(t)

	path, err := e.CSV(testCommits(), "commits.csv", true)
	require.NoError(t, err)

	detailsPath := path[:len(path)-len(".csv")] + "_file_changes.csv"
	f, err := os.Open(detailsPath)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2, "header plus one changed file")
	assert.Equal(t, "aaa111", rows[1][0])
	assert.Equal(t, "main.go", rows[1][5])
}

func TestCSVExportNothingToWrite(t *testing.T) {
	e := newTestExporter(t)

	path, err := e.CSV(nil, "commits.csv", false)
	require.NoError(t, err)
	assert.Empty(t, path)

	_, err = os.Stat(filepath.Join(e.dir, "commits.csv"))
	assert.True(t, os.IsNotExist(err))
}

func TestTeamSummaryOrdersByCommitCount(t *testing.T) {
	e := newTestExporter(t)

	commits := append(testCommits(),
		model.Commit{Team: "unassigned", AuthorLogin: "eve"},
		model.Commit{Team: "unassigned", AuthorLogin: "dave"},
	)

	path, err := e.TeamSummary(commits, "teams.json")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var summary []TeamStats
	require.NoError(t, json.Unmarshal(data, &summary))
	require.Len(t, summary, 2)

	assert.Equal(t, "unassigned", summary[0].TeamName, "busiest team first")
	assert.Equal(t, 3, summary[0].TotalCommits)
	assert.Equal(t, 2, summary[0].UniqueAuthors)

	assert.Equal(t, "backend", summary[1].TeamName)
	assert.Equal(t, 1, summary[1].TotalCommits)
	assert.Equal(t, 10, summary[1].TotalAdditions)
	assert.Equal(t, 2, summary[1].TotalDeletions)
}

func TestSummaryAggregatesTotals(t *testing.T) {
	e := newTestExporter(t)
	meta := model.CollectionMetadata{TotalCommits: 2}

	path, err := e.Summary(testCommits(), nil, meta, "summary.json")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var out struct {
		Overall struct {
			TotalCommits   int `json:"total_commits"`
			UniqueAuthors  int `json:"unique_authors"`
			UniqueTeams    int `json:"unique_teams"`
			TotalAdditions int `json:"total_additions"`
		} `json:"overall_statistics"`
	}
	require.NoError(t, json.Unmarshal(data, &out))

	assert.Equal(t, 2, out.Overall.TotalCommits)
	assert.Equal(t, 2, out.Overall.UniqueAuthors)
	assert.Equal(t, 2, out.Overall.UniqueTeams)
	assert.Equal(t, 10, out.Overall.TotalAdditions)
}
