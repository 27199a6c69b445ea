package model

import "time"

// Commit is the unit the rest of the system operates on: one listing
// entry joined with optional per-commit detail and a resolved team.
// It is created once per distinct sha per repository and never mutated
// afterwards; filtering works by inclusion, not by editing.
type Commit struct {
	RepositoryOwner string `json:"repository_owner"`
	RepositoryName  string `json:"repository_name"`
	RepositoryURL   string `json:"repository_url"`

	SHA     string    `json:"sha"`
	Message string    `json:"message"`
	Date    time.Time `json:"date"`
	URL     string    `json:"url"`
	Branch  string    `json:"branch"`

	AuthorName  string `json:"author_name"`
	AuthorLogin string `json:"author_login,omitempty"`
	AuthorEmail string `json:"author_email"`
	Team        string `json:"team"`

	// Stats is nil when detail fetching is disabled or the detail
	// request failed. Unknown stats are not the same as zero changes.
	Stats       *CommitStats `json:"stats,omitempty"`
	FileChanges []FileChange `json:"file_changes,omitempty"`
}

// CommitStats represents file-level change totals of a single commit.
type CommitStats struct {
	Additions    int `json:"additions"`
	Deletions    int `json:"deletions"`
	TotalChanges int `json:"total_changes"`
	FilesChanged int `json:"files_changed"`
}

// FileChange represents changes to a single file in a commit.
type FileChange struct {
	Filename  string `json:"filename"`
	Status    string `json:"status"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Changes   int    `json:"changes"`
	Patch     string `json:"patch,omitempty"`
}

// TotalChanges returns the total number of changed lines and whether
// that number is known at all.
func (c *Commit) TotalChanges() (int, bool) {
	if c.Stats == nil {
		return 0, false
	}
	return c.Stats.TotalChanges, true
}
