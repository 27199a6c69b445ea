package github

import (
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/maxbolgarin/errm"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Repository is the subset of the repository resource the collector needs.
type Repository struct {
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	HTMLURL       string `json:"html_url"`
	DefaultBranch string `json:"default_branch"`
}

// User represents a GitHub account.
type User struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CommitItem is one entry of the commit listing endpoint. The nested
// commit.author block carries git identity, the top-level author block
// carries the GitHub account and may be null for unlinked commits.
type CommitItem struct {
	SHA    string `json:"sha"`
	Commit struct {
		Message string `json:"message"`
		Author  struct {
			Name  string    `json:"name"`
			Email string    `json:"email"`
			Date  time.Time `json:"date"`
		} `json:"author"`
	} `json:"commit"`
	Author  *User  `json:"author"`
	HTMLURL string `json:"html_url"`
}

// CommitDetail is the single-commit resource with file-level stats,
// joined to a CommitItem by sha.
type CommitDetail struct {
	SHA   string `json:"sha"`
	Stats struct {
		Additions int `json:"additions"`
		Deletions int `json:"deletions"`
		Total     int `json:"total"`
	} `json:"stats"`
	Files []CommitFile `json:"files"`
}

// CommitFile is one changed file inside a commit detail response.
type CommitFile struct {
	Filename  string `json:"filename"`
	Status    string `json:"status"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Changes   int    `json:"changes"`
	Patch     string `json:"patch"`
}

// DecodeCommits decodes one commit listing page.
func DecodeCommits(page []byte) ([]CommitItem, error) {
	var items []CommitItem
	if err := json.Unmarshal(page, &items); err != nil {
		return nil, errm.Wrap(err, "decode commits page")
	}
	return items, nil
}
