package collector

import (
	"net/url"
	"strings"

	"github.com/maxbolgarin/errm"
)

// ParseRepoURL extracts owner and repository name from the accepted
// URL formats: https://github.com/owner/repo, github.com/owner/repo
// and plain owner/repo, with or without a trailing .git.
func ParseRepoURL(raw string) (owner, repo string, err error) {
	raw = strings.TrimSuffix(strings.TrimSpace(raw), "/")

	var path string
	switch {
	case strings.HasPrefix(raw, "http://"), strings.HasPrefix(raw, "https://"):
		parsed, perr := url.Parse(raw)
		if perr != nil {
			return "", "", errm.Wrap(perr, "parse repository url")
		}
		path = strings.Trim(parsed.Path, "/")
	case strings.Contains(raw, "/"):
		path = strings.TrimPrefix(raw, "github.com/")
	default:
		return "", "", errm.New("invalid repository url format: %s", raw)
	}

	parts := strings.Split(path, "/")
	if len(parts) < 2 {
		return "", "", errm.New("could not parse owner/repo from url: %s", raw)
	}

	owner = parts[len(parts)-2]
	repo = strings.TrimSuffix(parts[len(parts)-1], ".git")
	if owner == "" || repo == "" {
		return "", "", errm.New("could not parse owner/repo from url: %s", raw)
	}
	return owner, repo, nil
}
