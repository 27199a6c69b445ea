package github

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/maxbolgarin/errm"
)

const maxPerPage = 100

// CommitListOptions narrows the commit listing endpoint. The provider
// applies since/until/author server-side; the aggregator still enforces
// them locally so the result set never depends on provider behavior.
type CommitListOptions struct {
	Branch  string
	Since   time.Time
	Until   time.Time
	Author  string
	PerPage int
}

// CommitPages returns a paginator over the repository commit listing.
func (c *Client) CommitPages(owner, repo string, opts CommitListOptions) *Paginator {
	perPage := opts.PerPage
	if perPage <= 0 || perPage > maxPerPage {
		perPage = maxPerPage
	}

	q := url.Values{}
	q.Set("per_page", strconv.Itoa(perPage))
	if opts.Branch != "" {
		q.Set("sha", opts.Branch)
	}
	if !opts.Since.IsZero() {
		q.Set("since", opts.Since.UTC().Format(time.RFC3339))
	}
	if !opts.Until.IsZero() {
		q.Set("until", opts.Until.UTC().Format(time.RFC3339))
	}
	if opts.Author != "" {
		q.Set("author", opts.Author)
	}

	return newPaginator(c, c.endpoint("/repos/"+owner+"/"+repo+"/commits", q))
}

// GetRepository fetches repository metadata.
func (c *Client) GetRepository(ctx context.Context, owner, repo string) (*Repository, error) {
	resp, err := c.Execute(ctx, c.endpoint("/repos/"+owner+"/"+repo, nil))
	if err != nil {
		return nil, err
	}
	var out Repository
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, errm.Wrap(err, "decode repository")
	}
	return &out, nil
}

// GetCommitDetail fetches the single-commit resource with file-level
// change statistics.
func (c *Client) GetCommitDetail(ctx context.Context, owner, repo, sha string) (*CommitDetail, error) {
	resp, err := c.Execute(ctx, c.endpoint("/repos/"+owner+"/"+repo+"/commits/"+sha, nil))
	if err != nil {
		return nil, err
	}
	var out CommitDetail
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, errm.Wrap(err, "decode commit detail")
	}
	return &out, nil
}

// GetAuthenticatedUser fetches the account behind the configured token.
// Used by the connection test before any collection starts.
func (c *Client) GetAuthenticatedUser(ctx context.Context) (*User, error) {
	resp, err := c.Execute(ctx, c.endpoint("/user", nil))
	if err != nil {
		return nil, err
	}
	var out User
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, errm.Wrap(err, "decode user")
	}
	return &out, nil
}
