package github

import "context"

// Paginator walks a paginated listing endpoint one page at a time,
// following the Link header. Cursors are single-use: the sequence can
// only be restarted by building a new paginator from the initial URL.
// A fetch failure is terminal and reported by Err, which keeps it
// distinct from normal exhaustion.
type Paginator struct {
	client *Client
	next   string
	page   []byte
	err    error
	done   bool
}

func newPaginator(client *Client, first string) *Paginator {
	return &Paginator{client: client, next: first}
}

// Next fetches the following page and reports whether one was
// retrieved. It returns false when the sequence is exhausted or has
// failed; check Err to distinguish the two.
func (p *Paginator) Next(ctx context.Context) bool {
	if p.done || p.next == "" {
		p.done = true
		return false
	}
	resp, err := p.client.Execute(ctx, p.next)
	if err != nil {
		p.err = err
		p.done = true
		return false
	}
	p.page = resp.Body
	p.next = resp.NextURL
	return true
}

// Page returns the raw payload fetched by the last successful Next call.
func (p *Paginator) Page() []byte {
	return p.page
}

// Err returns the terminal failure of the sequence, if any.
func (p *Paginator) Err() error {
	return p.err
}
