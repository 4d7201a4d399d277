package github

import (
	"context"
	"errors"
	"fmt"

	gh "github.com/google/go-github/v62/github"
	"go.uber.org/zap"

	"ghlicense/logger"
)

// PageState is the paginator's position in its lifecycle.
type PageState int

const (
	Fetching PageState = iota
	Paused
	Done
	Failed
)

func (s PageState) String() string {
	switch s {
	case Fetching:
		return "fetching"
	case Paused:
		return "paused"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("PageState(%d)", int(s))
	}
}

// Page is one page of the repository listing. Next is empty on the last page
// and is otherwise a valid resumption cursor.
type Page struct {
	URL          string
	Next         string
	Repositories []*gh.Repository
}

// Paginator walks the rel="next" chain of the repository listing one page
// at a time.
type Paginator struct {
	client *Client
	next   string
	state  PageState
	err    error
}

// NewPaginator starts a walk at startURL.
func NewPaginator(client *Client, startURL string) *Paginator {
	return &Paginator{client: client, next: startURL, state: Fetching}
}

// HasNext reports whether Next may yield another page.
func (p *Paginator) HasNext() bool {
	return p.state == Fetching || p.state == Paused
}

// State returns the current lifecycle state.
func (p *Paginator) State() PageState {
	return p.state
}

// Cursor returns the url the next call to Next will fetch.
func (p *Paginator) Cursor() string {
	return p.next
}

// Next fetches the next page. While the budget is exhausted the paginator is
// Paused until the wait ends; a wait cut short by ctx leaves it Paused and
// resumable. After a fetch failure it stays Failed and keeps returning the
// same error.
func (p *Paginator) Next(ctx context.Context) (*Page, error) {
	switch p.state {
	case Failed:
		return nil, p.err
	case Done:
		return nil, errors.New("paginator: no more pages")
	}

	if p.client.budget.Throttled() {
		p.state = Paused
		logger.Info("Repository listing paused",
			zap.String("url", p.next),
			zap.Stringer("state", p.state))
		if err := p.client.budget.Wait(ctx); err != nil {
			// Still resumable: the page was never requested.
			return nil, err
		}
		p.state = Fetching
	}

	var repos []*gh.Repository
	url := p.next
	resp, err := p.client.Get(ctx, url, &repos)
	if err != nil {
		p.state = Failed
		p.err = fmt.Errorf("fetch page %s: %w", url, err)
		return nil, p.err
	}

	page := &Page{URL: url, Next: NextLink(resp.Header), Repositories: repos}
	if page.Next == "" {
		p.state = Done
	} else {
		p.state = Fetching
		p.next = page.Next
	}

	logger.Info("Fetched repository page",
		zap.String("url", url),
		zap.Int("repositories", len(repos)),
		zap.String("next", page.Next),
		zap.Stringer("state", p.state))
	return page, nil
}
