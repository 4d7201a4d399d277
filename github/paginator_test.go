package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// listingMux serves ids 1..5 in pages of two, linked by ?since=<last id>.
func listingMux(t *testing.T, server **httptest.Server, fetched *[]string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/repositories", func(w http.ResponseWriter, r *http.Request) {
		*fetched = append(*fetched, r.URL.RawQuery)
		since := 0
		if s := r.URL.Query().Get("since"); s != "" {
			var err error
			since, err = strconv.Atoi(s)
			require.NoError(t, err)
		}

		var repos []map[string]any
		for id := since + 1; id <= 5 && len(repos) < 2; id++ {
			repos = append(repos, map[string]any{
				"id":        id,
				"name":      fmt.Sprintf("repo%d", id),
				"full_name": fmt.Sprintf("owner/repo%d", id),
			})
		}
		last := since + len(repos)
		if last < 5 {
			w.Header().Set("Link", fmt.Sprintf(`<%s/repositories?since=%d>; rel="next"`, (*server).URL, last))
		}
		writeJSON(w, 4000, repos)
	})
	return mux
}

func collectIDs(t *testing.T, p *Paginator) ([]int64, []*Page) {
	var ids []int64
	var pages []*Page
	for p.HasNext() {
		page, err := p.Next(context.Background())
		require.NoError(t, err)
		pages = append(pages, page)
		for _, repo := range page.Repositories {
			ids = append(ids, repo.GetID())
		}
	}
	return ids, pages
}

func TestPaginatorWalksAllPages(t *testing.T) {
	var server *httptest.Server
	var fetched []string
	client, srv, _ := setupTestClient(t, listingMux(t, &server, &fetched))
	server = srv

	p := NewPaginator(client, server.URL+"/repositories")
	ids, pages := collectIDs(t, p)

	assert.Equal(t, []int64{1, 2, 3, 4, 5}, ids)
	require.Len(t, pages, 3)
	assert.Equal(t, server.URL+"/repositories?since=2", pages[0].Next)
	assert.Equal(t, server.URL+"/repositories?since=4", pages[1].Next)
	assert.Empty(t, pages[2].Next)
	assert.Equal(t, Done, p.State())
	assert.False(t, p.HasNext())
}

func TestPaginatorResumesFromNext(t *testing.T) {
	var server *httptest.Server
	var fetched []string
	client, srv, _ := setupTestClient(t, listingMux(t, &server, &fetched))
	server = srv

	first := NewPaginator(client, server.URL+"/repositories")
	page, err := first.Next(context.Background())
	require.NoError(t, err)

	resumed := NewPaginator(client, page.Next)
	ids, _ := collectIDs(t, resumed)

	assert.Equal(t, []int64{3, 4, 5}, ids)
	assert.Equal(t, []string{"", "since=2", "since=4"}, fetched)
}

func TestPaginatorFailedIsTerminal(t *testing.T) {
	calls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/repositories", func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	})
	client, server, _ := setupTestClient(t, mux)

	p := NewPaginator(client, server.URL+"/repositories")
	_, err := p.Next(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTransient))
	assert.Equal(t, Failed, p.State())
	assert.False(t, p.HasNext())

	_, again := p.Next(context.Background())
	assert.Equal(t, err, again)
	assert.Equal(t, 1, calls)
}

func TestPaginatorPausesWhileThrottled(t *testing.T) {
	var server *httptest.Server
	var fetched []string
	mux := listingMux(t, &server, &fetched)
	mux.HandleFunc("/rate_limit", rateLimitHandler(4000))
	client, srv, _ := setupTestClient(t, mux)
	server = srv

	p := NewPaginator(client, server.URL+"/repositories")
	var during []PageState
	client.budget.sleep = func(context.Context, time.Duration) error {
		during = append(during, p.State())
		return nil
	}
	client.budget.Set(RateLimit{Limit: 5000, Remaining: 2})

	page, err := p.Next(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []PageState{Paused}, during)
	assert.Equal(t, Fetching, p.State())
	assert.Len(t, page.Repositories, 2)
}

func TestPaginatorInterruptedPauseIsResumable(t *testing.T) {
	var server *httptest.Server
	var fetched []string
	client, srv, _ := setupTestClient(t, listingMux(t, &server, &fetched))
	server = srv
	client.budget.Set(RateLimit{Limit: 5000, Remaining: 0})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPaginator(client, server.URL+"/repositories")
	_, err := p.Next(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Paused, p.State())
	assert.True(t, p.HasNext())
	assert.Empty(t, fetched)
}

func TestPageStateString(t *testing.T) {
	assert.Equal(t, "paused", Paused.String())
	assert.Equal(t, "PageState(9)", PageState(9).String())
}
