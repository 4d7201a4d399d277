package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRepository(t *testing.T) {
	Init()
	before := testutil.ToFloat64(repositoriesTotal.WithLabelValues("inserted"))

	ObserveRepository("inserted")
	ObserveRepository("inserted")

	assert.Equal(t, before+2, testutil.ToFloat64(repositoriesTotal.WithLabelValues("inserted")))
}

func TestObserveGitHubRequestWithoutResponse(t *testing.T) {
	Init()
	before := testutil.ToFloat64(githubRequestsTotal.WithLabelValues("error"))

	ObserveGitHubRequest(0)

	assert.Equal(t, before+1, testutil.ToFloat64(githubRequestsTotal.WithLabelValues("error")))
}

func TestRouter(t *testing.T) {
	server := httptest.NewServer(NewRouter())
	defer server.Close()

	resp, err := http.Get(server.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	SetRateRemaining(42)
	resp, err = http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "ghlicense_github_rate_remaining 42")
}
