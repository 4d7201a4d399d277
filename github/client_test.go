package github

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	gh "github.com/google/go-github/v62/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientAnonymous(t *testing.T) {
	client := NewClient("", 30*time.Second, nil)

	assert.NotNil(t, client.Budget())
	assert.Equal(t, "https://api.github.com/", client.BaseURL())
}

func TestClientGet(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/hello/readme", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		writeJSON(w, 4321, map[string]any{"name": "README.md", "type": "file", "encoding": "base64", "content": "aGk="})
	})
	client, _, sleeps := setupTestClient(t, mux)

	var file gh.RepositoryContent
	resp, err := client.Get(context.Background(), "repos/octo/hello/readme", &file)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "README.md", file.GetName())
	assert.Equal(t, "aGk=", *file.Content)

	remaining, known := client.Budget().Remaining()
	assert.True(t, known)
	assert.Equal(t, 4321, remaining)
	assert.Zero(t, *sleeps)
}

func TestClientGetErrors(t *testing.T) {
	testCases := []struct {
		name           string
		status         int
		expectedStatus int
	}{
		{name: "not found", status: http.StatusNotFound, expectedStatus: http.StatusNotFound},
		{name: "server error", status: http.StatusBadGateway, expectedStatus: http.StatusBadGateway},
		{name: "forbidden", status: http.StatusForbidden, expectedStatus: http.StatusForbidden},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/repos/octo/gone/contents/", func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(`{"message":"nope"}`))
			})
			client, _, _ := setupTestClient(t, mux)

			var entries []*gh.RepositoryContent
			_, err := client.Get(context.Background(), "repos/octo/gone/contents/", &entries)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrTransient))

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tc.expectedStatus, apiErr.StatusCode)
			assert.Equal(t, "nope", apiErr.Message)
		})
	}
}

func TestClientGetTransportError(t *testing.T) {
	client, server, _ := setupTestClient(t, http.NewServeMux())
	server.Close()

	_, err := client.Get(context.Background(), "repositories", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTransient))
}

func TestClientGetWaitsWhenBudgetLow(t *testing.T) {
	probes := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/rate_limit", func(w http.ResponseWriter, r *http.Request) {
		probes++
		rateLimitHandler(4999)(w, r)
	})
	mux.HandleFunc("/repositories", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, 4998, []map[string]any{{"id": 1, "name": "grit"}})
	})
	client, _, sleeps := setupTestClient(t, mux)
	client.Budget().Set(RateLimit{Limit: 5000, Remaining: 3})

	var repos []*gh.Repository
	_, err := client.Get(context.Background(), "repositories", &repos)
	require.NoError(t, err)

	assert.Equal(t, 1, *sleeps)
	assert.Equal(t, 1, probes)
	assert.Len(t, repos, 1)
	remaining, _ := client.Budget().Remaining()
	assert.Equal(t, 4998, remaining)
}

func TestClientGetDoesNotWaitWithBudget(t *testing.T) {
	probes := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/rate_limit", func(w http.ResponseWriter, r *http.Request) {
		probes++
		rateLimitHandler(4999)(w, r)
	})
	mux.HandleFunc("/repositories", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, 9, []map[string]any{})
	})
	client, _, sleeps := setupTestClient(t, mux)
	client.Budget().Set(RateLimit{Limit: 5000, Remaining: 10})

	_, err := client.Get(context.Background(), "repositories", nil)
	require.NoError(t, err)

	assert.Zero(t, *sleeps)
	assert.Zero(t, probes)
}
