package github

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// setupTestClient starts an API fake and returns a client pointed at it.
// The budget never really sleeps; sleeps counts the wait cycles.
func setupTestClient(t *testing.T, mux *http.ServeMux) (*Client, *httptest.Server, *int) {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	sleeps := 0
	budget := NewBudget(DefaultLowWater, time.Minute)
	budget.sleep = func(ctx context.Context, _ time.Duration) error {
		sleeps++
		return ctx.Err()
	}

	client := NewClient("test-token", 5*time.Second, budget)
	require.NoError(t, client.SetBaseURL(server.URL))
	return client, server, &sleeps
}

// writeJSON writes v with the rate limit headers every listing response carries.
func writeJSON(w http.ResponseWriter, remaining int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-RateLimit-Limit", "5000")
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10))
	_ = json.NewEncoder(w).Encode(v)
}

func rateLimitHandler(remaining int) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, remaining, map[string]any{
			"resources": map[string]any{
				"core": map[string]any{
					"limit":     5000,
					"remaining": remaining,
					"reset":     time.Now().Add(time.Hour).Unix(),
				},
			},
		})
	}
}
