package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v62/github"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"ghlicense/logger"
	"ghlicense/metrics"
)

// Client issues authenticated GET requests against the GitHub REST API and
// keeps the shared Budget current.
type Client struct {
	api    *gh.Client
	budget *Budget
}

// NewClient creates a client. An empty token makes anonymous requests.
func NewClient(token string, timeout time.Duration, budget *Budget) *Client {
	var httpClient *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(context.Background(), ts)
	} else {
		httpClient = &http.Client{}
	}
	httpClient.Timeout = timeout

	if budget == nil {
		budget = NewBudget(DefaultLowWater, DefaultWaitInterval)
	}

	c := &Client{
		api:    gh.NewClient(httpClient),
		budget: budget,
	}
	budget.probe = c.probeRateLimit
	if budget.OnWait == nil {
		budget.OnWait = metrics.ObserveThrottleWait
	}

	logger.Info("Initializing GitHub client",
		zap.String("base_url", c.api.BaseURL.String()),
		zap.Bool("authenticated", token != ""),
		zap.Duration("timeout", timeout))
	return c
}

// SetBaseURL points the client at another API root, e.g. a test server.
func (c *Client) SetBaseURL(raw string) error {
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid base url %q: %w", raw, err)
	}
	c.api.BaseURL = u
	return nil
}

// BaseURL returns the API root requests are resolved against.
func (c *Client) BaseURL() string {
	return c.api.BaseURL.String()
}

// Budget returns the shared rate budget.
func (c *Client) Budget() *Budget {
	return c.budget
}

// Get waits for the budget, fetches urlStr and decodes the JSON body into v.
// urlStr may be absolute or relative to the base URL. Non-2xx responses and
// transport failures satisfy errors.Is(err, ErrTransient).
func (c *Client) Get(ctx context.Context, urlStr string, v any) (*gh.Response, error) {
	if err := c.budget.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := c.api.NewRequest(http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	logger.Debug("GitHub request", zap.String("url", req.URL.String()))
	resp, err := c.api.Do(ctx, req, v)
	if resp != nil {
		metrics.ObserveGitHubRequest(resp.StatusCode)
		c.budget.Update(resp.Header)
		if remaining, ok := c.budget.Remaining(); ok {
			metrics.SetRateRemaining(remaining)
		}
	} else {
		metrics.ObserveGitHubRequest(0)
	}
	if err != nil {
		return resp, c.classify(ctx, req.URL.String(), err)
	}
	return resp, nil
}

// classify maps go-github failures onto APIError or ErrTransient. A done
// context is returned unchanged so callers can tell shutdown from failure.
func (c *Client) classify(ctx context.Context, urlStr string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	var (
		errResp  *gh.ErrorResponse
		rateErr  *gh.RateLimitError
		abuseErr *gh.AbuseRateLimitError
		accepted *gh.AcceptedError
		apiErr   *APIError
	)
	switch {
	case errors.As(err, &rateErr):
		c.budget.Set(RateLimit{Limit: rateErr.Rate.Limit, Remaining: rateErr.Rate.Remaining, Reset: rateErr.Rate.Reset.Time})
		return newAPIError(urlStr, rateErr.Response, rateErr.Message)
	case errors.As(err, &abuseErr):
		return newAPIError(urlStr, abuseErr.Response, abuseErr.Message)
	case errors.As(err, &errResp):
		return newAPIError(urlStr, errResp.Response, errResp.Message)
	case errors.As(err, &accepted):
		return &APIError{StatusCode: http.StatusAccepted, URL: urlStr, Message: "accepted, content not ready"}
	case errors.As(err, &apiErr):
		return err
	default:
		return fmt.Errorf("%w: GET %s: %w", ErrTransient, urlStr, err)
	}
}

func newAPIError(urlStr string, resp *http.Response, msg string) *APIError {
	code := 0
	if resp != nil {
		code = resp.StatusCode
	}
	return &APIError{StatusCode: code, URL: urlStr, Message: msg}
}

// probeRateLimit asks /rate_limit for the core budget. The call costs no
// quota and skips go-github's local limit check.
func (c *Client) probeRateLimit(ctx context.Context) (RateLimit, error) {
	limits, resp, err := c.api.RateLimit.Get(ctx)
	if resp != nil {
		metrics.ObserveGitHubRequest(resp.StatusCode)
	}
	if err != nil {
		return RateLimit{}, c.classify(ctx, "rate_limit", err)
	}
	core := limits.GetCore()
	if core == nil {
		return RateLimit{}, fmt.Errorf("%w: rate_limit response has no core resource", ErrTransient)
	}
	metrics.SetRateRemaining(core.Remaining)
	return RateLimit{
		Limit:     core.Limit,
		Remaining: core.Remaining,
		Reset:     core.Reset.Time,
	}, nil
}
