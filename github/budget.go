package github

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"ghlicense/logger"
)

const (
	// DefaultLowWater is the remaining-request count below which requests wait.
	DefaultLowWater = 4
	// DefaultWaitInterval is how long one throttled wait cycle sleeps.
	DefaultWaitInterval = 300 * time.Second
)

// RateLimit is a snapshot of the budget headers
type RateLimit struct {
	Limit     int
	Remaining int
	Reset     time.Time
}

// Prober refreshes the budget without consuming quota.
type Prober func(ctx context.Context) (RateLimit, error)

// Budget tracks the remaining request allowance reported by the API.
// Until the first response arrives the allowance is unknown and requests
// are not gated.
type Budget struct {
	mu    sync.Mutex
	known bool
	rate  RateLimit

	lowWater int
	interval time.Duration
	probe    Prober
	sleep    func(ctx context.Context, d time.Duration) error

	// OnWait is called when a throttled wait cycle starts.
	OnWait func()
}

// NewBudget creates a budget that waits in interval steps while fewer than
// lowWater requests remain.
func NewBudget(lowWater int, interval time.Duration) *Budget {
	if lowWater <= 0 {
		lowWater = DefaultLowWater
	}
	if interval <= 0 {
		interval = DefaultWaitInterval
	}
	return &Budget{
		lowWater: lowWater,
		interval: interval,
		sleep:    sleepContext,
	}
}

// Remaining returns the last reported allowance and whether one has been seen.
func (b *Budget) Remaining() (int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rate.Remaining, b.known
}

// Snapshot returns the last reported rate limit.
func (b *Budget) Snapshot() RateLimit {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rate
}

// Set records a rate limit snapshot.
func (b *Budget) Set(rl RateLimit) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rate = rl
	b.known = true
}

// Update refreshes the budget from response headers. A response without
// X-RateLimit-Remaining leaves the budget unchanged.
func (b *Budget) Update(h http.Header) {
	rl, ok := parseRateLimit(h)
	if !ok {
		return
	}
	b.Set(rl)
}

// Throttled reports whether the next request must wait.
func (b *Budget) Throttled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.known && b.rate.Remaining < b.lowWater
}

// Wait blocks while the budget is below the low-water mark: it sleeps one
// interval, probes the rate limit endpoint and checks again. It has no
// iteration bound and returns early only when ctx is done.
func (b *Budget) Wait(ctx context.Context) error {
	for b.Throttled() {
		rl := b.Snapshot()
		logger.Info("Waiting for rate limit to reset",
			zap.Int("remaining", rl.Remaining),
			zap.Time("reset", rl.Reset),
			zap.Duration("interval", b.interval))
		if b.OnWait != nil {
			b.OnWait()
		}

		if err := b.sleep(ctx, b.interval); err != nil {
			return err
		}
		if b.probe == nil {
			continue
		}
		fresh, err := b.probe(ctx)
		if err != nil {
			// Keep the old value and try again after the next interval.
			logger.Warn("Rate limit probe failed", zap.Error(err))
			continue
		}
		b.Set(fresh)
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// parseRateLimit parses rate limit information from response headers
func parseRateLimit(h http.Header) (RateLimit, bool) {
	remaining, err := strconv.Atoi(h.Get("X-RateLimit-Remaining"))
	if err != nil {
		return RateLimit{}, false
	}
	limit, _ := strconv.Atoi(h.Get("X-RateLimit-Limit"))
	reset, _ := strconv.ParseInt(h.Get("X-RateLimit-Reset"), 10, 64)

	return RateLimit{
		Limit:     limit,
		Remaining: remaining,
		Reset:     time.Unix(reset, 0),
	}, true
}
