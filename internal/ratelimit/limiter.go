// Package ratelimit gates calls into the interview engine with a per-identity
// sliding window.
//
// Admission uses a rolling window: a request is allowed while fewer than Limit
// requests were recorded in the trailing Window. ResetAt, which is only meant for
// display (rate-limit headers, bot messages), is the start of the next fixed
// window, e.g. the top of the next hour for a one hour window. The two can
// disagree: a client may be denied until a time later than the displayed reset.
package ratelimit

import (
	"context"
	"time"
)

// Info is the admission state of one identity.
type Info struct {
	Allowed   bool
	Limit     int
	Used      int
	Remaining int
	ResetAt   time.Time
	Window    time.Duration
}

// Stats is an aggregate view across identities.
type Stats struct {
	TotalIdentities  int
	ActiveIdentities int
	TotalRequests    int
	Limit            int
}

// Limiter is satisfied by the local and the shared (Redis) counters.
// Record must check and increment atomically for a single identity.
type Limiter interface {
	Check(ctx context.Context, identity string) (Info, error)
	Record(ctx context.Context, identity string) (bool, error)
	Reset(ctx context.Context, identity string) error
	Stats(ctx context.Context) (Stats, error)
}

type options struct {
	now func() time.Time
}

type Option func(*options)

// WithClock overrides time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func nextReset(now time.Time, window time.Duration) time.Time {
	return now.Truncate(window).Add(window)
}

func newInfo(used, limit int, now time.Time, window time.Duration) Info {
	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}
	return Info{
		Allowed:   used < limit,
		Limit:     limit,
		Used:      used,
		Remaining: remaining,
		ResetAt:   nextReset(now, window),
		Window:    window,
	}
}
