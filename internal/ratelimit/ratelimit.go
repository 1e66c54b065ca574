// Package ratelimit implements the per-provider RPM limiter consulted
// by the orchestrator (C6 step 4): a token bucket with a burst of rpm
// that refills one token every 60/rpm seconds, with no reset at
// wall-clock minute boundaries. It does not track call timestamps, so
// after the burst is spent, calls are admitted again as tokens refill:
// more than rpm calls can succeed within one trailing 60s window.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"contentproc/internal/apperrors"
)

// Window is an RPM limiter for one named dependency. Built on
// golang.org/x/time/rate's token bucket, configured so its burst
// equals the RPM budget and its refill rate matches rpm/60s; it
// approximates a rolling 60s window without a timestamp ring buffer,
// and is not an exact one.
type Window struct {
	mu      sync.Mutex
	name    string
	rpm     int
	limiter *rate.Limiter
}

// NewWindow builds a limiter allowing a burst of rpm calls, refilled
// at rpm tokens per minute.
func NewWindow(name string, rpm int) *Window {
	if rpm <= 0 {
		rpm = 60
	}
	return &Window{
		name:    name,
		rpm:     rpm,
		limiter: rate.NewLimiter(rate.Limit(float64(rpm)/60.0), rpm),
	}
}

// Allow reports whether a call may proceed right now, consuming one
// token if so. It never blocks.
func (w *Window) Allow() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.limiter.Allow()
}

// ErrRateLimit builds the taxonomy error for a rejected call, with a
// Retry-After estimate of one token interval.
func (w *Window) ErrRateLimit() error {
	retryAfter := int(60.0/float64(w.rpm)) + 1
	return apperrors.New(apperrors.CodeRateLimit, "rate limit exceeded for "+w.name).WithRetryAfter(retryAfter)
}

// Reserve computes how long the caller must wait for the next token,
// without consuming it immediately; used by callers that want to delay
// rather than fail.
func (w *Window) Reserve() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	r := w.limiter.Reserve()
	if !r.OK() {
		return time.Minute
	}
	return r.Delay()
}
