// Package breaker implements the per-dependency circuit breaker state
// machine (Closed/Open/HalfOpen) and an exponential backoff retry
// wrapper. Grounded on the saaskit webhook package's CircuitBreaker,
// adapted to the spec's single-in-flight-probe HalfOpen contract
// (saaskit's successThreshold=2 is dropped in favor of one probe).
package breaker

import (
	"sync"
	"time"

	"contentproc/internal/apperrors"
)

// State is one of Closed, Open, HalfOpen.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// Breaker guards one named dependency.
type Breaker struct {
	mu sync.Mutex

	name             string
	failMax          int
	resetTimeout     time.Duration
	state            State
	consecutiveFails int
	openedAt         time.Time
	probeInFlight    bool
}

// New constructs a Breaker with the spec's defaults (fail_max=5,
// reset_timeout=60s) unless overridden.
func New(name string, failMax int, resetTimeout time.Duration) *Breaker {
	if failMax <= 0 {
		failMax = 5
	}
	if resetTimeout <= 0 {
		resetTimeout = 60 * time.Second
	}
	return &Breaker{name: name, failMax: failMax, resetTimeout: resetTimeout, state: Closed}
}

// Allow reports whether a call may proceed, transitioning Open→HalfOpen
// once reset_timeout has elapsed and admitting exactly one probe.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		return true
	case HalfOpen:
		if b.probeInFlight {
			return false
		}
		b.probeInFlight = true
		return true
	case Open:
		if time.Since(b.openedAt) >= b.resetTimeout {
			b.state = HalfOpen
			b.probeInFlight = true
			return true
		}
		return false
	default:
		return false
	}
}

// RecordSuccess closes the breaker and resets counters.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = Closed
	b.consecutiveFails = 0
	b.probeInFlight = false
}

// RecordFailure increments the failure count in Closed, opening the
// breaker and starting the reset timer once fail_max is reached; in
// HalfOpen any failure reopens the breaker and restarts the timer.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case HalfOpen:
		b.state = Open
		b.openedAt = time.Now()
		b.probeInFlight = false
	case Closed:
		b.consecutiveFails++
		if b.consecutiveFails >= b.failMax {
			b.state = Open
			b.openedAt = time.Now()
		}
	}
}

// State returns the current state without mutating it (Open, if its
// timer has elapsed, is reported as still Open until a call actually
// probes it via Allow).
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Reset forces the breaker back to Closed, clearing all counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = Closed
	b.consecutiveFails = 0
	b.probeInFlight = false
}

// ErrServiceUnavailable is returned by Guard/Execute-style callers when
// Allow() refuses the call.
func ErrServiceUnavailable(name string) error {
	return apperrors.New(apperrors.CodeServiceUnavailable, "circuit breaker open for "+name)
}

// Stats is a read-only snapshot, useful for /health reporting.
type Stats struct {
	Name             string
	State            State
	ConsecutiveFails int
	OpenedAt         time.Time
}

func (b *Breaker) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Stats{Name: b.name, State: b.state, ConsecutiveFails: b.consecutiveFails, OpenedAt: b.openedAt}
}
