package census

import (
	"context"
	"sync"
	"time"

	"ballotbox/internal/census/metrics"
)

// Breaker short-circuits census calls after threshold consecutive
// Unavailable results. While open every call is answered Unavailable with
// cause "circuit open"; once the cooldown expires a single probe is let
// through (half-open) and its result decides whether the circuit closes.
// Calls abandoned by their caller are not counted either way.
type Breaker struct {
	next    Gateway
	metrics *metrics.Metrics
	now     func() time.Time

	mu         sync.Mutex
	threshold  int
	cooldown   time.Duration
	failures   int
	openUntil  time.Time
	isOpen     bool
	probing    bool
	generation uint64
}

const CauseCircuitOpen = "circuit open"

type BreakerOption func(*Breaker)

func WithBreakerMetrics(m *metrics.Metrics) BreakerOption {
	return func(b *Breaker) {
		b.metrics = m
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) BreakerOption {
	return func(b *Breaker) {
		b.now = now
	}
}

func NewBreaker(next Gateway, threshold int, cooldown time.Duration, opts ...BreakerOption) *Breaker {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	b := &Breaker{
		next:      next,
		threshold: threshold,
		cooldown:  cooldown,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Breaker) Verify(ctx context.Context, req Request) Result {
	call, ok := b.allow()
	if !ok {
		b.metrics.IncShortCircuit()
		return Unavailable(CauseCircuitOpen)
	}
	res := b.next.Verify(ctx, req)
	switch {
	case ctx.Err() != nil:
		// The caller gave up; that says nothing about the census.
		b.release(call)
	case res.Outcome == OutcomeUnavailable:
		b.recordFailure(call)
	default:
		b.recordSuccess(call)
	}
	return res
}

// admission identifies one call let through by allow. Results from a call
// admitted under an older generation are ignored.
type admission struct {
	generation uint64
	probe      bool
}

func (b *Breaker) allow() (admission, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.isOpen {
		return admission{generation: b.generation}, true
	}
	if b.probing || b.now().Before(b.openUntil) {
		return admission{}, false
	}
	b.probing = true
	return admission{generation: b.generation, probe: true}, true
}

func (b *Breaker) release(call admission) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if call.probe && call.generation == b.generation {
		b.probing = false
	}
}

func (b *Breaker) recordSuccess(call admission) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if call.generation != b.generation {
		return
	}
	b.failures = 0
	if b.isOpen {
		b.probing = false
		b.isOpen = false
		b.generation++
		b.metrics.SetBreakerOpen(false)
	}
}

func (b *Breaker) recordFailure(call admission) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if call.generation != b.generation {
		return
	}
	b.failures++
	if call.probe || b.failures >= b.threshold {
		b.probing = false
		b.isOpen = true
		b.generation++
		b.openUntil = b.now().Add(b.cooldown)
		b.metrics.SetBreakerOpen(true)
	}
}

// IsOpen reports whether calls are currently being short-circuited.
func (b *Breaker) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.isOpen
}
