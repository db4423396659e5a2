package resilience

import (
	"errors"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

type CircuitState string

const (
	CircuitStateClosed   CircuitState = "closed"
	CircuitStateOpen     CircuitState = "open"
	CircuitStateHalfOpen CircuitState = "half_open"
)

// Snapshot is a point-in-time view of a breaker, reported by health checks.
type Snapshot struct {
	State               CircuitState `json:"state"`
	Enabled             bool         `json:"enabled"`
	ConsecutiveFailures int          `json:"consecutiveFailures"`
	Rejected            uint64       `json:"rejected"`
	OpenedAt            *time.Time   `json:"openedAt,omitempty"`
}

type BreakerOption func(*CircuitBreaker)

func WithBreakerClock(now func() time.Time) BreakerOption {
	return func(b *CircuitBreaker) { b.now = now }
}

// WithTransitionHook runs fn on every state change. It is called with the
// breaker lock held and must not call back into the breaker.
func WithTransitionHook(fn func(from, to CircuitState)) BreakerOption {
	return func(b *CircuitBreaker) { b.onTransition = fn }
}

// CircuitBreaker opens after FailureThreshold consecutive failures. Once
// OpenTimeout passes it admits up to HalfOpenMaxReq probes; that many
// successes close it again and any probe failure reopens it.
type CircuitBreaker struct {
	mu  sync.Mutex
	cfg CircuitBreakerConfig

	state    CircuitState
	failures int
	openedAt time.Time
	probing  int
	probesOK int
	rejected uint64

	now          func() time.Time
	onTransition func(from, to CircuitState)
}

func NewCircuitBreaker(cfg CircuitBreakerConfig, opts ...BreakerOption) *CircuitBreaker {
	b := &CircuitBreaker{
		cfg:   cfg.withDefaults(),
		state: CircuitStateClosed,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *CircuitBreaker) Enabled() bool {
	return b != nil && b.cfg.Enabled
}

// Execute runs fn when the breaker admits it and records the outcome.
// isFailure decides which errors count against the upstream; nil counts
// every error.
func (b *CircuitBreaker) Execute(fn func() error, isFailure func(error) bool) error {
	if err := b.Allow(); err != nil {
		return err
	}
	err := fn()
	if err != nil && (isFailure == nil || isFailure(err)) {
		b.RecordFailure()
	} else {
		b.RecordSuccess()
	}
	return err
}

func (b *CircuitBreaker) Allow() error {
	if !b.Enabled() {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == CircuitStateOpen && b.cooling() {
		b.rejected++
		return ErrCircuitOpen
	}
	if b.state == CircuitStateOpen {
		b.moveTo(CircuitStateHalfOpen)
	}
	if b.state == CircuitStateHalfOpen {
		if b.probing >= b.cfg.HalfOpenMaxReq {
			b.rejected++
			return ErrCircuitOpen
		}
		b.probing++
	}
	return nil
}

func (b *CircuitBreaker) RecordSuccess() {
	if !b.Enabled() {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != CircuitStateHalfOpen {
		b.failures = 0
		return
	}
	b.probing = max(b.probing-1, 0)
	b.probesOK++
	if b.probesOK >= b.cfg.HalfOpenMaxReq && b.probing == 0 {
		b.moveTo(CircuitStateClosed)
	}
}

func (b *CircuitBreaker) RecordFailure() {
	if !b.Enabled() {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	switch {
	case b.state == CircuitStateHalfOpen:
		b.moveTo(CircuitStateOpen)
	case b.state == CircuitStateOpen:
		// A late failure from before the trip restarts the cool-down.
		b.openedAt = b.now()
	case b.failures >= b.cfg.FailureThreshold:
		b.moveTo(CircuitStateOpen)
	}
}

func (b *CircuitBreaker) State() CircuitState {
	return b.Snapshot().State
}

// Snapshot reports an open breaker whose cool-down has elapsed as half-open,
// since the next Allow would admit a probe.
func (b *CircuitBreaker) Snapshot() Snapshot {
	if b == nil {
		return Snapshot{State: CircuitStateClosed}
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	out := Snapshot{
		State:               b.state,
		Enabled:             b.cfg.Enabled,
		ConsecutiveFailures: b.failures,
		Rejected:            b.rejected,
	}
	if b.state == CircuitStateOpen {
		openedAt := b.openedAt
		out.OpenedAt = &openedAt
		if !b.cooling() {
			out.State = CircuitStateHalfOpen
		}
	}
	return out
}

func (b *CircuitBreaker) cooling() bool {
	return b.now().Sub(b.openedAt) < b.cfg.OpenTimeout
}

func (b *CircuitBreaker) moveTo(to CircuitState) {
	from := b.state
	b.state = to
	b.probing, b.probesOK = 0, 0

	switch to {
	case CircuitStateOpen:
		b.openedAt = b.now()
	case CircuitStateClosed:
		b.failures = 0
		b.openedAt = time.Time{}
	}

	if from != to && b.onTransition != nil {
		b.onTransition(from, to)
	}
}
