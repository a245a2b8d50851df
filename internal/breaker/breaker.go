// Package breaker implements a three-state circuit breaker: Closed
// passes calls through, Open fails fast for a cooldown period after too
// many consecutive failures, HalfOpen admits a single probe call whose
// outcome decides between reclosing and reopening.
package breaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned when the breaker rejects a call without invoking
// the wrapped operation.
var ErrOpen = errors.New("circuit breaker is open")

// State is the breaker's position.
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
		return "half-open"
	default:
		return "unknown"
	}
}

// Breaker guards an operation against sustained failure.
type Breaker struct {
	mu        sync.Mutex
	state     State
	failures  int
	openedAt  time.Time
	probing   bool
	threshold int
	cooldown  time.Duration
	now       func() time.Time

	onStateChange func(from, to State)
}

// Options contains configuration for creating a Breaker.
type Options struct {
	FailureThreshold int           // Default: 5 consecutive failures
	Cooldown         time.Duration // Default: 1m
	OnStateChange    func(from, to State)
}

// New creates a new Breaker in the Closed state.
func New(opts Options) *Breaker {
	threshold := opts.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	cooldown := opts.Cooldown
	if cooldown == 0 {
		cooldown = 1 * time.Minute
	}

	return &Breaker{
		state:         Closed,
		threshold:     threshold,
		cooldown:      cooldown,
		now:           time.Now,
		onStateChange: opts.OnStateChange,
	}
}

// SetNowFunc overrides the clock. Test hook.
func (b *Breaker) SetNowFunc(now func() time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.now = now
}

// State returns the breaker's current position, accounting for cooldown
// expiry.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.currentState()
}

// Do invokes fn unless the breaker is Open. In HalfOpen exactly one
// probe is admitted; concurrent callers fail fast with ErrOpen.
func (b *Breaker) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := b.before(); err != nil {
		return err
	}

	err := fn(ctx)
	b.after(err)
	return err
}

// before decides admission and marks the half-open probe.
func (b *Breaker) before() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.currentState() {
	case Open:
		return ErrOpen
	case HalfOpen:
		if b.probing {
			return ErrOpen
		}
		b.probing = true
	}
	return nil
}

// after records the call outcome and moves the state machine.
func (b *Breaker) after(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	state := b.currentState()
	b.probing = false

	if err == nil {
		b.failures = 0
		if state != Closed {
			b.transition(state, Closed)
		}
		return
	}

	if state == HalfOpen {
		b.openedAt = b.now()
		b.transition(state, Open)
		return
	}

	b.failures++
	if b.failures >= b.threshold && state == Closed {
		b.openedAt = b.now()
		b.transition(state, Open)
	}
}

// currentState resolves Open into HalfOpen once the cooldown elapsed.
// Caller must hold mu.
func (b *Breaker) currentState() State {
	if b.state == Open && !b.now().Before(b.openedAt.Add(b.cooldown)) {
		b.transition(Open, HalfOpen)
	}
	return b.state
}

// transition updates state and fires the change hook. Caller must hold mu.
func (b *Breaker) transition(from, to State) {
	b.state = to
	if to == Closed {
		b.failures = 0
	}
	if b.onStateChange != nil && from != to {
		b.onStateChange(from, to)
	}
}
