package messaging

import (
	"sync"
	"time"
)

// retryPolicy tracks per-message attempt counts in process memory and
// decides between requeue-with-backoff and dead-lettering. Counters are
// keyed by message id so they survive redelivery; a process restart
// resets them, which is an accepted delivery-count looseness given
// idempotent admission downstream.
type retryPolicy struct {
	maxRetries     int
	delays         []time.Duration
	sweepThreshold int

	mu       sync.Mutex
	attempts map[string]int
}

func newRetryPolicy(maxRetries int, delays []time.Duration, sweepThreshold int) *retryPolicy {
	return &retryPolicy{
		maxRetries:     maxRetries,
		delays:         delays,
		sweepThreshold: sweepThreshold,
		attempts:       make(map[string]int),
	}
}

// nextAttempt records one failure for id. While retries remain it
// returns (backoff delay, true); once maxRetries redeliveries have been
// consumed it clears the counter and returns (0, false) meaning
// dead-letter. Overflow attempts reuse the last delay in the table.
func (p *retryPolicy) nextAttempt(id string) (time.Duration, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.attempts[id]++
	attempt := p.attempts[id]

	if attempt > p.maxRetries {
		delete(p.attempts, id)
		return 0, false
	}

	idx := attempt - 1
	if idx >= len(p.delays) {
		idx = len(p.delays) - 1
	}
	return p.delays[idx], true
}

// clear forgets the counter for id after a successful handling.
func (p *retryPolicy) clear(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.attempts, id)
}

// sweep bounds the counter map, clearing it wholesale once it grows past
// the threshold. Abandoned message ids would otherwise accumulate
// forever.
func (p *retryPolicy) sweep() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.attempts) > p.sweepThreshold {
		p.attempts = make(map[string]int)
	}
}

// size reports the counter map's population.
func (p *retryPolicy) size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.attempts)
}
