package tokengate

import (
	"math"
	"sync"
	"time"
)

// Bucket holds the rate-limit state for a single key: a token balance that
// refills continuously over time up to a fixed capacity. Refill is lazy:
// computed from elapsed time on each call, never by a background timer.
//
// Tokens are a float64 so sub-1-token-per-second refill rates (for example
// 0.5 tokens/sec) accumulate without integer truncation.
type Bucket struct {
	capacity   int64   // maximum tokens (burst size), immutable
	refillRate float64 // tokens added per second, immutable

	mu         sync.Mutex // protects tokens and lastRefill
	tokens     float64
	lastRefill time.Time
}

// NewBucket creates a bucket that starts full. now is the instant the
// bucket's refill accounting begins from; callers normally pass Clock.Now().
func NewBucket(capacity int64, refillRate float64, now time.Time) (*Bucket, error) {
	if capacity <= 0 || refillRate <= 0 {
		return nil, ErrInvalidConfiguration
	}
	return &Bucket{
		capacity:   capacity,
		refillRate: refillRate,
		tokens:     float64(capacity),
		lastRefill: now,
	}, nil
}

// TryConsume refills the bucket for the time elapsed up to now and then
// attempts to consume one token. It returns true if the request is admitted.
// The refill and the consume happen atomically under the bucket's lock, so
// concurrent calls always observe a serializable interleaving. It never
// blocks; a denial is final for this instant and the caller may retry with
// a later now.
func (b *Bucket) TryConsume(now time.Time) bool {
	return b.TryConsumeN(now, 1)
}

// TryConsumeN is TryConsume for n tokens. A request for more tokens than the
// bucket's capacity can never succeed.
func (b *Bucket) TryConsumeN(now time.Time, n int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill(now)

	if b.tokens >= float64(n) {
		b.tokens -= float64(n)
		return true
	}
	return false
}

// refill credits tokens for the time elapsed since the last update, capped
// at capacity. Must be called with b.mu held.
//
// When now is not later than lastRefill the state is left untouched: a zero
// elapsed time credits nothing, and a backward now (a clock misbehaving)
// must not rewind lastRefill or debit tokens.
func (b *Bucket) refill(now time.Time) {
	elapsed := now.Sub(b.lastRefill).Seconds()
	if elapsed <= 0 {
		return
	}
	b.tokens = math.Min(float64(b.capacity), b.tokens+elapsed*b.refillRate)
	b.lastRefill = now
}

// Remaining reports the whole tokens available at now. The value is a
// snapshot and may be stale immediately under concurrent access.
func (b *Bucket) Remaining(now time.Time) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill(now)
	return int64(b.tokens)
}

// RetryAfter reports how long after now the next single-token request would
// be admitted, assuming no other consumers. Returns 0 if a token is already
// available.
func (b *Bucket) RetryAfter(now time.Time) time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill(now)

	if b.tokens >= 1 {
		return 0
	}
	missing := 1.0 - b.tokens
	return time.Duration(missing / b.refillRate * float64(time.Second))
}

// Capacity returns the bucket's maximum token count.
func (b *Bucket) Capacity() int64 { return b.capacity }

// RefillRate returns the bucket's refill rate in tokens per second.
func (b *Bucket) RefillRate() float64 { return b.refillRate }
