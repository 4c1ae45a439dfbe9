package tokengate

import (
	"fmt"
	"sync"
)

// Registry owns the mapping from key to Bucket. Registration is explicit:
// a key has exactly one bucket, created once, and duplicate registrations
// are rejected rather than overwriting limits.
//
// The registry's RWMutex guards only the map. Bucket state is protected by
// each bucket's own lock, taken after the registry lock has been released,
// so admission decisions for unrelated keys never contend with each other.
type Registry struct {
	clock Clock

	mu      sync.RWMutex
	buckets map[string]*Bucket
}

// NewRegistry creates an empty registry. A nil clock falls back to the
// system clock.
func NewRegistry(clock Clock) *Registry {
	if clock == nil {
		clock = SystemClock()
	}
	return &Registry{
		clock:   clock,
		buckets: make(map[string]*Bucket),
	}
}

// Register creates a bucket for key with the given limits. It returns
// ErrInvalidConfiguration for non-positive limits (no state is created) and
// ErrAlreadyRegistered if key already has a bucket. When two callers race to
// register the same key, exactly one wins: the insert happens in a single
// critical section, never as a separate existence check followed by an
// insert.
func (r *Registry) Register(key string, capacity int64, refillRatePerSecond float64) error {
	if key == "" {
		return ErrInvalidKey
	}

	bucket, err := NewBucket(capacity, refillRatePerSecond, r.clock.Now())
	if err != nil {
		return fmt.Errorf("%w: capacity=%d refill_rate=%g", err, capacity, refillRatePerSecond)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.buckets[key]; exists {
		return fmt.Errorf("%w: %q", ErrAlreadyRegistered, key)
	}
	r.buckets[key] = bucket
	return nil
}

// Get returns the bucket for key, if one is registered. It is a pure lookup
// and never creates state.
func (r *Registry) Get(key string) (*Bucket, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bucket, ok := r.buckets[key]
	return bucket, ok
}

// Unregister removes key's bucket, forgetting both its limits and its
// accumulated tokens. It reports whether a bucket existed. Subsequent
// AllowRequest calls for key fail with ErrUnknownKey until it is registered
// again.
func (r *Registry) Unregister(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.buckets[key]; !exists {
		return false
	}
	delete(r.buckets, key)
	return true
}

// Count returns the number of registered keys.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.buckets)
}

// Keys returns the registered keys in no particular order.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.buckets))
	for key := range r.buckets {
		keys = append(keys, key)
	}
	return keys
}
