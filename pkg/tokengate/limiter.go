package tokengate

import (
	"fmt"
	"io"
	"log/slog"
	"time"
)

// Recorder receives the outcome of every admission decision. Implementations
// must be safe for concurrent use. A no-op recorder is installed by default
// so the hot path never nil-checks.
type Recorder interface {
	RecordRequest(key string, allowed bool)
}

type nopRecorder struct{}

func (nopRecorder) RecordRequest(string, bool) {}

// Decision is the rich result of a rate-limit check, for hosts that want to
// set rate-limit headers or log outcomes.
type Decision struct {
	// Allowed reports whether the request was admitted.
	Allowed bool

	// Remaining is the whole tokens left after the decision was applied.
	Remaining int64

	// Limit is the bucket's capacity.
	Limit int64

	// RetryAfter is how long until a token is expected to be available.
	// Zero when Allowed.
	RetryAfter time.Duration

	// Key is the rate-limit key that was checked.
	Key string
}

// Limiter is the entry point callers use: register a key with its limits,
// then ask whether each request for that key is allowed.
//
// A Limiter runs no background goroutines and AllowRequest never blocks; it
// is a bounded computation suitable for the hot path of every inbound
// request.
type Limiter struct {
	registry     *Registry
	clock        Clock
	config       *Config
	logger       *slog.Logger
	metrics      Recorder
	keyExtractor KeyExtractor
	failOpen     bool
}

// NewLimiter creates a Limiter with the given options. Clients named in a
// configured policy file are registered before it returns.
//
// Example:
//
//	limiter, err := tokengate.NewLimiter(
//	    tokengate.WithConfigFile("policy.yaml"),
//	    tokengate.WithLogger(logger),
//	)
func NewLimiter(opts ...Option) (*Limiter, error) {
	l := &Limiter{
		clock:   SystemClock(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics: nopRecorder{},
	}

	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, fmt.Errorf("applying option: %w", err)
		}
	}

	l.registry = NewRegistry(l.clock)

	if l.config != nil {
		if err := l.config.Validate(); err != nil {
			return nil, err
		}
		for key, policy := range l.config.Clients {
			if err := l.registry.Register(key, policy.Capacity, policy.RefillRate); err != nil {
				return nil, fmt.Errorf("registering client %q: %w", key, err)
			}
		}
		if l.keyExtractor == nil && l.config.KeyExtractor != "" {
			extractor, err := ParseKeyExtractor(l.config.KeyExtractor)
			if err != nil {
				return nil, err
			}
			l.keyExtractor = extractor
		}
	}

	if l.keyExtractor == nil {
		l.keyExtractor = ExtractIP()
	}

	return l, nil
}

// RegisterUser creates a bucket for key with the given limits. It fails with
// ErrInvalidConfiguration for non-positive limits and ErrAlreadyRegistered
// for a duplicate key; in both cases existing state is untouched.
func (l *Limiter) RegisterUser(key string, capacity int64, refillRatePerSecond float64) error {
	if err := l.registry.Register(key, capacity, refillRatePerSecond); err != nil {
		return err
	}
	l.logger.Debug("registered rate limit key",
		slog.String("key", key),
		slog.Int64("capacity", capacity),
		slog.Float64("refill_rate", refillRatePerSecond))
	return nil
}

// AllowRequest reports whether one request for key is admitted right now.
// A denial is a normal outcome, returned as (false, nil), never as an error.
// An unregistered key fails with ErrUnknownKey; the host decides whether
// that means deny (fail closed) or allow (fail open).
func (l *Limiter) AllowRequest(key string) (bool, error) {
	if key == "" {
		return false, ErrInvalidKey
	}

	bucket, ok := l.registry.Get(key)
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}

	allowed := bucket.TryConsume(l.clock.Now())
	l.metrics.RecordRequest(key, allowed)
	return allowed, nil
}

// Check is AllowRequest with a rich result. It consumes a token when the
// request is admitted, exactly like AllowRequest.
func (l *Limiter) Check(key string) (*Decision, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}

	bucket, ok := l.registry.Get(key)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}

	now := l.clock.Now()
	allowed := bucket.TryConsume(now)
	l.metrics.RecordRequest(key, allowed)

	decision := &Decision{
		Allowed:   allowed,
		Remaining: bucket.Remaining(now),
		Limit:     bucket.Capacity(),
		Key:       key,
	}
	if !allowed {
		decision.RetryAfter = bucket.RetryAfter(now)
	}
	return decision, nil
}

// Unregister removes key and its accumulated state. It reports whether the
// key was registered.
func (l *Limiter) Unregister(key string) bool {
	return l.registry.Unregister(key)
}

// Registry exposes the limiter's registry for hosts that need counts or key
// listings.
func (l *Limiter) Registry() *Registry { return l.registry }
