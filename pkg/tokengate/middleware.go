package tokengate

import (
	"errors"
	"fmt"
	"net/http"
)

// Middleware wraps next with rate limiting. Each request is keyed by the
// limiter's key extractor and charged one token.
//
// Every response carries X-RateLimit-Limit and X-RateLimit-Remaining; denied
// requests additionally get X-RateLimit-Reset, Retry-After and a 429.
//
// Unknown keys are where the middleware, acting as the host, applies a
// policy the core deliberately does not have: if the configuration declares
// a defaults policy the key is registered with it on first sight; otherwise
// the request is rejected with 403 unless the limiter was built with
// WithFailOpen(true).
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key, err := l.keyExtractor(r)
		if err != nil {
			l.logger.Warn("key extraction failed", "error", err)
			l.passOrReject(w, r, next)
			return
		}

		decision, err := l.checkWithDefaults(key)
		if errors.Is(err, ErrUnknownKey) {
			l.passOrReject(w, r, next)
			return
		}
		if err != nil {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", decision.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", decision.Remaining))

		if !decision.Allowed {
			if decision.RetryAfter > 0 {
				reset := l.clock.Now().Add(decision.RetryAfter).Unix()
				w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", reset))
				w.Header().Set("Retry-After", fmt.Sprintf("%.0f", decision.RetryAfter.Seconds()))
			}
			http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// checkWithDefaults is Check plus first-sight registration from the
// configured defaults policy. A concurrent first-sight race is benign: the
// loser's Register fails with ErrAlreadyRegistered and the retry finds the
// winner's bucket.
func (l *Limiter) checkWithDefaults(key string) (*Decision, error) {
	decision, err := l.Check(key)
	if err == nil || !errors.Is(err, ErrUnknownKey) {
		return decision, err
	}
	if l.config == nil || l.config.Defaults == nil {
		return nil, err
	}

	defaults := *l.config.Defaults
	if regErr := l.RegisterUser(key, defaults.Capacity, defaults.RefillRate); regErr != nil &&
		!errors.Is(regErr, ErrAlreadyRegistered) {
		return nil, regErr
	}
	return l.Check(key)
}

// passOrReject applies the fail-open/fail-closed policy to a request that
// could not be attributed to a registered key.
func (l *Limiter) passOrReject(w http.ResponseWriter, r *http.Request, next http.Handler) {
	if l.failOpen {
		next.ServeHTTP(w, r)
		return
	}
	http.Error(w, "Unknown client", http.StatusForbidden)
}
