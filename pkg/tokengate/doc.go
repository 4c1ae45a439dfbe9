// Package tokengate provides per-key admission control for Go services using
// the token bucket algorithm.
//
// Each registered key owns a bucket that holds up to a fixed capacity of
// tokens and refills continuously at a configured rate. An admitted request
// consumes one token; when the bucket is empty requests are denied until
// tokens refill. Refill is lazy, computed from elapsed time on each call,
// so the limiter runs no background goroutines and AllowRequest is a bounded
// computation fit for the hot path of every inbound request.
//
// # Quick Start
//
//	limiter, err := tokengate.NewLimiter()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// 5 requests of burst, refilling at 2 requests/second.
//	if err := limiter.RegisterUser("user-123", 5, 2.0); err != nil {
//	    log.Fatal(err)
//	}
//
//	allowed, err := limiter.AllowRequest("user-123")
//	if err != nil {
//	    // errors.Is(err, tokengate.ErrUnknownKey): the key was never
//	    // registered; the host decides fail open vs fail closed.
//	}
//	if !allowed {
//	    // Rate limited. Denial is a boolean outcome, not an error.
//	}
//
// # Registration
//
// Keys are registered explicitly. Registering an existing key fails with
// ErrAlreadyRegistered instead of overwriting its limits, so one caller can
// never reset another's accumulated tokens. Non-positive limits fail with
// ErrInvalidConfiguration and create no state.
//
// # Concurrency
//
// All operations are safe for concurrent use. Each bucket carries its own
// mutex, so decisions for unrelated keys never contend; the registry's lock
// covers only map lookup and insert and is never held across a bucket
// operation.
//
// # Time
//
// Buckets never read the wall clock themselves. The limiter injects a Clock,
// defaulting to the system clock (monotonic via time.Time's monotonic
// reading). Tests use ManualClock to script elapsed time:
//
//	clk := tokengate.NewManualClock(time.Unix(0, 0))
//	limiter, _ := tokengate.NewLimiter(tokengate.WithClock(clk))
//	limiter.RegisterUser("u", 5, 2.0)
//	// ... exhaust the bucket ...
//	clk.Advance(time.Second) // refills 2 tokens
//
// # HTTP Middleware
//
// Limiter.Middleware enforces limits on an http.Handler, keyed by a
// configurable KeyExtractor (client IP by default), and answers denied
// requests with 429 plus the standard X-RateLimit-* and Retry-After headers.
//
// # Configuration
//
// Policies can be declared in YAML and loaded with WithConfigFile:
//
//	defaults:
//	  capacity: 100
//	  refill_rate: 10.0
//
//	clients:
//	  "partner-api":
//	    capacity: 500
//	    refill_rate: 50.0
//
//	key_extractor: "header:X-API-Key"
//
// Named clients are registered at construction; the defaults policy, when
// present, is what the middleware applies to clients it has not seen before.
package tokengate
