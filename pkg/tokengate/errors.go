package tokengate

import "errors"

var (
	// ErrInvalidConfiguration is returned when a registration carries a
	// non-positive capacity or refill rate. No bucket is created.
	ErrInvalidConfiguration = errors.New("capacity and refill rate must be positive")

	// ErrAlreadyRegistered is returned when a key already has a bucket.
	// Re-registration is rejected rather than overwriting limits, so one
	// caller cannot reset another caller's accumulated tokens.
	ErrAlreadyRegistered = errors.New("key is already registered")

	// ErrUnknownKey is returned by AllowRequest for a key with no bucket.
	// Whether to treat this as deny or allow is the host's decision.
	ErrUnknownKey = errors.New("key is not registered")

	// ErrInvalidKey is returned when the rate limit key is empty.
	ErrInvalidKey = errors.New("rate limit key cannot be empty")

	// ErrInvalidConfig is returned when a configuration file cannot be
	// read, parsed, or validated.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrKeyExtractionFailed is returned when no client key can be
	// derived from an HTTP request.
	ErrKeyExtractionFailed = errors.New("failed to extract key from request")
)
