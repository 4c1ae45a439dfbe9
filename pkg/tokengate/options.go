package tokengate

import (
	"fmt"
	"log/slog"
)

// Option is a functional option for configuring a Limiter.
type Option func(*Limiter) error

// WithClock sets the limiter's time source. Tests use this with a
// ManualClock to make refill deterministic.
func WithClock(clock Clock) Option {
	return func(l *Limiter) error {
		if clock == nil {
			return fmt.Errorf("%w: clock cannot be nil", ErrInvalidConfig)
		}
		l.clock = clock
		return nil
	}
}

// WithConfig sets the policy configuration. Its named clients are registered
// when the limiter is constructed.
func WithConfig(config *Config) Option {
	return func(l *Limiter) error {
		if config == nil {
			return fmt.Errorf("%w: config cannot be nil", ErrInvalidConfig)
		}
		l.config = config
		return nil
	}
}

// WithConfigFile loads the policy configuration from a YAML file.
func WithConfigFile(path string) Option {
	return func(l *Limiter) error {
		config, err := LoadConfigFromFile(path)
		if err != nil {
			return err
		}
		l.config = config
		return nil
	}
}

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Limiter) error {
		if logger == nil {
			return fmt.Errorf("%w: logger cannot be nil", ErrInvalidConfig)
		}
		l.logger = logger
		return nil
	}
}

// WithMetrics sets the recorder that observes every admission decision.
func WithMetrics(recorder Recorder) Option {
	return func(l *Limiter) error {
		if recorder == nil {
			return fmt.Errorf("%w: recorder cannot be nil", ErrInvalidConfig)
		}
		l.metrics = recorder
		return nil
	}
}

// WithKeyExtractor sets how the middleware identifies clients. It overrides
// the config file's key_extractor setting.
func WithKeyExtractor(extractor KeyExtractor) Option {
	return func(l *Limiter) error {
		if extractor == nil {
			return fmt.Errorf("%w: key extractor cannot be nil", ErrInvalidConfig)
		}
		l.keyExtractor = extractor
		return nil
	}
}

// WithFailOpen controls what the middleware does with a request whose key is
// unknown and cannot be auto-registered: true lets it through, false (the
// default) rejects it.
func WithFailOpen(failOpen bool) Option {
	return func(l *Limiter) error {
		l.failOpen = failOpen
		return nil
	}
}
