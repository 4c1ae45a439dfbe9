package tokengate

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config declares rate-limit policy in a form that can live in a YAML file:
// an optional default policy, the clients known ahead of time, and how to
// identify clients on HTTP requests.
type Config struct {
	// Defaults, when present, is the policy applied by the middleware to
	// clients it has not seen before. When absent, unknown clients are a
	// hard error and the middleware's fail-open/fail-closed setting decides
	// their fate.
	Defaults *PolicyConfig `yaml:"defaults,omitempty"`

	// Clients maps keys to their policies. Every entry is registered when
	// the limiter is constructed.
	Clients map[string]PolicyConfig `yaml:"clients,omitempty"`

	// KeyExtractor selects how the middleware identifies clients.
	// Examples: "ip", "ip-proxy", "header:X-API-Key", "bearer".
	KeyExtractor string `yaml:"key_extractor,omitempty"`
}

// PolicyConfig is one key's rate-limit parameters.
type PolicyConfig struct {
	// Capacity is the maximum token count (burst size).
	Capacity int64 `yaml:"capacity"`

	// RefillRate is tokens added per second. Fractional rates are valid:
	// 0.1 is one request every ten seconds.
	RefillRate float64 `yaml:"refill_rate"`
}

// Validate checks a policy's parameters.
func (p PolicyConfig) Validate() error {
	if p.Capacity <= 0 || p.RefillRate <= 0 {
		return fmt.Errorf("%w: capacity=%d refill_rate=%g", ErrInvalidConfiguration, p.Capacity, p.RefillRate)
	}
	return nil
}

// Validate checks every policy in the config.
func (c *Config) Validate() error {
	if c.Defaults != nil {
		if err := c.Defaults.Validate(); err != nil {
			return fmt.Errorf("%w: defaults: %v", ErrInvalidConfig, err)
		}
	}
	for key, policy := range c.Clients {
		if key == "" {
			return fmt.Errorf("%w: client key cannot be empty", ErrInvalidConfig)
		}
		if err := policy.Validate(); err != nil {
			return fmt.Errorf("%w: client %q: %v", ErrInvalidConfig, key, err)
		}
	}
	return nil
}

// LoadConfigFromFile reads and validates a YAML policy file.
func LoadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrInvalidConfig, path, err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrInvalidConfig, path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}
