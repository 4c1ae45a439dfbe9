package tokengate

import "github.com/yourusername/tokengate/pkg/tokengate"

// Re-export the primary types for convenience.
type (
	Limiter      = tokengate.Limiter
	Decision     = tokengate.Decision
	Config       = tokengate.Config
	PolicyConfig = tokengate.PolicyConfig
	Option       = tokengate.Option
	KeyExtractor = tokengate.KeyExtractor
	Clock        = tokengate.Clock
)

// NewLimiter creates a new rate limiter.
var NewLimiter = tokengate.NewLimiter
