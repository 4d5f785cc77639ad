package llm

import "time"

// RetryConfig governs how often a single endpoint is retried before the
// client moves on to the next one in the capability chain.
type RetryConfig struct {
	// MaxAttempts bounds tries per endpoint, first call included.
	MaxAttempts int

	// BackoffBase is the delay before the first retry.
	BackoffBase time.Duration

	// BackoffMultiplier grows the delay between consecutive retries.
	BackoffMultiplier float64

	// MaxBackoff caps the grown delay.
	MaxBackoff time.Duration
}

// DefaultRetryConfig suits interactive planning calls: quick to give up on
// a wedged endpoint, since a fallback endpoint or the local venue table can
// usually take over.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		BackoffBase:       time.Second,
		BackoffMultiplier: 2.0,
		MaxBackoff:        15 * time.Second,
	}
}
