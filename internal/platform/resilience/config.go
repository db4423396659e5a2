package resilience

import "time"

// CircuitBreakerConfig tunes a CircuitBreaker. A disabled breaker lets every
// call through and records nothing.
type CircuitBreakerConfig struct {
	Enabled          bool
	FailureThreshold int
	OpenTimeout      time.Duration
	HalfOpenMaxReq   int
}

func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
		HalfOpenMaxReq:   1,
	}
}

// withDefaults fills zero or negative limits from DefaultCircuitBreakerConfig.
// Enabled is left as given.
func (c CircuitBreakerConfig) withDefaults() CircuitBreakerConfig {
	def := DefaultCircuitBreakerConfig()
	c.FailureThreshold = positiveOr(c.FailureThreshold, def.FailureThreshold)
	c.HalfOpenMaxReq = positiveOr(c.HalfOpenMaxReq, def.HalfOpenMaxReq)
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = def.OpenTimeout
	}
	return c
}

func positiveOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

// BackoffConfig drives retry delays towards flaky upstreams.
type BackoffConfig struct {
	Initial time.Duration
	Max     time.Duration
}

func DefaultBackoffConfig() BackoffConfig {
	return BackoffConfig{
		Initial: 500 * time.Millisecond,
		Max:     10 * time.Second,
	}
}

// Delay doubles Initial once per zero-based attempt and caps the result at Max.
func (c BackoffConfig) Delay(attempt int) time.Duration {
	def := DefaultBackoffConfig()
	initial, ceiling := c.Initial, c.Max
	if initial <= 0 {
		initial = def.Initial
	}
	if ceiling <= 0 {
		ceiling = def.Max
	}
	if attempt <= 0 {
		return min(initial, ceiling)
	}
	// Past 62 doublings any positive duration overflows.
	if attempt > 62 || initial > ceiling>>attempt {
		return ceiling
	}
	return min(initial<<attempt, ceiling)
}
