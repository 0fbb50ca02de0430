package resilience

import "time"

// Config controls retry backoff and the per-operation circuit breaker.
// TripAfter consecutive failed calls open the breaker for Cooldown; a zero
// TripAfter disables it.
type Config struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64

	TripAfter uint32
	Cooldown  time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxAttempts:    3,
		InitialBackoff: 250 * time.Millisecond,
		MaxBackoff:     2 * time.Second,
		Multiplier:     2,
		TripAfter:      5,
		Cooldown:       30 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = def.MaxAttempts
	}
	c.InitialBackoff = max(c.InitialBackoff, 0)
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = def.MaxBackoff
	}
	if c.Multiplier < 1 {
		c.Multiplier = def.Multiplier
	}
	if c.TripAfter > 0 && c.Cooldown <= 0 {
		c.Cooldown = def.Cooldown
	}
	return c
}

// backoff is the wait after the given failed attempt, starting at 1.
func (c Config) backoff(attempt int) time.Duration {
	d := float64(c.InitialBackoff)
	for i := 1; i < attempt; i++ {
		d *= c.Multiplier
		if d >= float64(c.MaxBackoff) {
			return c.MaxBackoff
		}
	}
	return min(time.Duration(d), c.MaxBackoff)
}
