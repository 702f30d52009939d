// Package ratelimit implements the per-adapter token-bucket budget from
// §4.1: each Provider Adapter declares a requests/hour budget; when
// depleted, calls fail fast with kind=rate_limited without contacting
// the remote, and the bucket refills at the declared rate.
package ratelimit

import (
	"time"

	"golang.org/x/time/rate"
)

// Config describes one adapter's declared budget.
type Config struct {
	RequestsPerHour int
	Burst           int
}

// DefaultConfig returns a conservative default budget.
func DefaultConfig() Config {
	return Config{RequestsPerHour: 3600, Burst: 10}
}

// Bucket wraps golang.org/x/time/rate to express an hourly budget.
type Bucket struct {
	limiter *rate.Limiter
}

// New creates a token bucket refilling at cfg.RequestsPerHour per hour.
func New(cfg Config) *Bucket {
	if cfg.RequestsPerHour <= 0 {
		cfg.RequestsPerHour = 3600
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	perSecond := float64(cfg.RequestsPerHour) / 3600.0
	return &Bucket{limiter: rate.NewLimiter(rate.Limit(perSecond), cfg.Burst)}
}

// Allow reports whether a call may proceed now, consuming one token if
// so. It never blocks — depletion must fail fast per §4.1.
func (b *Bucket) Allow() bool {
	return b.limiter.Allow()
}

// AllowAt reports whether a call may proceed at the given time,
// primarily for deterministic tests.
func (b *Bucket) AllowAt(t time.Time) bool {
	return b.limiter.AllowN(t, 1)
}
