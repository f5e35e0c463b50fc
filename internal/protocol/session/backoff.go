package session

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// BackoffConfig shapes retry delays for redials and resent reads. The
// session itself never retries.
type BackoffConfig struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	// Jitter spreads each delay over [delay/2, delay].
	Jitter bool
	// MaxAttempts bounds retries; zero means a single attempt.
	MaxAttempts int
}

// NextBackoffDelay returns the delay before retry attempt N (1-based). The
// result never exceeds MaxDelay when one is set. A nil rng makes jitter
// deterministic at three quarters of the delay.
func NextBackoffDelay(cfg BackoffConfig, attempt int, rng *rand.Rand) time.Duration {
	if cfg.InitialDelay <= 0 {
		return 0
	}
	if attempt < 1 {
		attempt = 1
	}
	mult := math.Max(cfg.Multiplier, 1.0)
	delay := float64(cfg.InitialDelay) * math.Pow(mult, float64(attempt-1))
	if cfg.MaxDelay > 0 {
		delay = math.Min(delay, float64(cfg.MaxDelay))
	}
	if attempt > 1 && cfg.Jitter {
		f := 0.75
		if rng != nil {
			f = 0.5 + rng.Float64()/2
		}
		delay *= f
	}
	return time.Duration(delay)
}

// SleepContext waits for d or until ctx ends, returning ctx.Err() in the
// latter case.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
