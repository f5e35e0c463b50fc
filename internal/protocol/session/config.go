package session

import (
	"time"

	"github.com/danmuck/proxywire/internal/protocol/frame"
)

// Config defines session timing and size limits.
type Config struct {
	// DefaultCallTimeout applies to Call unless overridden per call. Zero
	// leaves calls open until a reply, cancellation or session close.
	DefaultCallTimeout time.Duration
	// DrainTimeout bounds how long Drain waits for in-flight work.
	DrainTimeout      time.Duration
	WriteTimeout      time.Duration
	MaxFrameBytes     uint32
	HeartbeatInterval time.Duration
	HeartbeatTimeout  time.Duration
	Backoff           BackoffConfig
}

// DefaultConfig returns the defaults used when a field is left zero.
func DefaultConfig() Config {
	return Config{
		DefaultCallTimeout: 30 * time.Second,
		DrainTimeout:       15 * time.Second,
		WriteTimeout:       10 * time.Second,
		MaxFrameBytes:      frame.DefaultLimits().MaxPayloadBytes,
		HeartbeatInterval:  5 * time.Second,
		HeartbeatTimeout:   5 * time.Second,
		Backoff: BackoffConfig{
			InitialDelay: 250 * time.Millisecond,
			Multiplier:   2.0,
			MaxDelay:     5 * time.Second,
			Jitter:       true,
			MaxAttempts:  3,
		},
	}
}

// WithDefaults fills zero fields from DefaultConfig. Negative durations mean
// "disabled" and are normalized to zero.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	c.DefaultCallTimeout = durationOr(c.DefaultCallTimeout, d.DefaultCallTimeout)
	c.DrainTimeout = durationOr(c.DrainTimeout, d.DrainTimeout)
	c.WriteTimeout = durationOr(c.WriteTimeout, d.WriteTimeout)
	c.HeartbeatInterval = durationOr(c.HeartbeatInterval, d.HeartbeatInterval)
	c.HeartbeatTimeout = durationOr(c.HeartbeatTimeout, d.HeartbeatTimeout)
	if c.MaxFrameBytes == 0 {
		c.MaxFrameBytes = d.MaxFrameBytes
	}
	if c.Backoff.InitialDelay == 0 && c.Backoff.MaxDelay == 0 && c.Backoff.Multiplier == 0 {
		c.Backoff = d.Backoff
	}
	return c
}

func (c Config) limits() frame.Limits {
	return frame.Limits{MaxPayloadBytes: c.MaxFrameBytes}
}

func durationOr(v, def time.Duration) time.Duration {
	switch {
	case v < 0:
		return 0
	case v == 0:
		return def
	default:
		return v
	}
}
