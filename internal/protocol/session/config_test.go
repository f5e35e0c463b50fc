package session

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/danmuck/proxywire/internal/protocol/frame"
	"github.com/danmuck/proxywire/internal/testutil/testlog"
)

func TestNextBackoffDelayDeterministicNoJitter(t *testing.T) {
	testlog.Start(t)
	cfg := BackoffConfig{
		InitialDelay: 250 * time.Millisecond,
		Multiplier:   2.0,
		MaxDelay:     5 * time.Second,
		Jitter:       false,
	}
	if got := NextBackoffDelay(cfg, 1, nil); got != 250*time.Millisecond {
		t.Fatalf("attempt1 got=%v", got)
	}
	if got := NextBackoffDelay(cfg, 2, nil); got != 500*time.Millisecond {
		t.Fatalf("attempt2 got=%v", got)
	}
	if got := NextBackoffDelay(cfg, 3, nil); got != time.Second {
		t.Fatalf("attempt3 got=%v", got)
	}
	if got := NextBackoffDelay(cfg, 6, nil); got != 5*time.Second {
		t.Fatalf("attempt6 got=%v", got)
	}
}

func TestNextBackoffDelayJitterRange(t *testing.T) {
	testlog.Start(t)
	cfg := BackoffConfig{
		InitialDelay: 100 * time.Millisecond,
		Multiplier:   2.0,
		MaxDelay:     time.Second,
		Jitter:       true,
	}
	rng := rand.New(rand.NewSource(7))
	for attempt := 2; attempt < 8; attempt++ {
		got := NextBackoffDelay(cfg, attempt, rng)
		if got <= 0 || got > time.Second {
			t.Fatalf("attempt%d jitter out of range: %v", attempt, got)
		}
	}
}

func TestNextBackoffDelayJitterNeverExceedsMax(t *testing.T) {
	testlog.Start(t)
	cfg := BackoffConfig{InitialDelay: time.Second, Multiplier: 3, MaxDelay: 2 * time.Second, Jitter: true}
	if got := NextBackoffDelay(cfg, 4, nil); got != 1500*time.Millisecond {
		t.Fatalf("capped jitter got=%v", got)
	}
	if got := NextBackoffDelay(BackoffConfig{}, 3, nil); got != 0 {
		t.Fatalf("zero config got=%v", got)
	}
}

func TestSleepContext(t *testing.T) {
	testlog.Start(t)
	if err := SleepContext(context.Background(), time.Millisecond); err != nil {
		t.Fatalf("sleep: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := SleepContext(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if err := SleepContext(ctx, 0); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled for zero sleep, got %v", err)
	}
}

func TestConfigWithDefaults(t *testing.T) {
	testlog.Start(t)
	cfg := Config{DefaultCallTimeout: -1, DrainTimeout: time.Second}.WithDefaults()
	if cfg.DefaultCallTimeout != 0 {
		t.Fatalf("negative call timeout should disable it, got %v", cfg.DefaultCallTimeout)
	}
	if cfg.DrainTimeout != time.Second {
		t.Fatalf("drain timeout overwritten: %v", cfg.DrainTimeout)
	}
	if cfg.WriteTimeout != DefaultConfig().WriteTimeout {
		t.Fatalf("write timeout got=%v", cfg.WriteTimeout)
	}
	if cfg.MaxFrameBytes != frame.DefaultLimits().MaxPayloadBytes {
		t.Fatalf("max frame bytes got=%d", cfg.MaxFrameBytes)
	}
	if cfg.Backoff != DefaultConfig().Backoff {
		t.Fatalf("backoff got=%+v", cfg.Backoff)
	}
}
