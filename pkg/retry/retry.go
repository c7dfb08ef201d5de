// Package retry provides a small context-aware retry engine with
// exponential backoff. In this codebase it guards connection
// establishment only; generation paths never retry, so keeping the
// engine out of them is deliberate.
package retry

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// Config controls retry behaviour.
type Config struct {
	MaxAttempts int           // Total attempts including the first. 0 means no-op.
	InitDelay   time.Duration // Base delay before the first retry.
	MaxDelay    time.Duration // Upper bound on any single delay.
	Jitter      bool          // Add up to +25% random jitter to each delay.
}

// DefaultConfig retries 5 times with exponential backoff from 500ms to
// 10s, jittered. Tuned for database startup races, not API traffic.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 5,
		InitDelay:   500 * time.Millisecond,
		MaxDelay:    10 * time.Second,
		Jitter:      true,
	}
}

// Do executes fn up to cfg.MaxAttempts times, doubling the delay after
// each failure. It returns nil on the first success, the last error
// when attempts are exhausted, or ctx.Err() when the context ends
// first.
func Do(ctx context.Context, cfg Config, fn func() error) error {
	if cfg.MaxAttempts <= 0 {
		return nil
	}

	var lastErr error
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if lastErr = fn(); lastErr == nil {
			return nil
		}
		if attempt == cfg.MaxAttempts-1 {
			break
		}

		delay := cfg.delay(attempt)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}

func (cfg Config) delay(attempt int) time.Duration {
	d := time.Duration(float64(cfg.InitDelay) * math.Pow(2, float64(attempt)))
	if cfg.MaxDelay > 0 && d > cfg.MaxDelay {
		d = cfg.MaxDelay
	}
	if cfg.Jitter && d > 0 {
		d += time.Duration(rand.Int64N(int64(d) / 4))
	}
	return d
}
