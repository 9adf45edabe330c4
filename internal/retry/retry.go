package retry

import (
	"context"
	"fmt"
	"time"
)

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the real Sleeper.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// NoSleep returns immediately. Tests use it to skip backoff waits.
func NoSleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

type RetryConfig struct {
	MaxAttempts int
	Delay       time.Duration
	Backoff     bool // Exponential backoff: Delay * 2^attempt

	// Retryable decides whether a failed attempt is repeated. Nil retries
	// every error.
	Retryable func(error) bool
	// Sleep defaults to the real Sleep.
	Sleep Sleeper
	// OnRetry is called before each wait.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// BackoffDelay is the wait after the given 1-based attempt.
func (c RetryConfig) BackoffDelay(attempt int) time.Duration {
	if !c.Backoff {
		return c.Delay
	}
	return c.Delay * time.Duration(1<<attempt)
}

func WithRetry(ctx context.Context, config RetryConfig, fn func() error) error {
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	sleep := config.Sleep
	if sleep == nil {
		sleep = Sleep
	}

	var lastErr error

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if config.Retryable != nil && !config.Retryable(err) {
			return err
		}
		if attempt == config.MaxAttempts {
			break
		}

		delay := config.BackoffDelay(attempt)
		if config.OnRetry != nil {
			config.OnRetry(attempt, err, delay)
		}
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}

	return fmt.Errorf("failed after %d attempts: %w", config.MaxAttempts, lastErr)
}
