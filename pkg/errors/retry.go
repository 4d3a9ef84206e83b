package errors

import (
	"context"
	cryptorand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// RetryConfig holds configuration for retry logic
type RetryConfig struct {
	MaxRetries     int
	InitialDelay   time.Duration
	MaxDelay       time.Duration
	Multiplier     float64
	Jitter         bool
	RetryableError func(error) bool
}

// DefaultRetryConfig returns a default retry configuration
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:   3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
		RetryableError: func(err error) bool {
			if IsRecoverable(err) {
				return true
			}

			switch GetErrorCode(err) {
			case ErrCodeConnectionTimeout,
				ErrCodeNetworkUnavailable,
				ErrCodeTimeout,
				ErrCodeServiceUnavailable:
				return true
			default:
				return false
			}
		},
	}
}

// RetryableFunc represents a function that can be retried
type RetryableFunc func(ctx context.Context) error

// Retry executes a function with retry logic
func Retry(ctx context.Context, config *RetryConfig, fn RetryableFunc) error {
	var lastErr error

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}

		lastErr = err

		if !config.RetryableError(err) {
			return err
		}

		if attempt == config.MaxRetries {
			break
		}

		delay := calculateDelay(attempt, config)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return Wrap(lastErr, ErrCodeResourceExhausted,
		fmt.Sprintf("Operation failed after %d attempts", config.MaxRetries+1)).
		WithSeverity(SeverityError)
}

// RetryWithBackoff executes a function with default retry configuration
func RetryWithBackoff(ctx context.Context, fn RetryableFunc) error {
	return Retry(ctx, DefaultRetryConfig(), fn)
}

// calculateDelay calculates the delay for the next retry attempt
func calculateDelay(attempt int, config *RetryConfig) time.Duration {
	delay := float64(config.InitialDelay) * math.Pow(config.Multiplier, float64(attempt))

	if delay > float64(config.MaxDelay) {
		delay = float64(config.MaxDelay)
	}

	if config.Jitter {
		var b [8]byte
		_, _ = cryptorand.Read(b[:])
		randomFloat := float64(binary.LittleEndian.Uint64(b[:])) / float64(^uint64(0))
		delay = delay + randomFloat*0.3*delay // up to 30% jitter
	}

	return time.Duration(delay)
}
