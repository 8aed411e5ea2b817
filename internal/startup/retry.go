// Package startup holds helpers for bringing external connections up when
// the process starts.
package startup

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/rs/zerolog"
)

// RetryConfig configures exponential backoff.
type RetryConfig struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	MaxAttempts  int
	Multiplier   float64
}

// DefaultRetryConfig returns the backoff used when connecting at startup.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		InitialDelay: 2 * time.Second,
		MaxDelay:     time.Minute,
		MaxAttempts:  3,
		Multiplier:   2.0,
	}
}

// WithAttempts returns a copy of cfg allowing n attempts. Values below one
// leave cfg unchanged.
func (cfg RetryConfig) WithAttempts(n int) RetryConfig {
	if n > 0 {
		cfg.MaxAttempts = n
	}
	return cfg
}

var transientIndicators = []string{
	"connection refused",
	"no such host",
	"timeout",
	"network is unreachable",
	"no route to host",
	"dial tcp",
	"i/o timeout",
	"connection reset",
	"temporary failure in name resolution",
	"eof",
}

// IsTransient reports whether err is worth retrying: network failures, Bot
// API rate limiting and Bot API server errors. A rejected token is not.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var tgErr *gotgbot.TelegramError
	if errors.As(err, &tgErr) {
		return tgErr.Code == 429 || tgErr.Code >= 500
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, indicator := range transientIndicators {
		if strings.Contains(msg, indicator) {
			return true
		}
	}
	return false
}

// Do runs fn until it succeeds, fails with a non-transient error, or
// cfg.MaxAttempts is reached. The delay between attempts grows by
// cfg.Multiplier up to cfg.MaxDelay.
func Do[T any](ctx context.Context, name string, cfg RetryConfig, logger zerolog.Logger, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	log := logger.With().Str("operation", name).Logger()
	delay := cfg.InitialDelay

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			if attempt > 1 {
				log.Info().Int("attempt", attempt).Msg("Succeeded after retry")
			}
			return result, nil
		}
		lastErr = err

		if !IsTransient(err) {
			return zero, err
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		log.Warn().
			Err(err).
			Int("attempt", attempt).
			Int("maxAttempts", cfg.MaxAttempts).
			Dur("nextRetryIn", delay).
			Msg("Transient error, will retry")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}

		delay = time.Duration(float64(delay) * cfg.Multiplier)
		if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}

	log.Error().Err(lastErr).Int("attempts", cfg.MaxAttempts).Msg("Giving up after retries")
	return zero, lastErr
}

// Run is Do for functions without a result.
func Run(ctx context.Context, name string, cfg RetryConfig, logger zerolog.Logger, fn func(ctx context.Context) error) error {
	_, err := Do(ctx, name, cfg, logger, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}
