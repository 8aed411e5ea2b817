package startup

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filmscout/filmscout/internal/testutil"
)

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{
		InitialDelay: time.Millisecond,
		MaxDelay:     2 * time.Millisecond,
		MaxAttempts:  attempts,
		Multiplier:   2,
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"dial", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, true},
		{"wrapped text", fmt.Errorf("getMe: %w", errors.New("read: connection reset by peer")), true},
		{"rate limited", &gotgbot.TelegramError{Code: 429, Description: "Too Many Requests"}, true},
		{"server error", &gotgbot.TelegramError{Code: 502, Description: "Bad Gateway"}, true},
		{"unauthorized", &gotgbot.TelegramError{Code: 401, Description: "Unauthorized"}, false},
		{"plain", errors.New("invalid token format"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestDo_RetriesTransientErrors(t *testing.T) {
	attempts := 0
	got, err := Do(context.Background(), "connect", fastRetry(3), testutil.NopLogger(), func(context.Context) (string, error) {
		attempts++
		if attempts < 3 {
			return "", errors.New("dial tcp: i/o timeout")
		}
		return "filmscout_bot", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "filmscout_bot", got)
	assert.Equal(t, 3, attempts)
}

func TestDo_GivesUpAfterMaxAttempts(t *testing.T) {
	attempts := 0
	err := Run(context.Background(), "connect", fastRetry(2), testutil.NopLogger(), func(context.Context) error {
		attempts++
		return errors.New("connection refused")
	})

	assert.EqualError(t, err, "connection refused")
	assert.Equal(t, 2, attempts)
}

func TestDo_PermanentErrorStopsImmediately(t *testing.T) {
	attempts := 0
	err := Run(context.Background(), "connect", fastRetry(5), testutil.NopLogger(), func(context.Context) error {
		attempts++
		return &gotgbot.TelegramError{Code: 401, Description: "Unauthorized"}
	})

	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDo_ContextCanceledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastRetry(5)
	cfg.InitialDelay = time.Hour

	err := Run(ctx, "connect", cfg, testutil.NopLogger(), func(context.Context) error {
		cancel()
		return errors.New("no such host")
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetryConfig_WithAttempts(t *testing.T) {
	cfg := DefaultRetryConfig()
	assert.Equal(t, 5, cfg.WithAttempts(5).MaxAttempts)
	assert.Equal(t, cfg.MaxAttempts, cfg.WithAttempts(0).MaxAttempts)
}
