package db

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{MaxAttempts: attempts, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}
}

func TestRetry_SuccessAfterTransient(t *testing.T) {
	var calls int
	err := Retry(context.Background(), fastRetry(3), "ping", func(context.Context) error {
		calls++
		if calls < 3 {
			return fmt.Errorf("dial: %w", syscall.ECONNREFUSED)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	var calls int
	err := Retry(context.Background(), fastRetry(3), "ping", func(context.Context) error {
		calls++
		return syscall.ECONNRESET
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetry_PermanentErrorStops(t *testing.T) {
	var calls int
	err := Retry(context.Background(), fastRetry(5), "ping", func(context.Context) error {
		calls++
		return &pgconn.PgError{Code: "28P01", Message: "password authentication failed"}
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int
	err := Retry(ctx, RetryConfig{MaxAttempts: 5, InitialBackoff: time.Hour}, "ping", func(context.Context) error {
		calls++
		cancel()
		return syscall.ECONNREFUSED
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetry_ZeroAttemptsRunsOnce(t *testing.T) {
	var calls int
	_ = Retry(context.Background(), RetryConfig{}, "ping", func(context.Context) error {
		calls++
		return syscall.ECONNREFUSED
	})
	assert.Equal(t, 1, calls)
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"refused", fmt.Errorf("connect: %w", syscall.ECONNREFUSED), true},
		{"connection exception", &pgconn.PgError{Code: "08006"}, true},
		{"cannot connect now", &pgconn.PgError{Code: "57P03"}, true},
		{"syntax error", &pgconn.PgError{Code: "42601"}, false},
		{"plain", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestBackoff_Capped(t *testing.T) {
	cfg := RetryConfig{InitialBackoff: time.Second, MaxBackoff: 3 * time.Second}
	assert.Equal(t, time.Second, backoff(0, cfg))
	assert.Equal(t, 2*time.Second, backoff(1, cfg))
	assert.Equal(t, 3*time.Second, backoff(5, cfg))
}
