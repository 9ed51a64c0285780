package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "igstat/pkg/errors"
)

func fastBackoff() *ExponentialBackoff {
	return &ExponentialBackoff{
		BaseDelay:    time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
		JitterFactor: 0,
	}
}

func TestExponentialBackoff(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:    100 * time.Millisecond,
		MaxDelay:     1 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0, // no jitter for predictable testing
	}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, 1 * time.Second},
		{6, 1 * time.Second},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, backoff.NextDelay(tt.attempt), "attempt %d", tt.attempt)
	}

	assert.Equal(t, time.Duration(0), backoff.NextDelay(0))
}

func TestExponentialBackoffWithJitter(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:    100 * time.Millisecond,
		MaxDelay:     1 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.3,
	}

	delays := make(map[time.Duration]bool)
	for i := 0; i < 10; i++ {
		delays[backoff.NextDelay(2)] = true
	}
	assert.Greater(t, len(delays), 1, "jitter should vary delays")
}

func TestRetrySucceedsAfterFailures(t *testing.T) {
	attempts := 0
	op := func() error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	}

	cfg := &Config{
		MaxAttempts: 5,
		Backoff:     fastBackoff(),
		RetryIf:     func(error) bool { return true },
		Context:     context.Background(),
	}

	require.NoError(t, Do(op, cfg))
	assert.Equal(t, 3, attempts)
}

func TestRetryMaxAttemptsExceeded(t *testing.T) {
	attempts := 0
	op := func() error {
		attempts++
		return errors.New("persistent error")
	}

	cfg := &Config{
		MaxAttempts: 3,
		Backoff:     fastBackoff(),
		RetryIf:     func(error) bool { return true },
		Context:     context.Background(),
	}

	err := Do(op, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retry attempts")
	assert.Equal(t, 3, attempts)
}

func TestRetryNonRetryableError(t *testing.T) {
	attempts := 0
	notFound := &errs.Error{Type: errs.ErrorTypeNotFound, Message: "no such user", Code: 404}
	op := func() error {
		attempts++
		return notFound
	}

	cfg := &Config{
		MaxAttempts: 5,
		Backoff:     fastBackoff(),
		RetryIf:     DefaultRetryIf,
		Context:     context.Background(),
	}

	err := Do(op, cfg)
	assert.Equal(t, notFound, err)
	assert.Equal(t, 1, attempts)
}

func TestDefaultRetryIf(t *testing.T) {
	assert.False(t, DefaultRetryIf(nil))
	assert.False(t, DefaultRetryIf(context.Canceled))
	assert.False(t, DefaultRetryIf(context.DeadlineExceeded))
	assert.True(t, DefaultRetryIf(errors.New("mystery")))
	assert.True(t, DefaultRetryIf(&errs.Error{Type: errs.ErrorTypeRateLimited, Code: 429}))
	assert.False(t, DefaultRetryIf(&errs.Error{Type: errs.ErrorTypeUnauthorized, Code: 401}))
}

func TestRetryContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	op := func() error { return errors.New("always fails") }
	cfg := &Config{
		MaxAttempts: 5,
		Backoff:     &ExponentialBackoff{BaseDelay: time.Second, MaxDelay: time.Second, Multiplier: 1},
		RetryIf:     func(error) bool { return true },
		Context:     ctx,
	}

	err := Do(op, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retry cancelled")
}

func TestDoWithResult(t *testing.T) {
	attempts := 0
	op := func() (string, error) {
		attempts++
		if attempts < 2 {
			return "", errors.New("transient")
		}
		return "done", nil
	}

	cfg := &Config{
		MaxAttempts: 3,
		Backoff:     fastBackoff(),
		RetryIf:     func(error) bool { return true },
		Context:     context.Background(),
	}

	result, err := DoWithResult(op, cfg)
	require.NoError(t, err)
	assert.Equal(t, "done", result)
}

func TestRetrierWithModifiers(t *testing.T) {
	base := NewRetrier(&Config{
		MaxAttempts: 1,
		Backoff:     fastBackoff(),
		RetryIf:     func(error) bool { return true },
		Context:     context.Background(),
	})

	attempts := 0
	op := func() error {
		attempts++
		return errors.New("fail")
	}

	_ = base.WithMaxAttempts(2).Do(op)
	assert.Equal(t, 2, attempts)

	// the original retrier is unchanged
	attempts = 0
	_ = base.Do(op)
	assert.Equal(t, 1, attempts)
}
