package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorIsMatchesKind(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{name: "storage", err: NewStorageError("upsert user", stderrors.New("disk full")), target: ErrStorage, want: true},
		{name: "wrapped upstream", err: fmt.Errorf("fetch prices: %w", NewUpstreamError("coingecko", nil)), target: ErrUpstream, want: true},
		{name: "validation is not storage", err: NewValidationError("bad input"), target: ErrStorage, want: false},
		{name: "lookup miss", err: NewLookupMiss("faq q9", "faq.not_found"), target: ErrLookupMiss, want: true},
		{name: "plain error", err: stderrors.New("boom"), target: ErrUpstream, want: false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, stderrors.Is(tc.err, tc.target))
		})
	}
}

func TestAppErrorDetailPrefersCause(t *testing.T) {
	t.Parallel()

	err := NewUpstreamError("coingecko", stderrors.New("status 429"))
	assert.Equal(t, "status 429", err.Detail())
	assert.Equal(t, "upstream error: coingecko", err.Error())

	assert.Equal(t, "bad input", NewValidationError("bad input").Detail())
}

func TestNewInvalidKeepsCauseMatchable(t *testing.T) {
	t.Parallel()

	errUnsupported := stderrors.New("unsupported")
	err := NewInvalid(fmt.Errorf("set language %q: %w", "fr", errUnsupported))

	assert.True(t, stderrors.Is(err, ErrValidation))
	assert.True(t, stderrors.Is(err, errUnsupported))
	assert.Equal(t, "E100", err.Code)
	assert.False(t, stderrors.Is(NewValidationError("other input"), errUnsupported))
}

func TestHandlerReturnsMessageKey(t *testing.T) {
	t.Parallel()

	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), false)

	assert.Equal(t, "", h.Handle(context.Background(), nil))
	assert.Equal(t, "errors.upstream", h.Handle(context.Background(), NewUpstreamError("coingecko", nil)))
	assert.Equal(t, "chart.token_not_found", h.Handle(context.Background(), NewLookupMiss("coin x", "chart.token_not_found")))
	assert.Equal(t, GenericMessageKey, h.Handle(context.Background(), stderrors.New("boom")))
}

func TestCircuitBreakerTripsAndRecovers(t *testing.T) {
	t.Parallel()

	now := time.Unix(0, 0)
	cb := NewCircuitBreaker(BreakerSettings{MinRequests: 2, Cooldown: time.Minute, HalfOpenMaxRequests: 1})
	cb.now = func() time.Time { return now }

	failing := func() error { return stderrors.New("down") }
	require.Error(t, cb.Call(failing))
	require.Error(t, cb.Call(failing))
	assert.Equal(t, StateOpen, cb.State())

	calls := 0
	err := cb.Call(func() error { calls++; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Zero(t, calls)

	now = now.Add(2 * time.Minute)
	require.NoError(t, cb.Call(func() error { calls++; return nil }))
	assert.Equal(t, 1, calls)
	assert.Equal(t, StateClosed, cb.State())
}

func TestWithRetryStopsOnNonRetryable(t *testing.T) {
	t.Parallel()

	policy := RetryPolicy{MaxRetries: 3, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond, BackoffMultiplier: 1}

	attempts := 0
	err := WithRetry(context.Background(), policy, func() error {
		attempts++
		return NewValidationError("nope")
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)

	attempts = 0
	err = WithRetry(context.Background(), policy, func() error {
		attempts++
		if attempts < 3 {
			return NewStorageError("ping", stderrors.New("refused"))
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}
