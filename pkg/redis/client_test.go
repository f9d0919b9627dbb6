package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsClientRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := New(context.Background(), Config{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	m := NewMetricsClient(client)
	ctx := context.Background()

	errorsBefore := testutil.ToFloat64(redisErrorsTotal.WithLabelValues("get"))

	_, err = m.Get(ctx, "missing")
	assert.True(t, errors.Is(err, Nil))
	assert.Equal(t, errorsBefore, testutil.ToFloat64(redisErrorsTotal.WithLabelValues("get")))

	require.NoError(t, m.Set(ctx, "k", "v", time.Minute))
	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	require.NoError(t, m.Delete(ctx, "k"))
	require.NoError(t, m.Ping(ctx))
}

func TestNewFailsWhenUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := New(context.Background(), Config{Addr: addr, MaxRetries: -1})
	require.Error(t, err)
}
