package metrics

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCounter struct {
	count int64
	err   error
}

func (s stubCounter) Count(context.Context) (int64, error) {
	return s.count, s.err
}

func TestUsersCollectorSetsGauge(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	require.NoError(t, NewUsersCollector(stubCounter{count: 42}, log).Collect(context.Background()))
	assert.Equal(t, float64(42), testutil.ToFloat64(registeredUsers))

	err := NewUsersCollector(stubCounter{err: errors.New("db down")}, log).Collect(context.Background())
	require.Error(t, err)
	assert.Equal(t, float64(42), testutil.ToFloat64(registeredUsers))
}

func TestRecordCacheLookupLabels(t *testing.T) {
	before := testutil.ToFloat64(languageCacheTotal.WithLabelValues("hit"))
	RecordCacheLookup(true)
	assert.Equal(t, before+1, testutil.ToFloat64(languageCacheTotal.WithLabelValues("hit")))
}
