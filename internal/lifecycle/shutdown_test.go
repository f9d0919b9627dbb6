package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/cryptoassist-bot/internal/testutil"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestShutdownRunsHooksInReverseOrder(t *testing.T) {
	s := NewShutdown(testutil.Logger())

	var order []string
	s.Register("database", func(context.Context) error {
		order = append(order, "database")
		return nil
	})
	s.Register("activity", Closer(closerFunc(func() error {
		order = append(order, "activity")
		return errors.New("disk full")
	})))
	s.Register("bot", Stopper(func() { order = append(order, "bot") }))
	s.Register("nil", nil)

	err := s.Execute(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "activity: disk full")
	assert.Equal(t, []string{"bot", "activity", "database"}, order)

	assert.NoError(t, s.Execute(context.Background()))
	assert.Len(t, order, 3)
}

func TestStopperHonoursDeadline(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := Stopper(func() { <-release })(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
