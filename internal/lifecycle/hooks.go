package lifecycle

import (
	"context"
	"io"
)

// Hook describes a named shutdown hook.
type Hook struct {
	Name string
	Fn   func(ctx context.Context) error
}

// Closer adapts an io.Closer to a hook function.
func Closer(c io.Closer) func(context.Context) error {
	return func(context.Context) error {
		return c.Close()
	}
}

// Stopper adapts a blocking Stop method to a hook function that honours ctx.
func Stopper(stop func()) func(context.Context) error {
	return func(ctx context.Context) error {
		done := make(chan struct{})
		go func() {
			stop()
			close(done)
		}()

		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
