package util

import (
	"context"
)

// Sel runs f in its own goroutine and returns its error, or the context
// error if ctx is done first. f keeps running in the background when ctx
// wins, so it must be unblocked by other means (closing its connection).
func Sel(ctx context.Context, f func() error) error {
	var d = make(chan error, 1)
	go func() {
		d <- f()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-d:
		return err
	}
}
