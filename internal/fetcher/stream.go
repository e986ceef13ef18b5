package fetcher

import (
	"context"

	"github.com/rotisserie/eris"
)

const streamBuffer = 64

// produce runs fn on its own goroutine and returns the channel fn emits on
// along with a channel carrying fn's error, if any. emit fails once ctx is
// done. Both channels are closed when fn returns.
func produce[T any](ctx context.Context, label string, fn func(emit func(T) error) error) (<-chan T, <-chan error) {
	out := make(chan T, streamBuffer)
	errCh := make(chan error, 1)

	emit := func(v T) error {
		if err := ctx.Err(); err != nil {
			return eris.Wrapf(err, "%s: cancelled", label)
		}
		select {
		case out <- v:
			return nil
		case <-ctx.Done():
			return eris.Wrapf(ctx.Err(), "%s: cancelled", label)
		}
	}

	go func() {
		defer close(out)
		defer close(errCh)
		if err := fn(emit); err != nil {
			errCh <- err
		}
	}()
	return out, errCh
}
