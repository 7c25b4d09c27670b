package dispatch

import (
	"context"
	"sync"
)

// Future is the handle for an asynchronous operation. It resolves exactly once.
type Future[T any] struct {
	done chan struct{}
	once sync.Once
	val  T
	err  error
}

// NewFuture returns an unresolved future.
func NewFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Resolved returns a future that is already settled.
func Resolved[T any](v T, err error) *Future[T] {
	f := NewFuture[T]()
	f.Resolve(v, err)
	return f
}

// Resolve settles the future. Calls after the first are ignored.
func (f *Future[T]) Resolve(v T, err error) {
	f.once.Do(func() {
		f.val = v
		f.err = err
		close(f.done)
	})
}

// Done is closed once the future has resolved.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the future resolves or ctx ends. Giving up on the wait
// does not abort the operation.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Ready reports whether the future has resolved.
func (f *Future[T]) Ready() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Go runs call off the loop, then posts settle back onto the loop with
// call's outcome. The future resolves with whatever settle returns, after
// settle has run. If the loop is stopped first, the future resolves with
// ErrClosed and settle never runs.
func Go[T any](l *Loop, call func() (T, error), settle func(T, error) (T, error)) *Future[T] {
	f := NewFuture[T]()
	go func() {
		v, err := call()
		posted := l.Post(func() {
			f.Resolve(settle(v, err))
		})
		if posted {
			select {
			case <-f.done:
				return
			case <-l.ctx.Done():
				l.wg.Wait()
			}
		}
		var zero T
		f.Resolve(zero, ErrClosed)
	}()
	return f
}
