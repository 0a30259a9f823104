package source

import (
	"context"
	"errors"
	"sync"
)

// ErrPending is returned by Future.Value when the future hasn't been
// resolved yet.
var ErrPending = errors.New("source: future is still pending")

// Awaitable is the type erased side of a Future, it's what gets
// handed to whoever drives an evaluation when a read can't be
// satisfied immediately.
type Awaitable interface {
	Pending() bool
	Await(ctx context.Context) error
}

// Future holds the result of a cursor operation that may or may not
// be available yet.  Synchronous cursors only ever return resolved
// futures.
type Future[T any] struct {
	mu    sync.Mutex
	done  chan struct{}
	ready bool
	value T
	err   error
}

func NewFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Ready returns a future already resolved with `v`.
func Ready[T any](v T) *Future[T] {
	f := NewFuture[T]()
	f.Resolve(v)
	return f
}

// Failed returns a future already rejected with `err`.
func Failed[T any](err error) *Future[T] {
	f := NewFuture[T]()
	f.Reject(err)
	return f
}

func (f *Future[T]) Resolve(v T) {
	f.settle(v, nil)
}

func (f *Future[T]) Reject(err error) {
	var zero T
	f.settle(zero, err)
}

func (f *Future[T]) settle(v T, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ready {
		return
	}
	f.value, f.err, f.ready = v, err, true
	close(f.done)
}

func (f *Future[T]) Pending() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.ready
}

// Value returns the settled value without blocking.
func (f *Future[T]) Value() (T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.ready {
		var zero T
		return zero, ErrPending
	}
	return f.value, f.err
}

// Await blocks until the future settles or `ctx` is done.  The
// settled error is not returned here, only the context's.
func (f *Future[T]) Await(ctx context.Context) error {
	select {
	case <-f.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	if err := f.Await(ctx); err != nil {
		var zero T
		return zero, err
	}
	return f.Value()
}
