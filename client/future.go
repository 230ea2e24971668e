// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package client

import (
	"context"
	"fmt"
)

// Future is the pending result of an asynchronous call. It resolves exactly
// once, with either a value or an error.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Go issues the call on the client's worker pool and returns immediately.
func Go[T any](ctx context.Context, c *Client, method, path string, body any) *Future[T] {
	return async(ctx, c, func(ctx context.Context) (T, error) {
		return call[T](ctx, c, method, path, body)
	})
}

func async[T any](ctx context.Context, c *Client, fn func(context.Context) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		err := c.pool.Do(ctx, func() { f.val, f.err = fn(ctx) })
		if err != nil {
			f.err = &Error{Kind: KindNetwork, Msg: fmt.Sprintf("call not started: %v", err), Err: err}
		}
	}()
	return f
}

// Resolved returns a future that is already complete.
func Resolved[T any](val T, err error) *Future[T] {
	f := &Future[T]{done: make(chan struct{}), val: val, err: err}
	close(f.done)
	return f
}

func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Await blocks until the future resolves or ctx ends. Ending ctx does not
// cancel the call itself.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Then runs fn on its own goroutine once the future resolves.
func (f *Future[T]) Then(fn func(T, error)) {
	f.ThenOn(func(run func()) { run() }, fn)
}

// ThenOn hands the completion to exec, which decides where fn runs.
// Use it to marshal results onto a single UI goroutine.
func (f *Future[T]) ThenOn(exec func(func()), fn func(T, error)) {
	go func() {
		<-f.done
		exec(func() { fn(f.val, f.err) })
	}()
}
