// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package workpool bounds how many units of blocking work run at once.
//
// One Pool is created per process and shared by the dispatcher (server side)
// and by the API client (client side), so total concurrency stays predictable
// no matter how many handlers or services exist.
package workpool

import (
	"context"
	"errors"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// DefaultSize is used when a non-positive size is requested.
const DefaultSize = 16

var ErrClosed = errors.New("workpool: closed")

type Pool struct {
	sem      *semaphore.Weighted
	size     int64
	inFlight atomic.Int64
	closed   atomic.Bool
}

func New(size int) *Pool {
	if size <= 0 {
		size = DefaultSize
	}
	return &Pool{
		sem:  semaphore.NewWeighted(int64(size)),
		size: int64(size),
	}
}

// Do runs fn on the calling goroutine once a slot is free.
// It returns ctx.Err() if the context ends before a slot is acquired;
// fn is not run in that case.
func (p *Pool) Do(ctx context.Context, fn func()) error {
	if err := p.acquire(ctx); err != nil {
		return err
	}
	defer p.release()
	fn()
	return nil
}

// Go runs fn on a new goroutine once a slot is free. The slot is acquired
// before Go returns, so a nil error means fn will run.
func (p *Pool) Go(ctx context.Context, fn func()) error {
	if err := p.acquire(ctx); err != nil {
		return err
	}
	go func() {
		defer p.release()
		fn()
	}()
	return nil
}

// Wait blocks until every running unit has finished and marks the pool closed.
func (p *Pool) Wait(ctx context.Context) error {
	p.closed.Store(true)
	if err := p.sem.Acquire(ctx, p.size); err != nil {
		return err
	}
	p.sem.Release(p.size)
	return nil
}

func (p *Pool) Size() int { return int(p.size) }

func (p *Pool) InFlight() int { return int(p.inFlight.Load()) }

func (p *Pool) acquire(ctx context.Context) error {
	if p.closed.Load() {
		return ErrClosed
	}
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	p.inFlight.Add(1)
	return nil
}

func (p *Pool) release() {
	p.inFlight.Add(-1)
	p.sem.Release(1)
}
