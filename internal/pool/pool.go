// Package pool recycles per-request and per-connection objects.
package pool

import "sync"

// Pool is a typed sync.Pool. Items handed back with Put are cleaned by the
// optional reset function first, so Get never sees state from a previous
// user.
type Pool[T any] struct {
	pool  sync.Pool
	reset func(T)
}

// New creates a Pool. factory builds a fresh item when the pool is empty;
// reset, if non-nil, runs on every item passed to Put.
func New[T any](factory func() T, reset func(T)) *Pool[T] {
	return &Pool[T]{
		pool: sync.Pool{
			New: func() any { return factory() },
		},
		reset: reset,
	}
}

// Get returns a pooled item or a new one.
func (p *Pool[T]) Get() T {
	return p.pool.Get().(T)
}

// Put cleans x and returns it to the pool.
func (p *Pool[T]) Put(x T) {
	if p.reset != nil {
		p.reset(x)
	}
	p.pool.Put(x)
}
