// Package workpool bounds the number of concurrent specialist calls across
// all requests.
package workpool

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Pool limits concurrent work using a weighted semaphore. Every specialist
// call across the orchestrator and the dispatch queue workers goes through
// one shared Pool.
type Pool struct {
	sem   *semaphore.Weighted
	limit int
}

// New creates a Pool that allows at most limit concurrent calls.
func New(limit int) *Pool {
	if limit < 1 {
		limit = 1
	}
	return &Pool{sem: semaphore.NewWeighted(int64(limit)), limit: limit}
}

// Run acquires a slot, runs fn, and releases the slot. It returns ctx.Err()
// if ctx is done while waiting. A nil Pool runs fn directly.
func (p *Pool) Run(ctx context.Context, fn func() error) error {
	if p == nil || p.sem == nil {
		return fn()
	}
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer p.sem.Release(1)
	return fn()
}

// Limit returns the configured concurrency limit.
func (p *Pool) Limit() int {
	if p == nil {
		return 0
	}
	return p.limit
}
