// Package workpool provides a bounded goroutine pool for recursive fan-out.
//
// Work submitted while every worker is busy runs inline on the submitting
// goroutine instead of queueing. A recursive traversal therefore cannot
// deadlock waiting for workers held by its own ancestors.
package workpool

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
)

// DefaultSize is used when a non-positive size is requested.
var DefaultSize = runtime.NumCPU() * 2

// Pool bounds the number of concurrently running tasks across every Group
// created from it. Safe for concurrent use.
type Pool struct {
	pool *ants.Pool
}

// New creates a pool with at most size workers.
func New(size int) (*Pool, error) {
	if size < 1 {
		size = DefaultSize
	}
	pool, err := ants.NewPool(size, ants.WithNonblocking(true))
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	return &Pool{pool: pool}, nil
}

// Size returns the worker capacity.
func (p *Pool) Size() int {
	return p.pool.Cap()
}

// Running returns the number of busy workers.
func (p *Pool) Running() int {
	return p.pool.Running()
}

// Release stops the workers. Groups created afterwards run every task inline.
func (p *Pool) Release() {
	p.pool.Release()
}

// Group tracks a set of related tasks. The first task error cancels the
// group's context and is returned by Wait.
type Group struct {
	pool   *Pool
	wg     sync.WaitGroup
	cancel context.CancelFunc

	errOnce sync.Once
	err     error
}

// NewGroup creates a group whose tasks observe the returned context.
func (p *Pool) NewGroup(ctx context.Context) (*Group, context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	return &Group{pool: p, cancel: cancel}, ctx
}

// Go runs fn on a pool worker, or inline when none is free.
func (g *Group) Go(fn func() error) {
	g.wg.Add(1)
	task := func() {
		defer g.wg.Done()
		if err := safeCall(fn); err != nil {
			g.fail(err)
		}
	}

	if err := g.pool.pool.Submit(task); err != nil {
		if !errors.Is(err, ants.ErrPoolOverload) && !errors.Is(err, ants.ErrPoolClosed) {
			g.wg.Done()
			g.fail(fmt.Errorf("submit task: %w", err))
			return
		}
		task()
	}
}

// Wait blocks until every task, including tasks spawned by tasks, finished.
func (g *Group) Wait() error {
	g.wg.Wait()
	g.cancel()
	return g.err
}

func (g *Group) fail(err error) {
	g.errOnce.Do(func() {
		g.err = err
		g.cancel()
	})
}

func safeCall(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return fn()
}
