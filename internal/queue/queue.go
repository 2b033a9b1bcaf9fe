package queue

import (
	"container/list"
	"context"
	"sync"
)

// Governor bounds how many document jobs run at once. Callers past the
// ceiling wait in strict arrival order; a waiting caller can abandon its spot
// via context, but a job that has been admitted always runs to completion.
type Governor struct {
	mu      sync.Mutex
	ceiling int
	active  int
	waiters *list.List
}

func NewGovernor(ceiling int) *Governor {
	if ceiling < 1 {
		ceiling = 1
	}
	return &Governor{ceiling: ceiling, waiters: list.New()}
}

// Do runs task once a slot is free and returns its error. The context only
// governs the wait for admission.
func (g *Governor) Do(ctx context.Context, task func() error) error {
	if err := g.acquire(ctx); err != nil {
		return err
	}
	defer g.release()
	return task()
}

func (g *Governor) acquire(ctx context.Context) error {
	g.mu.Lock()
	if g.active < g.ceiling && g.waiters.Len() == 0 {
		g.active++
		g.mu.Unlock()
		return nil
	}
	ready := make(chan struct{})
	elem := g.waiters.PushBack(ready)
	g.mu.Unlock()

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		g.mu.Lock()
		select {
		case <-ready:
			// Admitted while cancelling; hand the slot straight back.
			g.releaseLocked()
		default:
			g.waiters.Remove(elem)
		}
		g.mu.Unlock()
		return ctx.Err()
	}
}

func (g *Governor) release() {
	g.mu.Lock()
	g.releaseLocked()
	g.mu.Unlock()
}

func (g *Governor) releaseLocked() {
	g.active--
	if elem := g.waiters.Front(); elem != nil && g.active < g.ceiling {
		g.waiters.Remove(elem)
		g.active++
		close(elem.Value.(chan struct{}))
	}
}

// Stats reports current occupancy for the status endpoint.
func (g *Governor) Stats() (active, waiting, ceiling int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active, g.waiters.Len(), g.ceiling
}
