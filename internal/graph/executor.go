package graph

import (
	"context"
	"sync"

	"github.com/wharflab/envy/internal/pkgcfg"
)

// PhaseFunc performs one phase of work for a single node. It may be called
// concurrently for independent nodes but never twice for the same node and
// phase.
type PhaseFunc func(ctx context.Context, n *Node) error

// Executor runs every node in a Graph through the eight-phase pipeline,
// respecting dependency order: a node only enters a phase once all of its
// dependencies have completed every phase. Concurrency is bounded the same
// way the teacher's async.Runtime bounded resolver fan-out — a semaphore
// channel plus a WaitGroup — except the unit of work here is "a node's
// full phase sequence", not a single resolver call.
type Executor struct {
	Concurrency int // default 4
	Phases      map[pkgcfg.Phase]PhaseFunc
}

// Run drives every node in g to completion. The first node-level error
// observed is returned; sibling goroutines already in flight are allowed
// to finish, but no further nodes are started once ctx is cancelled.
func (e *Executor) Run(ctx context.Context, g *Graph) error {
	concurrency := e.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	sem := make(chan struct{}, concurrency)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
		started  = make(map[string]*sync.Once)
		done     = make(map[string]chan struct{})
	)
	for key := range g.Nodes {
		started[key] = &sync.Once{}
		done[key] = make(chan struct{})
	}

	var run func(n *Node)
	run = func(n *Node) {
		started[n.Key].Do(func() {
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer close(done[n.Key])

				for _, dep := range n.Deps {
					run(dep)
				}
				for _, dep := range n.Deps {
					select {
					case <-done[dep.Key]:
					case <-ctx.Done():
						return
					}
					if err := dep.getErr(); err != nil {
						n.setErr(err)
						return
					}
				}

				select {
				case sem <- struct{}{}:
					defer func() { <-sem }()
				case <-ctx.Done():
					return
				}

				for _, phase := range pkgcfg.Phases {
					if n.phaseComplete(phase) {
						continue
					}
					fn := e.Phases[phase]
					if fn == nil {
						n.markPhase(phase)
						continue
					}
					if err := fn(ctx, n); err != nil {
						n.setErr(err)
						mu.Lock()
						if firstErr == nil {
							firstErr = err
						}
						mu.Unlock()
						cancel()
						return
					}
					n.markPhase(phase)
				}
			}()
		})
	}

	for _, root := range g.Roots {
		run(root)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	return firstErr
}
