// Package graph builds the dependency graph from a tree of pkg_cfg
// configurations and drives it through the eight-phase pipeline (§4.7).
// The executor generalizes the teacher's internal/async.Runtime: the same
// semaphore-bounded goroutine fan-out and WaitGroup-joined result
// collection, but a node's unit of work is "run every remaining phase for
// this package" rather than "resolve one registry lookup".
package graph

import (
	"sync"

	"github.com/wharflab/envy/internal/cache"
	"github.com/wharflab/envy/internal/pkgcfg"
)

// Node is one package instance in the resolved graph, keyed by canonical
// key so two configs that serialize identically collapse to one node
// (§3.1, §4.7.3).
type Node struct {
	Config *pkgcfg.Config
	Key    string
	Deps   []*Node // resolved source dependencies (a weak node: its resolution), build order

	// Type and PkgPath record this node's outcome (§3.5): whether it ended
	// up cache-managed or user-managed, and its resolved install path.
	// Both are zero until the completion phase runs.
	Type    cache.EntryType
	PkgPath string

	mu        sync.Mutex
	phaseDone map[pkgcfg.Phase]bool
	err       error
}

func newNode(cfg *pkgcfg.Config) *Node {
	return &Node{
		Config:    cfg,
		Key:       cfg.CanonicalKey(),
		phaseDone: make(map[pkgcfg.Phase]bool),
	}
}

func (n *Node) markPhase(p pkgcfg.Phase) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.phaseDone[p] = true
}

func (n *Node) phaseComplete(p pkgcfg.Phase) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.phaseDone[p]
}

func (n *Node) setErr(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err == nil {
		n.err = err
	}
}

func (n *Node) getErr() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.err
}

// Graph is the fully resolved node set reachable from a set of roots, after
// weak-dependency fixpoint resolution (§4.7.2).
type Graph struct {
	Roots []*Node
	Nodes map[string]*Node // canonical key -> node
}

func newGraph() *Graph {
	return &Graph{Nodes: make(map[string]*Node)}
}

func (g *Graph) getOrCreate(cfg *pkgcfg.Config) *Node {
	key := cfg.CanonicalKey()
	if n, ok := g.Nodes[key]; ok {
		return n
	}
	n := newNode(cfg)
	g.Nodes[key] = n
	return n
}
