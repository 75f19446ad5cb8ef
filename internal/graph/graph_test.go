package graph

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wharflab/envy/internal/pkgcfg"
)

func mustIdentity(t *testing.T, raw string) pkgcfg.Identity {
	t.Helper()
	id, err := pkgcfg.ParseIdentity(raw)
	require.NoError(t, err)
	return id
}

func TestBuildResolvesUniqueWeakDependency(t *testing.T) {
	dep := &pkgcfg.Config{Identity: mustIdentity(t, "acme.lib@v2"), Source: pkgcfg.Source{Kind: pkgcfg.SourceLocal, LocalPath: "/tmp/lib"}}
	weak := &pkgcfg.Config{Identity: mustIdentity(t, "acme.lib@*"), Source: pkgcfg.Source{Kind: pkgcfg.SourceWeak}}
	root := &pkgcfg.Config{
		Identity:   mustIdentity(t, "acme.tool@v1"),
		Source:     pkgcfg.Source{Kind: pkgcfg.SourceFetch, FetchFnToken: "f"},
		SourceDeps: []*pkgcfg.Config{dep, weak},
	}

	g, err := Build([]*pkgcfg.Config{root})
	require.NoError(t, err)

	weakNode := g.Nodes[weak.CanonicalKey()]
	require.Len(t, weakNode.Deps, 1)
	require.Equal(t, dep.CanonicalKey(), weakNode.Deps[0].Key)
}

func TestBuildAmbiguousWeakDependency(t *testing.T) {
	dep1 := &pkgcfg.Config{Identity: mustIdentity(t, "acme.lib@v1"), Source: pkgcfg.Source{Kind: pkgcfg.SourceLocal, LocalPath: "/a"}}
	dep2 := &pkgcfg.Config{Identity: mustIdentity(t, "acme.lib@v2"), Source: pkgcfg.Source{Kind: pkgcfg.SourceLocal, LocalPath: "/b"}}
	weak := &pkgcfg.Config{Identity: mustIdentity(t, "acme.lib@*"), Source: pkgcfg.Source{Kind: pkgcfg.SourceWeak}}
	root := &pkgcfg.Config{
		Identity:   mustIdentity(t, "acme.tool@v1"),
		Source:     pkgcfg.Source{Kind: pkgcfg.SourceFetch, FetchFnToken: "f"},
		SourceDeps: []*pkgcfg.Config{dep1, dep2, weak},
	}

	_, err := Build([]*pkgcfg.Config{root})
	require.Error(t, err)
}

func TestBuildUnsatisfiedWeakDependencyWithoutFallback(t *testing.T) {
	weak := &pkgcfg.Config{Identity: mustIdentity(t, "acme.lib@*"), Source: pkgcfg.Source{Kind: pkgcfg.SourceWeak}}
	root := &pkgcfg.Config{
		Identity:   mustIdentity(t, "acme.tool@v1"),
		Source:     pkgcfg.Source{Kind: pkgcfg.SourceFetch, FetchFnToken: "f"},
		SourceDeps: []*pkgcfg.Config{weak},
	}

	_, err := Build([]*pkgcfg.Config{root})
	require.Error(t, err)
}

func TestBuildFallsBackWhenNoCandidate(t *testing.T) {
	fallback := &pkgcfg.Config{Identity: mustIdentity(t, "acme.lib@default"), Source: pkgcfg.Source{Kind: pkgcfg.SourceLocal, LocalPath: "/fallback"}}
	weak := &pkgcfg.Config{Identity: mustIdentity(t, "acme.lib@*"), Source: pkgcfg.Source{Kind: pkgcfg.SourceWeak}, Weak: fallback}
	root := &pkgcfg.Config{
		Identity:   mustIdentity(t, "acme.tool@v1"),
		Source:     pkgcfg.Source{Kind: pkgcfg.SourceFetch, FetchFnToken: "f"},
		SourceDeps: []*pkgcfg.Config{weak},
	}

	g, err := Build([]*pkgcfg.Config{root})
	require.NoError(t, err)
	weakNode := g.Nodes[weak.CanonicalKey()]
	require.Len(t, weakNode.Deps, 1)
	require.Equal(t, fallback.CanonicalKey(), weakNode.Deps[0].Key)
}

func TestExecutorRunsDependencyBeforeDependent(t *testing.T) {
	dep := &pkgcfg.Config{Identity: mustIdentity(t, "acme.lib@v1"), Source: pkgcfg.Source{Kind: pkgcfg.SourceLocal, LocalPath: "/a"}}
	root := &pkgcfg.Config{
		Identity:   mustIdentity(t, "acme.tool@v1"),
		Source:     pkgcfg.Source{Kind: pkgcfg.SourceFetch, FetchFnToken: "f"},
		SourceDeps: []*pkgcfg.Config{dep},
	}
	g, err := Build([]*pkgcfg.Config{root})
	require.NoError(t, err)

	var mu sync.Mutex
	var order []string

	record := func(_ context.Context, n *Node) error {
		mu.Lock()
		order = append(order, n.Key)
		mu.Unlock()
		return nil
	}
	phases := map[pkgcfg.Phase]PhaseFunc{pkgcfg.PhaseCompletion: record}

	e := &Executor{Concurrency: 4, Phases: phases}
	require.NoError(t, e.Run(context.Background(), g))

	require.Len(t, order, 2)
	require.Equal(t, dep.CanonicalKey(), order[0])
	require.Equal(t, root.CanonicalKey(), order[1])
}

func TestExecutorPropagatesPhaseError(t *testing.T) {
	root := &pkgcfg.Config{Identity: mustIdentity(t, "acme.tool@v1"), Source: pkgcfg.Source{Kind: pkgcfg.SourceLocal, LocalPath: "/a"}}
	g, err := Build([]*pkgcfg.Config{root})
	require.NoError(t, err)

	boom := func(_ context.Context, n *Node) error { return assertErr }
	e := &Executor{Phases: map[pkgcfg.Phase]PhaseFunc{pkgcfg.PhaseCheck: boom}}

	err = e.Run(context.Background(), g)
	require.ErrorIs(t, err, assertErr)
}

var assertErr = &testPhaseError{}

type testPhaseError struct{}

func (e *testPhaseError) Error() string { return "boom" }
