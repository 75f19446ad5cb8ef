package graph

import (
	"sort"

	"github.com/wharflab/envy/internal/envyerr"
	"github.com/wharflab/envy/internal/pkgcfg"
)

// Build walks the configuration tree reachable from roots (via
// Config.SourceDeps), resolving every weak/reference-only dependency to a
// concrete candidate by running the discovery-and-match loop to a fixpoint
// (§4.7.2):
//
//  1. Every plain (non-weak) config discovered so far is a candidate for
//     any weak placeholder whose identity namespace+name matches it,
//     regardless of revision.
//  2. A weak placeholder with exactly one matching candidate resolves to
//     it.
//  3. A weak placeholder with more than one candidate of distinct
//     canonical keys is an AmbiguityError — picking one silently would
//     make the build non-reproducible.
//  4. If a round makes no progress and unresolved placeholders remain,
//     each falls back to its own Weak config (if any); a placeholder with
//     no fallback and no match is an UnsatisfiedError.
func Build(roots []*pkgcfg.Config) (*Graph, error) {
	g := newGraph()

	var weakNodes []*Node
	var discover func(cfg *pkgcfg.Config) *Node
	discover = func(cfg *pkgcfg.Config) *Node {
		if existing, ok := g.Nodes[cfg.CanonicalKey()]; ok {
			return existing
		}
		n := g.getOrCreate(cfg)
		if cfg.Source.Kind == pkgcfg.SourceWeak {
			weakNodes = append(weakNodes, n)
		}
		for _, dep := range cfg.SourceDeps {
			depNode := discover(dep)
			n.Deps = append(n.Deps, depNode)
		}
		return n
	}

	for _, cfg := range roots {
		g.Roots = append(g.Roots, discover(cfg))
	}

	resolved := make(map[string]bool)
	for {
		progressed := false

		for _, wn := range weakNodes {
			if resolved[wn.Key] {
				continue
			}
			candidates := matchCandidates(g, wn)
			switch len(candidates) {
			case 0:
				// try again next round; a sibling weak node might
				// resolve to its fallback first and introduce a match
			case 1:
				resolveWeak(g, wn, candidates[0])
				resolved[wn.Key] = true
				progressed = true
			default:
				return nil, &envyerr.AmbiguityError{
					Identity:   wn.Config.Identity.Prefix(),
					Candidates: candidateKeys(candidates),
				}
			}
		}

		if progressed {
			continue
		}

		// No progress this round: fall back every still-unresolved weak
		// node to its declared fallback, if any. Reference-only nodes are
		// matched again next round against whatever the fallbacks added.
		anyFallback := false
		for _, wn := range weakNodes {
			if resolved[wn.Key] || wn.Config.Weak == nil {
				continue
			}
			fallback := discover(wn.Config.Weak)
			resolveWeak(g, wn, fallback)
			resolved[wn.Key] = true
			anyFallback = true
		}
		if !anyFallback {
			for _, wn := range weakNodes {
				if !resolved[wn.Key] {
					return nil, &envyerr.UnsatisfiedError{Identity: wn.Config.Identity.Prefix()}
				}
			}
			break
		}
	}

	return g, nil
}

// matchCandidates returns every discovered non-weak node whose identity
// shares the weak placeholder's namespace+name, deduplicated by canonical
// key.
func matchCandidates(g *Graph, wn *Node) []*Node {
	prefix := wn.Config.Identity.Prefix()
	seen := make(map[string]*Node)
	for key, n := range g.Nodes {
		if n == wn || n.Config.Source.Kind == pkgcfg.SourceWeak {
			continue
		}
		if n.Config.Identity.Prefix() == prefix {
			seen[key] = n
		}
	}
	out := make([]*Node, 0, len(seen))
	for _, n := range seen {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func candidateKeys(nodes []*Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Key
	}
	return out
}

// resolveWeak replaces wn's dependency edges with a single edge to target,
// so the executor treats the weak placeholder as transparently aliasing
// its resolution.
func resolveWeak(g *Graph, wn, target *Node) {
	wn.Deps = []*Node{target}
}
