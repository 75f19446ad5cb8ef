// Package engine wires the cache, fetcher, archive, depot, and graph
// packages together into the eight-phase pipeline (§4.7.1) the CLI drives:
// recipe_fetch (resolution already done by graph.Build), check (cache
// fast-path), fetch (download or depot hit), stage (extract), build (a
// no-op: no build step is registered, out of scope per §1),
// install (promote stage/ into the entry's install/), deploy and
// completion (publish via the cache's scoped lock).
package engine

import (
	"context"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/wharflab/envy/internal/archive"
	"github.com/wharflab/envy/internal/cache"
	"github.com/wharflab/envy/internal/depot"
	"github.com/wharflab/envy/internal/envyhash"
	"github.com/wharflab/envy/internal/fetch"
	"github.com/wharflab/envy/internal/graph"
	"github.com/wharflab/envy/internal/pkgcfg"
	"github.com/wharflab/envy/internal/progress"
)

// Options configures a Run.
type Options struct {
	Cache       *cache.Cache
	Depot       *depot.Index // nil disables depot lookups
	Concurrency int
	Reporter    progress.Reporter // nil disables progress reporting
	Log         *logrus.Logger
	Platform    string // defaults to runtime.GOOS
	Arch        string // defaults to runtime.GOARCH
}

// Engine holds the per-run state phase functions close over: the ensure
// result for each node (computed once, in check) and the destination
// directories subsequent phases read from.
type Engine struct {
	opts Options

	mu    sync.Mutex
	state map[string]*nodeState
}

type nodeState struct {
	ensure      cache.EnsureResult
	skip        bool // already cached via the fast path; no lock held, nothing to release
	userManaged bool // check verb reported the package already installed on the host
}

// done reports whether n has nothing left to do in fetch/stage/build/
// install/deploy, either because it was already cached or because the
// user-defined check verb marked it user-managed.
func (s *nodeState) done() bool { return s.skip || s.userManaged }

// Run resolves roots into a graph and drives every node through the
// pipeline, returning the resolved graph (useful for callers that want to
// report per-package outcomes) and the first phase error encountered.
func Run(ctx context.Context, roots []*pkgcfg.Config, opts Options) (*graph.Graph, error) {
	if opts.Platform == "" {
		opts.Platform = runtime.GOOS
	}
	if opts.Arch == "" {
		opts.Arch = runtime.GOARCH
	}
	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}

	g, err := graph.Build(roots)
	if err != nil {
		return nil, err
	}

	e := &Engine{opts: opts, state: make(map[string]*nodeState)}
	ex := &graph.Executor{
		Concurrency: opts.Concurrency,
		Phases: map[pkgcfg.Phase]graph.PhaseFunc{
			pkgcfg.PhaseCheck:      e.phaseCheck,
			pkgcfg.PhaseFetch:      e.phaseFetch,
			pkgcfg.PhaseStage:      e.phaseStage,
			pkgcfg.PhaseInstall:    e.phaseInstall,
			pkgcfg.PhaseDeploy:     e.phaseDeploy,
			pkgcfg.PhaseCompletion: e.phaseCompletion,
		},
	}
	return g, ex.Run(ctx, g)
}

func (e *Engine) stateFor(n *graph.Node) *nodeState {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.state[n.Key]
	if !ok {
		s = &nodeState{}
		e.state[n.Key] = s
	}
	return s
}

func (e *Engine) report(unit, phase string, current, total int64, done bool, err error) {
	if e.opts.Reporter == nil {
		return
	}
	e.opts.Reporter.Report(progress.Event{Unit: unit, Phase: phase, Current: current, Total: total, Done: done, Err: err})
}

// phaseCheck ensures a cache entry for n, recording whether it was already
// warm so the remaining phases can short-circuit (§4.5.2's fast/slow
// path, surfaced at the pipeline level instead of just the cache level).
// If n carries a user-defined check verb and the entry isn't already
// cached, the verb runs next; a true result marks the entry user-managed
// (§4.7.1), which also short-circuits the remaining phases but, unlike
// the cache fast path, still has a lock to release in completion.
func (e *Engine) phaseCheck(_ context.Context, n *graph.Node) error {
	st := e.stateFor(n)
	hashPrefix := pkgcfg.HashPrefix(n.Key)

	res, err := e.opts.Cache.EnsurePkg(n.Key, e.opts.Platform, e.opts.Arch, hashPrefix)
	if err != nil {
		return err
	}
	st.ensure = res
	st.skip = res.AlreadyCached

	if !st.skip && n.Config.CheckFn != nil {
		present, err := n.Config.CheckFn()
		if err != nil {
			return err
		}
		if present {
			res.Lock.MarkUserManaged()
			st.userManaged = true
		}
	}

	e.report(n.Key, "check", 0, 0, true, nil)
	return nil
}

// phaseFetch downloads n's source into the entry's fetch/ directory,
// preferring a depot hit (a prebuilt archive) over the declared source
// when one is available (§4.8).
func (e *Engine) phaseFetch(ctx context.Context, n *graph.Node) error {
	st := e.stateFor(n)
	if st.done() {
		return nil
	}

	src := n.Config.Source
	switch src.Kind {
	case pkgcfg.SourceLocal, pkgcfg.SourceWeak, pkgcfg.SourceFetch:
		// Local sources are read in place by stage; weak/fetch-function
		// sources have nothing to transfer at this layer (§1 Out-of-scope:
		// the scripting host that would run a fetch_fn is out of scope).
		return nil
	}

	if e.opts.Depot != nil {
		stem := n.Key + "-" + e.opts.Platform + "-" + e.opts.Arch + "-blake3-" + pkgcfg.HashPrefix(n.Key)
		if url, ok := e.opts.Depot.Lookup(stem); ok {
			return e.fetchOne(ctx, n, st, url, "")
		}
	}

	switch src.Kind {
	case pkgcfg.SourceRemote:
		return e.fetchOne(ctx, n, st, src.URL, src.SHA256)
	case pkgcfg.SourceGit:
		return e.fetchOneGit(ctx, n, st, src.GitURL, src.GitRef)
	}
	return nil
}

func (e *Engine) fetchOne(ctx context.Context, n *graph.Node, st *nodeState, url, sha256Hex string) error {
	dest := filepath.Join(st.ensure.Lock.FetchDir(), "download")
	res, err := fetch.Fetch(ctx, fetch.Request{
		Source:      url,
		Destination: dest,
		Progress: func(p fetch.Progress) bool {
			total := int64(0)
			if p.Total != nil {
				total = *p.Total
			}
			e.report(n.Key, "fetch", p.Transferred, total, false, nil)
			return true
		},
	})
	if err != nil {
		return err
	}
	if sha256Hex != "" {
		actual, err := envyhash.SHA256File(res.Destination)
		if err != nil {
			return err
		}
		if err := envyhash.VerifySHA256(sha256Hex, actual); err != nil {
			return err
		}
	}
	e.report(n.Key, "fetch", res.BytesWritten, res.BytesWritten, true, nil)
	return nil
}

func (e *Engine) fetchOneGit(ctx context.Context, n *graph.Node, st *nodeState, url, ref string) error {
	dest := filepath.Join(st.ensure.Lock.FetchDir(), "repo")
	_, err := fetch.Fetch(ctx, fetch.Request{Source: url, Destination: dest, GitRef: ref})
	if err != nil {
		return err
	}
	e.report(n.Key, "fetch", 0, 0, true, nil)
	return nil
}

// phaseStage extracts (or copies, for local sources) the fetched artifact
// into the entry's stage/ directory (§4.4).
func (e *Engine) phaseStage(_ context.Context, n *graph.Node) error {
	st := e.stateFor(n)
	if st.done() {
		return nil
	}

	src := n.Config.Source
	switch src.Kind {
	case pkgcfg.SourceLocal:
		if err := copyTree(src.LocalPath, st.ensure.Lock.StageDir(), src.ExcludeGlobs...); err != nil {
			return err
		}
		e.report(n.Key, "stage", 0, 0, true, nil)
		return nil
	case pkgcfg.SourceGit:
		if err := copyTree(st.ensure.Lock.FetchDir(), st.ensure.Lock.StageDir()); err != nil {
			return err
		}
		e.report(n.Key, "stage", 0, 0, true, nil)
		return nil
	case pkgcfg.SourceWeak, pkgcfg.SourceFetch:
		e.report(n.Key, "stage", 0, 0, true, nil)
		return nil
	}

	fetchDir := st.ensure.Lock.FetchDir()
	f, err := openFetchedArchive(fetchDir)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = archive.Extract(f, st.ensure.Lock.StageDir(), func(archive.Progress) bool { return true })
	if err != nil {
		return err
	}
	e.report(n.Key, "stage", 0, 0, true, nil)
	return nil
}

// phaseInstall promotes stage/ content into install/ (§4.5.3's protocol
// expects install/ to hold the final tree before Release publishes it).
func (e *Engine) phaseInstall(_ context.Context, n *graph.Node) error {
	st := e.stateFor(n)
	if st.done() {
		return nil
	}
	if err := copyTree(st.ensure.Lock.StageDir(), st.ensure.Lock.InstallDir()); err != nil {
		return err
	}
	e.report(n.Key, "install", 0, 0, true, nil)
	return nil
}

// phaseDeploy marks the install complete; the re-exec/self-deploy path
// named in §1's Out-of-scope list is not implemented here — only the
// contract point (publish) is.
func (e *Engine) phaseDeploy(_ context.Context, n *graph.Node) error {
	st := e.stateFor(n)
	if st.done() {
		return nil
	}
	st.ensure.Lock.MarkInstallComplete()
	e.report(n.Key, "deploy", 0, 0, true, nil)
	return nil
}

// phaseCompletion releases the scoped lock, running the publish-or-cleanup
// protocol (§4.5.3), and records n's outcome (§3.5): cache-managed with
// its published pkg/ path, or user-managed (the check verb found it
// already installed, so Release tears the whole entry back down and
// there is no pkg_path of envy's own to report).
func (e *Engine) phaseCompletion(_ context.Context, n *graph.Node) error {
	st := e.stateFor(n)
	if st.skip {
		n.Type = cache.EntryCacheManaged
		n.PkgPath = st.ensure.PkgPath
		return nil
	}
	if err := st.ensure.Lock.Release(); err != nil {
		return err
	}
	if st.userManaged {
		n.Type = cache.EntryUserManaged
	} else {
		n.Type = cache.EntryCacheManaged
		n.PkgPath = st.ensure.PkgPath
	}
	e.report(n.Key, "completion", 0, 0, true, nil)
	return nil
}
