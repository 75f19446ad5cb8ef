package cache

import (
	"sync"

	"github.com/wharflab/envy/internal/envyerr"
	"github.com/wharflab/envy/internal/platform"
)

// EntryType classifies how a package ended up in this process's result
// set, mirroring §3.5's node classification.
type EntryType string

const (
	EntryCacheManaged EntryType = "cache-managed"
	EntryUserManaged  EntryType = "user-managed"
	EntryUnknown      EntryType = "unknown"
)

// ScopedLock owns the OS lock for one cache entry and executes the
// publish-or-cleanup protocol when Release is called (§4.5.3). It is
// obtained only on the slow path of EnsurePkg — the fast path never
// constructs one.
type ScopedLock struct {
	entry Entry
	lock  *platform.FileLock

	mu                sync.Mutex
	installComplete   bool
	userManaged       bool
	preserveFetch     bool
	released          bool
}

func newScopedLock(entry Entry, lock *platform.FileLock) *ScopedLock {
	return &ScopedLock{entry: entry, lock: lock}
}

// InstallDir, StageDir, WorkDir, FetchDir expose the entry's working
// subdirectories to phase bodies (§4.5.3).
func (s *ScopedLock) InstallDir() string { return s.entry.Install() }
func (s *ScopedLock) StageDir() string   { return s.entry.Stage() }
func (s *ScopedLock) WorkDir() string    { return s.entry.Work() }
func (s *ScopedLock) FetchDir() string   { return s.entry.Fetch() }

// MarkInstallComplete records that install succeeded and pkg/ should be
// published on Release.
func (s *ScopedLock) MarkInstallComplete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.installComplete = true
}

// MarkUserManaged records that the check verb reported the package already
// installed on the host; Release will remove the whole entry directory.
func (s *ScopedLock) MarkUserManaged() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userManaged = true
}

// MarkPreserveFetch keeps fetch/ on disk after a successful publish
// (export-style packages that want their originals around).
func (s *ScopedLock) MarkPreserveFetch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.preserveFetch = true
}

// Release executes the publish-or-cleanup protocol described in §4.5.3 and
// then drops the OS lock. It is idempotent: calling it twice is a no-op
// the second time.
func (s *ScopedLock) Release() error {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return nil
	}
	s.released = true
	installComplete := s.installComplete
	userManaged := s.userManaged
	preserveFetch := s.preserveFetch
	s.mu.Unlock()

	defer func() {
		s.lock.Unlock()
		_ = s.lock.Close()
	}()

	switch {
	case installComplete:
		return s.publish(preserveFetch)
	case userManaged:
		return platform.RemoveAllWithRetry(s.entry.Dir)
	default:
		return s.cleanupFailure()
	}
}

// publish performs step-by-step the atomic-rename publish protocol
// (§4.5.3 bullet 1).
func (s *ScopedLock) publish(preserveFetch bool) error {
	if platform.FileExists(s.entry.Pkg()) {
		if err := platform.RemoveAllWithRetry(s.entry.Pkg()); err != nil {
			return err
		}
	}
	if err := platform.AtomicRename(s.entry.Install(), s.entry.Pkg()); err != nil {
		return err
	}
	if err := platform.RemoveAllWithRetry(s.entry.Work()); err != nil {
		return err
	}
	if !preserveFetch {
		if err := platform.RemoveAllWithRetry(s.entry.Fetch()); err != nil {
			return err
		}
	}
	if err := platform.TouchFile(s.entry.Complete()); err != nil {
		return err
	}
	return nil
}

// cleanupFailure performs the failure path described in §4.5.3's last
// bullet: always remove install/ and work/; additionally remove fetch/
// (and any pkg/ residue) only if both install/ and fetch/ were empty,
// so a retry can otherwise reuse partial downloads.
func (s *ScopedLock) cleanupFailure() error {
	installHadContents, err := dirHasContents(s.entry.Install())
	if err != nil {
		return err
	}
	fetchHadContents, err := dirHasContents(s.entry.Fetch())
	if err != nil {
		return err
	}

	if err := platform.RemoveAllWithRetry(s.entry.Install()); err != nil {
		return err
	}
	if err := platform.RemoveAllWithRetry(s.entry.Work()); err != nil {
		return err
	}

	if !installHadContents && !fetchHadContents {
		if err := platform.RemoveAllWithRetry(s.entry.Fetch()); err != nil {
			return err
		}
		if err := platform.RemoveAllWithRetry(s.entry.Pkg()); err != nil {
			return err
		}
		if err := platform.RemoveAllWithRetry(s.entry.Dir); err != nil {
			return err
		}
	}
	return nil
}

func dirHasContents(dir string) (bool, error) {
	entries, err := readDirNames(dir)
	if err != nil {
		return false, &envyerr.IOError{Op: "readdir", Path: dir, Err: err}
	}
	return len(entries) > 0, nil
}
