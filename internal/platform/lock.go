// Package platform provides the cross-process filesystem primitives the
// cache and graph engine build on: advisory file locks, atomic rename,
// visibility-safe touch/exists, retrying recursive delete, path expansion,
// and cache-root/env discovery. Every primitive here must behave the same
// on POSIX and Windows even though the underlying syscalls differ — the
// platform-specific half of each operation lives in a _unix.go/_windows.go
// sibling file.
package platform

import (
	"errors"
	"path/filepath"
	"sync"

	"github.com/wharflab/envy/internal/envyerr"
)

// ErrLocked is returned by TryLock when another process or goroutine
// already holds the lock.
var ErrLocked = errors.New("platform: lock is held")

// processLocks is the in-process layer on top of the OS advisory lock.
// POSIX file locks are per-process: two threads in the same process can
// both successfully flock() the same file. Without this map, two goroutines
// racing to acquire the same cache entry lock would both believe they hold
// it exclusively.
var (
	processLocksMu sync.Mutex
	processLocks   = make(map[string]*sync.Mutex)
)

func processMutexFor(absPath string) *sync.Mutex {
	processLocksMu.Lock()
	defer processLocksMu.Unlock()
	m, ok := processLocks[absPath]
	if !ok {
		m = &sync.Mutex{}
		processLocks[absPath] = m
	}
	return m
}

// FileLock is an exclusive whole-file advisory lock, safe across both OS
// processes and goroutines within one process.
type FileLock struct {
	path     string
	absPath  string
	file     lockFile
	procLock *sync.Mutex
	held     bool
}

// NewFileLock opens (creating if necessary) the lock file at path, without
// acquiring it yet.
func NewFileLock(path string) (*FileLock, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &envyerr.IOError{Op: "abs", Path: path, Err: err}
	}
	abs = filepath.Clean(abs)
	if err := mkdirParent(abs); err != nil {
		return nil, err
	}
	f, err := openLockFile(abs)
	if err != nil {
		return nil, &envyerr.IOError{Op: "open", Path: abs, Err: err}
	}
	return &FileLock{path: path, absPath: abs, file: f, procLock: processMutexFor(abs)}, nil
}

// Lock blocks until the exclusive lock is held, both the in-process mutex
// and the OS-level advisory lock.
func (l *FileLock) Lock() error {
	l.procLock.Lock()
	if err := lockExclusive(l.file); err != nil {
		l.procLock.Unlock()
		return &envyerr.IOError{Op: "flock", Path: l.absPath, Err: err}
	}
	l.held = true
	return nil
}

// TryLock attempts to acquire the lock without blocking, returning
// ErrLocked if it is already held (by this process or another). Used by
// the cache's GC pass to skip entries a live process is still working on
// instead of waiting behind them.
func (l *FileLock) TryLock() error {
	if !l.procLock.TryLock() {
		return ErrLocked
	}
	if err := lockExclusiveNonBlocking(l.file); err != nil {
		l.procLock.Unlock()
		if errors.Is(err, ErrLocked) {
			return ErrLocked
		}
		return &envyerr.IOError{Op: "flock", Path: l.absPath, Err: err}
	}
	l.held = true
	return nil
}

// Unlock releases the OS lock and the in-process mutex, then best-effort
// removes the lock file. Never required for correctness: a missing lock
// file is treated as "unlocked" by the next acquirer.
func (l *FileLock) Unlock() {
	if !l.held {
		return
	}
	_ = unlockFile(l.file)
	l.held = false
	l.procLock.Unlock()
	_ = removeLockFileBestEffort(l.absPath)
}

// Close releases the underlying OS file handle without touching the lock
// state. Safe to call after Unlock.
func (l *FileLock) Close() error {
	return closeLockFile(l.file)
}
