//go:build windows

package platform

import (
	"os"

	"golang.org/x/sys/windows"
)

type lockFile struct {
	f *os.File
}

func openLockFile(path string) (lockFile, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return lockFile{}, err
	}
	return lockFile{f: f}, nil
}

// lockExclusive uses LockFileEx with an all-bytes range so that concurrent
// envy processes (not just threads) serialize on this file, same semantics
// as the POSIX flock() path.
func lockExclusive(lf lockFile) error {
	ol := new(windows.Overlapped)
	return windows.LockFileEx(
		windows.Handle(lf.f.Fd()),
		windows.LOCKFILE_EXCLUSIVE_LOCK,
		0,
		^uint32(0),
		^uint32(0),
		ol,
	)
}

// lockExclusiveNonBlocking adds LOCKFILE_FAIL_IMMEDIATELY so a held lock
// returns ErrLocked instead of waiting.
func lockExclusiveNonBlocking(lf lockFile) error {
	ol := new(windows.Overlapped)
	err := windows.LockFileEx(
		windows.Handle(lf.f.Fd()),
		windows.LOCKFILE_EXCLUSIVE_LOCK|windows.LOCKFILE_FAIL_IMMEDIATELY,
		0,
		^uint32(0),
		^uint32(0),
		ol,
	)
	if err == windows.ERROR_LOCK_VIOLATION {
		return ErrLocked
	}
	return err
}

func unlockFile(lf lockFile) error {
	ol := new(windows.Overlapped)
	return windows.UnlockFileEx(windows.Handle(lf.f.Fd()), 0, ^uint32(0), ^uint32(0), ol)
}

func closeLockFile(lf lockFile) error {
	return lf.f.Close()
}

func removeLockFileBestEffort(path string) error {
	return os.Remove(path)
}
