//go:build !windows

package platform

import (
	"os"

	"golang.org/x/sys/unix"
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

func lockExclusive(lf lockFile) error {
	return unix.Flock(int(lf.f.Fd()), unix.LOCK_EX)
}

// lockExclusiveNonBlocking returns ErrLocked (in place of EWOULDBLOCK)
// instead of blocking when the lock is already held.
func lockExclusiveNonBlocking(lf lockFile) error {
	err := unix.Flock(int(lf.f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	if err == unix.EWOULDBLOCK {
		return ErrLocked
	}
	return err
}

func unlockFile(lf lockFile) error {
	return unix.Flock(int(lf.f.Fd()), unix.LOCK_UN)
}

func closeLockFile(lf lockFile) error {
	return lf.f.Close()
}

func removeLockFileBestEffort(path string) error {
	return os.Remove(path)
}
