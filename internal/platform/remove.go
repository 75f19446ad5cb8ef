package platform

import (
	"os"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/wharflab/envy/internal/envyerr"
)

// windowsRemoveRetrySchedule is the exact delay sequence mandated for
// Windows sharing-violation / lock-violation / access-denied retries.
var windowsRemoveRetrySchedule = []time.Duration{
	50 * time.Millisecond,
	100 * time.Millisecond,
	200 * time.Millisecond,
	400 * time.Millisecond,
	800 * time.Millisecond,
	1600 * time.Millisecond,
}

// fixedSchedule replays an explicit delay sequence and then reports Stop,
// implementing backoff.BackOff without reaching for the library's
// exponential curve (which is the wrong shape for a bounded retry count).
type fixedSchedule struct {
	delays []time.Duration
	i      int
}

func (s *fixedSchedule) NextBackOff() time.Duration {
	if s.i >= len(s.delays) {
		return backoff.Stop
	}
	d := s.delays[s.i]
	s.i++
	return d
}

func (s *fixedSchedule) Reset() {
	s.i = 0
}

// RemoveAllWithRetry recursively deletes path. On POSIX a single unlink
// pass is sufficient. On Windows, antivirus and indexer services routinely
// hold transient handles on freshly written files, so sharing-violation,
// lock-violation, and access-denied errors are retried on the fixed
// schedule above before giving up.
func RemoveAllWithRetry(path string) error {
	if !isTransientRemoveErrPossible() {
		if err := os.RemoveAll(path); err != nil {
			return &envyerr.IOError{Op: "remove_all", Path: path, Err: err}
		}
		return nil
	}

	sched := &fixedSchedule{delays: windowsRemoveRetrySchedule}
	var lastErr error
	for {
		err := os.RemoveAll(path)
		if err == nil {
			return nil
		}
		if !isTransientRemoveErr(err) {
			return &envyerr.IOError{Op: "remove_all", Path: path, Err: err}
		}
		lastErr = err
		d := sched.NextBackOff()
		if d == backoff.Stop {
			break
		}
		time.Sleep(d)
	}
	return &envyerr.IOError{Op: "remove_all", Path: path, Err: lastErr}
}
