package platform

import (
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFileLockExclusive(t *testing.T) {
	dir := t.TempDir()
	lockPath := filepath.Join(dir, "entry.lock")

	var counter int32
	var wg sync.WaitGroup
	const n = 8
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			l, err := NewFileLock(lockPath)
			require.NoError(t, err)
			require.NoError(t, l.Lock())
			defer l.Unlock()

			// Critical section: increment, sleep, verify nobody else bumped
			// the counter concurrently.
			got := atomic.AddInt32(&counter, 1)
			time.Sleep(time.Millisecond)
			require.Equal(t, got, atomic.LoadInt32(&counter))
			atomic.AddInt32(&counter, -1)
		}()
	}
	wg.Wait()
}

func TestFileLockExcludesSecondInstance(t *testing.T) {
	dir := t.TempDir()
	lockPath := filepath.Join(dir, "entry.lock")

	l1, err := NewFileLock(lockPath)
	require.NoError(t, err)
	require.NoError(t, l1.Lock())

	acquired := make(chan struct{})
	go func() {
		l2, err := NewFileLock(lockPath)
		require.NoError(t, err)
		require.NoError(t, l2.Lock())
		close(acquired)
		l2.Unlock()
	}()

	select {
	case <-acquired:
		t.Fatal("second lock acquired while first still held")
	case <-time.After(50 * time.Millisecond):
	}

	l1.Unlock()
	<-acquired
}
