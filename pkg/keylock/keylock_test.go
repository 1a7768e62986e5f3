package keylock

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_SameKeySameMutex(t *testing.T) {
	t.Parallel()

	r := NewRegistry()

	a := r.Get("player-a")
	b := r.Get("player-a")
	c := r.Get("player-b")

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, 2, r.Len())
}

func TestForget_UnknownKeyIsNoop(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Get("x")

	r.Forget("never-seen")
	r.Forget("x")

	assert.Equal(t, 0, r.Len())
}

func TestGet_ConcurrentCreateSingleMutex(t *testing.T) {
	t.Parallel()

	r := NewRegistry()

	const workers = 32

	results := make([]*sync.Mutex, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		i := i
		wg.Add(1)

		go func() {
			defer wg.Done()
			results[i] = r.Get("shared")
		}()
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		require.Same(t, results[0], results[i])
	}
}

// Opposite caller order must not deadlock: LockAll sorts internally.
func TestLockAll_OppositeOrdersNoDeadlock(t *testing.T) {
	t.Parallel()

	r := NewRegistry()

	const rounds = 200

	done := make(chan struct{})

	go func() {
		var wg sync.WaitGroup
		wg.Add(2)

		go func() {
			defer wg.Done()
			for rn := 0; rn < rounds; rn++ {
				release := r.LockAll("a", "b")
				release()
			}
		}()

		go func() {
			defer wg.Done()
			for rn := 0; rn < rounds; rn++ {
				release := r.LockAll("b", "a")
				release()
			}
		}()

		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("LockAll with opposite key orders deadlocked")
	}
}

func TestLockAll_DuplicateKeysLockedOnce(t *testing.T) {
	t.Parallel()

	r := NewRegistry()

	release := r.LockAll("dup", "dup")
	release()

	// A second pass must succeed; a double-lock above would have hung.
	release = r.LockAll("dup")
	release()
}

func TestLockAll_MutualExclusionAcrossPairs(t *testing.T) {
	t.Parallel()

	r := NewRegistry()

	var (
		counter int
		wg      sync.WaitGroup
	)

	const workers = 16

	for i := 0; i < workers; i++ {
		i := i
		wg.Add(1)

		go func() {
			defer wg.Done()

			keys := []string{"x", "y"}
			if i%2 == 1 {
				keys = []string{"y", "x"}
			}

			for n := 0; n < 100; n++ {
				release := r.LockAll(keys...)
				counter++
				release()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, workers*100, counter)
}
