package gen

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppLocksMutualExclusion(t *testing.T) {
	l := newAppLocks()

	unlock := l.acquire("app1")

	entered := make(chan struct{})
	go func() {
		u := l.acquire("app1")
		close(entered)
		u()
	}()

	select {
	case <-entered:
		t.Fatal("second acquire got the lock while it was held")
	case <-time.After(50 * time.Millisecond):
	}

	unlock()

	select {
	case <-entered:
	case <-time.After(time.Second):
		t.Fatal("second acquire never got the lock")
	}
}

func TestAppLocksEvictWhenReleased(t *testing.T) {
	l := newAppLocks()

	u1 := l.acquire("app1")
	u2 := l.acquire("app2")
	u2()
	u1()

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.Empty(t, l.locks)
}

func TestAppLocksKeepEntryWhileWaiterQueued(t *testing.T) {
	l := newAppLocks()

	u1 := l.acquire("app1")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		u2 := l.acquire("app1")
		u2()
	}()

	// ждём, пока второй захват встанет в очередь
	require.Eventually(t, func() bool {
		l.mu.Lock()
		defer l.mu.Unlock()
		e, ok := l.locks["app1"]
		return ok && e.refs == 2
	}, time.Second, 5*time.Millisecond)

	u1()
	wg.Wait()

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.Empty(t, l.locks)
}

func TestAppLocksIndependentApps(t *testing.T) {
	l := newAppLocks()

	u1 := l.acquire("app1")
	defer u1()

	done := make(chan struct{})
	go func() {
		u := l.acquire("app2")
		u()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on one application blocked another")
	}
}
