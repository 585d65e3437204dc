package limiter

import (
	"sync"
	"testing"
)

func TestLimiter_CapEnforced(t *testing.T) {
	l := New(2)
	if !l.TryAcquire() || !l.TryAcquire() {
		t.Fatalf("expected two permits available")
	}
	if l.TryAcquire() {
		t.Fatalf("expected third acquire to fail")
	}
	l.Release()
	if !l.TryAcquire() {
		t.Fatalf("expected acquire to succeed after release")
	}
}

func TestLimiter_ReleaseClampsToCap(t *testing.T) {
	l := New(1)
	l.Release()
	l.Release()
	if got := l.Available(); got != 1 {
		t.Fatalf("available exceeded cap: %d", got)
	}
	if !l.TryAcquire() {
		t.Fatalf("expected one permit")
	}
	if l.TryAcquire() {
		t.Fatalf("spurious releases must not mint extra permits")
	}
}

// TestLimiter_ConcurrentAcquire hammers the limiter from many goroutines
// and checks that successful acquisitions never exceed the cap.
func TestLimiter_ConcurrentAcquire(t *testing.T) {
	const cap = 50
	const workers = 200
	l := New(cap)

	var wg sync.WaitGroup
	acquired := make(chan struct{}, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.TryAcquire() {
				acquired <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(acquired)

	n := 0
	for range acquired {
		n++
	}
	if n > cap {
		t.Fatalf("acquired %d permits with cap %d", n, cap)
	}
	if l.Available() != int64(cap-n) {
		t.Fatalf("available=%d want %d", l.Available(), cap-n)
	}

	for i := 0; i < n; i++ {
		l.Release()
	}
	if l.Available() != cap {
		t.Fatalf("available=%d after full release, want %d", l.Available(), cap)
	}
}
