package reactor_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/momentics/hioload-handoff/api"
	"github.com/momentics/hioload-handoff/reactor"
)

// drainOnReady returns a callback that consumes every available unit.
func drainOnReady(s api.ReadinessSignal, taken *int) func() {
	return func() {
		for s.TryAcquire() {
			*taken++
		}
	}
}

func testReactorDispatch(t *testing.T, r api.Reactor) {
	t.Helper()
	s, err := r.NewSignal(0)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	taken := 0
	reg, err := r.Register(s.Pollable(), drainOnReady(s, &taken))
	if err != nil {
		t.Fatal(err)
	}

	if n, err := r.Poll(0); err != nil || n != 0 {
		t.Fatalf("Poll on idle: got (%d, %v), want (0, nil)", n, err)
	}

	s.Release(3)
	if n, err := r.Poll(time.Second); err != nil || n != 1 {
		t.Fatalf("Poll after Release: got (%d, %v), want (1, nil)", n, err)
	}
	if taken != 3 {
		t.Fatalf("units taken: got %d, want 3", taken)
	}

	if err := r.Unregister(reg); err != nil {
		t.Fatal(err)
	}
	s.Release(1)
	if n, _ := r.Poll(10 * time.Millisecond); n != 0 {
		t.Fatalf("Poll after Unregister: got %d callbacks, want 0", n)
	}
	if err := r.Unregister(reg); !errors.Is(err, api.ErrNotFound) {
		t.Fatalf("second Unregister: got %v, want ErrNotFound", err)
	}
}

func testReactorLevelTriggered(t *testing.T, r api.Reactor) {
	t.Helper()
	s, err := r.NewSignal(2)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	calls := 0
	reg, err := r.Register(s.Pollable(), func() {
		calls++
		s.TryAcquire() // take one unit per wakeup
	})
	if err != nil {
		t.Fatal(err)
	}
	defer r.Unregister(reg)

	for i := range 2 {
		if n, err := r.Poll(time.Second); err != nil || n != 1 {
			t.Fatalf("Poll(%d): got (%d, %v), want (1, nil)", i, n, err)
		}
	}
	if n, _ := r.Poll(0); n != 0 {
		t.Fatalf("Poll after drain: got %d, want 0", n)
	}
	if calls != 2 {
		t.Fatalf("calls: got %d, want 2", calls)
	}
}

func TestWatchReactorDispatch(t *testing.T) {
	r := reactor.NewWatch()
	defer r.Close()
	testReactorDispatch(t, r)
}

func TestWatchReactorLevelTriggered(t *testing.T) {
	r := reactor.NewWatch()
	defer r.Close()
	testReactorLevelTriggered(t, r)
}

func TestWatchReactorCrossGoroutineWakeup(t *testing.T) {
	r := reactor.NewWatch()
	defer r.Close()
	s, _ := r.NewSignal(0)

	taken := 0
	if _, err := r.Register(s.Pollable(), drainOnReady(s, &taken)); err != nil {
		t.Fatal(err)
	}
	go func() {
		time.Sleep(5 * time.Millisecond)
		s.Release(1)
	}()
	if n, err := r.Poll(-1); err != nil || n != 1 {
		t.Fatalf("blocking Poll: got (%d, %v), want (1, nil)", n, err)
	}
	if taken != 1 {
		t.Fatalf("units taken: got %d, want 1", taken)
	}
}

func TestWatchReactorUnregisterInBatch(t *testing.T) {
	r := reactor.NewWatch()
	defer r.Close()
	a, _ := r.NewSignal(1)
	b, _ := r.NewSignal(1)

	var regB api.Registration
	calledB := false
	if _, err := r.Register(a.Pollable(), func() {
		a.TryAcquire()
		r.Unregister(regB)
	}); err != nil {
		t.Fatal(err)
	}
	regB, _ = r.Register(b.Pollable(), func() { calledB = true })

	r.Poll(0)
	if calledB {
		t.Fatal("callback of a source unregistered earlier in the batch was dispatched")
	}
}

// TestWatchReactorConcurrentRegister registers and unregisters from many
// goroutines while signals fire, then checks no subscription survives.
func TestWatchReactorConcurrentRegister(t *testing.T) {
	r := reactor.NewWatch()
	defer r.Close()

	const workers = 8
	signals := make([]api.ReadinessSignal, workers)
	for i := range signals {
		s, err := r.NewSignal(0)
		if err != nil {
			t.Fatal(err)
		}
		defer s.Close()
		signals[i] = s
	}

	var wg sync.WaitGroup
	for _, s := range signals {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for range 200 {
				reg, err := r.Register(s.Pollable(), func() {})
				if err != nil {
					t.Errorf("Register: %v", err)
					return
				}
				if err := r.Unregister(reg); err != nil {
					t.Errorf("Unregister: %v", err)
					return
				}
			}
		}()
		go func() {
			defer wg.Done()
			for range 200 {
				s.Release(1)
				s.TryAcquire()
			}
		}()
	}
	wg.Wait()

	for _, s := range signals {
		s.Release(1)
	}
	if n, err := r.Poll(0); err != nil || n != 0 {
		t.Fatalf("Poll after unregistering all: got (%d, %v), want (0, nil)", n, err)
	}
}

func TestWatchReactorRejectsForeignPollable(t *testing.T) {
	r := reactor.NewWatch()
	defer r.Close()
	if _, err := r.Register(readyPollable{}, func() {}); !errors.Is(err, api.ErrBackendMismatch) {
		t.Fatalf("Register foreign pollable: got %v, want ErrBackendMismatch", err)
	}
}

func TestForBackend(t *testing.T) {
	if _, err := reactor.ForBackend("kqueue"); !errors.Is(err, api.ErrUnknownBackend) {
		t.Fatalf("ForBackend(kqueue): got %v, want ErrUnknownBackend", err)
	}
	r, err := reactor.ForBackend(reactor.BackendWatch)
	if err != nil {
		t.Fatal(err)
	}
	r.Close()
	f, err := reactor.SignalFactory(reactor.BackendWatch)
	if err != nil {
		t.Fatal(err)
	}
	s, _ := f(1)
	if _, ok := s.Pollable().(api.WatchPollable); !ok {
		t.Fatalf("watch signal factory built %T", s)
	}
}

type readyPollable struct{}

func (readyPollable) Ready() bool { return true }
