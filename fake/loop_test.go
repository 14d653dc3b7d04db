package fake_test

import (
	"errors"
	"testing"

	"github.com/momentics/hioload-handoff/api"
	"github.com/momentics/hioload-handoff/fake"
	"github.com/momentics/hioload-handoff/internal/semaphore"
)

func TestLoopTurn(t *testing.T) {
	l := fake.NewLoop()
	var order []string
	l.Post(func() { order = append(order, "task") })

	s := semaphore.NewCounter(1)
	reg, err := l.RegisterReadable(s.Pollable(), func() {
		order = append(order, "ready")
		s.TryAcquire()
	})
	if err != nil {
		t.Fatal(err)
	}
	if n := l.RunUntilIdle(10); n != 1 {
		t.Fatalf("RunUntilIdle: got %d busy turns, want 1", n)
	}
	if len(order) != 2 || order[0] != "task" || order[1] != "ready" {
		t.Fatalf("order: got %v", order)
	}
	if l.Dispatches != 1 {
		t.Fatalf("Dispatches: got %d, want 1", l.Dispatches)
	}

	if err := l.UnregisterReadable(reg); err != nil {
		t.Fatal(err)
	}
	if err := l.UnregisterReadable(reg); !errors.Is(err, api.ErrNotFound) {
		t.Fatalf("second UnregisterReadable: got %v, want ErrNotFound", err)
	}
	s.Release(1)
	if l.Turn() {
		t.Fatal("Turn after unregister: dispatched")
	}

	l.Close()
	if err := l.Post(func() {}); !errors.Is(err, api.ErrLoopClosed) {
		t.Fatalf("Post after Close: got %v", err)
	}
}
