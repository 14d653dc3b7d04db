//go:build linux

package semaphore_test

import (
	"testing"

	"github.com/momentics/hioload-handoff/api"
	"github.com/momentics/hioload-handoff/internal/semaphore"
)

func TestEventFDSemaphoreMode(t *testing.T) {
	e, err := semaphore.NewEventFD(2)
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	fp, ok := e.Pollable().(api.FdPollable)
	if !ok {
		t.Fatal("eventfd pollable does not implement FdPollable")
	}
	if fp.Fd() == 0 {
		t.Fatal("Fd: got 0")
	}
	for i := range 2 {
		if !fp.Ready() {
			t.Fatalf("Ready(%d): got false, want true", i)
		}
		if !e.TryAcquire() {
			t.Fatalf("TryAcquire(%d): got false, want true", i)
		}
	}
	if e.TryAcquire() {
		t.Fatal("TryAcquire on zero count: got true, want false")
	}
	if fp.Ready() {
		t.Fatal("Ready on zero count: got true, want false")
	}

	e.Release(5)
	n := 0
	for e.TryAcquire() {
		n++
	}
	if n != 5 {
		t.Fatalf("units after Release(5): got %d, want 5", n)
	}
}

func TestEventFDClose(t *testing.T) {
	e, err := semaphore.NewEventFD(1)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Close(); err != nil {
		t.Fatal(err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	e.Release(1)
	if e.TryAcquire() {
		t.Fatal("TryAcquire after Close: got true, want false")
	}
}

func TestDefaultIsEventFD(t *testing.T) {
	s, err := semaphore.New(0)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if _, ok := s.(*semaphore.EventFD); !ok {
		t.Fatalf("New on linux: got %T, want *semaphore.EventFD", s)
	}
}
