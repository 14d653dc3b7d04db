package adapters_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/momentics/hioload-handoff/adapters"
	"github.com/momentics/hioload-handoff/queue"
)

func TestControlAdapterBasic(t *testing.T) {
	ctrl := adapters.NewControlAdapter()
	cfg := ctrl.GetConfig()
	if len(cfg) != 0 {
		t.Error("Expected empty config on init")
	}
	called := false
	ctrl.OnReload(func() { called = true })
	if err := ctrl.SetConfig(map[string]any{"k": 1}); err != nil {
		t.Fatal(err)
	}
	stats := ctrl.Stats()
	if stats["k"] != 1 {
		t.Error("SetConfig did not apply")
	}
	if !called {
		t.Error("Reload hook not called")
	}
	if _, ok := stats["debug.platform.cpus"]; !ok {
		t.Error("platform probe missing from Stats")
	}
}

func TestRegisterQueueProbe(t *testing.T) {
	ctrl := adapters.NewControlAdapter()
	q, err := queue.New[int](4, queue.WithName("jobs"),
		queue.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		t.Fatal(err)
	}
	defer q.Close()
	q.TryEnqueue(1)
	q.TryEnqueue(2)

	adapters.RegisterQueue(ctrl, q, true)
	state := ctrl.DumpState()
	probe, ok := state[adapters.QueueProbeName("jobs")].(map[string]any)
	if !ok {
		t.Fatalf("queue probe: got %T", state["queue.jobs"])
	}
	if probe["len"] != 2 || probe["cap"] != 4 {
		t.Fatalf("queue probe: got %v", probe)
	}
	if got := ctrl.Stats()["queue.jobs.len"]; got != 2 {
		t.Fatalf("queue.jobs.len metric: got %v, want 2", got)
	}

	ctrl.UnregisterDebugProbe(adapters.QueueProbeName("jobs"))
	if _, ok := ctrl.DumpState()["queue.jobs"]; ok {
		t.Fatal("probe still present after unregister")
	}
}

type loopStub struct{}

func (loopStub) Name() string          { return "io" }
func (loopStub) Stats() map[string]any { return map[string]any{"posted": int64(3)} }

func TestRegisterLoopProbe(t *testing.T) {
	ctrl := adapters.NewControlAdapter()
	adapters.RegisterLoop(ctrl, loopStub{})
	st, ok := ctrl.DumpState()["loop.io"].(map[string]any)
	if !ok || st["posted"] != int64(3) {
		t.Fatalf("loop probe: got %v", ctrl.DumpState()["loop.io"])
	}
}
