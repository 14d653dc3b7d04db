// Package benchmarks
// Author: momentics <momentics@gmail.com>
//
// Performance benchmarks for hioload-handoff components.

package benchmarks

import (
	"io"
	"log/slog"
	"testing"

	"code.hybscloud.com/iox"

	"github.com/momentics/hioload-handoff/control"
	"github.com/momentics/hioload-handoff/facade"
	"github.com/momentics/hioload-handoff/internal/concurrency"
	"github.com/momentics/hioload-handoff/queue"
	"github.com/momentics/hioload-handoff/reactor"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

// BenchmarkTryParallel hammers one queue from many goroutines.
func BenchmarkTryParallel(b *testing.B) {
	q, err := queue.New[int](1024, queue.WithLogger(quiet))
	if err != nil {
		b.Fatal(err)
	}
	defer q.Close()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			if q.TryEnqueue(i) != nil {
				q.TryDequeue()
			}
			i++
		}
	})
}

// BenchmarkEventLoopPost measures Post-to-run latency through the wake signal.
func BenchmarkEventLoopPost(b *testing.B) {
	for _, backend := range []string{reactor.BackendAuto, reactor.BackendWatch} {
		b.Run(backend, func(b *testing.B) {
			r, err := reactor.ForBackend(backend)
			if err != nil {
				b.Fatal(err)
			}
			loop, err := concurrency.NewEventLoop(concurrency.LoopConfig{
				Name: "bench", PollTimeout: -1, Reactor: r, Logger: quiet,
			})
			if err != nil {
				b.Fatal(err)
			}
			loop.Start()
			defer loop.Stop()

			done := make(chan struct{}, 1)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				loop.Post(func() { done <- struct{}{} })
				<-done
			}
		})
	}
}

// BenchmarkLoopToLoopHandoff streams b.N items from a producer loop to a
// consumer loop through a facade-built queue.
func BenchmarkLoopToLoopHandoff(b *testing.B) {
	for _, backend := range []string{reactor.BackendAuto, reactor.BackendWatch} {
		b.Run(backend, func(b *testing.B) {
			cfg := control.DefaultConfig()
			cfg.Backend = backend
			cfg.LogLevel = "error"
			cfg.EnableDebug = false
			h, err := facade.New(cfg)
			if err != nil {
				b.Fatal(err)
			}
			defer h.Shutdown()
			cons, _ := h.NewLoop("consumer")
			h.Start()

			q, err := facade.NewQueue[int](h, "bench", 256)
			if err != nil {
				b.Fatal(err)
			}
			total := b.N
			done := make(chan struct{})
			seen := 0
			q.RegisterDequeue(cons, func() {
				if _, ok := q.TryDequeue(); ok {
					seen++
					if seen == total {
						close(done)
					}
				}
			})

			b.ResetTimer()
			var backoff iox.Backoff
			for i := 0; i < total; {
				if q.TryEnqueue(i) != nil {
					backoff.Wait()
					continue
				}
				backoff.Reset()
				i++
			}
			<-done
			b.StopTimer()

			unregistered := make(chan struct{})
			cons.Post(func() {
				q.UnregisterDequeue()
				close(unregistered)
			})
			<-unregistered
			q.Close()
		})
	}
}
