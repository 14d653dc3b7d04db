package queue_test

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"code.hybscloud.com/iox"

	"github.com/momentics/hioload-handoff/api"
	"github.com/momentics/hioload-handoff/queue"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func newQueue[T any](t testing.TB, capacity int, opts ...queue.Option) *queue.Queue[T] {
	t.Helper()
	q, err := queue.New[T](capacity, append([]queue.Option{queue.WithLogger(quiet)}, opts...)...)
	if err != nil {
		t.Fatalf("New(%d): %v", capacity, err)
	}
	return q
}

func TestNewRejectsZeroCapacity(t *testing.T) {
	for _, c := range []int{0, -1} {
		if _, err := queue.New[int](c); !errors.Is(err, api.ErrInvalidArgument) {
			t.Fatalf("New(%d): got %v, want ErrInvalidArgument", c, err)
		}
	}
}

// TestCapacityTwoSequence walks the a/b/c scenario on a two-slot queue.
func TestCapacityTwoSequence(t *testing.T) {
	q := newQueue[string](t, 2)
	defer q.Close()

	if err := q.TryEnqueue("a"); err != nil {
		t.Fatalf("TryEnqueue(a): %v", err)
	}
	if err := q.TryEnqueue("b"); err != nil {
		t.Fatalf("TryEnqueue(b): %v", err)
	}
	if err := q.TryEnqueue("c"); !errors.Is(err, api.ErrFull) {
		t.Fatalf("TryEnqueue(c) on full: got %v, want ErrFull", err)
	}
	expect := func(want string) {
		t.Helper()
		got, ok := q.TryDequeue()
		if !ok || got != want {
			t.Fatalf("TryDequeue: got %q/%v, want %q", got, ok, want)
		}
	}
	expect("a")
	if err := q.TryEnqueue("c"); err != nil {
		t.Fatalf("TryEnqueue(c): %v", err)
	}
	expect("b")
	expect("c")
	if got, ok := q.TryDequeue(); ok {
		t.Fatalf("TryDequeue on empty: got %q, want none", got)
	}
}

func TestFullAndEmptyDoNotMutate(t *testing.T) {
	q := newQueue[int](t, 1)
	defer q.Close()

	if _, ok := q.TryDequeue(); ok {
		t.Fatal("TryDequeue on new queue: got item")
	}
	if got := q.Len(); got != 0 {
		t.Fatalf("Len after empty dequeue: got %d, want 0", got)
	}
	if err := q.TryEnqueue(7); err != nil {
		t.Fatal(err)
	}
	for range 3 {
		err := q.TryEnqueue(8)
		if !api.IsWouldBlock(err) {
			t.Fatalf("TryEnqueue on full: got %v, want would-block", err)
		}
	}
	if got := q.Len(); got != 1 {
		t.Fatalf("Len after rejected enqueues: got %d, want 1", got)
	}
	if got, ok := q.TryDequeue(); !ok || got != 7 {
		t.Fatalf("TryDequeue: got %d/%v, want 7", got, ok)
	}

	st := q.Stats()
	if st.FullRejections != 3 || st.EmptyPolls != 1 || st.Enqueued != 1 || st.Dequeued != 1 {
		t.Fatalf("Stats: got %+v", st)
	}
}

func roundTrip[T comparable](t *testing.T, items []T) {
	t.Helper()
	q := newQueue[T](t, len(items))
	defer q.Close()
	for i, it := range items {
		if err := q.TryEnqueue(it); err != nil {
			t.Fatalf("TryEnqueue(%d): %v", i, err)
		}
	}
	for i, want := range items {
		got, ok := q.TryDequeue()
		if !ok || got != want {
			t.Fatalf("TryDequeue(%d): got %v/%v, want %v", i, got, ok, want)
		}
	}
	if q.Len() != 0 {
		t.Fatalf("Len: got %d, want 0", q.Len())
	}
}

type message struct {
	id   int
	body string
}

func TestRoundTrip(t *testing.T) {
	roundTrip(t, []int{3, 1, 4, 1, 5, 9, 2, 6})
	roundTrip(t, []string{"", "x", "yy"})
	roundTrip(t, []message{{1, "a"}, {2, "b"}})
	roundTrip(t, []*message{{id: 1}, nil, {id: 2}})
}

type tagged struct {
	producer int
	seq      int
}

// TestConcurrentTryFIFO runs several producers against one consumer and
// checks per-producer order plus the capacity bound.
func TestConcurrentTryFIFO(t *testing.T) {
	const (
		producers = 4
		perProd   = 2000
		capacity  = 8
	)
	q := newQueue[tagged](t, capacity)
	defer q.Close()

	var wg sync.WaitGroup
	for p := range producers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var b iox.Backoff
			for i := 0; i < perProd; {
				err := q.TryEnqueue(tagged{producer: p, seq: i})
				if err == nil {
					i++
					b.Reset()
					continue
				}
				if !api.IsWouldBlock(err) {
					t.Errorf("TryEnqueue: %v", err)
					return
				}
				b.Wait()
			}
		}()
	}

	last := make([]int, producers)
	for i := range last {
		last[i] = -1
	}
	var b iox.Backoff
	for got := 0; got < producers*perProd; {
		if n := q.Len(); n < 0 || n > capacity {
			t.Fatalf("Len: got %d, want within [0,%d]", n, capacity)
		}
		v, ok := q.TryDequeue()
		if !ok {
			b.Wait()
			continue
		}
		b.Reset()
		if v.seq != last[v.producer]+1 {
			t.Fatalf("producer %d: got seq %d after %d", v.producer, v.seq, last[v.producer])
		}
		last[v.producer] = v.seq
		got++
	}
	wg.Wait()

	if _, ok := q.TryDequeue(); ok {
		t.Fatal("TryDequeue after drain: got item")
	}
}

func TestCloseThenDrain(t *testing.T) {
	q := newQueue[int](t, 4)
	for i := range 3 {
		if err := q.TryEnqueue(i); err != nil {
			t.Fatal(err)
		}
	}
	if err := q.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := q.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if err := q.TryEnqueue(9); !errors.Is(err, api.ErrQueueClosed) {
		t.Fatalf("TryEnqueue after Close: got %v, want ErrQueueClosed", err)
	}
	for i := range 3 {
		if got, ok := q.TryDequeue(); !ok || got != i {
			t.Fatalf("drain(%d): got %d/%v", i, got, ok)
		}
	}
	if _, ok := q.TryDequeue(); ok {
		t.Fatal("drained queue: got item")
	}
}

func BenchmarkTryEnqueueDequeue(b *testing.B) {
	q := newQueue[int](b, 1024)
	defer q.Close()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if err := q.TryEnqueue(i); err != nil {
			b.Fatal(err)
		}
		if _, ok := q.TryDequeue(); !ok {
			b.Fatal("TryDequeue: empty")
		}
	}
}
