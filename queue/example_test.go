package queue_test

import (
	"fmt"

	"github.com/momentics/hioload-handoff/api"
	"github.com/momentics/hioload-handoff/fake"
	"github.com/momentics/hioload-handoff/queue"
)

func Example() {
	loop := fake.NewLoop()
	q, err := queue.New[string](2, queue.WithName("example"))
	if err != nil {
		panic(err)
	}

	q.RegisterDequeue(loop, func() {
		if msg, ok := q.TryDequeue(); ok {
			fmt.Println("received", msg)
		}
	})

	fmt.Println(q.TryEnqueue("ping"))
	fmt.Println(q.TryEnqueue("pong"))
	fmt.Println(api.IsWouldBlock(q.TryEnqueue("overflow")))

	loop.Turn()
	q.UnregisterDequeue()
	q.Close()
	// Output:
	// <nil>
	// <nil>
	// true
	// received ping
	// received pong
}
