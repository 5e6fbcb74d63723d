package bus

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestQueueFIFOOrder(t *testing.T) {
	q := NewQueue(8)
	for i := 0; i < 5; i++ {
		q.Publish(DispatchRequest{Source: SourceStream, Content: fmt.Sprintf("msg-%d", i)})
	}

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		req, ok := q.Consume(ctx, time.Second)
		if !ok {
			t.Fatalf("consume %d: queue empty", i)
		}
		if want := fmt.Sprintf("msg-%d", i); req.Content != want {
			t.Fatalf("consume %d = %q, want %q", i, req.Content, want)
		}
	}
}

func TestQueueConsumeTimeout(t *testing.T) {
	q := NewQueue(1)
	start := time.Now()
	_, ok := q.Consume(context.Background(), 20*time.Millisecond)
	if ok {
		t.Fatal("expected timeout on empty queue")
	}
	if time.Since(start) < 20*time.Millisecond {
		t.Fatal("returned before timeout elapsed")
	}
}

func TestQueueConsumeCancelled(t *testing.T) {
	q := NewQueue(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, ok := q.Consume(ctx, time.Minute); ok {
		t.Fatal("expected cancelled consume to return false")
	}
}

func TestQueueFullDropsInsteadOfBlocking(t *testing.T) {
	q := NewQueue(1)
	q.Publish(DispatchRequest{Content: "first"})

	done := make(chan struct{})
	go func() {
		q.Publish(DispatchRequest{Content: "overflow"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on full queue")
	}
}

func TestPublishReportsAcceptance(t *testing.T) {
	q := NewQueue(1)
	if !q.Publish(DispatchRequest{Content: "first"}) {
		t.Fatal("publish into empty queue must be accepted")
	}
	if q.Publish(DispatchRequest{Content: "overflow"}) {
		t.Fatal("publish into full queue must report rejection")
	}

	if _, ok := q.Consume(context.Background(), time.Second); !ok {
		t.Fatal("expected the accepted request")
	}
	if !q.Publish(DispatchRequest{Content: "second"}) {
		t.Fatal("publish after drain must be accepted")
	}
}
