package bus

import (
	"context"
	"time"

	"genesisbridge/pkg/logger"
)

// Queue is the single serialization point between request producers (tag
// router, pollers, schedulers) and the one dispatch consumer. It is a plain
// FIFO: arrival order at the queue is the handling order.
type Queue struct {
	requests chan DispatchRequest
}

func NewQueue(size int) *Queue {
	if size <= 0 {
		size = 64
	}
	return &Queue{requests: make(chan DispatchRequest, size)}
}

// Publish enqueues a request. A full queue drops the request rather than
// blocking a poller or the serial read loop; the return value tells the
// producer whether the request was accepted, so producers with retry
// semantics can keep theirs pending.
func (q *Queue) Publish(req DispatchRequest) bool {
	select {
	case q.requests <- req:
		return true
	default:
		logger.WarnCF("bus", "Dispatch queue full, dropping request", map[string]interface{}{
			"source": string(req.Source),
			"target": string(req.Target),
		})
		return false
	}
}

// Consume blocks until a request arrives, the timeout elapses, or ctx is
// cancelled. The timeout keeps the consumer responsive to shutdown.
func (q *Queue) Consume(ctx context.Context, timeout time.Duration) (DispatchRequest, bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case req := <-q.requests:
		return req, true
	case <-timer.C:
		return DispatchRequest{}, false
	case <-ctx.Done():
		return DispatchRequest{}, false
	}
}

// Len reports queued requests; used for observability only.
func (q *Queue) Len() int {
	return len(q.requests)
}
