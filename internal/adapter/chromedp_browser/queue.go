package chromedp_browser

import (
	"context"
	"sync"
)

// eventQueue hands items from the chromedp event loop to a single consumer
// goroutine in arrival order. push never blocks, so the listener can't
// stall the connection while a consumer is busy issuing commands.
type eventQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []any
	busy   int
	closed bool
}

func newEventQueue(handle func(any)) *eventQueue {
	q := &eventQueue{}
	q.cond = sync.NewCond(&q.mu)
	go q.loop(handle)
	return q
}

func (q *eventQueue) push(item any) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.items = append(q.items, item)
	q.cond.Broadcast()
	return true
}

// hold marks work handed off by the consumer as in flight until the
// matching release, so drain waits for it too.
func (q *eventQueue) hold() {
	q.mu.Lock()
	q.busy++
	q.mu.Unlock()
}

func (q *eventQueue) release() {
	q.mu.Lock()
	q.busy--
	q.cond.Broadcast()
	q.mu.Unlock()
}

// drain waits until every pushed item has been handled and no held work
// remains, or the queue is closed. It must not be called by the consumer.
func (q *eventQueue) drain(ctx context.Context) error {
	idle := make(chan struct{})
	go func() {
		q.mu.Lock()
		for !q.closed && (len(q.items) > 0 || q.busy > 0) {
			q.cond.Wait()
		}
		q.mu.Unlock()
		close(idle)
	}()
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// close discards pending items. The item in flight, if any, still
// completes; close is safe to call from the consumer itself.
func (q *eventQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.items = nil
	q.cond.Broadcast()
	q.mu.Unlock()
}

func (q *eventQueue) loop(handle func(any)) {
	for {
		q.mu.Lock()
		for len(q.items) == 0 && !q.closed {
			q.cond.Wait()
		}
		if q.closed {
			q.mu.Unlock()
			return
		}
		item := q.items[0]
		q.items[0] = nil
		q.items = q.items[1:]
		q.busy++
		q.mu.Unlock()

		handle(item)
		q.release()
	}
}
