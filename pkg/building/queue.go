package building

import "sync"

// LinkQueue delays pending link work by two ticks. Work pushed between
// ticks is returned by the second [LinkQueue.Tick] after the push, so the
// engine steps at least once between assembly and linking when the caller
// runs one engine step per tick:
//
//	q.Push(pending)
//	for q.Len() > 0 {
//	    for _, p := range q.Tick() {
//	        report, err := asm.FlushLinks(ctx, p)
//	        ...
//	    }
//	    world.Step()
//	}
//
// A LinkQueue is safe for concurrent use.
type LinkQueue struct {
	mu       sync.Mutex
	incoming []*Pending
	waiting  []*Pending
}

// Push schedules p for linking.
func (q *LinkQueue) Push(p *Pending) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.incoming = append(q.incoming, p)
}

// Tick advances the queue and returns the work that is due, in push order.
func (q *LinkQueue) Tick() []*Pending {
	q.mu.Lock()
	defer q.mu.Unlock()
	due := q.waiting
	q.waiting, q.incoming = q.incoming, nil
	return due
}

// Len returns the number of queued items.
func (q *LinkQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.incoming) + len(q.waiting)
}
