package lifecycle

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/deskops/ticket-desk/internal/domain"
)

// MutationQueue serializes mutations per ticket across every controller that
// shares it. Waiters are admitted in arrival order, so the last issued
// mutation is the last one the backend applies.
type MutationQueue struct {
	mu    sync.Mutex
	lanes map[domain.TicketID]*lane
}

type lane struct {
	sem  *semaphore.Weighted
	refs int
}

// NewMutationQueue builds an empty queue.
func NewMutationQueue() *MutationQueue {
	return &MutationQueue{lanes: make(map[domain.TicketID]*lane)}
}

// Do runs fn once every earlier mutation for id has finished.
func (q *MutationQueue) Do(ctx context.Context, id domain.TicketID, fn func(context.Context) error) error {
	l := q.acquireLane(id)
	defer q.releaseLane(id, l)

	if err := l.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer l.sem.Release(1)
	return fn(ctx)
}

func (q *MutationQueue) acquireLane(id domain.TicketID) *lane {
	q.mu.Lock()
	defer q.mu.Unlock()
	l, ok := q.lanes[id]
	if !ok {
		l = &lane{sem: semaphore.NewWeighted(1)}
		q.lanes[id] = l
	}
	l.refs++
	return l
}

func (q *MutationQueue) releaseLane(id domain.TicketID, l *lane) {
	q.mu.Lock()
	defer q.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(q.lanes, id)
	}
}

// Pending reports how many mutations are queued or running for id.
func (q *MutationQueue) Pending(id domain.TicketID) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	if l, ok := q.lanes[id]; ok {
		return l.refs
	}
	return 0
}
