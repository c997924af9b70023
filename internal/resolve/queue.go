// Package resolve implements the two FIFO Resolver Queues (C7):
// unsolved_checks and unsolved_references, plus the driver that drains
// them after every (re)build, and the default reference-resolution
// algorithm §4.7 describes.
package resolve

import (
	"sync"
	"weak"

	"github.com/oxhq/syngraph/internal/symbol"
)

// Queue is a thread-safe FIFO of weak symbol handles. Workspace-level
// containers like this use exclusive access when mutated, per §5.
type Queue struct {
	mu    sync.Mutex
	items []weak.Pointer[symbol.Cell]
}

// NewQueue creates an empty queue.
func NewQueue() *Queue { return &Queue{} }

// Push appends a weak handle to the back of the queue.
func (q *Queue) Push(w weak.Pointer[symbol.Cell]) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, w)
}

// Len reports the current queue length.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// snapshot atomically takes every currently-queued handle and empties the
// queue; callers put back entries that are still NotYet/Error via requeue
// once the pass completes, so a single drain pass never re-processes an
// entry it just pulled.
func (q *Queue) snapshot() []weak.Pointer[symbol.Cell] {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items
}

// requeue puts handles back at the front of the queue, ahead of anything
// pushed since the snapshot, used for NotYet/Error outcomes that must be
// retried on the next drain.
func (q *Queue) requeue(ws []weak.Pointer[symbol.Cell]) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(ws, q.items...)
}

// Contains reports whether cellID is still queued (used by tests asserting
// §8 Scenario E's "unsolved_checks contains the offending parameter").
func (q *Queue) Contains(cellID uint64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, w := range q.items {
		if c := w.Value(); c != nil && c.ID() == cellID {
			return true
		}
	}
	return false
}
