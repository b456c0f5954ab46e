package queue

import (
	"container/list"
	"context"
	"sync"

	"github.com/zeebo/errs"
)

// Mutex is an unbounded MPMC queue guarded by a single lock.
//
// This is the conventional approach: every operation serializes on one
// mutex, so producers and consumers always contend with each other. It
// exists as a baseline for TwoLock.
type Mutex[T any] struct {
	mu    sync.Mutex
	ready *sync.Cond
	items *list.List
}

// NewMutex creates an empty Mutex queue.
func NewMutex[T any]() *Mutex[T] {
	q := &Mutex[T]{items: list.New()}
	q.ready = sync.NewCond(&q.mu)
	return q
}

// Push adds an item to the queue.
func (q *Mutex[T]) Push(v T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pushLocked(v)
}

// TryPush adds an item unless the lock is held elsewhere.
func (q *Mutex[T]) TryPush(v T) bool {
	if !q.mu.TryLock() {
		return false
	}
	defer q.mu.Unlock()
	q.pushLocked(v)
	return true
}

func (q *Mutex[T]) pushLocked(v T) {
	q.items.PushBack(v)
	if q.items.Len() == 1 {
		q.ready.Signal()
	}
}

// Pop removes and returns the oldest item, waiting while the queue is
// empty.
func (q *Mutex[T]) Pop() T {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.items.Len() == 0 {
		q.ready.Wait()
	}
	return q.popLocked()
}

// PopContext is Pop that returns early with ctx's error once ctx is done.
func (q *Mutex[T]) PopContext(ctx context.Context) (T, error) {
	stop := context.AfterFunc(ctx, func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		q.ready.Broadcast()
	})
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()

	for q.items.Len() == 0 {
		if err := ctx.Err(); err != nil {
			var zero T
			return zero, errs.Wrap(err)
		}
		q.ready.Wait()
	}
	return q.popLocked(), nil
}

// TryPop removes and returns the oldest item unless the queue is empty
// or the lock is held elsewhere.
func (q *Mutex[T]) TryPop() (T, bool) {
	var zero T
	if !q.mu.TryLock() {
		return zero, false
	}
	defer q.mu.Unlock()

	if q.items.Len() == 0 {
		return zero, false
	}
	return q.popLocked(), true
}

func (q *Mutex[T]) popLocked() T {
	v, _ := q.items.Remove(q.items.Front()).(T)
	if q.items.Len() > 0 {
		q.ready.Signal()
	}
	return v
}

// IsEmpty reports whether the queue is empty.
func (q *Mutex[T]) IsEmpty() bool {
	return q.Len() == 0
}

// Len returns the current number of items in the queue.
func (q *Mutex[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

// Clear removes every item.
func (q *Mutex[T]) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items.Init()
}
