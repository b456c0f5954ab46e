// Package queue provides unbounded MPMC FIFO queues with blocking and
// non-blocking operations.
//
// This package offers two implementations of the Queue interface:
//   - TwoLock: two-sentinel linked list with separate head and tail locks
//   - Mutex: single lock baseline backed by container/list
//
// # TwoLock Locking
//
// Producers only contend on the back lock and consumers only contend on
// the front lock. Both locks are held together only when the queue moves
// between empty and non-empty, so a producer and a consumer proceed in
// parallel whenever the queue holds two or more elements.
//
// # Non-blocking Operations
//
// TryPush and TryPop never wait on a lock. A false result means the queue
// was left untouched: either it was empty (TryPop) or another goroutine
// held a lock the operation needed. Callers retry or back off.
//
// # Clear
//
// Clear is a maintenance operation. It must not run concurrently with
// Push, TryPush, Pop or TryPop.
package queue

import "context"

// Queue is an unbounded multi-producer multi-consumer FIFO queue.
type Queue[T any] interface {
	// Push appends an item. It never fails.
	Push(T)

	// TryPush appends an item without waiting on a lock.
	// Returns false if the item was not inserted.
	TryPush(T) bool

	// Pop removes and returns the oldest item, waiting while the queue
	// is empty.
	Pop() T

	// PopContext is Pop that gives up when ctx is done.
	PopContext(ctx context.Context) (T, error)

	// TryPop removes and returns the oldest item without waiting.
	// Returns false if the queue is empty or contended.
	TryPop() (T, bool)

	// IsEmpty reports whether the queue looked empty at some instant
	// during the call. Advisory only.
	IsEmpty() bool

	// Len returns an approximate number of items.
	Len() int

	// Clear removes every item.
	Clear()
}
