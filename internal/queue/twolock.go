package queue

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/zeebo/errs"
)

// node is a list cell. Payload nodes carry a value; the two sentinels
// embedded in TwoLock never do and are told apart by address.
type node[T any] struct {
	next  atomic.Pointer[node[T]]
	value T
}

// sentinel is a permanent boundary node with its own lock.
type sentinel[T any] struct {
	node[T]
	mu sync.Mutex

	// cond is set on the front sentinel only.
	cond *sync.Cond
}

// TwoLock is an unbounded MPMC queue built on a singly linked list
// delimited by two sentinels.
//
// front.next is the oldest node (or &back when empty). back.next caches
// the newest node (or &front when empty), so Push never walks the list.
// The front lock guards removal and owns the condition variable that
// parks Pop; the back lock guards insertion.
//
// Lock nesting is back→front in Push (queue empty) and front→back in Pop
// (exactly one node left). A consumer holding the front lock never sees
// an empty queue while a producer sees one, so the two never wait on
// each other.
type TwoLock[T any] struct {
	front sentinel[T]
	back  sentinel[T]
	size  atomic.Int64
}

// New creates an empty TwoLock queue.
func New[T any]() *TwoLock[T] {
	q := &TwoLock[T]{}
	q.front.cond = sync.NewCond(&q.front.mu)
	q.front.next.Store(q.tail())
	q.back.next.Store(q.head())
	return q
}

func (q *TwoLock[T]) head() *node[T] { return &q.front.node }
func (q *TwoLock[T]) tail() *node[T] { return &q.back.node }

// Push appends v. It may wait briefly for the back lock, and for the
// front lock when the queue is empty, but it never fails.
func (q *TwoLock[T]) Push(v T) {
	q.back.mu.Lock()
	defer q.back.mu.Unlock()

	n := q.newNode(v)
	if last := q.back.next.Load(); last != q.head() {
		last.next.Store(n)
	} else {
		q.front.mu.Lock()
		q.publishFirst(n)
		q.front.mu.Unlock()
	}
	q.back.next.Store(n)
	q.size.Add(1)
}

// TryPush appends v unless a lock it needs is held elsewhere.
// Returns false without touching the queue in that case.
func (q *TwoLock[T]) TryPush(v T) bool {
	if !q.back.mu.TryLock() {
		return false
	}
	defer q.back.mu.Unlock()

	last := q.back.next.Load()
	if last == q.head() {
		if !q.front.mu.TryLock() {
			return false
		}
		n := q.newNode(v)
		q.publishFirst(n)
		q.front.mu.Unlock()
		q.back.next.Store(n)
	} else {
		n := q.newNode(v)
		last.next.Store(n)
		q.back.next.Store(n)
	}
	q.size.Add(1)
	return true
}

func (q *TwoLock[T]) newNode(v T) *node[T] {
	n := &node[T]{value: v}
	n.next.Store(q.tail())
	return n
}

// publishFirst links n as the first node of a queue that looked empty
// from the back. Caller holds both locks.
func (q *TwoLock[T]) publishFirst(n *node[T]) {
	// back.next == &front was observed before the front lock was taken;
	// only front.next is authoritative now.
	if q.front.next.Load() == q.tail() {
		q.front.next.Store(n)
	}
	q.front.cond.Signal()
}

// Pop removes and returns the oldest item, waiting while the queue is
// empty.
func (q *TwoLock[T]) Pop() T {
	q.front.mu.Lock()
	defer q.front.mu.Unlock()

	for q.front.next.Load() == q.tail() {
		q.front.cond.Wait()
	}
	first := q.front.next.Load()
	q.unlink(first, false)
	return q.release(first)
}

// PopContext is Pop that returns early with ctx's error once ctx is done.
// An item already queued is returned even if ctx is done.
func (q *TwoLock[T]) PopContext(ctx context.Context) (T, error) {
	stop := context.AfterFunc(ctx, func() {
		q.front.mu.Lock()
		defer q.front.mu.Unlock()
		q.front.cond.Broadcast()
	})
	defer stop()

	q.front.mu.Lock()
	defer q.front.mu.Unlock()

	for q.front.next.Load() == q.tail() {
		if err := ctx.Err(); err != nil {
			var zero T
			return zero, errs.Wrap(err)
		}
		q.front.cond.Wait()
	}
	first := q.front.next.Load()
	q.unlink(first, false)
	return q.release(first), nil
}

// TryPop removes and returns the oldest item without waiting on a lock.
// Returns false if the queue is empty, or if removing the last item
// would need the back lock while a producer holds it.
func (q *TwoLock[T]) TryPop() (T, bool) {
	var zero T
	if !q.front.mu.TryLock() {
		return zero, false
	}
	defer q.front.mu.Unlock()

	first := q.front.next.Load()
	if first == q.tail() {
		return zero, false
	}
	if !q.unlink(first, true) {
		return zero, false
	}
	return q.release(first), true
}

// unlink advances front.next past first. Caller holds the front lock.
// When first is the last node the back lock is taken too (TryLock when
// try is set); false means it was unavailable and nothing changed.
func (q *TwoLock[T]) unlink(first *node[T], try bool) bool {
	next := first.next.Load()
	if next == q.tail() {
		if try {
			if !q.back.mu.TryLock() {
				return false
			}
		} else {
			q.back.mu.Lock()
		}
		// A producer may have linked behind first while we waited.
		next = first.next.Load()
		if next == q.tail() {
			q.back.next.Store(q.head())
		}
		q.front.next.Store(next)
		q.back.mu.Unlock()
	} else {
		q.front.next.Store(next)
	}

	// Hand the wakeup on so a second parked consumer sees what is left.
	if next != q.tail() {
		q.front.cond.Signal()
	}
	return true
}

// release drops an unlinked node's references and returns its value.
func (q *TwoLock[T]) release(n *node[T]) T {
	v := n.value
	var zero T
	n.value = zero
	n.next.Store(nil)
	q.size.Add(-1)
	return v
}

// IsEmpty reports whether front.next pointed at the back sentinel at the
// moment of the read. No lock is taken, so the answer may already be
// stale; do not use it to skip Push or Pop.
func (q *TwoLock[T]) IsEmpty() bool {
	return q.front.next.Load() == q.tail()
}

// Len returns the current number of items in the queue.
// This is an approximation and may be slightly stale.
func (q *TwoLock[T]) Len() int {
	if n := q.size.Load(); n > 0 {
		return int(n)
	}
	return 0
}

// Clear removes every item and restores the empty linkage.
//
// Clear takes front then back. It must not run concurrently with other
// operations; a Pop already waiting stays parked.
func (q *TwoLock[T]) Clear() {
	q.front.mu.Lock()
	defer q.front.mu.Unlock()
	q.back.mu.Lock()
	defer q.back.mu.Unlock()

	var zero T
	for n := q.front.next.Load(); n != q.tail(); {
		next := n.next.Load()
		n.value = zero
		n.next.Store(nil)
		n = next
	}
	q.front.next.Store(q.tail())
	q.back.next.Store(q.head())
	q.size.Store(0)
}
