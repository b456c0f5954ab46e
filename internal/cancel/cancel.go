// Package cancel provides abort signals for retry loops around the
// non-blocking queue operations.
//
// TryPush and TryPop report contention instead of waiting, so callers
// spin on them. A Canceler bounds that spin: Retry keeps attempting until
// the operation succeeds or the Canceler fires.
//
// Two implementations are provided:
//   - ContextCanceler: follows a context.Context
//   - AtomicCanceler: a bare atomic flag for hot loops
package cancel

import "runtime"

// Canceler signals retry loops to give up.
//
// Implementations must be safe for concurrent use:
//   - Multiple goroutines may call Done() concurrently
//   - Cancel() may be called concurrently with Done()
type Canceler interface {
	// Done returns true if cancellation has been triggered.
	Done() bool

	// Cancel triggers cancellation. Safe to call multiple times.
	Cancel()
}

// Retry calls attempt until it returns true or c is done, yielding the
// processor between failed attempts. It reports whether attempt
// succeeded. attempt is always tried at least once.
func Retry(c Canceler, attempt func() bool) bool {
	for {
		if attempt() {
			return true
		}
		if c.Done() {
			return false
		}
		runtime.Gosched()
	}
}

// RetryCount is Retry that also reports how many attempts failed.
func RetryCount(c Canceler, attempt func() bool) (ok bool, misses int) {
	ok = Retry(c, func() bool {
		if attempt() {
			return true
		}
		misses++
		return false
	})
	return ok, misses
}
