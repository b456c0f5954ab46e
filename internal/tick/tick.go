// Package tick provides non-blocking periodic triggers for hot loops.
//
// Producer and consumer loops poll a Ticker after every queue operation
// to decide whether to emit a progress report. Polling must cost far less
// than the queue operation itself, so Tick never blocks and never
// allocates.
//
// Implementations:
//   - StdTicker: time.Ticker wrapper
//   - AtomicTicker: atomic timestamp comparison using runtime.nanotime
package tick

import "time"

// Ticker signals when a time interval has elapsed.
//
// All implementations are safe for concurrent use; when several
// goroutines poll the same Ticker, exactly one of them observes each
// tick.
type Ticker interface {
	// Tick returns true if the interval has elapsed since the last tick.
	Tick() bool

	// Reset starts a new interval from now.
	Reset()

	// Stop releases any resources held by the ticker.
	Stop()
}

// DefaultInterval is the progress reporting period used when none is
// configured.
const DefaultInterval = time.Second

// Kind names a Ticker implementation.
type Kind string

const (
	KindAtomic Kind = "atomic"
	KindStd    Kind = "std"
)

// Valid reports whether k names a known implementation. The empty Kind
// selects the default.
func (k Kind) Valid() bool {
	return k == "" || k == KindAtomic || k == KindStd
}

// New returns the preferred Ticker for interval. A non-positive interval
// yields a Ticker that never fires.
func New(interval time.Duration) Ticker {
	return NewKind(KindAtomic, interval)
}

// NewKind is New with an explicit implementation. Unknown kinds fall back
// to the atomic ticker.
func NewKind(kind Kind, interval time.Duration) Ticker {
	if interval <= 0 {
		return never{}
	}
	if kind == KindStd {
		return NewTicker(interval)
	}
	return NewAtomicTicker(interval)
}

type never struct{}

func (never) Tick() bool { return false }
func (never) Reset()     {}
func (never) Stop()      {}
