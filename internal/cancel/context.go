package cancel

import "context"

// ContextCanceler ties a retry loop to a context.Context.
//
// Done performs a non-blocking select on ctx.Done(), so a deadline or a
// parent cancellation stops the loop as well as an explicit Cancel.
type ContextCanceler struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// NewContext creates a ContextCanceler derived from parent.
func NewContext(parent context.Context) *ContextCanceler {
	ctx, cancel := context.WithCancel(parent)
	return &ContextCanceler{
		ctx:    ctx,
		cancel: cancel,
	}
}

// Done returns true once the context is cancelled or past its deadline.
func (c *ContextCanceler) Done() bool {
	select {
	case <-c.ctx.Done():
		return true
	default:
		return false
	}
}

// Cancel cancels the derived context.
func (c *ContextCanceler) Cancel() {
	c.cancel()
}

// Context returns the derived context, for blocking calls such as
// queue.PopContext that should stop together with the retry loops.
func (c *ContextCanceler) Context() context.Context {
	return c.ctx
}
