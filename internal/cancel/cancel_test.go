package cancel_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/randomizedcoder/two-lock-queue/internal/cancel"
	"github.com/randomizedcoder/two-lock-queue/internal/queue"
)

func TestContextCanceler(t *testing.T) {
	c := cancel.NewContext(context.Background())
	assert.False(t, c.Done(), "Done() before Cancel()")

	c.Cancel()
	assert.True(t, c.Done(), "Done() after Cancel()")

	// Idempotent
	c.Cancel()
	assert.True(t, c.Done())
	assert.ErrorIs(t, c.Context().Err(), context.Canceled)
}

func TestContextCanceler_FollowsParentDeadline(t *testing.T) {
	parent, stop := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer stop()

	c := cancel.NewContext(parent)
	assert.Eventually(t, c.Done, time.Second, time.Millisecond)
}

func TestAtomicCanceler(t *testing.T) {
	c := cancel.NewAtomic()
	assert.False(t, c.Done())

	c.Cancel()
	c.Cancel()
	assert.True(t, c.Done())

	c.Reset()
	assert.False(t, c.Done(), "Done() after Reset()")
}

func TestCancelerInterface(t *testing.T) {
	testCases := []struct {
		name string
		c    cancel.Canceler
	}{
		{"Context", cancel.NewContext(context.Background())},
		{"Atomic", cancel.NewAtomic()},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.False(t, tc.c.Done())
			tc.c.Cancel()
			assert.True(t, tc.c.Done())
		})
	}
}

func TestRetry_SucceedsAfterMisses(t *testing.T) {
	calls := 0
	ok, misses := cancel.RetryCount(cancel.NewAtomic(), func() bool {
		calls++
		return calls == 5
	})
	assert.True(t, ok)
	assert.Equal(t, 4, misses)
	assert.Equal(t, 5, calls)
}

func TestRetry_TriesOnceWhenAlreadyCancelled(t *testing.T) {
	c := cancel.NewAtomic()
	c.Cancel()

	calls := 0
	ok := cancel.Retry(c, func() bool {
		calls++
		return false
	})
	assert.False(t, ok)
	assert.Equal(t, 1, calls)
}

func TestRetry_StopsOnCancel(t *testing.T) {
	c := cancel.NewContext(context.Background())
	q := queue.New[int]()

	done := make(chan bool, 1)
	go func() {
		done <- cancel.Retry(c, func() bool {
			_, ok := q.TryPop()
			return ok
		})
	}()

	time.Sleep(10 * time.Millisecond)
	c.Cancel()

	select {
	case ok := <-done:
		assert.False(t, ok, "TryPop on an empty queue cannot succeed")
	case <-time.After(time.Second):
		t.Fatal("Retry did not stop after Cancel()")
	}
}

func TestRetry_DrivesTryPop(t *testing.T) {
	q := queue.New[int]()
	c := cancel.NewContext(context.Background())
	defer c.Cancel()

	got := make(chan int, 1)
	go func() {
		var v int
		ok := cancel.Retry(c, func() bool {
			var popped bool
			v, popped = q.TryPop()
			return popped
		})
		assert.True(t, ok)
		got <- v
	}()

	time.Sleep(5 * time.Millisecond)
	q.Push(11)

	select {
	case v := <-got:
		assert.Equal(t, 11, v)
	case <-time.After(time.Second):
		t.Fatal("Retry never observed the pushed value")
	}
}
