package harness

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/randomizedcoder/two-lock-queue/internal/logging"
	"github.com/randomizedcoder/two-lock-queue/internal/queue"
	"github.com/randomizedcoder/two-lock-queue/internal/tick"
)

func quickConfig() Config {
	cfg := DefaultConfig()
	cfg.Timeout = 10 * time.Second
	cfg.ProgressInterval = 0
	return cfg
}

func TestNewQueue(t *testing.T) {
	q, err := NewQueue(ImplTwoLock)
	require.NoError(t, err)
	assert.IsType(t, &queue.TwoLock[Item]{}, q)

	q, err = NewQueue(ImplMutex)
	require.NoError(t, err)
	assert.IsType(t, &queue.Mutex[Item]{}, q)

	_, err = NewQueue("ring")
	assert.True(t, Error.Has(err))
}

// Five producers and five consumers, ten values each, Try retry loops:
// exactly fifty distinct values arrive and the queue ends empty.
func TestRun_DefaultScenario(t *testing.T) {
	for _, impl := range []string{ImplTwoLock, ImplMutex} {
		t.Run(impl, func(t *testing.T) {
			q, err := NewQueue(impl)
			require.NoError(t, err)

			report, err := Run(logging.WithContext(context.Background(), zaptest.NewLogger(t)), q, quickConfig())
			require.NoError(t, err)
			assert.Equal(t, int64(50), report.Pushed)
			assert.Equal(t, int64(50), report.Popped)
			assert.True(t, q.IsEmpty())
		})
	}
}

func TestRun_Blocking(t *testing.T) {
	cfg := quickConfig()
	cfg.Mode = ModeBlocking
	cfg.Producers = 8
	cfg.Consumers = 4
	cfg.Items = 500

	q := queue.New[Item]()
	report, err := Run(context.Background(), q, cfg)
	require.NoError(t, err)
	assert.Equal(t, int64(4000), report.Popped)
	assert.Zero(t, report.PushMisses)
	assert.Zero(t, report.PopMisses)
	assert.True(t, q.IsEmpty())
}

// Consumers outnumber producers and start first, so they spend most of
// the run parked on an empty queue.
func TestRun_ConsumersWaitForSlowProducers(t *testing.T) {
	for _, mode := range []Mode{ModeBlocking, ModeTry} {
		t.Run(string(mode), func(t *testing.T) {
			cfg := quickConfig()
			cfg.Mode = mode
			cfg.Producers = 2
			cfg.Consumers = 4
			cfg.Items = 10
			cfg.ProduceDelay = time.Millisecond

			report, err := Run(logging.WithContext(context.Background(), zaptest.NewLogger(t)), queue.New[Item](), cfg)
			require.NoError(t, err)
			assert.Equal(t, int64(20), report.Popped)
		})
	}
}

func TestRun_TimeoutAbortsStarvedConsumers(t *testing.T) {
	for _, mode := range []Mode{ModeBlocking, ModeTry} {
		t.Run(string(mode), func(t *testing.T) {
			cfg := quickConfig()
			cfg.Mode = mode
			cfg.Timeout = 50 * time.Millisecond
			cfg.ProduceDelay = time.Hour

			start := time.Now()
			report, err := Run(context.Background(), queue.New[Item](), cfg)
			require.Error(t, err)
			assert.True(t, Error.Has(err))
			assert.ErrorIs(t, err, context.DeadlineExceeded)
			assert.Less(t, time.Since(start), 5*time.Second)
			assert.Zero(t, report.Popped)
		})
	}
}

func TestRun_ParentContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := quickConfig()
	cfg.Mode = ModeBlocking
	_, err := Run(ctx, queue.New[Item](), cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_InvalidConfig(t *testing.T) {
	cfg := quickConfig()
	cfg.Items = 0
	_, err := Run(context.Background(), queue.New[Item](), cfg)
	require.Error(t, err)
	assert.True(t, Error.Has(err))
}

// A queue that already holds a stray value cannot end empty.
func TestRun_DetectsLeftovers(t *testing.T) {
	q := queue.New[Item]()
	q.Push(Item{Producer: 99, Seq: 0})

	cfg := quickConfig()
	cfg.Mode = ModeBlocking
	cfg.Producers = 1
	cfg.Consumers = 1
	cfg.Items = 1

	_, err := Run(context.Background(), q, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown value")
}

func TestRun_LogsProgress(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	cfg := quickConfig()
	cfg.Producers = 1
	cfg.Consumers = 1
	cfg.Items = 20
	cfg.ProduceDelay = 5 * time.Millisecond
	cfg.ProgressInterval = 10 * time.Millisecond

	_, err := Run(logging.WithContext(context.Background(), zap.New(core)), queue.New[Item](), cfg)
	require.NoError(t, err)

	assert.Equal(t, 1, logs.FilterMessage("run starting").Len())
	assert.Equal(t, 1, logs.FilterMessage("run complete").Len())
	assert.NotZero(t, logs.FilterMessage("progress").Len())
}

func TestRun_StdTickerLogsProgress(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	cfg := quickConfig()
	cfg.Producers = 1
	cfg.Consumers = 1
	cfg.Items = 20
	cfg.ProduceDelay = 5 * time.Millisecond
	cfg.ProgressInterval = 10 * time.Millisecond
	cfg.Ticker = tick.KindStd

	_, err := Run(logging.WithContext(context.Background(), zap.New(core)), queue.New[Item](), cfg)
	require.NoError(t, err)

	starting := logs.FilterMessage("run starting").All()
	require.Len(t, starting, 1)
	assert.Equal(t, "std", starting[0].ContextMap()["ticker"])
	assert.NotZero(t, logs.FilterMessage("progress").Len())
}

// Workers log through the context logger and tag every entry with their
// role and index.
func TestRun_WorkersLogThroughContext(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	cfg := quickConfig()
	cfg.Mode = ModeBlocking
	cfg.Producers = 2
	cfg.Consumers = 1
	cfg.Items = 3

	_, err := Run(logging.WithContext(context.Background(), zap.New(core)), queue.New[Item](), cfg)
	require.NoError(t, err)

	pushes := logs.FilterMessage("push").All()
	require.Len(t, pushes, 6)
	for _, e := range pushes {
		fields := e.ContextMap()
		assert.Contains(t, fields, "producer")
		assert.Contains(t, fields, "seq")
	}

	pops := logs.FilterMessage("pop").All()
	require.Len(t, pops, 6)
	for _, e := range pops {
		fields := e.ContextMap()
		assert.Equal(t, int64(0), fields["consumer"])
		assert.Contains(t, fields, "producer")
		assert.Contains(t, fields, "seq")
	}

	done := logs.FilterMessage("run complete").All()
	require.Len(t, done, 1)
	assert.Equal(t, int64(6), done[0].ContextMap()["popped"])
}

func TestRun_NoLoggerInContext(t *testing.T) {
	cfg := quickConfig()
	cfg.Producers = 1
	cfg.Consumers = 1

	report, err := Run(context.Background(), queue.New[Item](), cfg)
	require.NoError(t, err)
	assert.Equal(t, int64(10), report.Popped)
}

func TestVerify(t *testing.T) {
	ok := [][]Item{
		{{0, 0}, {1, 0}, {0, 1}},
		{{1, 1}},
	}
	assert.NoError(t, Verify(ok, 2, 2))

	testCases := []struct {
		name     string
		received [][]Item
		errMsg   string
	}{
		{"missing", [][]Item{{{0, 0}, {1, 0}, {1, 1}}}, "never delivered"},
		{"duplicate", [][]Item{{{0, 0}, {0, 1}}, {{0, 1}, {1, 0}, {1, 1}}}, "delivered 2 times"},
		{"out of order", [][]Item{{{0, 1}, {0, 0}, {1, 0}, {1, 1}}}, "after seq 1"},
		{"unknown", [][]Item{{{2, 0}}}, "unknown value"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := Verify(tc.received, 2, 2)
			require.Error(t, err)
			assert.True(t, Error.Has(err))
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}
}
