// Package harness drives a queue with concurrent producers and consumers
// and checks that every value came out exactly once.
//
// Each producer pushes Items tagged values; each consumer pops an equal
// share. After all workers are joined the run verifies delivery and that
// the queue is empty.
package harness

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"github.com/randomizedcoder/two-lock-queue/internal/cancel"
	"github.com/randomizedcoder/two-lock-queue/internal/logging"
	"github.com/randomizedcoder/two-lock-queue/internal/queue"
	"github.com/randomizedcoder/two-lock-queue/internal/tick"
)

// Error is the class of all errors returned by this package.
var Error = errs.Class("harness")

type logKey string

const (
	keyProducer   logKey = "producer"
	keyConsumer   logKey = "consumer"
	keySeq        logKey = "seq"
	keyProducers  logKey = "producers"
	keyConsumers  logKey = "consumers"
	keyItems      logKey = "items"
	keyMode       logKey = "mode"
	keyTicker     logKey = "ticker"
	keyPushed     logKey = "pushed"
	keyPopped     logKey = "popped"
	keyPushMisses logKey = "push_misses"
	keyPopMisses  logKey = "pop_misses"
	keyQueued     logKey = "queued"
	keySent       logKey = "sent"
	keyReceived   logKey = "received"
	keyWant       logKey = "want"
	keyTook       logKey = "took"
)

// Item is a value tagged with its producer and position.
type Item struct {
	Producer int
	Seq      int
}

// NewQueue returns an empty queue of the named implementation.
func NewQueue(impl string) (queue.Queue[Item], error) {
	switch impl {
	case ImplTwoLock, "":
		return queue.New[Item](), nil
	case ImplMutex:
		return queue.NewMutex[Item](), nil
	}
	return nil, Error.New("unknown queue implementation %q", impl)
}

// Report summarises a run.
type Report struct {
	Pushed int64
	Popped int64

	// PushMisses and PopMisses count TryPush and TryPop calls that
	// returned false. Always zero in blocking mode.
	PushMisses int64
	PopMisses  int64

	Duration time.Duration
}

type run struct {
	cfg   Config
	q     queue.Queue[Item]
	log   *zap.Logger
	abort *cancel.ContextCanceler

	progress tick.Ticker

	pushed     atomic.Int64
	popped     atomic.Int64
	pushMisses atomic.Int64
	popMisses  atomic.Int64
}

// Run moves cfg.Total() values through q and verifies the result.
// The run stops early when ctx is done or cfg.Timeout expires. It logs
// through the logger carried by ctx, if any.
func Run(ctx context.Context, q queue.Queue[Item], cfg Config) (Report, error) {
	if err := cfg.Validate(); err != nil {
		return Report{}, err
	}
	log := logging.FromContext(ctx)
	if cfg.Timeout > 0 {
		var stop context.CancelFunc
		ctx, stop = context.WithTimeout(ctx, cfg.Timeout)
		defer stop()
	}

	r := &run{
		cfg:      cfg,
		q:        q,
		log:      log,
		abort:    cancel.NewContext(ctx),
		progress: tick.NewKind(cfg.Ticker, cfg.ProgressInterval),
	}
	defer r.abort.Cancel()
	defer r.progress.Stop()

	log.Info("run starting",
		logging.Int(keyProducers, cfg.Producers),
		logging.Int(keyConsumers, cfg.Consumers),
		logging.Int(keyItems, cfg.Items),
		logging.String(keyMode, cfg.Mode),
		logging.String(keyTicker, cfg.Ticker))

	start := time.Now()
	received, err := r.spawn()
	report := r.report(time.Since(start))

	if err != nil {
		log.Error("run aborted", zap.Error(err), logging.Int64(keyPushed, report.Pushed), logging.Int64(keyPopped, report.Popped))
		return report, err
	}
	if err := Verify(received, cfg.Producers, cfg.Items); err != nil {
		return report, err
	}
	if !q.IsEmpty() {
		return report, Error.New("queue not empty after all consumers finished: %d left", q.Len())
	}

	log.Info("run complete",
		logging.Int64(keyPushed, report.Pushed),
		logging.Int64(keyPopped, report.Popped),
		logging.Int64(keyPushMisses, report.PushMisses),
		logging.Int64(keyPopMisses, report.PopMisses),
		logging.Duration(keyTook, report.Duration))
	return report, nil
}

func (r *run) report(d time.Duration) Report {
	return Report{
		Pushed:     r.pushed.Load(),
		Popped:     r.popped.Load(),
		PushMisses: r.pushMisses.Load(),
		PopMisses:  r.popMisses.Load(),
		Duration:   d,
	}
}

// spawn starts every worker, waits for all of them, and returns what
// each consumer received. The first worker to fail stops the others and
// its error is returned.
func (r *run) spawn() ([][]Item, error) {
	received := make([][]Item, r.cfg.Consumers)

	var (
		once     sync.Once
		firstErr error
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			r.abort.Cancel()
		})
	}

	var wg sync.WaitGroup
	for p := 0; p < r.cfg.Producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			if err := r.produce(p); err != nil {
				fail(err)
			}
		}(p)
	}
	for c := 0; c < r.cfg.Consumers; c++ {
		wg.Add(1)
		go func(c int) {
			defer wg.Done()
			got, err := r.consume(c)
			received[c] = got
			if err != nil {
				fail(err)
			}
		}(c)
	}
	wg.Wait()

	return received, firstErr
}

func (r *run) produce(p int) error {
	ctx := r.abort.Context()
	log := logging.FromContext(ctx).With(logging.Int(keyProducer, p))

	for j := 0; j < r.cfg.Items; j++ {
		if err := pause(ctx, r.cfg.ProduceDelay); err != nil {
			return Error.Wrap(err)
		}

		item := Item{Producer: p, Seq: j}
		switch r.cfg.Mode {
		case ModeBlocking:
			r.q.Push(item)
		case ModeTry:
			ok, misses := cancel.RetryCount(r.abort, func() bool {
				return r.q.TryPush(item)
			})
			r.pushMisses.Add(int64(misses))
			if !ok {
				log.Warn("producer stopped", logging.Int(keySent, j), logging.Int(keyWant, r.cfg.Items))
				return Error.Wrap(ctx.Err())
			}
		}
		r.pushed.Add(1)
		log.Debug("push", logging.Int(keySeq, j))
		r.tick()
	}
	return nil
}

func (r *run) consume(c int) ([]Item, error) {
	ctx := r.abort.Context()
	log := logging.FromContext(ctx).With(logging.Int(keyConsumer, c))
	want := r.cfg.PerConsumer()
	got := make([]Item, 0, want)

	for len(got) < want {
		if err := pause(ctx, r.cfg.ConsumeDelay); err != nil {
			return got, Error.Wrap(err)
		}

		var item Item
		switch r.cfg.Mode {
		case ModeBlocking:
			v, err := r.q.PopContext(ctx)
			if err != nil {
				return got, Error.Wrap(err)
			}
			item = v
		case ModeTry:
			ok, misses := cancel.RetryCount(r.abort, func() bool {
				v, ok := r.q.TryPop()
				item = v
				return ok
			})
			r.popMisses.Add(int64(misses))
			if !ok {
				log.Warn("consumer stopped", logging.Int(keyReceived, len(got)), logging.Int(keyWant, want))
				return got, Error.Wrap(ctx.Err())
			}
		}
		got = append(got, item)
		r.popped.Add(1)
		log.Debug("pop", logging.Int(keyProducer, item.Producer), logging.Int(keySeq, item.Seq))
		r.tick()
	}
	return got, nil
}

// tick emits a progress line when the reporting interval has elapsed.
func (r *run) tick() {
	if !r.progress.Tick() {
		return
	}
	r.log.Info("progress",
		logging.Int64(keyPushed, r.pushed.Load()),
		logging.Int64(keyPopped, r.popped.Load()),
		logging.Int(keyQueued, r.q.Len()))
}

func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
