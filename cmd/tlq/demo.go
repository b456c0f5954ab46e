package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/randomizedcoder/two-lock-queue/internal/harness"
	"github.com/randomizedcoder/two-lock-queue/internal/logging"
	"github.com/randomizedcoder/two-lock-queue/internal/tick"
)

func cmdDemo() *cobra.Command {
	var (
		configFile string
		mode       string
		ticker     string
		flagged    = harness.DefaultConfig()
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run producers and consumers and verify delivery",
		Long: `Run producers and consumers and verify delivery

Each producer pushes --items tagged values; the consumers pop an equal
share each. Once every goroutine has returned the run checks that each
value arrived exactly once, in per-producer order, and that the queue is
empty. A YAML --config file is applied first and explicit flags override
it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flagged.Mode = harness.Mode(mode)
			flagged.Ticker = tick.Kind(ticker)

			cfg := flagged
			if configFile != "" {
				loaded, err := harness.LoadConfig(configFile)
				if err != nil {
					return err
				}
				cfg = overlayFlags(cmd, loaded, flagged)
			}
			return runDemo(cmd.Context(), cfg)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&configFile, "config", "c", "", "YAML run configuration")
	f.IntVarP(&flagged.Producers, "producers", "p", flagged.Producers, "number of producer goroutines")
	f.IntVarP(&flagged.Consumers, "consumers", "C", flagged.Consumers, "number of consumer goroutines")
	f.IntVarP(&flagged.Items, "items", "n", flagged.Items, "values pushed by each producer")
	f.StringVarP(&mode, "mode", "m", string(flagged.Mode), "queue operations: blocking or try")
	f.StringVar(&flagged.Impl, "impl", flagged.Impl, "queue implementation: twolock or mutex")
	f.DurationVar(&flagged.ProduceDelay, "produce-delay", flagged.ProduceDelay, "pause before each push")
	f.DurationVar(&flagged.ConsumeDelay, "consume-delay", flagged.ConsumeDelay, "pause before each pop")
	f.DurationVar(&flagged.Timeout, "timeout", flagged.Timeout, "abort the run after this long (0 = never)")
	f.DurationVar(&flagged.ProgressInterval, "progress", flagged.ProgressInterval, "progress log interval (0 = off)")
	f.StringVar(&ticker, "ticker", string(flagged.Ticker), "progress ticker: atomic or std")
	f.StringVar(&flagged.Log.Level, "log-level", flagged.Log.Level, "debug, info, warn or error")
	f.BoolVar(&flagged.Log.Production, "production", flagged.Log.Production, "JSON log output")

	return cmd
}

// overlayFlags copies every flag the user set explicitly from flagged
// onto loaded.
func overlayFlags(cmd *cobra.Command, loaded, flagged harness.Config) harness.Config {
	f := cmd.Flags()
	if f.Changed("producers") {
		loaded.Producers = flagged.Producers
	}
	if f.Changed("consumers") {
		loaded.Consumers = flagged.Consumers
	}
	if f.Changed("items") {
		loaded.Items = flagged.Items
	}
	if f.Changed("mode") {
		loaded.Mode = flagged.Mode
	}
	if f.Changed("impl") {
		loaded.Impl = flagged.Impl
	}
	if f.Changed("produce-delay") {
		loaded.ProduceDelay = flagged.ProduceDelay
	}
	if f.Changed("consume-delay") {
		loaded.ConsumeDelay = flagged.ConsumeDelay
	}
	if f.Changed("timeout") {
		loaded.Timeout = flagged.Timeout
	}
	if f.Changed("progress") {
		loaded.ProgressInterval = flagged.ProgressInterval
	}
	if f.Changed("ticker") {
		loaded.Ticker = flagged.Ticker
	}
	if f.Changed("log-level") {
		loaded.Log.Level = flagged.Log.Level
	}
	if f.Changed("production") {
		loaded.Log.Production = flagged.Log.Production
	}
	return loaded
}

func runDemo(ctx context.Context, cfg harness.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		return harness.Error.Wrap(err)
	}
	defer func() { _ = log.Sync() }()

	q, err := harness.NewQueue(cfg.Impl)
	if err != nil {
		return err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx = logging.WithContext(ctx, log.With(logging.String("impl", cfg.Impl)))
	report, err := harness.Run(ctx, q, cfg)
	if err != nil {
		log.Error("demo failed", zap.Error(err))
		return err
	}

	log.Info("queue drained",
		zap.Bool("empty", q.IsEmpty()),
		zap.Int64("values", report.Popped),
		zap.Duration("took", report.Duration))
	return nil
}
