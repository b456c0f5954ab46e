package harness

import (
	"os"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/randomizedcoder/two-lock-queue/internal/logging"
	"github.com/randomizedcoder/two-lock-queue/internal/tick"
)

// Mode selects which queue operations the workers use.
type Mode string

const (
	// ModeBlocking uses Push and PopContext.
	ModeBlocking Mode = "blocking"
	// ModeTry uses TryPush and TryPop in retry loops.
	ModeTry Mode = "try"
)

// Implementation names accepted by NewQueue.
const (
	ImplTwoLock = "twolock"
	ImplMutex   = "mutex"
)

// Config describes one producer/consumer run.
type Config struct {
	// Producers is the number of producer goroutines.
	Producers int `yaml:"producers"`
	// Consumers is the number of consumer goroutines.
	Consumers int `yaml:"consumers"`
	// Items is the number of values each producer pushes.
	Items int `yaml:"items"`

	Mode Mode   `yaml:"mode"`
	Impl string `yaml:"impl"`

	// ProduceDelay and ConsumeDelay pace each worker between operations.
	ProduceDelay time.Duration `yaml:"produce_delay"`
	ConsumeDelay time.Duration `yaml:"consume_delay"`

	// Timeout bounds the whole run; zero means no limit.
	Timeout time.Duration `yaml:"timeout"`

	// ProgressInterval rate-limits progress logging; zero disables it.
	ProgressInterval time.Duration `yaml:"progress_interval"`
	// Ticker picks the progress ticker implementation.
	Ticker tick.Kind `yaml:"ticker"`

	Log logging.Config `yaml:"log"`
}

// DefaultConfig is five producers and five consumers moving ten values
// each through Try retry loops.
func DefaultConfig() Config {
	return Config{
		Producers:        5,
		Consumers:        5,
		Items:            10,
		Mode:             ModeTry,
		Impl:             ImplTwoLock,
		Timeout:          time.Minute,
		ProgressInterval: tick.DefaultInterval,
		Ticker:           tick.KindAtomic,
		Log:              logging.Config{Level: "info"},
	}
}

// Total is the number of values the run moves through the queue.
func (c Config) Total() int {
	return c.Producers * c.Items
}

// PerConsumer is the number of values each consumer pops.
func (c Config) PerConsumer() int {
	if c.Consumers <= 0 {
		return 0
	}
	return c.Total() / c.Consumers
}

// Validate reports the first problem with c.
func (c Config) Validate() error {
	switch {
	case c.Producers <= 0:
		return Error.New("producers must be positive, got %d", c.Producers)
	case c.Consumers <= 0:
		return Error.New("consumers must be positive, got %d", c.Consumers)
	case c.Items <= 0:
		return Error.New("items must be positive, got %d", c.Items)
	case c.Total()%c.Consumers != 0:
		return Error.New("%d values cannot be split evenly across %d consumers", c.Total(), c.Consumers)
	case c.Mode != ModeBlocking && c.Mode != ModeTry:
		return Error.New("unknown mode %q", c.Mode)
	case c.Impl != "" && c.Impl != ImplTwoLock && c.Impl != ImplMutex:
		return Error.New("unknown queue implementation %q", c.Impl)
	case !c.Ticker.Valid():
		return Error.New("unknown ticker %q", c.Ticker)
	case c.ProduceDelay < 0 || c.ConsumeDelay < 0 || c.Timeout < 0:
		return Error.New("delays and timeout must not be negative")
	}
	return nil
}

// LoadConfig reads a YAML file over DefaultConfig. Unknown keys are
// rejected.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	f, err := os.Open(path)
	if err != nil {
		return cfg, Error.Wrap(err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f, yaml.Strict())
	if err := dec.Decode(&cfg); err != nil {
		return cfg, Error.Wrap(err)
	}
	return cfg, nil
}
