package sqsdrain

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// MaxBatchSize is the hard SQS limit on messages per receive call. It drives
// validation of Config.BatchSize.
const MaxBatchSize = 10

// Config holds the drainer settings. The zero value is not usable; load it
// from the environment with ConfigFromEnv or fill it in and let NewDrainer
// validate it.
type Config struct {
	QueueURL string `env:"SQS_QUEUE_URL"`

	// BatchSize is the maximum number of messages requested per poll,
	// capped by SQS at MaxBatchSize.
	BatchSize int32 `env:"SQS_BATCH_SIZE" envDefault:"10"`

	// WaitTimeSeconds is the long-poll wait passed to ReceiveMessage. Keep
	// it short: the drainer re-checks its time budget only between cycles.
	WaitTimeSeconds int32 `env:"SQS_WAIT_TIME_SECONDS" envDefault:"1"`

	// SafetyMargin is the slice of the time budget reserved so that the
	// in-flight cycle's network calls can finish before the host's hard
	// cutoff. A new cycle starts only while more than this remains. It is
	// a fixed constant, not adapted to observed cycle latency: slow
	// handlers can still overrun it. Known limitation.
	SafetyMargin time.Duration `env:"DRAIN_SAFETY_MARGIN" envDefault:"3s"`
}

// ConfigFromEnv loads and validates a Config from the process environment.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("unable to parse drain config from environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.QueueURL == "" {
		return errors.New("QueueURL is required")
	}
	if c.BatchSize < 1 || c.BatchSize > MaxBatchSize {
		return fmt.Errorf("BatchSize must be between 1 and %d", MaxBatchSize)
	}
	if c.WaitTimeSeconds < 0 {
		return errors.New("WaitTimeSeconds cannot be negative")
	}
	if c.SafetyMargin <= 0 {
		return errors.New("SafetyMargin must be positive")
	}
	return nil
}
