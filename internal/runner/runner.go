package runner

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// Ticker is the minimal interface needed for driving the watch loop.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct {
	ticker *time.Ticker
}

func (t timeTicker) C() <-chan time.Time {
	return t.ticker.C
}

func (t timeTicker) Stop() {
	t.ticker.Stop()
}

// Runner drives repeated monitor runs in watch mode. One-shot mode bypasses
// it entirely; repetition across time normally belongs to the external
// scheduler.
type Runner struct {
	logger        zerolog.Logger
	pollInterval  time.Duration
	tickerFactory func(time.Duration) Ticker
	runOnce       func(context.Context) error
}

// Option customizes runner behavior.
type Option func(*Runner)

// WithTickerFactory overrides how tickers are created.
func WithTickerFactory(factory func(time.Duration) Ticker) Option {
	return func(r *Runner) {
		r.tickerFactory = factory
	}
}

// New constructs a Runner invoking runOnce every pollInterval.
func New(logger zerolog.Logger, pollInterval time.Duration, runOnce func(context.Context) error, opts ...Option) *Runner {
	r := &Runner{
		logger:       logger,
		pollInterval: pollInterval,
		runOnce:      runOnce,
		tickerFactory: func(d time.Duration) Ticker {
			return timeTicker{ticker: time.NewTicker(d)}
		},
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Run starts the watch loop and blocks until the context is canceled. An
// immediate run happens on startup; per-run errors are logged, never fatal.
func (r *Runner) Run(ctx context.Context) error {
	if r.pollInterval <= 0 {
		return errors.New("poll interval must be greater than zero")
	}
	if r.runOnce == nil {
		return errors.New("runOnce must be set")
	}

	if err := r.runOnce(ctx); err != nil {
		r.logger.Error().Err(err).Msg("initial run failed")
	}

	ticker := r.tickerFactory(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("runner stopped")
			return nil
		case <-ticker.C():
			if err := r.runOnce(ctx); err != nil {
				r.logger.Error().Err(err).Msg("run failed")
			}
		}
	}
}
