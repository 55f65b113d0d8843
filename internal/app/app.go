package app

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/mediavault/mount-sentinel/internal/audit"
	"github.com/mediavault/mount-sentinel/internal/config"
	"github.com/mediavault/mount-sentinel/internal/health"
	"github.com/mediavault/mount-sentinel/internal/healthcheck"
	"github.com/mediavault/mount-sentinel/internal/metrics"
	"github.com/mediavault/mount-sentinel/internal/monitor"
	"github.com/mediavault/mount-sentinel/internal/mount"
	"github.com/mediavault/mount-sentinel/internal/notify"
	"github.com/mediavault/mount-sentinel/internal/runner"
	"github.com/mediavault/mount-sentinel/internal/server"
	"github.com/mediavault/mount-sentinel/internal/state"
	"github.com/mediavault/mount-sentinel/internal/transition"
)

// App wires configuration, the monitor, and its collaborators, then runs
// once or loops depending on configuration.
type App struct {
	logger    zerolog.Logger
	cfg       config.Config
	targets   []health.Target
	monitor   *monitor.Monitor
	recorder  audit.Recorder
	store     state.Store
	notifier  notify.Notifier
	collector *metrics.Metrics
	tracker   *healthcheck.Tracker
	hostname  string
	now       func() time.Time
}

// Option customizes app construction, primarily for testing.
type Option func(*App)

// WithRecorder overrides the audit recorder.
func WithRecorder(recorder audit.Recorder) Option {
	return func(a *App) {
		a.recorder = recorder
	}
}

// WithNotifier overrides the notifier chain.
func WithNotifier(notifier notify.Notifier) Option {
	return func(a *App) {
		a.notifier = notifier
	}
}

// WithStore overrides the snapshot store.
func WithStore(store state.Store) Option {
	return func(a *App) {
		a.store = store
	}
}

// WithClock overrides time for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(a *App) {
		a.now = now
	}
}

// New builds the application around the given mount controller. All
// construction failures are configuration errors, surfaced before any
// target is touched.
func New(logger zerolog.Logger, cfg config.Config, targets []health.Target, controller mount.Controller, opts ...Option) (*App, error) {
	a := &App{
		logger:    logger,
		cfg:       cfg,
		targets:   targets,
		collector: metrics.New(),
		tracker:   healthcheck.NewTracker(),
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.recorder == nil {
		recorder, err := audit.NewFileRecorder(cfg.LogFile, logger)
		if err != nil {
			return nil, err
		}
		a.recorder = recorder
	}

	if a.store == nil && cfg.StateFile != "" {
		a.store = state.NewFileStore(cfg.StateFile, logger)
	}

	if a.notifier == nil {
		notifier, err := buildNotifier(logger, cfg)
		if err != nil {
			return nil, err
		}
		a.notifier = notifier
	}

	if hostname, err := os.Hostname(); err == nil {
		a.hostname = hostname
	} else {
		a.hostname = "unknown"
	}

	a.monitor = monitor.New(logger, a.recorder, controller,
		monitor.WithListTimeout(cfg.ListTimeout),
		monitor.WithSettleDelay(cfg.SettleDelay),
	)

	return a, nil
}

func buildNotifier(logger zerolog.Logger, cfg config.Config) (notify.Notifier, error) {
	slackNotifier := notify.NewSlackNotifier(logger, cfg.SlackWebhookURL)

	webhookNotifier, err := notify.NewWebhookNotifier(logger, cfg.WebhookURL, cfg.WebhookTemplate)
	if err != nil {
		return nil, err
	}

	var notifier notify.Notifier
	if webhookNotifier != nil {
		notifier = notify.NewMultiNotifier(slackNotifier, webhookNotifier)
	} else {
		notifier = slackNotifier
	}

	if cfg.DryRun {
		notifier = notify.NewDryRunNotifier(logger, notifier)
	}
	return notifier, nil
}

// RunOnce executes a single check-and-recover pass over all targets and
// feeds the outcome into metrics, state, and notifications.
func (a *App) RunOnce(ctx context.Context) *health.Report {
	started := a.now()
	report := a.monitor.Run(ctx, a.targets)
	finished := a.now()

	a.collector.ObserveRun(report, finished.Sub(started), finished)
	a.tracker.RecordRun(finished.Sub(started), len(report.Targets), report.Result())

	if a.cfg.MetricsTextfile != "" {
		if err := a.collector.WriteTextfile(a.cfg.MetricsTextfile); err != nil {
			a.logger.Error().Err(err).Str("path", a.cfg.MetricsTextfile).Msg("metrics textfile write failed")
		}
	}

	var previous *state.Snapshot
	if a.store != nil {
		snapshot, err := a.store.Load(ctx)
		if err != nil {
			a.logger.Warn().Err(err).Msg("state load failed, treating as first run")
		} else {
			previous = snapshot
		}
	}

	transitions := transition.Detect(previous, report)
	if len(transitions) > 0 {
		if err := a.notifier.Notify(ctx, a.hostname, transitions); err != nil {
			a.logger.Error().Err(err).Msg("notification failed")
		}
	}

	if a.store != nil {
		if err := a.store.Save(ctx, state.FromReport(report, finished.UTC())); err != nil {
			a.logger.Error().Err(err).Msg("state save failed")
		}
	}

	return report
}

// Run executes the app. In one-shot mode it returns the report's exit code;
// in watch mode it loops until the context is canceled and returns 0.
func (a *App) Run(ctx context.Context) int {
	if !a.cfg.WatchMode() {
		return a.RunOnce(ctx).ExitCode()
	}

	server.Start(ctx, a.logger, a.cfg.PollInterval, a.tracker, a.collector, a.cfg.HealthPort, a.cfg.MetricsPort)

	loop := runner.New(a.logger, a.cfg.PollInterval, func(ctx context.Context) error {
		a.RunOnce(ctx)
		return nil
	})
	if err := loop.Run(ctx); err != nil {
		a.logger.Error().Err(err).Msg("watch loop failed")
		return 1
	}
	return 0
}
