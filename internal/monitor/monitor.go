package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mediavault/mount-sentinel/internal/audit"
	"github.com/mediavault/mount-sentinel/internal/health"
	"github.com/mediavault/mount-sentinel/internal/mount"
)

const (
	defaultListTimeout = 5 * time.Second
	defaultSettleDelay = 2 * time.Second
)

// Monitor verifies and repairs the mounted state of configured targets.
type Monitor struct {
	logger      zerolog.Logger
	recorder    audit.Recorder
	controller  mount.Controller
	listTimeout time.Duration
	settleDelay time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
}

// Option customizes monitor behavior.
type Option func(*Monitor)

// WithListTimeout bounds the readability probe.
func WithListTimeout(timeout time.Duration) Option {
	return func(m *Monitor) {
		m.listTimeout = timeout
	}
}

// WithSettleDelay sets the pause between forced deactivate and reactivate,
// giving the kernel time to release a stale handle.
func WithSettleDelay(delay time.Duration) Option {
	return func(m *Monitor) {
		m.settleDelay = delay
	}
}

// WithSleep overrides the settle sleep (primarily for testing).
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(m *Monitor) {
		m.sleep = sleep
	}
}

// New constructs a Monitor around the given mount controller.
func New(logger zerolog.Logger, recorder audit.Recorder, controller mount.Controller, opts ...Option) *Monitor {
	m := &Monitor{
		logger:      logger,
		recorder:    recorder,
		controller:  controller,
		listTimeout: defaultListTimeout,
		settleDelay: defaultSettleDelay,
		sleep:       sleepWithContext,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run checks every target in configuration order and aggregates outcomes.
// Per-target failures are captured as data; Run itself never fails.
func (m *Monitor) Run(ctx context.Context, targets []health.Target) *health.Report {
	report := &health.Report{}
	for _, target := range targets {
		report.Append(m.CheckAndRecover(ctx, target))
	}

	failed := len(report.Failed())
	if failed == 0 {
		m.recorder.Record(fmt.Sprintf("OK: all mounts healthy (%d/%d)", len(targets), len(targets)))
	} else {
		m.recorder.Record(fmt.Sprintf("ERROR: %d of %d mounts unhealthy", failed, len(targets)))
	}

	m.logger.Info().
		Int("targets", len(targets)).
		Int("failed", failed).
		Str("result", string(report.Result())).
		Msg("run complete")

	return report
}

// CheckAndRecover probes one target and applies graduated recovery:
// standard remount when the path is not mounted, forced stop/settle/start
// when the mount is present but unreadable. A successful recovery command is
// trusted; the mount is not re-probed afterwards.
func (m *Monitor) CheckAndRecover(ctx context.Context, target health.Target) health.TargetHealth {
	mounted, err := m.controller.IsMountPoint(ctx, target.Path)
	if err != nil {
		// A failing predicate is treated like a missing mount: standard
		// recovery is still worth one attempt.
		m.logger.Warn().Err(err).Str("target", target.Name).Str("path", target.Path).Msg("mount point probe failed")
		return m.recoverStandard(ctx, target, fmt.Sprintf("mount point probe failed: %v", err))
	}

	if !mounted {
		return m.recoverStandard(ctx, target, "not mounted")
	}

	listCtx, cancel := context.WithTimeout(ctx, m.listTimeout)
	err = m.controller.ListDir(listCtx, target.Path)
	cancel()
	if err == nil {
		m.recorder.Record(fmt.Sprintf("OK: %s is healthy", target.Name))
		m.logger.Debug().Str("target", target.Name).Msg("target healthy")
		return health.TargetHealth{Target: target, Status: health.StatusHealthy, OK: true}
	}

	return m.recoverForced(ctx, target, err)
}

func (m *Monitor) recoverStandard(ctx context.Context, target health.Target, reason string) health.TargetHealth {
	m.recorder.Record(fmt.Sprintf("WARNING: %s %s at %s, attempting remount", target.Name, reason, target.Path))
	m.logger.Warn().Str("target", target.Name).Str("path", target.Path).Str("reason", reason).Msg("attempting remount")

	unit := mount.UnitName(target.Path)
	if err := m.controller.Activate(ctx, unit); err != nil {
		m.recorder.Record(fmt.Sprintf("ERROR: Failed to remount %s: %v", target.Name, err))
		m.logger.Error().Err(err).Str("target", target.Name).Str("unit", unit).Msg("remount failed")
		return health.TargetHealth{
			Target:  target,
			Status:  health.StatusUnmounted,
			Reasons: []string{reason, fmt.Sprintf("activate failed: %v", err)},
		}
	}

	m.recorder.Record(fmt.Sprintf("SUCCESS: Remounted %s", target.Name))
	m.logger.Info().Str("target", target.Name).Str("unit", unit).Msg("remounted")
	return health.TargetHealth{Target: target, Status: health.StatusHealthy, Recovered: true, OK: true}
}

func (m *Monitor) recoverForced(ctx context.Context, target health.Target, cause error) health.TargetHealth {
	m.recorder.Record(fmt.Sprintf("WARNING: %s mounted but unreadable (%v), forcing remount", target.Name, cause))
	m.logger.Warn().Err(cause).Str("target", target.Name).Str("path", target.Path).Msg("stale mount, forcing remount")

	reasons := []string{fmt.Sprintf("unreadable: %v", cause)}
	unit := mount.UnitName(target.Path)

	if err := m.controller.Deactivate(ctx, unit); err != nil {
		m.recorder.Record(fmt.Sprintf("ERROR: Failed to stop %s: %v", target.Name, err))
		m.logger.Error().Err(err).Str("target", target.Name).Str("unit", unit).Msg("deactivate failed")
		return health.TargetHealth{
			Target:  target,
			Status:  health.StatusUnreadable,
			Reasons: append(reasons, fmt.Sprintf("deactivate failed: %v", err)),
		}
	}

	if err := m.sleep(ctx, m.settleDelay); err != nil {
		m.recorder.Record(fmt.Sprintf("ERROR: Remount of %s interrupted: %v", target.Name, err))
		return health.TargetHealth{
			Target:  target,
			Status:  health.StatusUnreadable,
			Reasons: append(reasons, fmt.Sprintf("interrupted: %v", err)),
		}
	}

	if err := m.controller.Activate(ctx, unit); err != nil {
		m.recorder.Record(fmt.Sprintf("ERROR: Failed to remount %s: %v", target.Name, err))
		m.logger.Error().Err(err).Str("target", target.Name).Str("unit", unit).Msg("reactivate failed")
		return health.TargetHealth{
			Target:  target,
			Status:  health.StatusRecoveryFailed,
			Reasons: append(reasons, fmt.Sprintf("reactivate failed: %v", err)),
		}
	}

	m.recorder.Record(fmt.Sprintf("SUCCESS: Remounted %s after forced restart", target.Name))
	m.logger.Info().Str("target", target.Name).Str("unit", unit).Msg("remounted after forced restart")
	return health.TargetHealth{
		Target:    target,
		Status:    health.StatusHealthy,
		Recovered: true,
		OK:        true,
		Reasons:   reasons,
	}
}

func sleepWithContext(ctx context.Context, wait time.Duration) error {
	if wait <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
