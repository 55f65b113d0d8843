package state

import (
	"context"
	"time"

	"github.com/mediavault/mount-sentinel/internal/health"
)

// Snapshot captures the persisted outcome of the last monitor run. One-shot
// invocations driven by an external scheduler share it across runs so
// notifications fire on transitions, not on every failing run.
type Snapshot struct {
	Targets    map[string]health.TargetHealth `json:"targets"`
	RunResult  health.RunResult               `json:"run_result"`
	RecordedAt time.Time                      `json:"recorded_at"`
}

// FromReport builds a snapshot keyed by target path.
func FromReport(report *health.Report, now time.Time) Snapshot {
	targets := make(map[string]health.TargetHealth, len(report.Targets))
	for _, th := range report.Targets {
		targets[th.Target.Path] = th
	}
	return Snapshot{
		Targets:    targets,
		RunResult:  report.Result(),
		RecordedAt: now,
	}
}

// Store defines the interface for persisting snapshots.
type Store interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snapshot Snapshot) error
}
