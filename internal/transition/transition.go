package transition

import (
	"github.com/mediavault/mount-sentinel/internal/health"
	"github.com/mediavault/mount-sentinel/internal/state"
)

// TargetTransition captures a status change for one mount target.
type TargetTransition struct {
	Target         health.Target
	PreviousStatus health.Status
	CurrentStatus  health.Status
	Recovered      bool
	Reasons        []string
}

// Detect compares the previous snapshot with the current report and emits
// transitions worth notifying about. Recovery actions always notify; for
// steady states, the first run (no snapshot) reports every non-healthy
// target and later runs report only status changes. Output follows report
// (configuration) order.
func Detect(prev *state.Snapshot, report *health.Report) []TargetTransition {
	prevTargets := map[string]health.TargetHealth{}
	if prev != nil && prev.Targets != nil {
		prevTargets = prev.Targets
	}
	firstRun := prev == nil || len(prevTargets) == 0

	transitions := make([]TargetTransition, 0)
	for _, current := range report.Targets {
		previous, hadPrev := prevTargets[current.Target.Path]

		if !current.Recovered {
			if firstRun || !hadPrev {
				if current.Status == health.StatusHealthy {
					continue
				}
			} else if previous.Status == current.Status {
				continue
			}
		}

		transitions = append(transitions, TargetTransition{
			Target:         current.Target,
			PreviousStatus: previous.Status,
			CurrentStatus:  current.Status,
			Recovered:      current.Recovered,
			Reasons:        append([]string(nil), current.Reasons...),
		})
	}

	return transitions
}
