package health

// Status represents the health of a single mount target.
type Status string

const (
	StatusHealthy        Status = "HEALTHY"
	StatusUnmounted      Status = "UNMOUNTED"
	StatusUnreadable     Status = "UNREADABLE"
	StatusRecoveryFailed Status = "RECOVERY_FAILED"
)

// RunResult summarizes an entire monitor run.
type RunResult string

const (
	ResultAllHealthy     RunResult = "ALL_HEALTHY"
	ResultPartialFailure RunResult = "PARTIAL_FAILURE"
	ResultTotalFailure   RunResult = "TOTAL_FAILURE"
)

// Target is a logical mount the monitor keeps healthy. Identity is Path.
type Target struct {
	Name string `json:"name" yaml:"name"`
	Path string `json:"path" yaml:"path"`
}

// TargetHealth captures the outcome of one check-and-recover pass.
type TargetHealth struct {
	Target    Target   `json:"target"`
	Status    Status   `json:"status"`
	Recovered bool     `json:"recovered"`
	OK        bool     `json:"ok"`
	Reasons   []string `json:"reasons,omitempty"`
}

// Report is the ordered aggregate of one run. Order matches configuration order.
type Report struct {
	Targets []TargetHealth
}

// Append records a target outcome, preserving configuration order.
func (r *Report) Append(th TargetHealth) {
	r.Targets = append(r.Targets, th)
}

// Result folds per-target outcomes into the three-way run result.
func (r *Report) Result() RunResult {
	if len(r.Targets) == 0 {
		return ResultAllHealthy
	}
	succeeded := 0
	for _, th := range r.Targets {
		if th.OK {
			succeeded++
		}
	}
	switch succeeded {
	case len(r.Targets):
		return ResultAllHealthy
	case 0:
		return ResultTotalFailure
	default:
		return ResultPartialFailure
	}
}

// ExitCode maps the run result onto the process exit contract:
// 0 all healthy, 1 partial failure, 2 total failure.
func (r *Report) ExitCode() int {
	switch r.Result() {
	case ResultAllHealthy:
		return 0
	case ResultPartialFailure:
		return 1
	default:
		return 2
	}
}

// Failed returns the unhealthy targets in report order.
func (r *Report) Failed() []TargetHealth {
	failed := make([]TargetHealth, 0)
	for _, th := range r.Targets {
		if !th.OK {
			failed = append(failed, th)
		}
	}
	return failed
}
