package healthcheck

import (
	"sync"
	"time"

	"github.com/mediavault/mount-sentinel/internal/health"
)

// Snapshot describes the latest run for health endpoints.
type Snapshot struct {
	LastRunTime   *time.Time       `json:"last_run_time"`
	RunDurationMS int64            `json:"run_duration_ms"`
	Targets       int              `json:"targets"`
	Result        health.RunResult `json:"result,omitempty"`
}

// Tracker records run timing for health endpoints in watch mode.
type Tracker struct {
	mu          sync.RWMutex
	lastRun     time.Time
	runDuration time.Duration
	targets     int
	result      health.RunResult
	ready       bool
}

// NewTracker constructs a new Tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// RecordRun updates run timing and readiness.
func (t *Tracker) RecordRun(duration time.Duration, targets int, result health.RunResult) {
	if t == nil {
		return
	}
	now := time.Now().UTC()
	t.mu.Lock()
	t.lastRun = now
	t.runDuration = duration
	t.targets = targets
	t.result = result
	t.ready = true
	t.mu.Unlock()
}

// Snapshot returns the current tracker snapshot.
func (t *Tracker) Snapshot() Snapshot {
	if t == nil {
		return Snapshot{}
	}
	t.mu.RLock()
	defer t.mu.RUnlock()

	var last *time.Time
	if !t.lastRun.IsZero() {
		value := t.lastRun
		last = &value
	}
	return Snapshot{
		LastRunTime:   last,
		RunDurationMS: int64(t.runDuration / time.Millisecond),
		Targets:       t.targets,
		Result:        t.result,
	}
}

// Ready reports whether at least one run has completed.
func (t *Tracker) Ready() bool {
	if t == nil {
		return false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.ready
}

// Healthy reports whether the last run completed within 2x the poll interval.
func (t *Tracker) Healthy(now time.Time, pollInterval time.Duration) bool {
	if t == nil {
		return false
	}
	if pollInterval <= 0 {
		return false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.lastRun.IsZero() {
		return false
	}
	return now.Sub(t.lastRun) <= 2*pollInterval
}
