package monitor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mediavault/mount-sentinel/internal/audit"
	"github.com/mediavault/mount-sentinel/internal/health"
)

type fakeController struct {
	mounted       map[string]bool
	probeErr      map[string]error
	listErr       map[string]error
	listBlocks    map[string]bool
	activateErr   map[string]error
	deactivateErr map[string]error

	activateCalls   []string
	deactivateCalls []string
	listCalls       []string
}

func newFakeController() *fakeController {
	return &fakeController{
		mounted:       map[string]bool{},
		probeErr:      map[string]error{},
		listErr:       map[string]error{},
		listBlocks:    map[string]bool{},
		activateErr:   map[string]error{},
		deactivateErr: map[string]error{},
	}
}

func (f *fakeController) IsMountPoint(_ context.Context, path string) (bool, error) {
	if err := f.probeErr[path]; err != nil {
		return false, err
	}
	return f.mounted[path], nil
}

func (f *fakeController) ListDir(ctx context.Context, path string) error {
	f.listCalls = append(f.listCalls, path)
	if f.listBlocks[path] {
		// Simulates a stale NFS mount: block until the caller's deadline.
		<-ctx.Done()
		return ctx.Err()
	}
	return f.listErr[path]
}

func (f *fakeController) Activate(_ context.Context, unit string) error {
	f.activateCalls = append(f.activateCalls, unit)
	return f.activateErr[unit]
}

func (f *fakeController) Deactivate(_ context.Context, unit string) error {
	f.deactivateCalls = append(f.deactivateCalls, unit)
	return f.deactivateErr[unit]
}

var (
	dockerTarget = health.Target{Name: "Docker", Path: "/mnt/nas-media/volume1/docker"}
	videosTarget = health.Target{Name: "Videos", Path: "/mnt/nas-media/volume1/videos"}

	dockerUnit = `mnt-nas\x2dmedia-volume1-docker.mount`
	videosUnit = `mnt-nas\x2dmedia-volume1-videos.mount`
)

func newTestMonitor(controller *fakeController, recorder *audit.Memory, opts ...Option) *Monitor {
	base := []Option{
		WithListTimeout(50 * time.Millisecond),
		WithSettleDelay(0),
	}
	return New(zerolog.Nop(), recorder, controller, append(base, opts...)...)
}

func containsMessage(messages []string, substr string) bool {
	for _, message := range messages {
		if strings.Contains(message, substr) {
			return true
		}
	}
	return false
}

func TestHealthyMountLeftUntouched(t *testing.T) {
	controller := newFakeController()
	controller.mounted[dockerTarget.Path] = true

	recorder := &audit.Memory{}
	m := newTestMonitor(controller, recorder)

	result := m.CheckAndRecover(context.Background(), dockerTarget)

	if result.Status != health.StatusHealthy || !result.OK {
		t.Fatalf("expected healthy result, got %+v", result)
	}
	if result.Recovered {
		t.Fatalf("healthy mount should not be recovered")
	}
	if len(controller.activateCalls) != 0 || len(controller.deactivateCalls) != 0 {
		t.Fatalf("no recovery commands expected, got activate=%v deactivate=%v",
			controller.activateCalls, controller.deactivateCalls)
	}
	if !containsMessage(recorder.All(), "OK: Docker is healthy") {
		t.Fatalf("expected healthy audit line, got %v", recorder.All())
	}
}

func TestUnmountedTargetStandardRecovery(t *testing.T) {
	controller := newFakeController()

	recorder := &audit.Memory{}
	m := newTestMonitor(controller, recorder)

	result := m.CheckAndRecover(context.Background(), dockerTarget)

	if result.Status != health.StatusHealthy || !result.OK || !result.Recovered {
		t.Fatalf("expected recovered healthy result, got %+v", result)
	}
	if len(controller.activateCalls) != 1 || controller.activateCalls[0] != dockerUnit {
		t.Fatalf("expected exactly one activate of %s, got %v", dockerUnit, controller.activateCalls)
	}
	if len(controller.deactivateCalls) != 0 {
		t.Fatalf("standard recovery must not deactivate, got %v", controller.deactivateCalls)
	}
	if !containsMessage(recorder.All(), "SUCCESS: Remounted Docker") {
		t.Fatalf("expected success audit line, got %v", recorder.All())
	}
}

func TestUnmountedTargetActivationFails(t *testing.T) {
	controller := newFakeController()
	controller.activateErr[dockerUnit] = errors.New("unit not found")

	recorder := &audit.Memory{}
	m := newTestMonitor(controller, recorder)

	result := m.CheckAndRecover(context.Background(), dockerTarget)

	if result.Status != health.StatusUnmounted || result.OK {
		t.Fatalf("expected failed unmounted result, got %+v", result)
	}
	if !containsMessage(recorder.All(), "ERROR: Failed to remount Docker") {
		t.Fatalf("expected error audit line, got %v", recorder.All())
	}
}

func TestStaleMountForcedRecovery(t *testing.T) {
	controller := newFakeController()
	controller.mounted[dockerTarget.Path] = true
	controller.listBlocks[dockerTarget.Path] = true

	recorder := &audit.Memory{}

	settled := false
	m := newTestMonitor(controller, recorder, WithSleep(func(ctx context.Context, d time.Duration) error {
		settled = true
		return nil
	}))

	start := time.Now()
	result := m.CheckAndRecover(context.Background(), dockerTarget)
	elapsed := time.Since(start)

	if elapsed > 2*time.Second {
		t.Fatalf("blocked listing was not bounded, took %s", elapsed)
	}
	if result.Status != health.StatusHealthy || !result.OK || !result.Recovered {
		t.Fatalf("expected recovered result, got %+v", result)
	}
	if !settled {
		t.Fatalf("expected settle delay between deactivate and activate")
	}
	if len(controller.deactivateCalls) != 1 || len(controller.activateCalls) != 1 {
		t.Fatalf("expected forced stop/start cycle, got deactivate=%v activate=%v",
			controller.deactivateCalls, controller.activateCalls)
	}
	if !containsMessage(recorder.All(), "WARNING: Docker mounted but unreadable") {
		t.Fatalf("expected unreadable warning, got %v", recorder.All())
	}
	if !containsMessage(recorder.All(), "SUCCESS: Remounted Docker after forced restart") {
		t.Fatalf("expected forced restart success line, got %v", recorder.All())
	}
}

func TestStaleMountReactivationFails(t *testing.T) {
	controller := newFakeController()
	controller.mounted[dockerTarget.Path] = true
	controller.listErr[dockerTarget.Path] = errors.New("input/output error")
	controller.activateErr[dockerUnit] = errors.New("mount failed")

	recorder := &audit.Memory{}
	m := newTestMonitor(controller, recorder)

	result := m.CheckAndRecover(context.Background(), dockerTarget)

	if result.Status != health.StatusRecoveryFailed || result.OK {
		t.Fatalf("expected recovery failure, got %+v", result)
	}
	messages := recorder.All()
	if !containsMessage(messages, "WARNING: Docker mounted but unreadable") {
		t.Fatalf("expected warning line, got %v", messages)
	}
	if !containsMessage(messages, "ERROR: Failed to remount Docker") {
		t.Fatalf("expected error line, got %v", messages)
	}
}

func TestStaleMountDeactivationFails(t *testing.T) {
	controller := newFakeController()
	controller.mounted[dockerTarget.Path] = true
	controller.listErr[dockerTarget.Path] = errors.New("stale file handle")
	controller.deactivateErr[dockerUnit] = errors.New("stop timed out")

	recorder := &audit.Memory{}
	m := newTestMonitor(controller, recorder)

	result := m.CheckAndRecover(context.Background(), dockerTarget)

	if result.Status != health.StatusUnreadable || result.OK {
		t.Fatalf("expected unreadable failure, got %+v", result)
	}
	if len(controller.activateCalls) != 0 {
		t.Fatalf("reactivate must not run after failed deactivate, got %v", controller.activateCalls)
	}
}

func TestProbeErrorFallsBackToStandardRecovery(t *testing.T) {
	controller := newFakeController()
	controller.probeErr[dockerTarget.Path] = errors.New("permission denied")

	recorder := &audit.Memory{}
	m := newTestMonitor(controller, recorder)

	result := m.CheckAndRecover(context.Background(), dockerTarget)

	if result.Status != health.StatusHealthy || !result.Recovered {
		t.Fatalf("expected standard recovery after probe error, got %+v", result)
	}
	if len(controller.activateCalls) != 1 {
		t.Fatalf("expected one activate, got %v", controller.activateCalls)
	}
}

func TestRunAggregation(t *testing.T) {
	cases := []struct {
		name         string
		dockerOK     bool
		videosOK     bool
		expectedCode int
	}{
		{name: "both_succeed", dockerOK: true, videosOK: true, expectedCode: 0},
		{name: "one_fails", dockerOK: true, videosOK: false, expectedCode: 1},
		{name: "both_fail", dockerOK: false, videosOK: false, expectedCode: 2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			controller := newFakeController()
			controller.mounted[dockerTarget.Path] = tc.dockerOK
			controller.mounted[videosTarget.Path] = tc.videosOK
			if !tc.dockerOK {
				controller.activateErr[dockerUnit] = errors.New("activation failed")
			}
			if !tc.videosOK {
				controller.activateErr[videosUnit] = errors.New("activation failed")
			}

			recorder := &audit.Memory{}
			m := newTestMonitor(controller, recorder)

			report := m.Run(context.Background(), []health.Target{dockerTarget, videosTarget})
			if report.ExitCode() != tc.expectedCode {
				t.Fatalf("expected exit code %d, got %d", tc.expectedCode, report.ExitCode())
			}
			if len(report.Targets) != 2 {
				t.Fatalf("expected 2 target results, got %d", len(report.Targets))
			}
			if report.Targets[0].Target.Name != "Docker" || report.Targets[1].Target.Name != "Videos" {
				t.Fatalf("configuration order not preserved: %+v", report.Targets)
			}
		})
	}
}

func TestRunRecordsOneResultLinePerTarget(t *testing.T) {
	controller := newFakeController()
	controller.mounted[dockerTarget.Path] = true
	controller.mounted[videosTarget.Path] = false
	controller.activateErr[videosUnit] = errors.New("activation failed")

	recorder := &audit.Memory{}
	m := newTestMonitor(controller, recorder)

	m.Run(context.Background(), []health.Target{dockerTarget, videosTarget})

	resultLines := 0
	for _, message := range recorder.All() {
		if strings.HasPrefix(message, "OK: Docker") ||
			strings.HasPrefix(message, "SUCCESS: Remounted Videos") ||
			strings.HasPrefix(message, "ERROR: Failed to remount Videos") {
			resultLines++
		}
	}
	if resultLines != 2 {
		t.Fatalf("expected exactly one result line per target, got %d in %v", resultLines, recorder.All())
	}
}
