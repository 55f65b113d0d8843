package mount

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

const defaultCommandTimeout = 30 * time.Second

// SystemdController implements Controller by driving systemctl and probing
// the filesystem directly. Starting and stopping mount units requires root,
// so construction fails early for unprivileged processes.
type SystemdController struct {
	systemctlPath string
	timeout       time.Duration
}

// SystemdOption customizes SystemdController behavior.
type SystemdOption func(*SystemdController)

// WithCommandTimeout bounds each systemctl invocation.
func WithCommandTimeout(timeout time.Duration) SystemdOption {
	return func(c *SystemdController) {
		c.timeout = timeout
	}
}

// NewSystemdController initializes the production controller.
func NewSystemdController(opts ...SystemdOption) (*SystemdController, error) {
	if os.Geteuid() != 0 {
		return nil, errors.New("mount unit control requires root privileges")
	}

	path, err := exec.LookPath("systemctl")
	if err != nil {
		return nil, fmt.Errorf("systemctl not found: %w", err)
	}

	controller := &SystemdController{
		systemctlPath: path,
		timeout:       defaultCommandTimeout,
	}
	for _, opt := range opts {
		opt(controller)
	}
	return controller, nil
}

// IsMountPoint reports whether path is a live mount point by comparing its
// device number against its parent's. A stale directory left behind by a
// dead mount shares the parent's device and reports false.
func (c *SystemdController) IsMountPoint(_ context.Context, path string) (bool, error) {
	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		if errors.Is(err, unix.ENOENT) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", path, err)
	}

	var parent unix.Stat_t
	if err := unix.Lstat(filepath.Dir(path), &parent); err != nil {
		return false, fmt.Errorf("stat %s: %w", filepath.Dir(path), err)
	}

	return st.Dev != parent.Dev, nil
}

// ListDir races a directory read against the context deadline. On a wedged
// network mount the read goroutine may outlive the deadline; the run does
// not wait for it.
func (c *SystemdController) ListDir(ctx context.Context, path string) error {
	done := make(chan error, 1)
	go func() {
		_, err := os.ReadDir(path)
		done <- err
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

// Activate starts the given mount unit.
func (c *SystemdController) Activate(ctx context.Context, unit string) error {
	return c.systemctl(ctx, "start", unit)
}

// Deactivate stops the given mount unit.
func (c *SystemdController) Deactivate(ctx context.Context, unit string) error {
	return c.systemctl(ctx, "stop", unit)
}

func (c *SystemdController) systemctl(ctx context.Context, verb, unit string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.systemctlPath, verb, unit)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if text := strings.TrimSpace(string(output)); text != "" {
			return fmt.Errorf("systemctl %s %s: %w: %s", verb, unit, err, text)
		}
		return fmt.Errorf("systemctl %s %s: %w", verb, unit, err)
	}
	return nil
}
