package mount

import "context"

// Controller defines the OS-level mount operations the monitor depends on.
// This interface enables mocking in tests; the production implementation is
// SystemdController.
type Controller interface {
	// IsMountPoint reports whether path is currently a live mount point.
	// A directory that merely exists is not a mount point.
	IsMountPoint(ctx context.Context, path string) (bool, error)

	// ListDir attempts a directory listing of path. Callers bound it with a
	// context deadline; implementations must honor cancellation so a stale
	// mount cannot hang the run.
	ListDir(ctx context.Context, path string) error

	// Activate starts the given mount unit.
	Activate(ctx context.Context, unit string) error

	// Deactivate stops the given mount unit.
	Deactivate(ctx context.Context, unit string) error
}
