package notify

import (
	"context"

	"github.com/mediavault/mount-sentinel/internal/transition"
)

// Notifier delivers mount transition alerts to external systems.
type Notifier interface {
	Notify(ctx context.Context, host string, transitions []transition.TargetTransition) error
}
