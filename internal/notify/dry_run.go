package notify

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/mediavault/mount-sentinel/internal/transition"
)

// DryRunNotifier logs transitions without sending notifications.
type DryRunNotifier struct {
	logger zerolog.Logger
	inner  Notifier
}

// NewDryRunNotifier returns a notifier that suppresses delivery and logs instead.
func NewDryRunNotifier(logger zerolog.Logger, inner Notifier) *DryRunNotifier {
	return &DryRunNotifier{logger: logger, inner: inner}
}

// Notify implements Notifier.
func (n *DryRunNotifier) Notify(_ context.Context, host string, transitions []transition.TargetTransition) error {
	for _, change := range transitions {
		n.logger.Info().
			Str("host", host).
			Str("target", change.Target.Name).
			Str("path", change.Target.Path).
			Str("previous_status", string(change.PreviousStatus)).
			Str("current_status", string(change.CurrentStatus)).
			Bool("recovered", change.Recovered).
			Strs("reasons", change.Reasons).
			Msg("[DRY-RUN] Would notify")
	}
	return nil
}
