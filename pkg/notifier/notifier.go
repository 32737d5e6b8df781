package notifier

import (
	"context"

	"stock-price-alert/pkg/logger"
)

// Notifier delivers a human-visible message. Delivery is best effort; callers
// log failures and carry on.
type Notifier interface {
	Notify(ctx context.Context, title, message string) error
}

// Capability is implemented by notifiers that may be unusable in the current
// environment, e.g. a desktop notifier on a headless server.
type Capability interface {
	Available() bool
}

// Available reports whether n can deliver notifications. Notifiers without a
// capability check are assumed available.
func Available(n Notifier) bool {
	if c, ok := n.(Capability); ok {
		return c.Available()
	}
	return true
}

// Select returns the first available candidate, or a notifier that only logs
// when none is.
func Select(log *logger.Logger, candidates ...Notifier) Notifier {
	for _, n := range candidates {
		if n != nil && Available(n) {
			return n
		}
	}
	log.Warn("No notification backend available, alerts will only be logged")
	return NewLogNotifier(log)
}

type logNotifier struct {
	log *logger.Logger
}

// NewLogNotifier returns a notifier that writes notifications to the log.
func NewLogNotifier(log *logger.Logger) Notifier {
	return &logNotifier{log: log}
}

func (n *logNotifier) Notify(ctx context.Context, title, message string) error {
	n.log.InfoContext(ctx, title, logger.StringField("notification", message))
	return nil
}
