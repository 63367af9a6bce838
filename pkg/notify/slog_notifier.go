package notify

import (
	"context"
	"log/slog"
)

// SlogNotifier logs emitted events through a structured logger. It is the
// default collaborator when no UI bridge is wired in (headless use, tests,
// local development).
type SlogNotifier struct {
	logger *slog.Logger
}

// NewSlogNotifier creates a notifier that writes events to the given logger.
func NewSlogNotifier(logger *slog.Logger) *SlogNotifier {
	return &SlogNotifier{logger: logger}
}

// Emit logs the event.
func (n *SlogNotifier) Emit(ctx context.Context, event Event) {
	n.logger.InfoContext(ctx, "notification",
		"kind", string(event.Kind),
		"user_id", event.UserID,
		"title", event.Title,
		"message", event.Message,
	)
}
