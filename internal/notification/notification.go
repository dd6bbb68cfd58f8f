package notification

import (
	"context"
	"log/slog"
)

const (
	// KindImportCompleted is sent after a CSV import finishes, successfully or not.
	KindImportCompleted = "import.completed"
)

// Message describes a notification payload.
type Message struct {
	Kind        string         `json:"kind"`
	Destination string         `json:"destination,omitempty"`
	Body        string         `json:"body"`
	Attributes  map[string]any `json:"attributes,omitempty"`
}

// Notifier delivers notifications to downstream systems.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier writes notifications to the logger. It is the default when
// no broker is configured.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(ctx context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	args := []any{"kind", message.Kind, "destination", message.Destination, "body", message.Body}
	for k, v := range message.Attributes {
		args = append(args, k, v)
	}
	n.logger.InfoContext(ctx, "notification", args...)
	return nil
}
