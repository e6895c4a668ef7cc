// Package notify publishes domain events to interested parties on a best-effort basis.
package notify

import (
	"context"
	"log/slog"
	"time"
)

const (
	EventReportFiled           = "report.filed"
	EventModerationActionTaken = "moderation.action_taken"
)

type Event struct {
	Type       string         `json:"type"`
	SubjectID  string         `json:"subjectId"`
	Data       map[string]any `json:"data,omitempty"`
	OccurredAt time.Time      `json:"occurredAt"`
}

type Notifier interface {
	Notify(ctx context.Context, event Event) (err error)
}

// LogNotifier writes events to the default logger. It is used when no broker is configured.
type LogNotifier struct{}

var _ Notifier = LogNotifier{}

func (LogNotifier) Notify(ctx context.Context, event Event) error {
	slog.InfoContext(ctx, "event", "type", event.Type, "subjectId", event.SubjectID, "data", event.Data)

	return nil
}

// Send delivers event through notifier and logs a failure instead of returning it.
func Send(ctx context.Context, notifier Notifier, event Event) {
	if notifier == nil {
		return
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	err := notifier.Notify(ctx, event)
	if err != nil {
		slog.WarnContext(ctx, "failed to send notification", "type", event.Type, "error", err)
	}
}
