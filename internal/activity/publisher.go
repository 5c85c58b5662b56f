//go:generate mockgen -source=publisher.go -destination=mocks/mocks.go -package=mocks Publisher

package activity

import (
	"context"
	"log/slog"
	"time"
)

// Publisher captures structured activity events. Sinks can be swapped (slog,
// Kafka) without touching services; tests inject a mock.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// LogPublisher writes events to the structured log. The default sink when no
// broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	p.logger.InfoContext(ctx, "activity",
		"type", string(event.Type),
		"list_id", event.ListID.String(),
		"item_id", event.ItemID,
		"actor_id", event.ActorID.String(),
		"request_id", event.RequestID,
	)
	return nil
}
