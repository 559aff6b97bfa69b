package services

import (
	"context"

	"backoffice/internal/amqp"
	"backoffice/internal/log"
)

// publish sends an event after a successful write. The write has already
// committed, so failures are logged and never returned.
func publish(ctx context.Context, p EventPublisher, logger *log.Logger, t amqp.EventType, subject string) {
	if p == nil {
		logger.DebugContext(ctx, "Event publisher not configured, skipping event",
			log.FieldEventType, t,
			"subject", subject)
		return
	}
	if err := p.Publish(ctx, amqp.NewEvent(t, subject)); err != nil {
		logger.ErrorContext(ctx, "Failed to publish event",
			log.FieldEventType, t,
			"subject", subject,
			log.FieldError, err)
	}
}
