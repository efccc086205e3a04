package events

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// LogPublisher writes events to the application log. Used when no broker is configured.
type LogPublisher struct {
	logger *log.Logger
}

// NewLogPublisher creates a publisher writing to logger, or to the standard logrus logger when nil
func NewLogPublisher(logger *log.Logger) *LogPublisher {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &LogPublisher{logger: logger}
}

// Publish logs the event at info level
func (p *LogPublisher) Publish(_ context.Context, event Event) error {
	fields := log.Fields{
		"event_id":    event.ID,
		"event_type":  string(event.Type),
		"listing_id":  event.ListingID,
		"actor_id":    event.ActorID,
		"occurred_at": event.OccurredAt,
	}
	if event.Amount != nil {
		fields["amount"] = *event.Amount
	}
	if event.WinnerID != nil {
		fields["winner_id"] = *event.WinnerID
	}
	p.logger.WithFields(fields).Info("domain event")
	return nil
}

// Close is a no-op
func (p *LogPublisher) Close() error { return nil }
