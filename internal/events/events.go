package events

import (
	"context"
	"time"
)

//go:generate mockgen -destination=mock_publisher.go -package=events auctions/internal/events Publisher

// Type names a domain event; it doubles as the AMQP routing key
type Type string

const (
	BidPlaced     Type = "bid.placed"
	ListingClosed Type = "listing.closed"
	CommentAdded  Type = "comment.added"
)

// Event is the payload published when something happens to a listing.
// WinnerID is only set on listing.closed, and only if the listing received a bid.
type Event struct {
	ID         string    `json:"id"`
	Type       Type      `json:"type"`
	ListingID  string    `json:"listing_id"`
	ActorID    string    `json:"actor_id"`
	Amount     *float64  `json:"amount,omitempty"`
	WinnerID   *string   `json:"winner_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher delivers domain events to interested parties (watchers, notifiers)
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}
