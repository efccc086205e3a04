package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// fakeChannel records what the publisher sends
type fakeChannel struct {
	declared   []string
	published  []amqp.Publishing
	keys       []string
	declareErr error
	publishErr error
	closed     bool
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, durable, _, _, _ bool, _ amqp.Table) error {
	if f.declareErr != nil {
		return f.declareErr
	}
	f.declared = append(f.declared, name+":"+kind)
	return nil
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("publish without deadline")
	}
	if f.publishErr != nil {
		return f.publishErr
	}
	f.keys = append(f.keys, key)
	f.published = append(f.published, msg)
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestAMQPPublisher_Publish(t *testing.T) {
	ch := &fakeChannel{}
	p, err := newAMQPPublisher(ch, "auction.events")
	require.NoError(t, err)
	require.Equal(t, []string{"auction.events:topic"}, ch.declared)

	amount := 42.5
	event := Event{ID: "e1", Type: BidPlaced, ListingID: "l1", ActorID: "u1", Amount: &amount, OccurredAt: time.Now().UTC()}
	require.NoError(t, p.Publish(context.Background(), event))

	require.Equal(t, []string{"bid.placed"}, ch.keys)
	msg := ch.published[0]
	require.Equal(t, "application/json", msg.ContentType)
	require.Equal(t, amqp.Persistent, msg.DeliveryMode)
	require.Equal(t, "e1", msg.MessageId)

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Body, &decoded))
	require.Equal(t, BidPlaced, decoded.Type)
	require.Equal(t, 42.5, *decoded.Amount)
	require.Nil(t, decoded.WinnerID)

	require.NoError(t, p.Close())
	require.True(t, ch.closed)
}

func TestAMQPPublisher_Errors(t *testing.T) {
	_, err := newAMQPPublisher(&fakeChannel{declareErr: errors.New("access refused")}, "x")
	require.Error(t, err)

	p, err := newAMQPPublisher(&fakeChannel{publishErr: errors.New("channel closed")}, "x")
	require.NoError(t, err)
	err = p.Publish(context.Background(), Event{Type: CommentAdded})
	require.ErrorContains(t, err, "comment.added")
}

func TestLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&log.JSONFormatter{})

	winner := "u2"
	amount := 99.0
	p := NewLogPublisher(logger)
	require.NoError(t, p.Publish(context.Background(), Event{
		ID: "e1", Type: ListingClosed, ListingID: "l1", ActorID: "u1", Amount: &amount, WinnerID: &winner,
	}))
	require.NoError(t, p.Close())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "listing.closed", entry["event_type"])
	require.Equal(t, "u2", entry["winner_id"])
	require.Equal(t, 99.0, entry["amount"])
}
