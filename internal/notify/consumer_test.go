package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tour-booking/internal/domain"
)

type flakyNotifier struct {
	failures int
	calls    int
}

func (f *flakyNotifier) NotifyBooked(context.Context, domain.BookedNotice) error {
	f.calls++
	if f.calls <= f.failures {
		return errors.New("temporarily unavailable")
	}
	return nil
}

func (f *flakyNotifier) NotifyCancelled(context.Context, domain.CancelledNotice) error {
	return f.NotifyBooked(context.Background(), domain.BookedNotice{})
}

func newTestConsumer(n Notifier, attempts int) *Consumer {
	c := NewConsumer(n, attempts, slog.New(slog.NewTextHandler(io.Discard, nil)))
	c.baseDelay = time.Millisecond
	return c
}

func TestConsumer_Handle_RetriesUntilSuccess(t *testing.T) {
	n := &flakyNotifier{failures: 2}
	c := newTestConsumer(n, 3)

	err := c.Handle(context.Background(), []byte(`{"kind":"booked","booked":{"messaging_identity":"U1"}}`))

	require.NoError(t, err)
	assert.Equal(t, 3, n.calls)
}

func TestConsumer_Handle_GivesUp(t *testing.T) {
	n := &flakyNotifier{failures: 10}
	c := newTestConsumer(n, 3)

	err := c.Handle(context.Background(), []byte(`{"kind":"cancelled","cancelled":{"messaging_identity":"U1"}}`))

	assert.Error(t, err)
	assert.Equal(t, 3, n.calls)
}

func TestConsumer_Handle_Malformed(t *testing.T) {
	n := &flakyNotifier{}
	c := newTestConsumer(n, 3)

	for _, body := range []string{`not json`, `{"kind":"refund"}`, `{"kind":"booked"}`} {
		err := c.Handle(context.Background(), []byte(body))
		assert.ErrorIs(t, err, errMalformed, body)
	}
	assert.Zero(t, n.calls)
}

// recordingAck captures how a delivery was settled.
type recordingAck struct {
	acked    bool
	nacked   bool
	requeued bool
}

func (a *recordingAck) Ack(uint64, bool) error { a.acked = true; return nil }

func (a *recordingAck) Nack(_ uint64, _ bool, requeue bool) error {
	a.nacked, a.requeued = true, requeue
	return nil
}

func (a *recordingAck) Reject(_ uint64, requeue bool) error {
	a.nacked, a.requeued = true, requeue
	return nil
}

const bookedBody = `{"kind":"booked","booked":{"messaging_identity":"U1"}}`

func TestConsumer_Settle(t *testing.T) {
	t.Run("delivered is acked", func(t *testing.T) {
		ack := &recordingAck{}
		newTestConsumer(&flakyNotifier{}, 3).settle(context.Background(), amqp.Delivery{Acknowledger: ack, Body: []byte(bookedBody)})

		assert.True(t, ack.acked)
		assert.False(t, ack.nacked)
	})

	t.Run("exhausted retries drop the message", func(t *testing.T) {
		ack := &recordingAck{}
		newTestConsumer(&flakyNotifier{failures: 10}, 2).settle(context.Background(), amqp.Delivery{Acknowledger: ack, Body: []byte(bookedBody)})

		assert.True(t, ack.nacked)
		assert.False(t, ack.requeued)
	})

	t.Run("shutdown requeues the message", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		ack := &recordingAck{}
		newTestConsumer(&flakyNotifier{failures: 10}, 5).settle(ctx, amqp.Delivery{Acknowledger: ack, Body: []byte(bookedBody)})

		assert.False(t, ack.acked)
		assert.True(t, ack.nacked)
		assert.True(t, ack.requeued)
	})
}
