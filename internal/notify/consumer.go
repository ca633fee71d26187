package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sethvargo/go-retry"
)

// errMalformed marks messages that can never be delivered.
var errMalformed = errors.New("malformed notice")

// Consumer drains the notification queue into a Notifier, retrying each
// delivery with exponential backoff before giving up on the message.
type Consumer struct {
	notifier  Notifier
	attempts  uint64
	baseDelay time.Duration
	log       *slog.Logger
}

// NewConsumer constructs a Consumer. attempts counts the first try.
func NewConsumer(n Notifier, attempts int, log *slog.Logger) *Consumer {
	if attempts < 1 {
		attempts = 1
	}
	return &Consumer{notifier: n, attempts: uint64(attempts), baseDelay: 200 * time.Millisecond, log: log}
}

// Handle decodes one message body and delivers it.
func (c *Consumer) Handle(ctx context.Context, body []byte) error {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("notify.Consumer.Handle: %w: %v", errMalformed, err)
	}

	var send func(ctx context.Context) error
	switch {
	case env.Kind == KindBooked && env.Booked != nil:
		send = func(ctx context.Context) error { return c.notifier.NotifyBooked(ctx, *env.Booked) }
	case env.Kind == KindCancelled && env.Cancelled != nil:
		send = func(ctx context.Context) error { return c.notifier.NotifyCancelled(ctx, *env.Cancelled) }
	default:
		return fmt.Errorf("notify.Consumer.Handle: %w: kind %q", errMalformed, env.Kind)
	}

	backoff := retry.WithMaxRetries(c.attempts-1, retry.NewExponential(c.baseDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := send(ctx); err != nil {
			c.log.DebugContext(ctx, "notification attempt failed", "kind", env.Kind, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("notify.Consumer.Handle: %w", err)
	}
	return nil
}

// Run consumes queue until ctx is cancelled, reconnecting with backoff
// whenever the broker connection drops.
func (c *Consumer) Run(ctx context.Context, url, queue string) error {
	backoff := time.Second
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		conn, ch, err := DialQueue(url, queue)
		if err != nil {
			c.log.WarnContext(ctx, "broker unavailable", "error", err, "retry_in", backoff.String())
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, ch, queue)
		_ = ch.Close()
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.WarnContext(ctx, "consume loop ended, reconnecting", "error", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, ch *amqp.Channel, queue string) error {
	if err := ch.Qos(10, 0, false); err != nil {
		return fmt.Errorf("qos: %w", err)
	}
	deliveries, err := ch.ConsumeWithContext(ctx, queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			c.settle(ctx, d)
		}
	}
}

// settle delivers d and acknowledges it. A message whose delivery was cut
// short by shutdown goes back on the queue; any other failure has already
// been retried by Handle and is dropped.
func (c *Consumer) settle(ctx context.Context, d amqp.Delivery) {
	err := c.Handle(ctx, d.Body)
	switch {
	case err == nil:
		_ = d.Ack(false)
	case ctx.Err() != nil:
		c.log.InfoContext(ctx, "notification requeued on shutdown", "error", err)
		_ = d.Nack(false, true)
	default:
		c.log.WarnContext(ctx, "notification dropped", "error", err)
		_ = d.Nack(false, false)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
