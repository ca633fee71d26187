package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/pkordes/tour-booking/internal/domain"
)

// Envelope kinds.
const (
	KindBooked    = "booked"
	KindCancelled = "cancelled"
)

// Envelope is the queue message body. Exactly one payload is set.
type Envelope struct {
	Kind      string                  `json:"kind"`
	Booked    *domain.BookedNotice    `json:"booked,omitempty"`
	Cancelled *domain.CancelledNotice `json:"cancelled,omitempty"`
}

// Publisher is the subset of *amqp.Channel used for publishing.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	IsClosed() bool
	Close() error
}

// Dialer opens a fresh publishing channel to the broker.
type Dialer func() (Publisher, error)

// QueueNotifier publishes notices as persistent JSON messages on the
// default exchange, routed to a durable queue. A closed channel is
// replaced by redialing on the next publish.
type QueueNotifier struct {
	mu    sync.Mutex // amqp channels must not publish concurrently
	dial  Dialer
	pub   Publisher // nil while disconnected
	queue string
	now   func() time.Time
}

// NewQueueNotifier constructs a QueueNotifier publishing to queue. It does
// not connect until Connect or the first publish.
func NewQueueNotifier(dial Dialer, queue string) *QueueNotifier {
	return &QueueNotifier{dial: dial, queue: queue, now: time.Now}
}

// QueueDialer returns a Dialer that connects to url and declares queue.
func QueueDialer(url, queue string) Dialer {
	return func() (Publisher, error) {
		conn, ch, err := DialQueue(url, queue)
		if err != nil {
			return nil, err
		}
		return &channelPublisher{Channel: ch, conn: conn}, nil
	}
}

// channelPublisher owns the connection behind its channel.
type channelPublisher struct {
	*amqp.Channel
	conn *amqp.Connection
}

func (c *channelPublisher) Close() error {
	_ = c.Channel.Close()
	return c.conn.Close()
}

// Connect dials the broker now so configuration errors surface at startup.
func (q *QueueNotifier) Connect() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, err := q.publisher(); err != nil {
		return fmt.Errorf("notify.QueueNotifier.Connect: %w", err)
	}
	return nil
}

// Close releases the current channel, if any.
func (q *QueueNotifier) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.pub == nil {
		return nil
	}
	err := q.pub.Close()
	q.pub = nil
	return err
}

func (q *QueueNotifier) NotifyBooked(ctx context.Context, n domain.BookedNotice) error {
	return q.publish(ctx, Envelope{Kind: KindBooked, Booked: &n})
}

func (q *QueueNotifier) NotifyCancelled(ctx context.Context, n domain.CancelledNotice) error {
	return q.publish(ctx, Envelope{Kind: KindCancelled, Cancelled: &n})
}

func (q *QueueNotifier) publish(ctx context.Context, env Envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("notify.QueueNotifier.publish: marshal: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    q.now().UTC(),
		Body:         body,
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	// One redial per publish: a channel that closed since the last notice
	// fails with ErrClosed and is replaced.
	for attempt := 0; ; attempt++ {
		pub, err := q.publisher()
		if err != nil {
			return fmt.Errorf("notify.QueueNotifier.publish: %w", err)
		}
		err = pub.PublishWithContext(ctx, "", q.queue, false, false, msg)
		if err == nil {
			return nil
		}
		if !errors.Is(err, amqp.ErrClosed) || attempt > 0 {
			return fmt.Errorf("notify.QueueNotifier.publish: %w", err)
		}
		q.drop()
	}
}

// publisher returns the live channel, dialing when there is none or the
// current one has closed. Callers hold q.mu.
func (q *QueueNotifier) publisher() (Publisher, error) {
	if q.pub != nil && q.pub.IsClosed() {
		q.drop()
	}
	if q.pub == nil {
		pub, err := q.dial()
		if err != nil {
			return nil, err
		}
		q.pub = pub
	}
	return q.pub, nil
}

func (q *QueueNotifier) drop() {
	_ = q.pub.Close()
	q.pub = nil
}

// DialQueue connects to the broker and declares the durable queue.
// The caller closes both the channel and the connection.
func DialQueue(url, queue string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("notify.DialQueue: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("notify.DialQueue: channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("notify.DialQueue: declare %q: %w", queue, err)
	}
	return conn, ch, nil
}
