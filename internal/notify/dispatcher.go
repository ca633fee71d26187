package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/tour-booking/internal/domain"
)

// Dispatcher runs each notice on its own goroutine with a timeout so the
// booking caller never waits on delivery. It satisfies
// service.NoticeDispatcher.
type Dispatcher struct {
	notifier Notifier
	timeout  time.Duration
	log      *slog.Logger
	wg       sync.WaitGroup
}

// NewDispatcher constructs a Dispatcher. timeout bounds each delivery.
func NewDispatcher(n Notifier, timeout time.Duration, log *slog.Logger) *Dispatcher {
	return &Dispatcher{notifier: n, timeout: timeout, log: log}
}

// Booked schedules delivery of a booking notice.
func (d *Dispatcher) Booked(n domain.BookedNotice) {
	d.run("booked", n.ReservationID, func(ctx context.Context) error {
		return d.notifier.NotifyBooked(ctx, n)
	})
}

// Cancelled schedules delivery of a cancellation notice.
func (d *Dispatcher) Cancelled(n domain.CancelledNotice) {
	d.run("cancelled", n.ReservationID, func(ctx context.Context) error {
		return d.notifier.NotifyCancelled(ctx, n)
	})
}

// Close blocks until every scheduled delivery has finished.
func (d *Dispatcher) Close() {
	d.wg.Wait()
}

func (d *Dispatcher) run(kind string, id uuid.UUID, send func(ctx context.Context) error) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := send(ctx); err != nil {
			d.log.Warn("notification failed",
				"kind", kind,
				"reservation_id", id,
				"error", fmt.Errorf("%w: %v", domain.ErrNotificationDeliveryFailed, err),
			)
		}
	}()
}
