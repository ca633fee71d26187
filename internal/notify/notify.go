// Package notify delivers booking and cancellation notices to customers.
//
// Delivery is always post-commit and best effort: services hand notices to
// a Dispatcher, which calls a Notifier in the background and only logs
// failures. Notifier implementations push to LINE directly (LineClient) or
// publish to a queue (QueueNotifier) that cmd/notifier drains.
package notify

import (
	"context"
	"log/slog"

	"github.com/pkordes/tour-booking/internal/domain"
)

// Notifier delivers a single notice. A non-nil error means the message was
// not handed to the downstream system.
type Notifier interface {
	NotifyBooked(ctx context.Context, n domain.BookedNotice) error
	NotifyCancelled(ctx context.Context, n domain.CancelledNotice) error
}

// LogNotifier only logs notices. Used when no delivery channel is configured.
type LogNotifier struct {
	Log *slog.Logger
}

func (l LogNotifier) NotifyBooked(ctx context.Context, n domain.BookedNotice) error {
	l.Log.InfoContext(ctx, "booking notice (no channel configured)",
		"reservation_id", n.ReservationID, "tour_title", n.TourTitle)
	return nil
}

func (l LogNotifier) NotifyCancelled(ctx context.Context, n domain.CancelledNotice) error {
	l.Log.InfoContext(ctx, "cancellation notice (no channel configured)",
		"reservation_id", n.ReservationID, "tour_title", n.TourTitle)
	return nil
}
