package domain

import (
	"time"

	"github.com/google/uuid"
)

// BookedNotice is sent to the customer after a reservation commits.
type BookedNotice struct {
	ReservationID     uuid.UUID `json:"reservation_id"`
	MessagingIdentity string    `json:"messaging_identity"`
	TourTitle         string    `json:"tour_title"`
	Date              time.Time `json:"date"`
	Passengers        int       `json:"passengers"`
	TotalPrice        int64     `json:"total_price"`
}

// CancelledNotice is sent to the customer after a cancellation commits.
type CancelledNotice struct {
	ReservationID     uuid.UUID `json:"reservation_id"`
	MessagingIdentity string    `json:"messaging_identity"`
	TourTitle         string    `json:"tour_title"`
	Date              time.Time `json:"date"`
}
