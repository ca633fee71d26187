package domain

import (
	"time"

	"github.com/google/uuid"
)

// ReservationStatus is the lifecycle state of a reservation.
// The only transition is confirmed → cancelled.
type ReservationStatus string

const (
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationCancelled ReservationStatus = "cancelled"
)

// Valid reports whether s is a known reservation status.
func (s ReservationStatus) Valid() bool {
	return s == ReservationConfirmed || s == ReservationCancelled
}

// Contact is the customer contact payload captured with a reservation.
type Contact struct {
	Name   string `json:"name"`
	Phone  string `json:"phone"`
	Zip    string `json:"zip"`
	Pref   string `json:"pref"`
	City   string `json:"city"`
	Street string `json:"street"`
}

// Reservation is a customer's (or operator's) claim on seats of a tour.
// MessagingIdentity is empty for operator-entered reservations.
type Reservation struct {
	ID                uuid.UUID
	TourID            uuid.UUID
	TourDate          time.Time
	TourTitle         string
	Passengers        int
	Contact           Contact
	Pickup            string
	PreferredSeats    []bool
	TotalPrice        int64
	Status            ReservationStatus
	MessagingIdentity string
	ManualEntry       bool
	CreatedAt         time.Time
	CancelledAt       *time.Time
}

// BookingRequest is the customer booking input handled by CreateReservation.
type BookingRequest struct {
	TourID            uuid.UUID
	Date              time.Time
	Passengers        int
	PricePerPerson    int64
	PreferredSeats    []bool
	Pickup            string
	Contact           Contact
	MessagingIdentity string // empty when absent
	ConsentAutoFill   bool
}

// ManualBookingRequest is the operator booking input handled by
// CreateManualReservation. TotalPrice is taken as given.
type ManualBookingRequest struct {
	TourID         uuid.UUID
	Date           time.Time
	TourTitle      string // snapshotted from the tour when empty
	Passengers     int
	Contact        Contact
	Pickup         string
	PreferredSeats []bool
	TotalPrice     int64
}

// BookingResult is returned on successful reservation creation.
type BookingResult struct {
	ReservationID uuid.UUID
	TotalPrice    int64
}

// ReservationFilter narrows the operator reservation listing.
// Zero values disable the corresponding filter.
type ReservationFilter struct {
	TourTitle string
	DateFrom  *time.Time
	DateTo    *time.Time
	Status    ReservationStatus
}
