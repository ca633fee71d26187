package domain

import "github.com/google/uuid"

// ConfirmedPassengerSum returns the number of passengers held by confirmed
// reservations of the given tour, skipping the reservation with id exclude
// (pass uuid.Nil to skip nothing).
//
// The input must come from the same transaction as any write that depends
// on the result.
func ConfirmedPassengerSum(reservations []Reservation, tourID, exclude uuid.UUID) int {
	sum := 0
	for _, r := range reservations {
		if r.TourID != tourID || r.Status != ReservationConfirmed {
			continue
		}
		if exclude != uuid.Nil && r.ID == exclude {
			continue
		}
		sum += r.Passengers
	}
	return sum
}

// ReservationSummary aggregates a reservation listing.
type ReservationSummary struct {
	PeopleTotal int
	SalesTotal  int64
}

// Summarize totals passengers and sales over the confirmed reservations in rs.
func Summarize(rs []Reservation) ReservationSummary {
	var s ReservationSummary
	for _, r := range rs {
		if r.Status != ReservationConfirmed {
			continue
		}
		s.PeopleTotal += r.Passengers
		s.SalesTotal += r.TotalPrice
	}
	return s
}
