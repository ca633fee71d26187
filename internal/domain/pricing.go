package domain

// DefaultSeatUpcharge is the preferred-seat price in the reference deployment.
const DefaultSeatUpcharge int64 = 500

// Quote is a price breakdown for a booking.
type Quote struct {
	BaseTour  int64
	SeatPrice int64
	Total     int64
}

// CountPreferred returns the number of selected preferred seats.
func CountPreferred(flags []bool) int {
	n := 0
	for _, f := range flags {
		if f {
			n++
		}
	}
	return n
}

// PriceBooking computes passengers*pricePerPerson plus upcharge for every
// selected preferred seat.
func PriceBooking(passengers int, pricePerPerson int64, flags []bool, upcharge int64) Quote {
	base := int64(passengers) * pricePerPerson
	seats := int64(CountPreferred(flags)) * upcharge
	return Quote{BaseTour: base, SeatPrice: seats, Total: base + seats}
}
