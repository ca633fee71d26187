package handler

import (
	"net/http"
	"time"

	"github.com/pkordes/tour-booking/internal/domain"
	"github.com/pkordes/tour-booking/internal/service"
)

// getCalendar handles GET /api/booking/calendar?month=YYYY-MM.
// The body maps every date of the month to {available, reason}.
func (s *Server) getCalendar(w http.ResponseWriter, r *http.Request) {
	month, err := service.ParseMonth(r.URL.Query().Get("month"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	days, err := s.svc.Calendar.GetMonthAvailability(r.Context(), month)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, days)
}

// listBookableTours handles GET /api/booking/tours?date=YYYY-MM-DD.
func (s *Server) listBookableTours(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		requestError(w, "date parameter is required")
		return
	}
	date, err := time.Parse(domain.DateLayout, raw)
	if err != nil {
		requestError(w, "date must be YYYY-MM-DD")
		return
	}

	tours, err := s.svc.Tours.ListBookable(r.Context(), date)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	out := make([]bookableTourResponse, len(tours))
	for i, t := range tours {
		out[i] = bookableTourToResponse(t)
	}
	writeJSON(w, http.StatusOK, out)
}

// getProfile handles GET /api/booking/profile?lineUserId=...
// Unknown customers and customers without autofill consent receive {}.
func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Profiles.GetAutoFill(r.Context(), r.URL.Query().Get("lineUserId"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profileToResponse(p))
}

// listActivePickups handles GET /api/booking/pickups.
func (s *Server) listActivePickups(w http.ResponseWriter, r *http.Request) {
	pickups, err := s.svc.Pickups.List(r.Context(), true)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	out := make([]publicPickupResponse, len(pickups))
	for i, p := range pickups {
		out[i] = publicPickupResponse{ID: p.ID, Name: p.Name, SortOrder: p.SortOrder}
	}
	writeJSON(w, http.StatusOK, out)
}

// pricePreview handles POST /api/booking/price_preview.
func (s *Server) pricePreview(w http.ResponseWriter, r *http.Request) {
	var body pricePreviewRequest
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Passengers < 0 || body.PricePerPerson < 0 {
		requestError(w, "passengers and pricePerPerson must not be negative")
		return
	}

	q := s.svc.Booking.Quote(body.Passengers, body.PricePerPerson, body.PreferredSeats)
	writeJSON(w, http.StatusOK, quoteResponse{BaseTour: q.BaseTour, SeatPrice: q.SeatPrice, Total: q.Total})
}

// createReservation handles POST /api/booking/reservations.
func (s *Server) createReservation(w http.ResponseWriter, r *http.Request) {
	var body bookingRequest
	if !decodeBody(w, r, &body) {
		return
	}

	res, err := s.svc.Booking.CreateReservation(r.Context(), body.toDomain())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bookingResponse{
		ID:         res.ReservationID,
		Message:    "Reservation confirmed",
		TotalPrice: res.TotalPrice,
	})
}
