package handler

import (
	"net/http"
	"strings"

	"github.com/pkordes/tour-booking/internal/domain"
)

// listReservations handles GET /api/admin/reservations.
// Filters: tour_name (substring), date_from, date_to, status (default
// confirmed, "all" disables it). Use ?format=csv to receive CSV.
func (s *Server) listReservations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	from, err := parseDateParam(q.Get("date_from"))
	if err != nil {
		requestError(w, "date_from must be YYYY-MM-DD")
		return
	}
	to, err := parseDateParam(q.Get("date_to"))
	if err != nil {
		requestError(w, "date_to must be YYYY-MM-DD")
		return
	}

	status := domain.ReservationConfirmed
	switch v := q.Get("status"); v {
	case "":
	case "all":
		status = ""
	default:
		status = domain.ReservationStatus(v)
		if !status.Valid() {
			requestError(w, "status must be confirmed, cancelled or all")
			return
		}
	}

	list, err := s.svc.Reservations.List(r.Context(), domain.ReservationFilter{
		TourTitle: strings.TrimSpace(q.Get("tour_name")),
		DateFrom:  from,
		DateTo:    to,
		Status:    status,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	if q.Get("format") == "csv" {
		writeReservationsCSV(w, list)
		return
	}

	out := reservationListResponse{Reservations: make([]reservationResponse, len(list))}
	for i, res := range list {
		out.Reservations[i] = reservationToResponse(res)
	}
	sum := domain.Summarize(list)
	out.Summary = summaryResponse{PeopleTotal: sum.PeopleTotal, SalesTotal: sum.SalesTotal}
	writeJSON(w, http.StatusOK, out)
}

// getReservation handles GET /api/admin/reservations/{id}.
func (s *Server) getReservation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	res, err := s.svc.Reservations.GetByID(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reservationToResponse(res))
}

// createManualReservation handles POST /api/admin/reservations.
// Operator entries skip the deadline and status gates but not capacity.
func (s *Server) createManualReservation(w http.ResponseWriter, r *http.Request) {
	var body manualReservationRequest
	if !decodeBody(w, r, &body) {
		return
	}

	res, err := s.svc.Booking.CreateManualReservation(r.Context(), body.toDomain())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, messageResponse{ID: &res.ReservationID, Message: "Reservation created"})
}

// updateReservation handles PATCH /api/admin/reservations/{id}.
func (s *Server) updateReservation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body statusPatchRequest
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Status == "" {
		requestError(w, "status is required")
		return
	}

	if err := s.svc.Booking.SetReservationStatus(r.Context(), id, body.Status); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Reservation updated"})
}
