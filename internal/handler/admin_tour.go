package handler

import "net/http"

// listTours handles GET /api/admin/tours?date_from=&date_to=.
func (s *Server) listTours(w http.ResponseWriter, r *http.Request) {
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

	tours, err := s.svc.Tours.List(r.Context(), from, to)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	out := make([]tourResponse, len(tours))
	for i, t := range tours {
		out[i] = tourToResponse(t)
	}
	writeJSON(w, http.StatusOK, out)
}

// createTour handles POST /api/admin/tours.
func (s *Server) createTour(w http.ResponseWriter, r *http.Request) {
	var body createTourRequest
	if !decodeBody(w, r, &body) {
		return
	}

	created, err := s.svc.Tours.Create(r.Context(), body.toDomain())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tourToResponse(created))
}

// getTour handles GET /api/admin/tours/{id}.
func (s *Server) getTour(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	tour, err := s.svc.Tours.GetByID(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tourToResponse(tour))
}

// updateTour handles PATCH /api/admin/tours/{id}.
// open and full are reconciled against the live passenger count.
func (s *Server) updateTour(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body tourPatchRequest
	if !decodeBody(w, r, &body) {
		return
	}

	updated, err := s.svc.Tours.Update(r.Context(), id, body.toDomain())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tourToResponse(updated))
}

// deleteTour handles DELETE /api/admin/tours/{id}.
// Reservations of a deleted tour are kept.
func (s *Server) deleteTour(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.svc.Tours.Delete(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
