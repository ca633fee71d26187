package handler

import (
	"net/http"

	"github.com/pkordes/tour-booking/internal/domain"
)

// listPickups handles GET /api/admin/pickups, inactive points included.
func (s *Server) listPickups(w http.ResponseWriter, r *http.Request) {
	pickups, err := s.svc.Pickups.List(r.Context(), false)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	out := make([]pickupResponse, len(pickups))
	for i, p := range pickups {
		out[i] = pickupToResponse(p)
	}
	writeJSON(w, http.StatusOK, out)
}

// createPickup handles POST /api/admin/pickups. isActive defaults to true.
func (s *Server) createPickup(w http.ResponseWriter, r *http.Request) {
	var body createPickupRequest
	if !decodeBody(w, r, &body) {
		return
	}

	p := domain.Pickup{Name: body.Name, IsActive: true, SortOrder: body.SortOrder}
	if body.IsActive != nil {
		p.IsActive = *body.IsActive
	}
	created, err := s.svc.Pickups.Create(r.Context(), p)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, pickupToResponse(created))
}

// updatePickup handles PATCH /api/admin/pickups/{id}.
func (s *Server) updatePickup(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body pickupPatchRequest
	if !decodeBody(w, r, &body) {
		return
	}

	updated, err := s.svc.Pickups.Update(r.Context(), id, domain.PickupPatch{
		Name:      body.Name,
		IsActive:  body.IsActive,
		SortOrder: body.SortOrder,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pickupToResponse(updated))
}

// deletePickup handles DELETE /api/admin/pickups/{id}.
func (s *Server) deletePickup(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.svc.Pickups.Delete(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
