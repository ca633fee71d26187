package handler

import (
	"errors"
	"net/http"

	"github.com/pkordes/tour-booking/internal/auth"
)

// login handles POST /api/admin/login.
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	if !decodeBody(w, r, &body) {
		return
	}

	token, exp, err := s.svc.Auth.Login(body.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, CodeUnauthorized, "invalid password")
	case errors.Is(err, auth.ErrLoginDisabled):
		writeError(w, http.StatusServiceUnavailable, CodeLoginOff, "operator login is not configured")
	case err != nil:
		s.writeServiceError(w, r, err)
	default:
		writeJSON(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: exp})
	}
}
