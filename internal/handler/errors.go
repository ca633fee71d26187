package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pkordes/tour-booking/internal/domain"
)

// ErrorResponse is the envelope of every non-2xx JSON response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a stable machine-readable code and a message for humans.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes clients can switch on.
const (
	CodeNotFound     = "not_found"
	CodeValidation   = "validation_error"
	CodeDuplicate    = "duplicate_reservation"
	CodeSoldOut      = "sold_out"
	CodeClosed       = "booking_closed"
	CodeTourNotOpen  = "tour_not_open"
	CodeTryAgain     = "try_again"
	CodeUnauthorized = "invalid_password"
	CodeLoginOff     = "login_disabled"
	CodeTooLarge     = "body_too_large"
	CodeInternal     = "internal_error"
)

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

// requestError answers a request rejected before reaching the service
// layer (e.g. missing or malformed body).
func requestError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnprocessableEntity, CodeValidation, message)
}

// writeServiceError maps a service error onto a status code and error body.
// Unrecognised errors are logged and answered with a generic 500.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrTourNotFound):
		writeError(w, http.StatusNotFound, CodeNotFound, domain.ErrTourNotFound.Error())
	case errors.Is(err, domain.ErrReservationNotFound):
		writeError(w, http.StatusNotFound, CodeNotFound, domain.ErrReservationNotFound.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, CodeNotFound, "resource not found")
	case errors.Is(err, domain.ErrDuplicateReservation):
		writeError(w, http.StatusConflict, CodeDuplicate, domain.ErrDuplicateReservation.Error())
	case errors.Is(err, domain.ErrCapacityExceeded):
		writeError(w, http.StatusBadRequest, CodeSoldOut, domain.ErrCapacityExceeded.Error())
	case errors.Is(err, domain.ErrDeadlineExpired):
		writeError(w, http.StatusBadRequest, CodeClosed, domain.ErrDeadlineExpired.Error())
	case errors.Is(err, domain.ErrTourNotOpen):
		writeError(w, http.StatusBadRequest, CodeTourNotOpen, domain.ErrTourNotOpen.Error())
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusUnprocessableEntity, CodeValidation, unwrapMessage(err))
	case errors.Is(err, domain.ErrConcurrencyConflict):
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusServiceUnavailable, CodeTryAgain, "the request conflicted with another booking, please retry")
	default:
		s.log.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, CodeInternal, "internal server error")
	}
}

// unwrapMessage extracts the human-readable part from a wrapped validation error.
// e.g. "service.TourService.Create: validation error: title is required" → "title is required"
func unwrapMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	prefix := domain.ErrValidation.Error() + ": "
	if i := strings.LastIndex(msg, prefix); i >= 0 && len(msg) > i+len(prefix) {
		return msg[i+len(prefix):]
	}
	return msg
}

// decodeBody decodes the JSON request body into v and answers the request
// itself on failure. It reports whether the handler should continue.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil || r.Body == http.NoBody {
		requestError(w, "request body is required")
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, CodeTooLarge, "request body too large")
			return false
		}
		requestError(w, "malformed request body: "+err.Error())
		return false
	}
	return true
}

// pathID parses the {id} route parameter, answering 404 for a malformed id
// the same way as for an unknown one.
func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, CodeNotFound, "resource not found")
		return uuid.Nil, false
	}
	return id, true
}
