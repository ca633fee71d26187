// Package handler implements the HTTP handlers for the tour booking API.
// All handlers are methods on Server. Methods are split into files by
// audience (booking.go for customers, admin_*.go for operators) but share
// the same Server struct so they can access its dependencies.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pkordes/tour-booking/internal/domain"
	"github.com/pkordes/tour-booking/internal/middleware"
)

// BookingServicer is the reservation transaction engine as seen by the
// handlers. Defining the interface here (in the consumer package) lets
// handler tests inject a mock without touching the database.
type BookingServicer interface {
	Quote(passengers int, pricePerPerson int64, preferredSeats []bool) domain.Quote
	CreateReservation(ctx context.Context, req domain.BookingRequest) (domain.BookingResult, error)
	CreateManualReservation(ctx context.Context, req domain.ManualBookingRequest) (domain.BookingResult, error)
	SetReservationStatus(ctx context.Context, id uuid.UUID, status domain.ReservationStatus) error
}

// CalendarServicer computes month availability.
type CalendarServicer interface {
	GetMonthAvailability(ctx context.Context, month time.Time) (map[string]domain.DayAvailability, error)
}

// TourServicer defines the tour operations the handlers depend on.
type TourServicer interface {
	Create(ctx context.Context, tour domain.Tour) (domain.Tour, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Tour, error)
	List(ctx context.Context, from, to *time.Time) ([]domain.Tour, error)
	ListBookable(ctx context.Context, date time.Time) ([]domain.BookableTour, error)
	Update(ctx context.Context, id uuid.UUID, patch domain.TourPatch) (domain.Tour, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// PickupServicer defines the pickup point operations.
type PickupServicer interface {
	Create(ctx context.Context, p domain.Pickup) (domain.Pickup, error)
	List(ctx context.Context, activeOnly bool) ([]domain.Pickup, error)
	Update(ctx context.Context, id uuid.UUID, patch domain.PickupPatch) (domain.Pickup, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ProfileServicer returns autofill data for a messaging identity.
type ProfileServicer interface {
	GetAutoFill(ctx context.Context, identity string) (domain.Profile, error)
}

// ReservationServicer is the read side of reservations.
type ReservationServicer interface {
	List(ctx context.Context, f domain.ReservationFilter) ([]domain.Reservation, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Reservation, error)
}

// Authenticator exchanges the operator password for a bearer token.
type Authenticator interface {
	Login(password string) (token string, expires time.Time, err error)
}

// Services bundles the Server dependencies. Every field must be set.
type Services struct {
	Booking      BookingServicer
	Calendar     CalendarServicer
	Tours        TourServicer
	Pickups      PickupServicer
	Profiles     ProfileServicer
	Reservations ReservationServicer
	Auth         Authenticator
	Tokens       middleware.TokenVerifier
}

// Server serves the customer booking API and the operator admin API.
type Server struct {
	svc Services
	log *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
func NewServer(svc Services, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{svc: svc, log: log}
}

// Routes returns the API router. Cross-cutting middleware (request id,
// logging, CORS, body limits) is applied by the caller.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.getHealth)
	r.Get("/health", s.getHealth)
	r.Get("/openapi.yaml", s.getOpenAPI)

	r.Route("/api/booking", func(r chi.Router) {
		r.Get("/calendar", s.getCalendar)
		r.Get("/tours", s.listBookableTours)
		r.Get("/profile", s.getProfile)
		r.Get("/pickups", s.listActivePickups)
		r.Post("/price_preview", s.pricePreview)
		r.Post("/reservations", s.createReservation)
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Post("/login", s.login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireBearer(s.svc.Tokens))

			r.Get("/reservations", s.listReservations)
			r.Post("/reservations", s.createManualReservation)
			r.Get("/reservations/{id}", s.getReservation)
			r.Patch("/reservations/{id}", s.updateReservation)

			r.Get("/tours", s.listTours)
			r.Post("/tours", s.createTour)
			r.Get("/tours/{id}", s.getTour)
			r.Patch("/tours/{id}", s.updateTour)
			r.Delete("/tours/{id}", s.deleteTour)

			r.Get("/pickups", s.listPickups)
			r.Post("/pickups", s.createPickup)
			r.Patch("/pickups/{id}", s.updatePickup)
			r.Delete("/pickups/{id}", s.deletePickup)
		})
	})

	return r
}
