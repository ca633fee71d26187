package handler_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/tour-booking/internal/domain"
	"github.com/pkordes/tour-booking/internal/handler"
)

// ---- mocks -----------------------------------------------------------------
// Each mock method is a function field; set only the ones your test needs.

type mockBooking struct {
	quote        func(passengers int, price int64, seats []bool) domain.Quote
	create       func(ctx context.Context, req domain.BookingRequest) (domain.BookingResult, error)
	createManual func(ctx context.Context, req domain.ManualBookingRequest) (domain.BookingResult, error)
	setStatus    func(ctx context.Context, id uuid.UUID, status domain.ReservationStatus) error
}

func (m *mockBooking) Quote(passengers int, price int64, seats []bool) domain.Quote {
	return m.quote(passengers, price, seats)
}
func (m *mockBooking) CreateReservation(ctx context.Context, req domain.BookingRequest) (domain.BookingResult, error) {
	return m.create(ctx, req)
}
func (m *mockBooking) CreateManualReservation(ctx context.Context, req domain.ManualBookingRequest) (domain.BookingResult, error) {
	return m.createManual(ctx, req)
}
func (m *mockBooking) SetReservationStatus(ctx context.Context, id uuid.UUID, status domain.ReservationStatus) error {
	return m.setStatus(ctx, id, status)
}

var _ handler.BookingServicer = (*mockBooking)(nil)

type mockCalendar struct {
	get func(ctx context.Context, month time.Time) (map[string]domain.DayAvailability, error)
}

func (m *mockCalendar) GetMonthAvailability(ctx context.Context, month time.Time) (map[string]domain.DayAvailability, error) {
	return m.get(ctx, month)
}

var _ handler.CalendarServicer = (*mockCalendar)(nil)

type mockTours struct {
	create       func(ctx context.Context, tour domain.Tour) (domain.Tour, error)
	getByID      func(ctx context.Context, id uuid.UUID) (domain.Tour, error)
	list         func(ctx context.Context, from, to *time.Time) ([]domain.Tour, error)
	listBookable func(ctx context.Context, date time.Time) ([]domain.BookableTour, error)
	update       func(ctx context.Context, id uuid.UUID, patch domain.TourPatch) (domain.Tour, error)
	delete       func(ctx context.Context, id uuid.UUID) error
}

func (m *mockTours) Create(ctx context.Context, tour domain.Tour) (domain.Tour, error) {
	return m.create(ctx, tour)
}
func (m *mockTours) GetByID(ctx context.Context, id uuid.UUID) (domain.Tour, error) {
	return m.getByID(ctx, id)
}
func (m *mockTours) List(ctx context.Context, from, to *time.Time) ([]domain.Tour, error) {
	return m.list(ctx, from, to)
}
func (m *mockTours) ListBookable(ctx context.Context, date time.Time) ([]domain.BookableTour, error) {
	return m.listBookable(ctx, date)
}
func (m *mockTours) Update(ctx context.Context, id uuid.UUID, patch domain.TourPatch) (domain.Tour, error) {
	return m.update(ctx, id, patch)
}
func (m *mockTours) Delete(ctx context.Context, id uuid.UUID) error {
	return m.delete(ctx, id)
}

var _ handler.TourServicer = (*mockTours)(nil)

type mockPickups struct {
	create func(ctx context.Context, p domain.Pickup) (domain.Pickup, error)
	list   func(ctx context.Context, activeOnly bool) ([]domain.Pickup, error)
	update func(ctx context.Context, id uuid.UUID, patch domain.PickupPatch) (domain.Pickup, error)
	delete func(ctx context.Context, id uuid.UUID) error
}

func (m *mockPickups) Create(ctx context.Context, p domain.Pickup) (domain.Pickup, error) {
	return m.create(ctx, p)
}
func (m *mockPickups) List(ctx context.Context, activeOnly bool) ([]domain.Pickup, error) {
	return m.list(ctx, activeOnly)
}
func (m *mockPickups) Update(ctx context.Context, id uuid.UUID, patch domain.PickupPatch) (domain.Pickup, error) {
	return m.update(ctx, id, patch)
}
func (m *mockPickups) Delete(ctx context.Context, id uuid.UUID) error {
	return m.delete(ctx, id)
}

var _ handler.PickupServicer = (*mockPickups)(nil)

type mockProfiles struct {
	get func(ctx context.Context, identity string) (domain.Profile, error)
}

func (m *mockProfiles) GetAutoFill(ctx context.Context, identity string) (domain.Profile, error) {
	return m.get(ctx, identity)
}

var _ handler.ProfileServicer = (*mockProfiles)(nil)

type mockReservations struct {
	list    func(ctx context.Context, f domain.ReservationFilter) ([]domain.Reservation, error)
	getByID func(ctx context.Context, id uuid.UUID) (domain.Reservation, error)
}

func (m *mockReservations) List(ctx context.Context, f domain.ReservationFilter) ([]domain.Reservation, error) {
	return m.list(ctx, f)
}
func (m *mockReservations) GetByID(ctx context.Context, id uuid.UUID) (domain.Reservation, error) {
	return m.getByID(ctx, id)
}

var _ handler.ReservationServicer = (*mockReservations)(nil)

type mockAuth struct {
	login func(password string) (string, time.Time, error)
}

func (m *mockAuth) Login(password string) (string, time.Time, error) {
	return m.login(password)
}

var _ handler.Authenticator = (*mockAuth)(nil)

// staticVerifier accepts exactly one token.
type staticVerifier string

func (v staticVerifier) Verify(token string) (string, error) {
	if token != string(v) {
		return "", errors.New("bad token")
	}
	return "operator", nil
}

// ---- helpers ---------------------------------------------------------------

const adminToken = "test-token"

// newHTTPHandler wires a Server with the given services. Unset services
// stay nil; tests only hit the routes they configure.
func newHTTPHandler(svc handler.Services) http.Handler {
	if svc.Tokens == nil {
		svc.Tokens = staticVerifier(adminToken)
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return handler.NewServer(svc, log).Routes()
}

// do sends a request with an optional JSON body and returns the recorder.
func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// doAdmin is do with the operator bearer token attached.
func doAdmin(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
