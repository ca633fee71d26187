package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tour-booking/internal/auth"
	"github.com/pkordes/tour-booking/internal/domain"
	"github.com/pkordes/tour-booking/internal/handler"
)

// ---- POST /api/admin/login -------------------------------------------------

func TestLogin(t *testing.T) {
	exp := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	authSvc := &mockAuth{
		login: func(password string) (string, time.Time, error) {
			switch password {
			case "right":
				return "signed", exp, nil
			case "":
				return "", time.Time{}, auth.ErrLoginDisabled
			}
			return "", time.Time{}, auth.ErrInvalidCredentials
		},
	}
	h := newHTTPHandler(handler.Services{Auth: authSvc})

	rec := do(t, h, http.MethodPost, "/api/admin/login", `{"password":"right"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"token":"signed","expires_at":"2024-03-02T00:00:00Z"}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/api/admin/login", `{"password":"wrong"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, handler.CodeUnauthorized, decodeError(t, rec.Body.Bytes()).Code)

	rec = do(t, h, http.MethodPost, "/api/admin/login", `{"password":""}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAdminRoutes_RequireBearer(t *testing.T) {
	h := newHTTPHandler(handler.Services{})

	for _, target := range []string{"/api/admin/reservations", "/api/admin/tours", "/api/admin/pickups"} {
		rec := do(t, h, http.MethodGet, target, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, target)
	}
}

// ---- GET /api/admin/reservations -------------------------------------------

func reservationFixture(passengers int, total int64, status domain.ReservationStatus) domain.Reservation {
	return domain.Reservation{
		ID:                uuid.New(),
		TourID:            uuid.New(),
		TourDate:          day(2024, 3, 10),
		TourTitle:         "Mt. Fuji Day Trip",
		Passengers:        passengers,
		Contact:           domain.Contact{Name: "Sato, Hanako", Phone: "090"},
		Pickup:            "Shinjuku",
		PreferredSeats:    []bool{true, false},
		TotalPrice:        total,
		Status:            status,
		MessagingIdentity: "U1",
		CreatedAt:         time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
	}
}

func TestListReservations_DefaultsToConfirmedWithSummary(t *testing.T) {
	var got domain.ReservationFilter
	reservations := &mockReservations{
		list: func(_ context.Context, f domain.ReservationFilter) ([]domain.Reservation, error) {
			got = f
			return []domain.Reservation{
				reservationFixture(2, 2500, domain.ReservationConfirmed),
				reservationFixture(3, 3000, domain.ReservationConfirmed),
			}, nil
		},
	}

	rec := doAdmin(t, newHTTPHandler(handler.Services{Reservations: reservations}), http.MethodGet,
		"/api/admin/reservations?tour_name=Fuji&date_from=2024-03-01&date_to=2024-03-31", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.ReservationConfirmed, got.Status)
	assert.Equal(t, "Fuji", got.TourTitle)
	require.NotNil(t, got.DateFrom)
	require.NotNil(t, got.DateTo)
	assert.Equal(t, day(2024, 3, 1), *got.DateFrom)
	assert.Equal(t, day(2024, 3, 31), *got.DateTo)

	var body struct {
		Reservations []map[string]any `json:"reservations"`
		Summary      struct {
			PeopleTotal int   `json:"peopleTotal"`
			SalesTotal  int64 `json:"salesTotal"`
		} `json:"summary"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body.Reservations, 2)
	assert.Equal(t, "2024-03-10", body.Reservations[0]["date"])
	assert.Equal(t, "U1", body.Reservations[0]["lineUserId"])
	assert.Equal(t, 5, body.Summary.PeopleTotal)
	assert.EqualValues(t, 5500, body.Summary.SalesTotal)
}

func TestListReservations_StatusFilter(t *testing.T) {
	var got domain.ReservationFilter
	reservations := &mockReservations{
		list: func(_ context.Context, f domain.ReservationFilter) ([]domain.Reservation, error) {
			got = f
			return nil, nil
		},
	}
	h := newHTTPHandler(handler.Services{Reservations: reservations})

	rec := doAdmin(t, h, http.MethodGet, "/api/admin/reservations?status=all", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, got.Status)
	assert.JSONEq(t, `{"reservations":[],"summary":{"peopleTotal":0,"salesTotal":0}}`, rec.Body.String())

	rec = doAdmin(t, h, http.MethodGet, "/api/admin/reservations?status=cancelled", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.ReservationCancelled, got.Status)

	rec = doAdmin(t, h, http.MethodGet, "/api/admin/reservations?status=pending", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doAdmin(t, h, http.MethodGet, "/api/admin/reservations?date_from=March", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

// ---- POST /api/admin/reservations ------------------------------------------

func TestCreateManualReservation(t *testing.T) {
	tourID, resID := uuid.New(), uuid.New()
	var got domain.ManualBookingRequest
	booking := &mockBooking{
		createManual: func(_ context.Context, req domain.ManualBookingRequest) (domain.BookingResult, error) {
			got = req
			return domain.BookingResult{ReservationID: resID, TotalPrice: req.TotalPrice}, nil
		},
	}
	body := fmt.Sprintf(`{"tour_id":%q,"date":"2024-03-10","tour_title":"Phone booking",
		"passengers":3,"user_info":{"name":"Suzuki"},"pickup":"Tokyo","preferred_seats":[false],"total_price":9000}`, tourID)

	rec := doAdmin(t, newHTTPHandler(handler.Services{Booking: booking}), http.MethodPost, "/api/admin/reservations", body)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, fmt.Sprintf(`{"id":%q,"message":"Reservation created"}`, resID), rec.Body.String())
	assert.Equal(t, domain.ManualBookingRequest{
		TourID:         tourID,
		Date:           day(2024, 3, 10),
		TourTitle:      "Phone booking",
		Passengers:     3,
		Contact:        domain.Contact{Name: "Suzuki"},
		Pickup:         "Tokyo",
		PreferredSeats: []bool{false},
		TotalPrice:     9000,
	}, got)
}

func TestCreateManualReservation_CapacityExceeded(t *testing.T) {
	booking := &mockBooking{
		createManual: func(context.Context, domain.ManualBookingRequest) (domain.BookingResult, error) {
			return domain.BookingResult{}, domain.ErrCapacityExceeded
		},
	}

	rec := doAdmin(t, newHTTPHandler(handler.Services{Booking: booking}), http.MethodPost, "/api/admin/reservations",
		fmt.Sprintf(`{"tour_id":%q,"date":"2024-03-10","passengers":30}`, uuid.New()))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, handler.CodeSoldOut, decodeError(t, rec.Body.Bytes()).Code)
}

// ---- PATCH /api/admin/reservations/{id} ------------------------------------

func TestUpdateReservation(t *testing.T) {
	id := uuid.New()
	var gotID uuid.UUID
	var gotStatus domain.ReservationStatus
	booking := &mockBooking{
		setStatus: func(_ context.Context, rid uuid.UUID, status domain.ReservationStatus) error {
			gotID, gotStatus = rid, status
			if rid != id {
				return domain.ErrReservationNotFound
			}
			return nil
		},
	}
	h := newHTTPHandler(handler.Services{Booking: booking})

	rec := doAdmin(t, h, http.MethodPatch, "/api/admin/reservations/"+id.String(), `{"status":"cancelled"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, gotID)
	assert.Equal(t, domain.ReservationCancelled, gotStatus)

	rec = doAdmin(t, h, http.MethodPatch, "/api/admin/reservations/"+uuid.NewString(), `{"status":"cancelled"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doAdmin(t, h, http.MethodPatch, "/api/admin/reservations/"+id.String(), `{}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doAdmin(t, h, http.MethodPatch, "/api/admin/reservations/not-a-uuid", `{"status":"cancelled"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ---- tours -----------------------------------------------------------------

func TestCreateTour(t *testing.T) {
	var got domain.Tour
	tours := &mockTours{
		create: func(_ context.Context, tour domain.Tour) (domain.Tour, error) {
			got = tour
			tour.ID = uuid.New()
			tour.Status = domain.TourOpen
			return tour, nil
		},
	}

	rec := doAdmin(t, newHTTPHandler(handler.Services{Tours: tours}), http.MethodPost, "/api/admin/tours",
		`{"title":"Night Cruise","date":"2024-03-10","deadline_date":"2024-03-08","capacity":12,"price":6000}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Night Cruise", got.Title)
	assert.Equal(t, day(2024, 3, 10), got.Date)
	require.NotNil(t, got.DeadlineDate)
	assert.Equal(t, day(2024, 3, 8), *got.DeadlineDate)

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "open", body["status"])
	assert.Equal(t, "2024-03-08", body["deadline_date"])
}

func TestUpdateTour_MapsPatch(t *testing.T) {
	id := uuid.New()
	var got domain.TourPatch
	tours := &mockTours{
		update: func(_ context.Context, tid uuid.UUID, patch domain.TourPatch) (domain.Tour, error) {
			got = patch
			return domain.Tour{ID: tid, Status: domain.TourStop}, nil
		},
	}

	rec := doAdmin(t, newHTTPHandler(handler.Services{Tours: tours}), http.MethodPatch, "/api/admin/tours/"+id.String(),
		`{"capacity":25,"status":"stop","clear_deadline":true}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got.Capacity)
	assert.Equal(t, 25, *got.Capacity)
	require.NotNil(t, got.Status)
	assert.Equal(t, domain.TourStop, *got.Status)
	assert.True(t, got.ClearDeadline)
	assert.Nil(t, got.Title)
}

func TestTour_NotFound(t *testing.T) {
	tours := &mockTours{
		getByID: func(context.Context, uuid.UUID) (domain.Tour, error) { return domain.Tour{}, domain.ErrNotFound },
		delete:  func(context.Context, uuid.UUID) error { return domain.ErrNotFound },
	}
	h := newHTTPHandler(handler.Services{Tours: tours})

	assert.Equal(t, http.StatusNotFound, doAdmin(t, h, http.MethodGet, "/api/admin/tours/"+uuid.NewString(), "").Code)
	assert.Equal(t, http.StatusNotFound, doAdmin(t, h, http.MethodDelete, "/api/admin/tours/"+uuid.NewString(), "").Code)
}

func TestDeleteTour(t *testing.T) {
	tours := &mockTours{delete: func(context.Context, uuid.UUID) error { return nil }}

	rec := doAdmin(t, newHTTPHandler(handler.Services{Tours: tours}), http.MethodDelete, "/api/admin/tours/"+uuid.NewString(), "")

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

// ---- pickups ---------------------------------------------------------------

func TestCreatePickup_DefaultsToActive(t *testing.T) {
	var got domain.Pickup
	pickups := &mockPickups{
		create: func(_ context.Context, p domain.Pickup) (domain.Pickup, error) {
			got = p
			p.ID = uuid.New()
			return p, nil
		},
	}
	h := newHTTPHandler(handler.Services{Pickups: pickups})

	rec := doAdmin(t, h, http.MethodPost, "/api/admin/pickups", `{"name":"Kofu","sortOrder":3}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, got.IsActive)
	assert.Equal(t, 3, got.SortOrder)

	rec = doAdmin(t, h, http.MethodPost, "/api/admin/pickups", `{"name":"Kofu","isActive":false}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.False(t, got.IsActive)
}

func TestListPickups_IncludesInactive(t *testing.T) {
	pickups := &mockPickups{
		list: func(_ context.Context, activeOnly bool) ([]domain.Pickup, error) {
			assert.False(t, activeOnly)
			return []domain.Pickup{{ID: uuid.New(), Name: "Old stop"}}, nil
		},
	}

	rec := doAdmin(t, newHTTPHandler(handler.Services{Pickups: pickups}), http.MethodGet, "/api/admin/pickups", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var body []map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body, 1)
	assert.Equal(t, false, body[0]["isActive"])
}

func TestUpdatePickup_EmptyPatch(t *testing.T) {
	pickups := &mockPickups{
		update: func(_ context.Context, _ uuid.UUID, patch domain.PickupPatch) (domain.Pickup, error) {
			assert.True(t, patch.Empty())
			return domain.Pickup{}, fmt.Errorf("service.PickupService.Update: %w: no fields to update", domain.ErrValidation)
		},
	}

	rec := doAdmin(t, newHTTPHandler(handler.Services{Pickups: pickups}), http.MethodPatch, "/api/admin/pickups/"+uuid.NewString(), `{}`)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "no fields to update", decodeError(t, rec.Body.Bytes()).Message)
}
