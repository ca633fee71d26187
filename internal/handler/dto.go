package handler

import (
	"time"

	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/tour-booking/internal/domain"
)

// Customer-facing bodies use camelCase, operator bodies snake_case; both
// match the existing booking and admin front ends.

// ---- customer --------------------------------------------------------------

type bookingRequest struct {
	LineUserID      string             `json:"lineUserId"`
	Date            openapi_types.Date `json:"date"`
	TourID          uuid.UUID          `json:"tourId"`
	TourTitle       string             `json:"tourTitle"` // ignored; the title is snapshotted from the tour
	PricePerPerson  int64              `json:"pricePerPerson"`
	UserInfo        domain.Contact     `json:"userInfo"`
	Passengers      *int               `json:"passengers"`
	Pickup          string             `json:"pickup"`
	PreferredSeats  []bool             `json:"preferredSeats"`
	ConsentAutoFill bool               `json:"consentAutoFill"`
}

func (b bookingRequest) toDomain() domain.BookingRequest {
	return domain.BookingRequest{
		TourID:            b.TourID,
		Date:              b.Date.Time,
		Passengers:        intOr(b.Passengers, 1),
		PricePerPerson:    b.PricePerPerson,
		PreferredSeats:    b.PreferredSeats,
		Pickup:            b.Pickup,
		Contact:           b.UserInfo,
		MessagingIdentity: b.LineUserID,
		ConsentAutoFill:   b.ConsentAutoFill,
	}
}

type bookingResponse struct {
	ID         uuid.UUID `json:"id"`
	Message    string    `json:"message"`
	TotalPrice int64     `json:"totalPrice"`
}

type pricePreviewRequest struct {
	Passengers     int    `json:"passengers"`
	PricePerPerson int64  `json:"pricePerPerson"`
	PreferredSeats []bool `json:"preferredSeats"`
}

type quoteResponse struct {
	BaseTour  int64 `json:"baseTour"`
	SeatPrice int64 `json:"seatPrice"`
	Total     int64 `json:"total"`
}

type bookableTourResponse struct {
	ID           uuid.UUID           `json:"id"`
	Title        string              `json:"title"`
	Date         openapi_types.Date  `json:"date"`
	DeadlineDate *openapi_types.Date `json:"deadline_date,omitempty"`
	Price        int64               `json:"price"`
	Status       domain.TourStatus   `json:"status"`
	ImageURL     string              `json:"image_url"`
	Description  string              `json:"description"`
	Capacity     int                 `json:"capacity"`
	CurrentCount int                 `json:"current_count"`
}

func bookableTourToResponse(t domain.BookableTour) bookableTourResponse {
	return bookableTourResponse{
		ID:           t.ID,
		Title:        t.Title,
		Date:         openapi_types.Date{Time: t.Date},
		DeadlineDate: optionalDate(t.DeadlineDate),
		Price:        t.Price,
		Status:       t.Status,
		ImageURL:     t.ImageURL,
		Description:  t.Description,
		Capacity:     t.Capacity,
		CurrentCount: t.CurrentCount,
	}
}

// profileResponse omits every empty field so an unknown or non-consenting
// customer gets {}.
type profileResponse struct {
	Name            string `json:"name,omitempty"`
	Phone           string `json:"phone,omitempty"`
	Zip             string `json:"zip,omitempty"`
	Pref            string `json:"pref,omitempty"`
	City            string `json:"city,omitempty"`
	Street          string `json:"street,omitempty"`
	ConsentAutoFill bool   `json:"consentAutoFill,omitempty"`
}

func profileToResponse(p domain.Profile) profileResponse {
	return profileResponse{
		Name:            p.Name,
		Phone:           p.Phone,
		Zip:             p.Zip,
		Pref:            p.Pref,
		City:            p.City,
		Street:          p.Street,
		ConsentAutoFill: p.ConsentAutoFill,
	}
}

type publicPickupResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	SortOrder int       `json:"sortOrder"`
}

// ---- operator --------------------------------------------------------------

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type tourResponse struct {
	ID           uuid.UUID           `json:"id"`
	Title        string              `json:"title"`
	Date         openapi_types.Date  `json:"date"`
	DeadlineDate *openapi_types.Date `json:"deadline_date"`
	Capacity     int                 `json:"capacity"`
	Price        int64               `json:"price"`
	Status       domain.TourStatus   `json:"status"`
	Description  string              `json:"description"`
	ImageURL     string              `json:"image_url"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

func tourToResponse(t domain.Tour) tourResponse {
	return tourResponse{
		ID:           t.ID,
		Title:        t.Title,
		Date:         openapi_types.Date{Time: t.Date},
		DeadlineDate: optionalDate(t.DeadlineDate),
		Capacity:     t.Capacity,
		Price:        t.Price,
		Status:       t.Status,
		Description:  t.Description,
		ImageURL:     t.ImageURL,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

type createTourRequest struct {
	Title        string              `json:"title"`
	Date         openapi_types.Date  `json:"date"`
	DeadlineDate *openapi_types.Date `json:"deadline_date"`
	Capacity     int                 `json:"capacity"`
	Price        int64               `json:"price"`
	Status       domain.TourStatus   `json:"status"`
	Description  string              `json:"description"`
	ImageURL     string              `json:"image_url"`
}

func (c createTourRequest) toDomain() domain.Tour {
	t := domain.Tour{
		Title:       c.Title,
		Date:        c.Date.Time,
		Capacity:    c.Capacity,
		Price:       c.Price,
		Status:      c.Status,
		Description: c.Description,
		ImageURL:    c.ImageURL,
	}
	if c.DeadlineDate != nil {
		d := c.DeadlineDate.Time
		t.DeadlineDate = &d
	}
	return t
}

// tourPatchRequest lists the operator-editable fields. clear_deadline
// removes the deadline and wins over deadline_date.
type tourPatchRequest struct {
	Title         *string             `json:"title"`
	Date          *openapi_types.Date `json:"date"`
	DeadlineDate  *openapi_types.Date `json:"deadline_date"`
	ClearDeadline bool                `json:"clear_deadline"`
	Capacity      *int                `json:"capacity"`
	Price         *int64              `json:"price"`
	Status        *domain.TourStatus  `json:"status"`
	Description   *string             `json:"description"`
	ImageURL      *string             `json:"image_url"`
}

func (p tourPatchRequest) toDomain() domain.TourPatch {
	patch := domain.TourPatch{
		Title:         p.Title,
		ClearDeadline: p.ClearDeadline,
		Capacity:      p.Capacity,
		Price:         p.Price,
		Status:        p.Status,
		Description:   p.Description,
		ImageURL:      p.ImageURL,
	}
	if p.Date != nil {
		d := p.Date.Time
		patch.Date = &d
	}
	if p.DeadlineDate != nil {
		d := p.DeadlineDate.Time
		patch.DeadlineDate = &d
	}
	return patch
}

type pickupResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"isActive"`
	SortOrder int       `json:"sortOrder"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func pickupToResponse(p domain.Pickup) pickupResponse {
	return pickupResponse{
		ID:        p.ID,
		Name:      p.Name,
		IsActive:  p.IsActive,
		SortOrder: p.SortOrder,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

type createPickupRequest struct {
	Name      string `json:"name"`
	IsActive  *bool  `json:"isActive"`
	SortOrder int    `json:"sortOrder"`
}

type pickupPatchRequest struct {
	Name      *string `json:"name"`
	IsActive  *bool   `json:"isActive"`
	SortOrder *int    `json:"sortOrder"`
}

// reservationResponse keeps the mixed key style of the stored documents the
// admin front end was written against.
type reservationResponse struct {
	ID             uuid.UUID                `json:"id"`
	TourID         uuid.UUID                `json:"tour_id"`
	Date           openapi_types.Date       `json:"date"`
	TourTitle      string                   `json:"tourTitle"`
	Passengers     int                      `json:"passengers"`
	UserInfo       domain.Contact           `json:"userInfo"`
	Pickup         string                   `json:"pickup"`
	PreferredSeats []bool                   `json:"preferredSeats"`
	TotalPrice     int64                    `json:"totalPrice"`
	Status         domain.ReservationStatus `json:"status"`
	LineUserID     string                   `json:"lineUserId,omitempty"`
	IsManualEntry  bool                     `json:"isManualEntry"`
	CreatedAt      time.Time                `json:"createdAt"`
	CancelledAt    *time.Time               `json:"cancelledAt,omitempty"`
}

func reservationToResponse(r domain.Reservation) reservationResponse {
	seats := r.PreferredSeats
	if seats == nil {
		seats = []bool{}
	}
	return reservationResponse{
		ID:             r.ID,
		TourID:         r.TourID,
		Date:           openapi_types.Date{Time: r.TourDate},
		TourTitle:      r.TourTitle,
		Passengers:     r.Passengers,
		UserInfo:       r.Contact,
		Pickup:         r.Pickup,
		PreferredSeats: seats,
		TotalPrice:     r.TotalPrice,
		Status:         r.Status,
		LineUserID:     r.MessagingIdentity,
		IsManualEntry:  r.ManualEntry,
		CreatedAt:      r.CreatedAt,
		CancelledAt:    r.CancelledAt,
	}
}

type summaryResponse struct {
	PeopleTotal int   `json:"peopleTotal"`
	SalesTotal  int64 `json:"salesTotal"`
}

type reservationListResponse struct {
	Reservations []reservationResponse `json:"reservations"`
	Summary      summaryResponse       `json:"summary"`
}

type manualReservationRequest struct {
	TourID         uuid.UUID          `json:"tour_id"`
	Date           openapi_types.Date `json:"date"`
	TourTitle      string             `json:"tour_title"`
	Passengers     *int               `json:"passengers"`
	UserInfo       domain.Contact     `json:"user_info"`
	Pickup         string             `json:"pickup"`
	PreferredSeats []bool             `json:"preferred_seats"`
	TotalPrice     int64              `json:"total_price"`
}

func (m manualReservationRequest) toDomain() domain.ManualBookingRequest {
	return domain.ManualBookingRequest{
		TourID:         m.TourID,
		Date:           m.Date.Time,
		TourTitle:      m.TourTitle,
		Passengers:     intOr(m.Passengers, 1),
		Contact:        m.UserInfo,
		Pickup:         m.Pickup,
		PreferredSeats: m.PreferredSeats,
		TotalPrice:     m.TotalPrice,
	}
}

type statusPatchRequest struct {
	Status domain.ReservationStatus `json:"status"`
}

type messageResponse struct {
	ID      *uuid.UUID `json:"id,omitempty"`
	Message string     `json:"message"`
}

// ---- helpers ---------------------------------------------------------------

func optionalDate(t *time.Time) *openapi_types.Date {
	if t == nil {
		return nil
	}
	return &openapi_types.Date{Time: *t}
}

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

// parseDateParam parses an optional YYYY-MM-DD query value.
func parseDateParam(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(domain.DateLayout, v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
