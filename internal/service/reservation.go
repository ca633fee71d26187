package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pkordes/tour-booking/internal/domain"
	"github.com/pkordes/tour-booking/internal/repo"
)

// ReservationService is the operator read path over reservations.
type ReservationService struct {
	reservations repo.ReservationRepo
}

// NewReservationService constructs a ReservationService.
func NewReservationService(reservations repo.ReservationRepo) *ReservationService {
	return &ReservationService{reservations: reservations}
}

// List returns reservations matching f. An empty status filter defaults
// to confirmed; an unknown status is rejected.
func (s *ReservationService) List(ctx context.Context, f domain.ReservationFilter) ([]domain.Reservation, error) {
	if f.Status == "" {
		f.Status = domain.ReservationConfirmed
	}
	if !f.Status.Valid() {
		return nil, fmt.Errorf("service.ReservationService.List: %w: unknown status %q", domain.ErrValidation, f.Status)
	}
	if f.DateFrom != nil && f.DateTo != nil && f.DateTo.Before(*f.DateFrom) {
		return nil, fmt.Errorf("service.ReservationService.List: %w: date_to must not be before date_from", domain.ErrValidation)
	}
	out, err := s.reservations.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("service.ReservationService.List: %w", err)
	}
	if out == nil {
		return []domain.Reservation{}, nil
	}
	return out, nil
}

// GetByID returns a single reservation.
func (s *ReservationService) GetByID(ctx context.Context, id uuid.UUID) (domain.Reservation, error) {
	res, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return domain.Reservation{}, fmt.Errorf("service.ReservationService.GetByID: %w", domain.ErrReservationNotFound)
		}
		return domain.Reservation{}, fmt.Errorf("service.ReservationService.GetByID: %w", err)
	}
	return res, nil
}
