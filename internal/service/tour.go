package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/tour-booking/internal/domain"
	"github.com/pkordes/tour-booking/internal/repo"
)

// TourService implements operator tour management and the customer tour list.
type TourService struct {
	tours repo.TourRepo
	tx    repo.TxRunner
	now   func() time.Time
}

// NewTourService constructs a TourService.
func NewTourService(tours repo.TourRepo, tx repo.TxRunner) *TourService {
	return &TourService{tours: tours, tx: tx, now: time.Now}
}

// Create validates and persists a new tour. An empty status defaults to open.
func (s *TourService) Create(ctx context.Context, tour domain.Tour) (domain.Tour, error) {
	if tour.Status == "" {
		tour.Status = domain.TourOpen
	}
	tour.Date = domain.DateOnly(tour.Date)
	if tour.DeadlineDate != nil {
		d := domain.DateOnly(*tour.DeadlineDate)
		tour.DeadlineDate = &d
	}
	if err := validateTour(tour); err != nil {
		return domain.Tour{}, fmt.Errorf("service.TourService.Create: %w", err)
	}
	result, err := s.tours.Create(ctx, tour)
	if err != nil {
		return domain.Tour{}, fmt.Errorf("service.TourService.Create: %w", err)
	}
	return result, nil
}

// GetByID returns a single tour.
func (s *TourService) GetByID(ctx context.Context, id uuid.UUID) (domain.Tour, error) {
	result, err := s.tours.GetByID(ctx, id)
	if err != nil {
		return domain.Tour{}, fmt.Errorf("service.TourService.GetByID: %w", err)
	}
	return result, nil
}

// List returns tours in the optional date range.
// Always returns a non-nil slice so callers can safely range over it.
func (s *TourService) List(ctx context.Context, from, to *time.Time) ([]domain.Tour, error) {
	tours, err := s.tours.ListBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("service.TourService.List: %w", err)
	}
	if tours == nil {
		return []domain.Tour{}, nil
	}
	return tours, nil
}

// ListBookable returns the open and full tours on date with live counts.
func (s *TourService) ListBookable(ctx context.Context, date time.Time) ([]domain.BookableTour, error) {
	tours, err := s.tours.ListBookable(ctx, domain.DateOnly(date))
	if err != nil {
		return nil, fmt.Errorf("service.TourService.ListBookable: %w", err)
	}
	if tours == nil {
		return []domain.BookableTour{}, nil
	}
	return tours, nil
}

// Update applies patch inside a transaction.
//
// When the resulting status is open or full it is recomputed from the live
// confirmed count, so a capacity change or an operator reopening a tour
// cannot break the full/open invariant. stop and hidden are kept as set.
// A new date or title is copied onto the tour's reservations in the same
// transaction.
func (s *TourService) Update(ctx context.Context, id uuid.UUID, patch domain.TourPatch) (domain.Tour, error) {
	if patch.Empty() {
		return domain.Tour{}, fmt.Errorf("service.TourService.Update: %w: no fields to update", domain.ErrValidation)
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return domain.Tour{}, fmt.Errorf("service.TourService.Update: %w: unknown status %q", domain.ErrValidation, *patch.Status)
	}

	now := s.now()
	var updated domain.Tour

	err := s.tx.RunInTx(ctx, func(ctx context.Context, tx repo.Tx) error {
		current, err := tx.GetTourForUpdate(ctx, id)
		if err != nil {
			return err
		}

		next := patch.Apply(current)
		next.Date = domain.DateOnly(next.Date)
		if next.DeadlineDate != nil {
			d := domain.DateOnly(*next.DeadlineDate)
			next.DeadlineDate = &d
		}
		if err := validateTour(next); err != nil {
			return err
		}

		if !next.Status.IsOverride() {
			count, err := confirmedCount(ctx, tx, next.ID, uuid.Nil)
			if err != nil {
				return err
			}
			next.Status = domain.TourOpen
			if count >= next.Capacity {
				next.Status = domain.TourFull
			}
		}

		if err := tx.SaveTour(ctx, next, now); err != nil {
			return err
		}
		if !next.Date.Equal(current.Date) || next.Title != current.Title {
			if err := tx.RetagReservations(ctx, next.ID, next.Date, next.Title); err != nil {
				return err
			}
		}
		next.UpdatedAt = now
		updated = next
		return nil
	})
	if err != nil {
		return domain.Tour{}, fmt.Errorf("service.TourService.Update: %w", err)
	}
	return updated, nil
}

// Delete removes a tour. Its reservations are kept.
func (s *TourService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.tours.Delete(ctx, id); err != nil {
		return fmt.Errorf("service.TourService.Delete: %w", err)
	}
	return nil
}

// validateTour enforces business rules common to both Create and Update.
//   - Title must be non-empty (whitespace-only titles are rejected).
//   - Date is required and capacity must be positive.
//   - Price must not be negative.
//   - Status must be a known value.
func validateTour(t domain.Tour) error {
	switch {
	case strings.TrimSpace(t.Title) == "":
		return fmt.Errorf("%w: title is required", domain.ErrValidation)
	case t.Date.IsZero():
		return fmt.Errorf("%w: date is required", domain.ErrValidation)
	case t.Capacity < 1:
		return fmt.Errorf("%w: capacity must be at least 1", domain.ErrValidation)
	case t.Price < 0:
		return fmt.Errorf("%w: price must not be negative", domain.ErrValidation)
	case !t.Status.Valid():
		return fmt.Errorf("%w: unknown status %q", domain.ErrValidation, t.Status)
	}
	return nil
}

// isNotFound is shared by services that translate repo misses.
func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
