package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/pkordes/tour-booking/internal/domain"
	"github.com/pkordes/tour-booking/internal/repo"
)

// PickupService implements business logic for pickup points.
type PickupService struct {
	pickups repo.PickupRepo
}

// NewPickupService constructs a PickupService backed by the provided PickupRepo.
func NewPickupService(pickups repo.PickupRepo) *PickupService {
	return &PickupService{pickups: pickups}
}

// Create validates and persists a pickup point.
func (s *PickupService) Create(ctx context.Context, p domain.Pickup) (domain.Pickup, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return domain.Pickup{}, fmt.Errorf("service.PickupService.Create: %w: name is required", domain.ErrValidation)
	}
	result, err := s.pickups.Create(ctx, p)
	if err != nil {
		return domain.Pickup{}, fmt.Errorf("service.PickupService.Create: %w", err)
	}
	return result, nil
}

// List returns pickup points in display order.
// Always returns a non-nil slice so callers can safely range over it.
func (s *PickupService) List(ctx context.Context, activeOnly bool) ([]domain.Pickup, error) {
	out, err := s.pickups.List(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("service.PickupService.List: %w", err)
	}
	if out == nil {
		return []domain.Pickup{}, nil
	}
	return out, nil
}

// Update applies a validated patch.
func (s *PickupService) Update(ctx context.Context, id uuid.UUID, patch domain.PickupPatch) (domain.Pickup, error) {
	if patch.Empty() {
		return domain.Pickup{}, fmt.Errorf("service.PickupService.Update: %w: no fields to update", domain.ErrValidation)
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return domain.Pickup{}, fmt.Errorf("service.PickupService.Update: %w: name must not be empty", domain.ErrValidation)
		}
		patch.Name = &name
	}
	result, err := s.pickups.Update(ctx, id, patch)
	if err != nil {
		return domain.Pickup{}, fmt.Errorf("service.PickupService.Update: %w", err)
	}
	return result, nil
}

// Delete removes a pickup point.
func (s *PickupService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.pickups.Delete(ctx, id); err != nil {
		return fmt.Errorf("service.PickupService.Delete: %w", err)
	}
	return nil
}
