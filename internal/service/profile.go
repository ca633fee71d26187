package service

import (
	"context"
	"fmt"

	"github.com/pkordes/tour-booking/internal/domain"
	"github.com/pkordes/tour-booking/internal/repo"
)

// ProfileService serves cached contact data back as booking form defaults.
type ProfileService struct {
	profiles repo.ProfileRepo
}

// NewProfileService constructs a ProfileService.
func NewProfileService(profiles repo.ProfileRepo) *ProfileService {
	return &ProfileService{profiles: profiles}
}

// GetAutoFill returns the cached profile for identity only when the
// customer consented to autofill. Unknown identities, missing consent and
// an empty identity all yield an empty profile and no error.
func (s *ProfileService) GetAutoFill(ctx context.Context, identity string) (domain.Profile, error) {
	if identity == "" {
		return domain.Profile{}, nil
	}
	p, err := s.profiles.Get(ctx, identity)
	if err != nil {
		if isNotFound(err) {
			return domain.Profile{}, nil
		}
		return domain.Profile{}, fmt.Errorf("service.ProfileService.GetAutoFill: %w", err)
	}
	if !p.ConsentAutoFill {
		return domain.Profile{}, nil
	}
	return p, nil
}
