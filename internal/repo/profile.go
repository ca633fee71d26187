package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pkordes/tour-booking/internal/domain"
)

// ProfileRepo reads the customer profile cache. The cache is written only
// by the booking transaction (see Tx.UpsertProfile).
type ProfileRepo interface {
	// Get returns the cached profile for identity.
	// Returns domain.ErrNotFound if nothing is cached.
	Get(ctx context.Context, identity string) (domain.Profile, error)
}

type pgProfileRepo struct {
	db db
}

// NewProfileRepo constructs a ProfileRepo backed by the provided db connection.
func NewProfileRepo(db db) ProfileRepo {
	return &pgProfileRepo{db: db}
}

// Get retrieves a profile by messaging identity.
func (r *pgProfileRepo) Get(ctx context.Context, identity string) (domain.Profile, error) {
	const q = `
		SELECT messaging_identity, name, phone, zip, pref, city, street, consent_auto_fill, updated_at
		FROM user_profiles
		WHERE messaging_identity = @identity`

	var p domain.Profile
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"identity": identity}).Scan(
		&p.MessagingIdentity, &p.Name, &p.Phone, &p.Zip, &p.Pref, &p.City, &p.Street,
		&p.ConsentAutoFill, &p.UpdatedAt,
	)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("repo.ProfileRepo.Get: %w", notFound(err))
	}
	return p, nil
}
