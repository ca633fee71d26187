package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/tour-booking/internal/domain"
)

// PickupRepo defines the persistence operations for pickup points.
type PickupRepo interface {
	// Create inserts a pickup point and returns the persisted record.
	Create(ctx context.Context, p domain.Pickup) (domain.Pickup, error)

	// List returns pickup points ordered by sort_order, then name.
	// When activeOnly is true inactive points are omitted.
	List(ctx context.Context, activeOnly bool) ([]domain.Pickup, error)

	// Update applies the non-nil patch fields and returns the updated record.
	// Returns domain.ErrNotFound if no pickup with that ID exists.
	Update(ctx context.Context, id uuid.UUID, patch domain.PickupPatch) (domain.Pickup, error)

	// Delete removes a pickup point. Returns domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, id uuid.UUID) error
}

type pgPickupRepo struct {
	db db
}

// NewPickupRepo constructs a PickupRepo backed by the provided db connection.
func NewPickupRepo(db db) PickupRepo {
	return &pgPickupRepo{db: db}
}

const pickupColumns = `id, name, is_active, sort_order, created_at, updated_at`

func (r *pgPickupRepo) Create(ctx context.Context, p domain.Pickup) (domain.Pickup, error) {
	const q = `
		INSERT INTO pickups (name, is_active, sort_order)
		VALUES (@name, @is_active, @sort_order)
		RETURNING ` + pickupColumns

	args := pgx.NamedArgs{"name": p.Name, "is_active": p.IsActive, "sort_order": p.SortOrder}
	result, err := scanPickup(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Pickup{}, fmt.Errorf("repo.PickupRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgPickupRepo) List(ctx context.Context, activeOnly bool) ([]domain.Pickup, error) {
	const q = `
		SELECT ` + pickupColumns + `
		FROM pickups
		WHERE NOT @active_only OR is_active
		ORDER BY sort_order, name`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"active_only": activeOnly})
	if err != nil {
		return nil, fmt.Errorf("repo.PickupRepo.List: %w", err)
	}
	defer rows.Close()

	var out []domain.Pickup
	for rows.Next() {
		p, err := scanPickup(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.PickupRepo.List: scan: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.PickupRepo.List: rows: %w", err)
	}
	return out, nil
}

// Update uses COALESCE so a NULL parameter keeps the current column value.
func (r *pgPickupRepo) Update(ctx context.Context, id uuid.UUID, patch domain.PickupPatch) (domain.Pickup, error) {
	const q = `
		UPDATE pickups
		SET name       = COALESCE(@name, name),
		    is_active  = COALESCE(@is_active, is_active),
		    sort_order = COALESCE(@sort_order, sort_order),
		    updated_at = now()
		WHERE id = @id
		RETURNING ` + pickupColumns

	args := pgx.NamedArgs{
		"id":         id,
		"name":       patch.Name,
		"is_active":  patch.IsActive,
		"sort_order": patch.SortOrder,
	}
	result, err := scanPickup(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Pickup{}, fmt.Errorf("repo.PickupRepo.Update: %w", err)
	}
	return result, nil
}

func (r *pgPickupRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM pickups WHERE id = @id`, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.PickupRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.PickupRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func scanPickup(s scanner) (domain.Pickup, error) {
	var (
		p  domain.Pickup
		id pgtype.UUID
	)
	if err := s.Scan(&id, &p.Name, &p.IsActive, &p.SortOrder, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return domain.Pickup{}, notFound(err)
	}
	p.ID = uuid.UUID(id.Bytes)
	return p, nil
}
