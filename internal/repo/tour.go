package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/tour-booking/internal/domain"
)

// TourRepo defines the non-transactional persistence operations for Tours.
// Writes that must stay consistent with reservation counts go through Tx.
type TourRepo interface {
	// Create inserts a new tour and returns the persisted record (with DB-generated
	// id, created_at, and updated_at populated).
	Create(ctx context.Context, tour domain.Tour) (domain.Tour, error)

	// GetByID retrieves a single tour by its UUID primary key.
	// Returns domain.ErrNotFound if no tour with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Tour, error)

	// ListBetween returns tours whose date falls within [from, to], ordered by
	// date, then creation time, then id. A nil bound is open.
	ListBetween(ctx context.Context, from, to *time.Time) ([]domain.Tour, error)

	// ListBookable returns the open and full tours on date together with
	// their live confirmed passenger counts.
	ListBookable(ctx context.Context, date time.Time) ([]domain.BookableTour, error)

	// Delete removes a tour by ID. Returns domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, id uuid.UUID) error
}

// pgTourRepo is the Postgres implementation of TourRepo.
type pgTourRepo struct {
	db db
}

// NewTourRepo constructs a TourRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewTourRepo(db db) TourRepo {
	return &pgTourRepo{db: db}
}

const tourColumns = `id, title, date, deadline_date, capacity, price, status, description, image_url, created_at, updated_at`

// Create inserts a new tour row and returns the full persisted record.
func (r *pgTourRepo) Create(ctx context.Context, tour domain.Tour) (domain.Tour, error) {
	const q = `
		INSERT INTO tours (title, date, deadline_date, capacity, price, status, description, image_url)
		VALUES (@title, @date, @deadline_date, @capacity, @price, @status, @description, @image_url)
		RETURNING ` + tourColumns

	args := pgx.NamedArgs{
		"title":         tour.Title,
		"date":          tour.Date,
		"deadline_date": tour.DeadlineDate, // nil becomes NULL
		"capacity":      tour.Capacity,
		"price":         tour.Price,
		"status":        string(tour.Status),
		"description":   tour.Description,
		"image_url":     tour.ImageURL,
	}

	result, err := scanTour(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Tour{}, fmt.Errorf("repo.TourRepo.Create: %w", err)
	}
	return result, nil
}

// GetByID retrieves a tour by primary key.
func (r *pgTourRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Tour, error) {
	q := `SELECT ` + tourColumns + ` FROM tours WHERE id = @id`

	result, err := scanTour(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Tour{}, fmt.Errorf("repo.TourRepo.GetByID: %w", err)
	}
	return result, nil
}

// ListBetween returns tours in the inclusive date range.
func (r *pgTourRepo) ListBetween(ctx context.Context, from, to *time.Time) ([]domain.Tour, error) {
	q := `
		SELECT ` + tourColumns + `
		FROM tours
		WHERE (@from::date IS NULL OR date >= @from::date)
		  AND (@to::date IS NULL OR date <= @to::date)
		ORDER BY date, created_at, id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"from": from, "to": to})
	if err != nil {
		return nil, fmt.Errorf("repo.TourRepo.ListBetween: %w", err)
	}
	defer rows.Close()

	var tours []domain.Tour
	for rows.Next() {
		t, err := scanTour(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.TourRepo.ListBetween: scan: %w", err)
		}
		tours = append(tours, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.TourRepo.ListBetween: rows: %w", err)
	}
	return tours, nil
}

// ListBookable returns open and full tours on date with their confirmed counts.
func (r *pgTourRepo) ListBookable(ctx context.Context, date time.Time) ([]domain.BookableTour, error) {
	const q = `
		SELECT t.id, t.title, t.date, t.deadline_date, t.capacity, t.price, t.status,
		       t.description, t.image_url, t.created_at, t.updated_at,
		       COALESCE(SUM(r.passengers) FILTER (WHERE r.status = 'confirmed'), 0)
		FROM tours t
		LEFT JOIN reservations r ON r.tour_id = t.id
		WHERE t.date = @date AND t.status IN ('open', 'full')
		GROUP BY t.id
		ORDER BY t.created_at, t.id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"date": date})
	if err != nil {
		return nil, fmt.Errorf("repo.TourRepo.ListBookable: %w", err)
	}
	defer rows.Close()

	var out []domain.BookableTour
	for rows.Next() {
		var (
			bt    domain.BookableTour
			count int64
		)
		t, err := scanTourWith(rows, &count)
		if err != nil {
			return nil, fmt.Errorf("repo.TourRepo.ListBookable: scan: %w", err)
		}
		bt.Tour = t
		bt.CurrentCount = int(count)
		out = append(out, bt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.TourRepo.ListBookable: rows: %w", err)
	}
	return out, nil
}

// Delete removes a tour by primary key.
func (r *pgTourRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM tours WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.TourRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.TourRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// scanTour maps a single database row into a domain.Tour.
func scanTour(s scanner) (domain.Tour, error) {
	return scanTourWith(s)
}

// scanTourWith scans the tour columns followed by any extra destinations.
func scanTourWith(s scanner, extra ...any) (domain.Tour, error) {
	var (
		t        domain.Tour
		id       pgtype.UUID
		date     pgtype.Date
		deadline pgtype.Date
		status   string
	)

	dest := append([]any{
		&id, &t.Title, &date, &deadline, &t.Capacity, &t.Price, &status,
		&t.Description, &t.ImageURL, &t.CreatedAt, &t.UpdatedAt,
	}, extra...)

	if err := s.Scan(dest...); err != nil {
		return domain.Tour{}, notFound(err)
	}

	t.ID = uuid.UUID(id.Bytes)
	t.Date = date.Time
	t.DeadlineDate = datePtr(deadline)
	t.Status = domain.TourStatus(status)
	return t, nil
}
