package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/tour-booking/internal/domain"
)

// ReservationRepo defines the read-only operations on Reservations.
// Reservations are only ever written inside a Tx.
type ReservationRepo interface {
	// GetByID retrieves a single reservation.
	// Returns domain.ErrNotFound if no reservation with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Reservation, error)

	// List returns reservations matching f, newest tour date first.
	List(ctx context.Context, f domain.ReservationFilter) ([]domain.Reservation, error)
}

type pgReservationRepo struct {
	db db
}

// NewReservationRepo constructs a ReservationRepo backed by the provided db connection.
func NewReservationRepo(db db) ReservationRepo {
	return &pgReservationRepo{db: db}
}

const reservationColumns = `id, tour_id, tour_date, tour_title, passengers, contact, pickup,
	preferred_seats, total_price, status, messaging_identity, manual_entry, created_at, cancelled_at`

// GetByID retrieves a reservation by primary key.
func (r *pgReservationRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Reservation, error) {
	q := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = @id`

	result, err := scanReservation(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("repo.ReservationRepo.GetByID: %w", err)
	}
	return result, nil
}

// List applies the optional filters in SQL. The title filter is a
// case-sensitive substring match on the snapshotted tour title.
func (r *pgReservationRepo) List(ctx context.Context, f domain.ReservationFilter) ([]domain.Reservation, error) {
	q := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE (@status = '' OR status = @status)
		  AND (@from::date IS NULL OR tour_date >= @from::date)
		  AND (@to::date IS NULL OR tour_date <= @to::date)
		  AND (@title = '' OR strpos(tour_title, @title) > 0)
		ORDER BY tour_date DESC, created_at DESC`

	args := pgx.NamedArgs{
		"status": string(f.Status),
		"from":   f.DateFrom,
		"to":     f.DateTo,
		"title":  f.TourTitle,
	}

	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, fmt.Errorf("repo.ReservationRepo.List: %w", err)
	}
	defer rows.Close()

	out, err := collectReservations(rows)
	if err != nil {
		return nil, fmt.Errorf("repo.ReservationRepo.List: %w", err)
	}
	return out, nil
}

func collectReservations(rows pgx.Rows) ([]domain.Reservation, error) {
	var out []domain.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

// scanReservation maps a single database row into a domain.Reservation.
// contact is a jsonb column decoded straight into domain.Contact.
func scanReservation(s scanner) (domain.Reservation, error) {
	var (
		res       domain.Reservation
		id        pgtype.UUID
		tourID    pgtype.UUID
		tourDate  pgtype.Date
		status    string
		identity  pgtype.Text
		cancelled pgtype.Timestamptz
	)

	err := s.Scan(
		&id, &tourID, &tourDate, &res.TourTitle, &res.Passengers, &res.Contact, &res.Pickup,
		&res.PreferredSeats, &res.TotalPrice, &status, &identity, &res.ManualEntry,
		&res.CreatedAt, &cancelled,
	)
	if err != nil {
		return domain.Reservation{}, notFound(err)
	}

	res.ID = uuid.UUID(id.Bytes)
	res.TourID = uuid.UUID(tourID.Bytes)
	res.TourDate = tourDate.Time
	res.Status = domain.ReservationStatus(status)
	if identity.Valid {
		res.MessagingIdentity = identity.String
	}
	if cancelled.Valid {
		at := cancelled.Time
		res.CancelledAt = &at
	}
	return res, nil
}
