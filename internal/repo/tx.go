package repo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sethvargo/go-retry"

	"github.com/pkordes/tour-booking/internal/domain"
)

// Tx is the transactional handle passed to a RunInTx body. Every read made
// through it participates in the same serializable snapshot as its writes.
type Tx interface {
	// GetTourForUpdate loads a tour and locks its row until commit.
	// Returns domain.ErrNotFound if the tour does not exist.
	GetTourForUpdate(ctx context.Context, id uuid.UUID) (domain.Tour, error)

	// SaveTour overwrites the mutable fields of an existing tour.
	// Returns domain.ErrNotFound if the tour does not exist.
	SaveTour(ctx context.Context, t domain.Tour, at time.Time) error

	// RetagReservations rewrites the tour date and title snapshot on every
	// reservation of the tour, so duplicate detection follows a rescheduled
	// tour.
	RetagReservations(ctx context.Context, tourID uuid.UUID, date time.Time, title string) error

	// SetTourStatus writes only the status column of a tour.
	SetTourStatus(ctx context.Context, id uuid.UUID, status domain.TourStatus, at time.Time) error

	// ListConfirmedByTour returns every confirmed reservation of the tour.
	ListConfirmedByTour(ctx context.Context, tourID uuid.UUID) ([]domain.Reservation, error)

	// HasConfirmed reports whether identity already holds a confirmed
	// reservation for the tour on date.
	HasConfirmed(ctx context.Context, identity string, tourID uuid.UUID, date time.Time) (bool, error)

	// InsertReservation writes a new reservation row using res.ID as key.
	// Returns domain.ErrDuplicateReservation if the confirmed-identity
	// uniqueness constraint rejects the row.
	InsertReservation(ctx context.Context, res domain.Reservation) error

	// GetReservationForUpdate loads a reservation and locks its row.
	// Returns domain.ErrNotFound if it does not exist.
	GetReservationForUpdate(ctx context.Context, id uuid.UUID) (domain.Reservation, error)

	// CancelReservation marks a reservation cancelled at the given time.
	CancelReservation(ctx context.Context, id uuid.UUID, at time.Time) error

	// UpsertProfile merges p into the profile cache: empty contact fields
	// keep the stored value, consent is always overwritten.
	UpsertProfile(ctx context.Context, p domain.Profile) error
}

// TxRunner executes fn as one atomic, isolated unit. fn may be invoked more
// than once when the store retries after a conflict, so it must not perform
// any side effect outside the Tx handle.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// beginner is satisfied by *pgxpool.Pool and *pgx.Conn.
type beginner interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

// PgTxRunner runs bodies in SERIALIZABLE Postgres transactions and retries
// serialization failures and deadlocks with exponential backoff.
type PgTxRunner struct {
	pool        beginner
	maxAttempts uint64
	baseDelay   time.Duration
	log         *slog.Logger
}

// NewTxRunner constructs a PgTxRunner. maxAttempts counts the first try;
// values below 1 are treated as 1.
func NewTxRunner(pool beginner, maxAttempts int, log *slog.Logger) *PgTxRunner {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &PgTxRunner{
		pool:        pool,
		maxAttempts: uint64(maxAttempts),
		baseDelay:   10 * time.Millisecond,
		log:         log,
	}
}

// RunInTx implements TxRunner. When every attempt conflicts the returned
// error wraps domain.ErrConcurrencyConflict.
func (r *PgTxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	backoff := retry.NewExponential(r.baseDelay)
	backoff = retry.WithCappedDuration(500*time.Millisecond, backoff)
	backoff = retry.WithMaxRetries(r.maxAttempts-1, backoff)

	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := r.runOnce(ctx, fn)
		if isRetryable(err) {
			r.log.DebugContext(ctx, "transaction conflict, retrying", "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return err
	})
	if isRetryable(err) {
		return fmt.Errorf("repo.PgTxRunner.RunInTx: %w after %d attempts: %v", domain.ErrConcurrencyConflict, attempt, err)
	}
	return err
}

func (r *PgTxRunner) runOnce(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	// Rollback after a successful Commit is a no-op.
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, &pgTx{db: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func isRetryable(err error) bool {
	switch pgCode(err) {
	case pgSerializationFailure, pgDeadlockDetected:
		return true
	}
	return false
}

// pgTx is the Postgres implementation of Tx. It wraps any db so integration
// tests can drive it from inside a rolled-back test transaction.
type pgTx struct {
	db db
}

// NewTx wraps an open transaction (or any db) as a Tx without retry
// handling. Intended for integration tests.
func NewTx(db db) Tx {
	return &pgTx{db: db}
}

func (t *pgTx) GetTourForUpdate(ctx context.Context, id uuid.UUID) (domain.Tour, error) {
	q := `SELECT ` + tourColumns + ` FROM tours WHERE id = @id FOR UPDATE`

	result, err := scanTour(t.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Tour{}, fmt.Errorf("repo.Tx.GetTourForUpdate: %w", err)
	}
	return result, nil
}

func (t *pgTx) SaveTour(ctx context.Context, tour domain.Tour, at time.Time) error {
	const q = `
		UPDATE tours
		SET title         = @title,
		    date          = @date,
		    deadline_date = @deadline_date,
		    capacity      = @capacity,
		    price         = @price,
		    status        = @status,
		    description   = @description,
		    image_url     = @image_url,
		    updated_at    = @updated_at
		WHERE id = @id`

	args := pgx.NamedArgs{
		"id":            tour.ID,
		"title":         tour.Title,
		"date":          tour.Date,
		"deadline_date": tour.DeadlineDate,
		"capacity":      tour.Capacity,
		"price":         tour.Price,
		"status":        string(tour.Status),
		"description":   tour.Description,
		"image_url":     tour.ImageURL,
		"updated_at":    at,
	}
	tag, err := t.db.Exec(ctx, q, args)
	if err != nil {
		return fmt.Errorf("repo.Tx.SaveTour: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.Tx.SaveTour: %w", domain.ErrNotFound)
	}
	return nil
}

func (t *pgTx) RetagReservations(ctx context.Context, tourID uuid.UUID, date time.Time, title string) error {
	const q = `
		UPDATE reservations
		SET tour_date = @date, tour_title = @title
		WHERE tour_id = @tour_id`

	args := pgx.NamedArgs{"tour_id": tourID, "date": date, "title": title}
	if _, err := t.db.Exec(ctx, q, args); err != nil {
		return fmt.Errorf("repo.Tx.RetagReservations: %w", err)
	}
	return nil
}

func (t *pgTx) SetTourStatus(ctx context.Context, id uuid.UUID, status domain.TourStatus, at time.Time) error {
	const q = `UPDATE tours SET status = @status, updated_at = @updated_at WHERE id = @id`

	args := pgx.NamedArgs{"id": id, "status": string(status), "updated_at": at}
	tag, err := t.db.Exec(ctx, q, args)
	if err != nil {
		return fmt.Errorf("repo.Tx.SetTourStatus: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.Tx.SetTourStatus: %w", domain.ErrNotFound)
	}
	return nil
}

func (t *pgTx) ListConfirmedByTour(ctx context.Context, tourID uuid.UUID) ([]domain.Reservation, error) {
	q := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE tour_id = @tour_id AND status = 'confirmed'`

	rows, err := t.db.Query(ctx, q, pgx.NamedArgs{"tour_id": tourID})
	if err != nil {
		return nil, fmt.Errorf("repo.Tx.ListConfirmedByTour: %w", err)
	}
	defer rows.Close()

	out, err := collectReservations(rows)
	if err != nil {
		return nil, fmt.Errorf("repo.Tx.ListConfirmedByTour: %w", err)
	}
	return out, nil
}

func (t *pgTx) HasConfirmed(ctx context.Context, identity string, tourID uuid.UUID, date time.Time) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM reservations
			WHERE messaging_identity = @identity
			  AND tour_id = @tour_id
			  AND tour_date = @date
			  AND status = 'confirmed'
		)`

	var exists bool
	args := pgx.NamedArgs{"identity": identity, "tour_id": tourID, "date": date}
	if err := t.db.QueryRow(ctx, q, args).Scan(&exists); err != nil {
		return false, fmt.Errorf("repo.Tx.HasConfirmed: %w", err)
	}
	return exists, nil
}

func (t *pgTx) InsertReservation(ctx context.Context, res domain.Reservation) error {
	const q = `
		INSERT INTO reservations (
			id, tour_id, tour_date, tour_title, passengers, contact, pickup, preferred_seats,
			total_price, status, messaging_identity, manual_entry, created_at
		) VALUES (
			@id, @tour_id, @tour_date, @tour_title, @passengers, @contact, @pickup, @preferred_seats,
			@total_price, @status, @messaging_identity, @manual_entry, @created_at
		)`

	var identity *string // NULL for operator entries
	if res.MessagingIdentity != "" {
		identity = &res.MessagingIdentity
	}
	seats := res.PreferredSeats
	if seats == nil {
		seats = []bool{}
	}

	args := pgx.NamedArgs{
		"id":                 res.ID,
		"tour_id":            res.TourID,
		"tour_date":          res.TourDate,
		"tour_title":         res.TourTitle,
		"passengers":         res.Passengers,
		"contact":            res.Contact,
		"pickup":             res.Pickup,
		"preferred_seats":    seats,
		"total_price":        res.TotalPrice,
		"status":             string(res.Status),
		"messaging_identity": identity,
		"manual_entry":       res.ManualEntry,
		"created_at":         res.CreatedAt,
	}
	if _, err := t.db.Exec(ctx, q, args); err != nil {
		if pgCode(err) == pgUniqueViolation {
			return fmt.Errorf("repo.Tx.InsertReservation: %w", domain.ErrDuplicateReservation)
		}
		return fmt.Errorf("repo.Tx.InsertReservation: %w", err)
	}
	return nil
}

func (t *pgTx) GetReservationForUpdate(ctx context.Context, id uuid.UUID) (domain.Reservation, error) {
	q := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = @id FOR UPDATE`

	result, err := scanReservation(t.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("repo.Tx.GetReservationForUpdate: %w", err)
	}
	return result, nil
}

func (t *pgTx) CancelReservation(ctx context.Context, id uuid.UUID, at time.Time) error {
	const q = `
		UPDATE reservations
		SET status = 'cancelled', cancelled_at = @at
		WHERE id = @id AND status = 'confirmed'`

	if _, err := t.db.Exec(ctx, q, pgx.NamedArgs{"id": id, "at": at}); err != nil {
		return fmt.Errorf("repo.Tx.CancelReservation: %w", err)
	}
	return nil
}

func (t *pgTx) UpsertProfile(ctx context.Context, p domain.Profile) error {
	const q = `
		INSERT INTO user_profiles (
			messaging_identity, name, phone, zip, pref, city, street, consent_auto_fill, updated_at
		) VALUES (
			@identity, @name, @phone, @zip, @pref, @city, @street, @consent, @updated_at
		)
		ON CONFLICT (messaging_identity) DO UPDATE SET
			name              = COALESCE(NULLIF(EXCLUDED.name, ''), user_profiles.name),
			phone             = COALESCE(NULLIF(EXCLUDED.phone, ''), user_profiles.phone),
			zip               = COALESCE(NULLIF(EXCLUDED.zip, ''), user_profiles.zip),
			pref              = COALESCE(NULLIF(EXCLUDED.pref, ''), user_profiles.pref),
			city              = COALESCE(NULLIF(EXCLUDED.city, ''), user_profiles.city),
			street            = COALESCE(NULLIF(EXCLUDED.street, ''), user_profiles.street),
			consent_auto_fill = EXCLUDED.consent_auto_fill,
			updated_at        = EXCLUDED.updated_at`

	args := pgx.NamedArgs{
		"identity":   p.MessagingIdentity,
		"name":       p.Name,
		"phone":      p.Phone,
		"zip":        p.Zip,
		"pref":       p.Pref,
		"city":       p.City,
		"street":     p.Street,
		"consent":    p.ConsentAutoFill,
		"updated_at": p.UpdatedAt,
	}
	if _, err := t.db.Exec(ctx, q, args); err != nil {
		return fmt.Errorf("repo.Tx.UpsertProfile: %w", err)
	}
	return nil
}
