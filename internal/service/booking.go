// Package service contains the business logic for the tour reservation
// backend. Services validate inputs, enforce business rules, and orchestrate
// repo calls. No SQL lives here; services depend on repo interfaces, not
// implementations.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/tour-booking/internal/domain"
	"github.com/pkordes/tour-booking/internal/repo"
)

// NoticeDispatcher hands post-commit notices to the notifier. Both methods
// must return immediately; delivery happens in the background and its
// outcome never reaches the booking caller.
type NoticeDispatcher interface {
	Booked(n domain.BookedNotice)
	Cancelled(n domain.CancelledNotice)
}

// BookingConfig carries the tunables of the booking engine.
type BookingConfig struct {
	// SeatUpcharge is added once per selected preferred seat.
	SeatUpcharge int64
	// Location defines what "today" means for deadline checks.
	Location *time.Location
}

// BookingService is the reservation transaction engine. Every operation
// runs as exactly one TxRunner transaction; it holds no locks of its own.
type BookingService struct {
	tx      repo.TxRunner
	notices NoticeDispatcher
	cfg     BookingConfig
	now     func() time.Time
	newID   func() uuid.UUID
}

// BookingOption customises a BookingService.
type BookingOption func(*BookingService)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) BookingOption {
	return func(s *BookingService) { s.now = now }
}

// WithIDGenerator replaces uuid.New for reservation ids.
func WithIDGenerator(gen func() uuid.UUID) BookingOption {
	return func(s *BookingService) { s.newID = gen }
}

// NewBookingService constructs a BookingService.
func NewBookingService(tx repo.TxRunner, notices NoticeDispatcher, cfg BookingConfig, opts ...BookingOption) *BookingService {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	s := &BookingService{
		tx:      tx,
		notices: notices,
		cfg:     cfg,
		now:     time.Now,
		newID:   uuid.New,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Quote prices a prospective booking without touching the store.
func (s *BookingService) Quote(passengers int, pricePerPerson int64, preferredSeats []bool) domain.Quote {
	return domain.PriceBooking(passengers, pricePerPerson, preferredSeats, s.cfg.SeatUpcharge)
}

// CreateReservation books seats for a customer.
//
// The reservation id and timestamps are fixed before the transaction starts
// so a re-executed body writes the same row. The booking notice is
// dispatched only after commit.
func (s *BookingService) CreateReservation(ctx context.Context, req domain.BookingRequest) (domain.BookingResult, error) {
	if err := validateBookingInput(req.TourID, req.Date, req.Passengers); err != nil {
		return domain.BookingResult{}, fmt.Errorf("service.BookingService.CreateReservation: %w", err)
	}
	if req.PricePerPerson < 0 {
		return domain.BookingResult{}, fmt.Errorf("service.BookingService.CreateReservation: %w: price per person must not be negative", domain.ErrValidation)
	}

	now := s.now()
	today := domain.Today(now, s.cfg.Location)
	date := domain.DateOnly(req.Date)
	id := s.newID()
	total := s.Quote(req.Passengers, req.PricePerPerson, req.PreferredSeats).Total

	var title string
	err := s.tx.RunInTx(ctx, func(ctx context.Context, tx repo.Tx) error {
		tour, err := loadTour(ctx, tx, req.TourID, date)
		if err != nil {
			return err
		}
		if tour.DeadlinePassed(today) {
			return domain.ErrDeadlineExpired
		}
		if tour.Status != domain.TourOpen {
			return domain.ErrTourNotOpen
		}

		if req.MessagingIdentity != "" {
			dup, err := tx.HasConfirmed(ctx, req.MessagingIdentity, tour.ID, date)
			if err != nil {
				return err
			}
			if dup {
				return domain.ErrDuplicateReservation
			}
		}

		current, err := confirmedCount(ctx, tx, tour.ID, uuid.Nil)
		if err != nil {
			return err
		}
		if current+req.Passengers > tour.Capacity {
			return domain.ErrCapacityExceeded
		}

		res := domain.Reservation{
			ID:                id,
			TourID:            tour.ID,
			TourDate:          date,
			TourTitle:         tour.Title,
			Passengers:        req.Passengers,
			Contact:           req.Contact,
			Pickup:            req.Pickup,
			PreferredSeats:    req.PreferredSeats,
			TotalPrice:        total,
			Status:            domain.ReservationConfirmed,
			MessagingIdentity: req.MessagingIdentity,
			CreatedAt:         now,
		}
		if err := tx.InsertReservation(ctx, res); err != nil {
			return err
		}

		if current+req.Passengers >= tour.Capacity {
			if err := tx.SetTourStatus(ctx, tour.ID, domain.TourFull, now); err != nil {
				return err
			}
		}

		if req.MessagingIdentity != "" {
			profile := domain.Profile{
				MessagingIdentity: req.MessagingIdentity,
				Contact:           req.Contact,
				ConsentAutoFill:   req.ConsentAutoFill,
				UpdatedAt:         now,
			}
			if err := tx.UpsertProfile(ctx, profile); err != nil {
				return err
			}
		}

		title = tour.Title
		return nil
	})
	if err != nil {
		return domain.BookingResult{}, fmt.Errorf("service.BookingService.CreateReservation: %w", err)
	}

	if req.MessagingIdentity != "" {
		s.notices.Booked(domain.BookedNotice{
			ReservationID:     id,
			MessagingIdentity: req.MessagingIdentity,
			TourTitle:         title,
			Date:              date,
			Passengers:        req.Passengers,
			TotalPrice:        total,
		})
	}
	return domain.BookingResult{ReservationID: id, TotalPrice: total}, nil
}

// CreateManualReservation records an operator-entered booking.
// There is no identity, no duplicate check, no deadline or status gate and
// no notification, but capacity is enforced against the live count read in
// the same transaction as the insert.
func (s *BookingService) CreateManualReservation(ctx context.Context, req domain.ManualBookingRequest) (domain.BookingResult, error) {
	if err := validateBookingInput(req.TourID, req.Date, req.Passengers); err != nil {
		return domain.BookingResult{}, fmt.Errorf("service.BookingService.CreateManualReservation: %w", err)
	}
	if req.TotalPrice < 0 {
		return domain.BookingResult{}, fmt.Errorf("service.BookingService.CreateManualReservation: %w: total price must not be negative", domain.ErrValidation)
	}

	now := s.now()
	date := domain.DateOnly(req.Date)
	id := s.newID()

	err := s.tx.RunInTx(ctx, func(ctx context.Context, tx repo.Tx) error {
		tour, err := loadTour(ctx, tx, req.TourID, date)
		if err != nil {
			return err
		}

		current, err := confirmedCount(ctx, tx, tour.ID, uuid.Nil)
		if err != nil {
			return err
		}
		if current+req.Passengers > tour.Capacity {
			return domain.ErrCapacityExceeded
		}

		title := req.TourTitle
		if title == "" {
			title = tour.Title
		}
		res := domain.Reservation{
			ID:             id,
			TourID:         tour.ID,
			TourDate:       date,
			TourTitle:      title,
			Passengers:     req.Passengers,
			Contact:        req.Contact,
			Pickup:         req.Pickup,
			PreferredSeats: req.PreferredSeats,
			TotalPrice:     req.TotalPrice,
			Status:         domain.ReservationConfirmed,
			ManualEntry:    true,
			CreatedAt:      now,
		}
		if err := tx.InsertReservation(ctx, res); err != nil {
			return err
		}

		// Only the engine-managed open state may flip to full.
		if tour.Status == domain.TourOpen && current+req.Passengers >= tour.Capacity {
			return tx.SetTourStatus(ctx, tour.ID, domain.TourFull, now)
		}
		return nil
	})
	if err != nil {
		return domain.BookingResult{}, fmt.Errorf("service.BookingService.CreateManualReservation: %w", err)
	}
	return domain.BookingResult{ReservationID: id, TotalPrice: req.TotalPrice}, nil
}

// SetReservationStatus applies a status transition. Only confirmed →
// cancelled exists; cancelling an already cancelled reservation succeeds
// without writing anything.
func (s *BookingService) SetReservationStatus(ctx context.Context, id uuid.UUID, status domain.ReservationStatus) error {
	if status != domain.ReservationCancelled {
		return fmt.Errorf("service.BookingService.SetReservationStatus: %w: only cancellation is supported", domain.ErrValidation)
	}

	now := s.now()
	var notice *domain.CancelledNotice

	err := s.tx.RunInTx(ctx, func(ctx context.Context, tx repo.Tx) error {
		notice = nil

		res, err := tx.GetReservationForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrReservationNotFound
			}
			return err
		}
		if res.Status == domain.ReservationCancelled {
			return nil
		}

		if err := tx.CancelReservation(ctx, res.ID, now); err != nil {
			return err
		}

		tour, err := tx.GetTourForUpdate(ctx, res.TourID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			// The tour was deleted; there is no status left to restore.
		case err != nil:
			return err
		case tour.Status == domain.TourFull:
			remaining, err := confirmedCount(ctx, tx, tour.ID, res.ID)
			if err != nil {
				return err
			}
			if remaining < tour.Capacity {
				if err := tx.SetTourStatus(ctx, tour.ID, domain.TourOpen, now); err != nil {
					return err
				}
			}
		}

		if res.MessagingIdentity != "" {
			notice = &domain.CancelledNotice{
				ReservationID:     res.ID,
				MessagingIdentity: res.MessagingIdentity,
				TourTitle:         res.TourTitle,
				Date:              res.TourDate,
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("service.BookingService.SetReservationStatus: %w", err)
	}

	if notice != nil {
		s.notices.Cancelled(*notice)
	}
	return nil
}

// loadTour reads and locks the tour and checks that the requested date
// is the tour's own date.
func loadTour(ctx context.Context, tx repo.Tx, id uuid.UUID, date time.Time) (domain.Tour, error) {
	tour, err := tx.GetTourForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Tour{}, domain.ErrTourNotFound
		}
		return domain.Tour{}, err
	}
	if !domain.DateOnly(tour.Date).Equal(date) {
		return domain.Tour{}, fmt.Errorf("%w: date %s does not match tour date %s",
			domain.ErrValidation, date.Format(domain.DateLayout), tour.Date.Format(domain.DateLayout))
	}
	return tour, nil
}

// confirmedCount runs the capacity ledger over the tour's confirmed
// reservations as seen by tx.
func confirmedCount(ctx context.Context, tx repo.Tx, tourID, exclude uuid.UUID) (int, error) {
	confirmed, err := tx.ListConfirmedByTour(ctx, tourID)
	if err != nil {
		return 0, err
	}
	return domain.ConfirmedPassengerSum(confirmed, tourID, exclude), nil
}

func validateBookingInput(tourID uuid.UUID, date time.Time, passengers int) error {
	if tourID == uuid.Nil {
		return fmt.Errorf("%w: tour id is required", domain.ErrValidation)
	}
	if date.IsZero() {
		return fmt.Errorf("%w: date is required", domain.ErrValidation)
	}
	if passengers < 1 {
		return fmt.Errorf("%w: passengers must be at least 1", domain.ErrValidation)
	}
	return nil
}
