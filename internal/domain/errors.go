package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing required field, non-positive capacity).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// Booking failures. Each one aborts the reservation transaction before any
// write, so no partial state is ever persisted.
var (
	// ErrTourNotFound means the tour id does not exist.
	ErrTourNotFound = errors.New("tour not found")

	// ErrDeadlineExpired means the tour's deadline date is earlier than today.
	ErrDeadlineExpired = errors.New("booking deadline passed")

	// ErrTourNotOpen covers full, stop and hidden alike.
	ErrTourNotOpen = errors.New("tour is not open for booking")

	// ErrDuplicateReservation means the messaging identity already holds a
	// confirmed reservation for the same tour and date.
	ErrDuplicateReservation = errors.New("duplicate reservation")

	// ErrCapacityExceeded means the requested passengers do not fit.
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrReservationNotFound means the reservation id does not exist.
	ErrReservationNotFound = errors.New("reservation not found")
)

// ErrConcurrencyConflict is returned when the store gave up retrying a
// transaction that kept conflicting. It is transient: the caller may retry
// the whole operation.
var ErrConcurrencyConflict = errors.New("concurrency conflict")

// ErrNotificationDeliveryFailed wraps notifier failures. It is only ever
// logged; it never becomes the result of a booking operation.
var ErrNotificationDeliveryFailed = errors.New("notification delivery failed")
