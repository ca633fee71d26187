// Package domain contains the core data types for the tour reservation
// backend. It depends on nothing but google/uuid and is imported by
// every other internal package (repo, service, handler).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// TourStatus is the availability state of a tour.
// open and full are managed by the booking engine; stop and hidden are
// operator overrides the engine never sets or clears.
type TourStatus string

const (
	TourOpen   TourStatus = "open"
	TourFull   TourStatus = "full"
	TourStop   TourStatus = "stop"
	TourHidden TourStatus = "hidden"
)

// Valid reports whether s is one of the known tour statuses.
func (s TourStatus) Valid() bool {
	switch s {
	case TourOpen, TourFull, TourStop, TourHidden:
		return true
	}
	return false
}

// IsOverride reports whether s is an operator-only status.
func (s TourStatus) IsOverride() bool {
	return s == TourStop || s == TourHidden
}

// Tour is a scheduled, capacity-limited bookable event.
// Date and DeadlineDate are calendar dates stored as midnight UTC.
type Tour struct {
	ID           uuid.UUID
	Title        string
	Date         time.Time
	DeadlineDate *time.Time // nil when the tour has no booking deadline
	Capacity     int
	Price        int64 // per seat, minor currency units
	Status       TourStatus
	Description  string
	ImageURL     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DeadlinePassed reports whether the booking deadline is earlier than today.
// A booking on the deadline date itself is still accepted.
func (t Tour) DeadlinePassed(today time.Time) bool {
	return t.DeadlineDate != nil && t.DeadlineDate.Before(today)
}

// BookableTour is a tour together with its live confirmed passenger count.
type BookableTour struct {
	Tour
	CurrentCount int
}

// TourPatch enumerates the operator-editable tour fields.
// A nil field is left unchanged. ClearDeadline removes the deadline and
// takes precedence over DeadlineDate.
type TourPatch struct {
	Title         *string
	Date          *time.Time
	DeadlineDate  *time.Time
	ClearDeadline bool
	Capacity      *int
	Price         *int64
	Status        *TourStatus
	Description   *string
	ImageURL      *string
}

// Empty reports whether the patch changes nothing.
func (p TourPatch) Empty() bool {
	return p.Title == nil && p.Date == nil && p.DeadlineDate == nil && !p.ClearDeadline &&
		p.Capacity == nil && p.Price == nil && p.Status == nil &&
		p.Description == nil && p.ImageURL == nil
}

// Apply returns a copy of t with the patch applied. It does not validate.
func (p TourPatch) Apply(t Tour) Tour {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.ClearDeadline {
		t.DeadlineDate = nil
	} else if p.DeadlineDate != nil {
		d := *p.DeadlineDate
		t.DeadlineDate = &d
	}
	if p.Capacity != nil {
		t.Capacity = *p.Capacity
	}
	if p.Price != nil {
		t.Price = *p.Price
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.ImageURL != nil {
		t.ImageURL = *p.ImageURL
	}
	return t
}
