package domain

import (
	"time"

	"github.com/google/uuid"
)

// Pickup is a boarding point customers choose when booking.
type Pickup struct {
	ID        uuid.UUID
	Name      string
	IsActive  bool
	SortOrder int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PickupPatch enumerates the operator-editable pickup fields.
type PickupPatch struct {
	Name      *string
	IsActive  *bool
	SortOrder *int
}

// Empty reports whether the patch changes nothing.
func (p PickupPatch) Empty() bool {
	return p.Name == nil && p.IsActive == nil && p.SortOrder == nil
}
