package domain

import "time"

// Profile is the cached customer contact data keyed by messaging identity.
// It is offered back as autofill only when ConsentAutoFill is true.
type Profile struct {
	MessagingIdentity string
	Contact
	ConsentAutoFill bool
	UpdatedAt       time.Time
}
