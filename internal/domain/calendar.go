package domain

import "time"

// Reason codes explaining why a calendar day is not bookable.
const (
	ReasonNone           = ""
	ReasonNoTour         = "no_tour"
	ReasonDeadlinePassed = "deadline_passed"
	ReasonFull           = "full"
	ReasonStop           = "stop"
	ReasonHidden         = "hidden"
)

// DayAvailability is one calendar cell.
type DayAvailability struct {
	Available bool   `json:"available"`
	Reason    string `json:"reason"`
}

// DateLayout is the wire and map-key format for calendar dates.
const DateLayout = "2006-01-02"

// Today returns the current calendar date in loc, expressed as midnight UTC
// so it compares directly with stored dates.
func Today(now time.Time, loc *time.Location) time.Time {
	y, m, d := now.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateOnly truncates t to its calendar date at midnight UTC.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
