package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pkordes/tour-booking/internal/domain"
)

// TourLister is the read path the calendar depends on.
type TourLister interface {
	ListBetween(ctx context.Context, from, to *time.Time) ([]domain.Tour, error)
}

// CalendarCache stores computed months. A nil CalendarCache disables caching.
type CalendarCache interface {
	Get(ctx context.Context, key string) (map[string]domain.DayAvailability, bool, error)
	Set(ctx context.Context, key string, month map[string]domain.DayAvailability) error
}

// CalendarService answers per-day availability for a month. Reads are not
// transactional and may be slightly stale.
type CalendarService struct {
	tours TourLister
	cache CalendarCache
	loc   *time.Location
	now   func() time.Time
	log   *slog.Logger
}

// NewCalendarService constructs a CalendarService. cache may be nil.
func NewCalendarService(tours TourLister, cache CalendarCache, loc *time.Location, log *slog.Logger) *CalendarService {
	if loc == nil {
		loc = time.UTC
	}
	return &CalendarService{tours: tours, cache: cache, loc: loc, now: time.Now, log: log}
}

// SetClock replaces time.Now. Used by tests.
func (s *CalendarService) SetClock(now func() time.Time) { s.now = now }

// ParseMonth parses a "YYYY-MM" string into the first day of that month.
func ParseMonth(v string) (time.Time, error) {
	m, err := time.Parse("2006-01", v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: month must be YYYY-MM", domain.ErrValidation)
	}
	return m, nil
}

// GetMonthAvailability returns one entry per calendar day of month, keyed
// by "YYYY-MM-DD".
func (s *CalendarService) GetMonthAvailability(ctx context.Context, month time.Time) (map[string]domain.DayAvailability, error) {
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	today := domain.Today(s.now(), s.loc)

	// today is part of the key so cached months roll over at midnight.
	key := first.Format("2006-01") + ":" + today.Format(domain.DateLayout)
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.log.WarnContext(ctx, "calendar cache read failed", "key", key, "error", err)
		} else if ok {
			return cached, nil
		}
	}

	tours, err := s.tours.ListBetween(ctx, &first, &last)
	if err != nil {
		return nil, fmt.Errorf("service.CalendarService.GetMonthAvailability: %w", err)
	}

	result := MonthAvailability(first, tours, today)

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, result); err != nil {
			s.log.WarnContext(ctx, "calendar cache write failed", "key", key, "error", err)
		}
	}
	return result, nil
}

// MonthAvailability computes the calendar for the month containing first
// from tours, which must be in listing order (date, creation time, id).
//
// A day is available when any of its tours is open with the deadline not
// yet passed. Otherwise the reason is taken from the first tour of the day
// only, with precedence deadline_passed, full, stop, hidden. One tour
// stands in for the whole day when several share a date.
func MonthAvailability(first time.Time, tours []domain.Tour, today time.Time) map[string]domain.DayAvailability {
	byDate := make(map[string][]domain.Tour)
	for _, t := range tours {
		k := t.Date.Format(domain.DateLayout)
		byDate[k] = append(byDate[k], t)
	}

	result := make(map[string]domain.DayAvailability)
	for d := first; d.Month() == first.Month(); d = d.AddDate(0, 0, 1) {
		k := d.Format(domain.DateLayout)
		result[k] = dayAvailability(byDate[k], today)
	}
	return result
}

func dayAvailability(tours []domain.Tour, today time.Time) domain.DayAvailability {
	if len(tours) == 0 {
		return domain.DayAvailability{Reason: domain.ReasonNoTour}
	}
	for _, t := range tours {
		if !t.DeadlinePassed(today) && t.Status == domain.TourOpen {
			return domain.DayAvailability{Available: true}
		}
	}

	sample := tours[0]
	switch {
	case sample.DeadlinePassed(today):
		return domain.DayAvailability{Reason: domain.ReasonDeadlinePassed}
	case sample.Status == domain.TourFull:
		return domain.DayAvailability{Reason: domain.ReasonFull}
	case sample.Status == domain.TourStop:
		return domain.DayAvailability{Reason: domain.ReasonStop}
	case sample.Status == domain.TourHidden:
		return domain.DayAvailability{Reason: domain.ReasonHidden}
	}
	return domain.DayAvailability{Reason: domain.ReasonNone}
}
