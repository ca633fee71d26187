package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tour-booking/internal/domain"
	"github.com/pkordes/tour-booking/internal/service"
)

type mockTourLister struct {
	listBetween func(ctx context.Context, from, to *time.Time) ([]domain.Tour, error)
	calls       int
}

func (m *mockTourLister) ListBetween(ctx context.Context, from, to *time.Time) ([]domain.Tour, error) {
	m.calls++
	return m.listBetween(ctx, from, to)
}

var _ service.TourLister = (*mockTourLister)(nil)

// mapCache is an in-memory service.CalendarCache.
type mapCache struct {
	entries map[string]map[string]domain.DayAvailability
	getErr  error
}

func (c *mapCache) Get(_ context.Context, key string) (map[string]domain.DayAvailability, bool, error) {
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	m, ok := c.entries[key]
	return m, ok, nil
}

func (c *mapCache) Set(_ context.Context, key string, month map[string]domain.DayAvailability) error {
	c.entries[key] = month
	return nil
}

var _ service.CalendarCache = (*mapCache)(nil)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtrOf(t time.Time) *time.Time { return &t }

// ---- MonthAvailability -----------------------------------------------------

func TestMonthAvailability_Reasons(t *testing.T) {
	first := day(2024, 3, 1)
	today := day(2024, 3, 5)

	tours := []domain.Tour{
		{Date: day(2024, 3, 10), Status: domain.TourOpen},
		{Date: day(2024, 3, 11), Status: domain.TourFull},
		{Date: day(2024, 3, 12), Status: domain.TourStop},
		{Date: day(2024, 3, 13), Status: domain.TourHidden},
		{Date: day(2024, 3, 14), Status: domain.TourOpen, DeadlineDate: datePtrOf(day(2024, 3, 4))},
		// Deadline on today is still bookable.
		{Date: day(2024, 3, 15), Status: domain.TourOpen, DeadlineDate: datePtrOf(today)},
		// Deadline wins over full.
		{Date: day(2024, 3, 16), Status: domain.TourFull, DeadlineDate: datePtrOf(day(2024, 3, 1))},
	}

	got := service.MonthAvailability(first, tours, today)

	assert.Len(t, got, 31)
	assert.Equal(t, domain.DayAvailability{Available: true}, got["2024-03-10"])
	assert.Equal(t, domain.DayAvailability{Reason: domain.ReasonFull}, got["2024-03-11"])
	assert.Equal(t, domain.DayAvailability{Reason: domain.ReasonStop}, got["2024-03-12"])
	assert.Equal(t, domain.DayAvailability{Reason: domain.ReasonHidden}, got["2024-03-13"])
	assert.Equal(t, domain.DayAvailability{Reason: domain.ReasonDeadlinePassed}, got["2024-03-14"])
	assert.Equal(t, domain.DayAvailability{Available: true}, got["2024-03-15"])
	assert.Equal(t, domain.DayAvailability{Reason: domain.ReasonDeadlinePassed}, got["2024-03-16"])
	assert.Equal(t, domain.DayAvailability{Reason: domain.ReasonNoTour}, got["2024-03-01"])
	assert.Equal(t, domain.DayAvailability{Reason: domain.ReasonNoTour}, got["2024-03-31"])
}

func TestMonthAvailability_LeapFebruary(t *testing.T) {
	got := service.MonthAvailability(day(2024, 2, 1), nil, day(2024, 1, 1))

	assert.Len(t, got, 29)
	assert.Contains(t, got, "2024-02-29")
}

func TestMonthAvailability_AnyOpenTourMakesDayAvailable(t *testing.T) {
	tours := []domain.Tour{
		{Date: day(2024, 3, 10), Status: domain.TourFull},
		{Date: day(2024, 3, 10), Status: domain.TourOpen},
	}

	got := service.MonthAvailability(day(2024, 3, 1), tours, day(2024, 3, 1))

	assert.True(t, got["2024-03-10"].Available)
}

func TestMonthAvailability_ReasonFromFirstTourOnly(t *testing.T) {
	tours := []domain.Tour{
		{Date: day(2024, 3, 10), Status: domain.TourStop},
		{Date: day(2024, 3, 10), Status: domain.TourFull},
	}

	got := service.MonthAvailability(day(2024, 3, 1), tours, day(2024, 3, 1))

	assert.Equal(t, domain.ReasonStop, got["2024-03-10"].Reason)
}

// ---- GetMonthAvailability --------------------------------------------------

func TestCalendarService_GetMonthAvailability_QueriesMonthRange(t *testing.T) {
	var gotFrom, gotTo time.Time
	lister := &mockTourLister{
		listBetween: func(_ context.Context, from, to *time.Time) ([]domain.Tour, error) {
			gotFrom, gotTo = *from, *to
			return []domain.Tour{{Date: day(2024, 4, 2), Status: domain.TourOpen}}, nil
		},
	}
	svc := service.NewCalendarService(lister, nil, time.UTC, discardLogger())
	svc.SetClock(func() time.Time { return day(2024, 3, 20) })

	month, err := service.ParseMonth("2024-04")
	require.NoError(t, err)
	got, err := svc.GetMonthAvailability(context.Background(), month)

	require.NoError(t, err)
	assert.Equal(t, day(2024, 4, 1), gotFrom)
	assert.Equal(t, day(2024, 4, 30), gotTo)
	assert.Len(t, got, 30)
	assert.True(t, got["2024-04-02"].Available)
}

func TestCalendarService_GetMonthAvailability_UsesCache(t *testing.T) {
	lister := &mockTourLister{
		listBetween: func(context.Context, *time.Time, *time.Time) ([]domain.Tour, error) {
			return nil, nil
		},
	}
	cache := &mapCache{entries: map[string]map[string]domain.DayAvailability{}}
	svc := service.NewCalendarService(lister, cache, time.UTC, discardLogger())
	svc.SetClock(func() time.Time { return day(2024, 3, 20) })
	ctx := context.Background()

	_, err := svc.GetMonthAvailability(ctx, day(2024, 4, 1))
	require.NoError(t, err)
	_, err = svc.GetMonthAvailability(ctx, day(2024, 4, 1))
	require.NoError(t, err)

	assert.Equal(t, 1, lister.calls)
	assert.Contains(t, cache.entries, "2024-04:2024-03-20")
}

func TestCalendarService_GetMonthAvailability_CacheErrorFallsThrough(t *testing.T) {
	lister := &mockTourLister{
		listBetween: func(context.Context, *time.Time, *time.Time) ([]domain.Tour, error) {
			return nil, nil
		},
	}
	cache := &mapCache{entries: map[string]map[string]domain.DayAvailability{}, getErr: errors.New("redis down")}
	svc := service.NewCalendarService(lister, cache, time.UTC, discardLogger())

	got, err := svc.GetMonthAvailability(context.Background(), day(2024, 4, 1))

	require.NoError(t, err)
	assert.Len(t, got, 30)
	assert.Equal(t, 1, lister.calls)
}

func TestCalendarService_GetMonthAvailability_RepoError(t *testing.T) {
	lister := &mockTourLister{
		listBetween: func(context.Context, *time.Time, *time.Time) ([]domain.Tour, error) {
			return nil, errors.New("connection refused")
		},
	}
	svc := service.NewCalendarService(lister, nil, time.UTC, discardLogger())

	_, err := svc.GetMonthAvailability(context.Background(), day(2024, 4, 1))

	assert.Error(t, err)
}

func TestParseMonth_Invalid(t *testing.T) {
	for _, v := range []string{"", "2024", "2024-13", "2024/04", "April"} {
		_, err := service.ParseMonth(v)
		assert.ErrorIs(t, err, domain.ErrValidation, v)
	}
}
