package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tour-booking/internal/domain"
	"github.com/pkordes/tour-booking/internal/repo"
	"github.com/pkordes/tour-booking/internal/service"
)

type mockReservationRepo struct {
	getByID func(ctx context.Context, id uuid.UUID) (domain.Reservation, error)
	list    func(ctx context.Context, f domain.ReservationFilter) ([]domain.Reservation, error)
}

func (m *mockReservationRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Reservation, error) {
	return m.getByID(ctx, id)
}
func (m *mockReservationRepo) List(ctx context.Context, f domain.ReservationFilter) ([]domain.Reservation, error) {
	return m.list(ctx, f)
}

var _ repo.ReservationRepo = (*mockReservationRepo)(nil)

func TestReservationService_List_DefaultsToConfirmed(t *testing.T) {
	var got domain.ReservationFilter
	reservations := &mockReservationRepo{
		list: func(_ context.Context, f domain.ReservationFilter) ([]domain.Reservation, error) {
			got = f
			return nil, nil
		},
	}
	svc := service.NewReservationService(reservations)

	out, err := svc.List(context.Background(), domain.ReservationFilter{TourTitle: "Fuji"})

	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Equal(t, domain.ReservationConfirmed, got.Status)
	assert.Equal(t, "Fuji", got.TourTitle)
}

func TestReservationService_List_UnknownStatus(t *testing.T) {
	svc := service.NewReservationService(&mockReservationRepo{})

	_, err := svc.List(context.Background(), domain.ReservationFilter{Status: "pending"})

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestReservationService_List_InvertedRange(t *testing.T) {
	svc := service.NewReservationService(&mockReservationRepo{})

	from, to := day(2024, 3, 10), day(2024, 3, 1)
	_, err := svc.List(context.Background(), domain.ReservationFilter{DateFrom: &from, DateTo: &to})

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestReservationService_GetByID_NotFound(t *testing.T) {
	svc := service.NewReservationService(&mockReservationRepo{
		getByID: func(context.Context, uuid.UUID) (domain.Reservation, error) {
			return domain.Reservation{}, domain.ErrNotFound
		},
	})

	_, err := svc.GetByID(context.Background(), uuid.New())

	assert.ErrorIs(t, err, domain.ErrReservationNotFound)
}
