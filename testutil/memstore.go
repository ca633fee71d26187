package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/tour-booking/internal/domain"
	"github.com/pkordes/tour-booking/internal/repo"
)

// MemStore is an in-memory repo.TxRunner for unit tests.
//
// Each RunInTx call holds a single mutex for the whole body, so
// transactions are trivially serializable. The body runs against a copy of
// the state that is only published when the body returns nil, giving the
// same all-or-nothing behaviour as a real rollback. InjectConflicts makes
// the next commits fail so the body is re-executed.
type MemStore struct {
	mu           sync.Mutex
	state        memState
	conflicts    int
	maxAttempts  int
	attempts     int
	transactions int
}

type memState struct {
	tours        map[uuid.UUID]domain.Tour
	reservations map[uuid.UUID]domain.Reservation
	order        []uuid.UUID // reservation insertion order
	profiles     map[string]domain.Profile
}

// NewMemStore returns an empty store that gives up after five conflicting
// attempts, like the default Postgres runner.
func NewMemStore() *MemStore {
	return &MemStore{
		state: memState{
			tours:        map[uuid.UUID]domain.Tour{},
			reservations: map[uuid.UUID]domain.Reservation{},
			profiles:     map[string]domain.Profile{},
		},
		maxAttempts: 5,
	}
}

var _ repo.TxRunner = (*MemStore)(nil)

// AddTour stores t, assigning an id when it has none, and returns it.
func (m *MemStore) AddTour(t domain.Tour) domain.Tour {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Status == "" {
		t.Status = domain.TourOpen
	}
	m.state.tours[t.ID] = t
	return t
}

// AddReservation stores r directly, bypassing the booking engine.
func (m *MemStore) AddReservation(r domain.Reservation) domain.Reservation {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	m.state.reservations[r.ID] = r
	m.state.order = append(m.state.order, r.ID)
	return r
}

// SetProfile seeds the profile cache.
func (m *MemStore) SetProfile(p domain.Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.profiles[p.MessagingIdentity] = p
}

// Tour returns the committed tour with id.
func (m *MemStore) Tour(id uuid.UUID) domain.Tour {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.tours[id]
}

// Reservation returns the committed reservation with id.
func (m *MemStore) Reservation(id uuid.UUID) (domain.Reservation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.state.reservations[id]
	return r, ok
}

// Reservations returns all committed reservations in insertion order.
func (m *MemStore) Reservations() []domain.Reservation {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Reservation, 0, len(m.state.order))
	for _, id := range m.state.order {
		out = append(out, m.state.reservations[id])
	}
	return out
}

// Profile returns the committed profile for identity.
func (m *MemStore) Profile(identity string) (domain.Profile, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.state.profiles[identity]
	return p, ok
}

// ConfirmedPassengers sums confirmed passengers of the tour in committed state.
func (m *MemStore) ConfirmedPassengers(tourID uuid.UUID) int {
	return domain.ConfirmedPassengerSum(m.Reservations(), tourID, uuid.Nil)
}

// InjectConflicts makes the next n commit attempts fail as conflicts.
func (m *MemStore) InjectConflicts(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conflicts = n
}

// Attempts returns how many times a transaction body has been executed.
func (m *MemStore) Attempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts
}

// Transactions returns how many transactions have committed.
func (m *MemStore) Transactions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transactions
}

// RunInTx implements repo.TxRunner.
func (m *MemStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx repo.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		m.attempts++

		tx := &memTx{state: m.state.clone()}
		if err := fn(ctx, tx); err != nil {
			return err
		}

		if m.conflicts > 0 {
			m.conflicts--
			if attempt >= m.maxAttempts {
				return fmt.Errorf("testutil.MemStore.RunInTx: %w after %d attempts", domain.ErrConcurrencyConflict, attempt)
			}
			continue
		}

		m.state = tx.state
		m.transactions++
		return nil
	}
}

func (s memState) clone() memState {
	c := memState{
		tours:        make(map[uuid.UUID]domain.Tour, len(s.tours)),
		reservations: make(map[uuid.UUID]domain.Reservation, len(s.reservations)),
		order:        append([]uuid.UUID(nil), s.order...),
		profiles:     make(map[string]domain.Profile, len(s.profiles)),
	}
	for k, v := range s.tours {
		c.tours[k] = v
	}
	for k, v := range s.reservations {
		c.reservations[k] = v
	}
	for k, v := range s.profiles {
		c.profiles[k] = v
	}
	return c
}

// memTx implements repo.Tx over a private copy of the state.
type memTx struct {
	state memState
}

func (t *memTx) GetTourForUpdate(_ context.Context, id uuid.UUID) (domain.Tour, error) {
	tour, ok := t.state.tours[id]
	if !ok {
		return domain.Tour{}, fmt.Errorf("memTx.GetTourForUpdate: %w", domain.ErrNotFound)
	}
	return tour, nil
}

func (t *memTx) SaveTour(_ context.Context, tour domain.Tour, at time.Time) error {
	if _, ok := t.state.tours[tour.ID]; !ok {
		return fmt.Errorf("memTx.SaveTour: %w", domain.ErrNotFound)
	}
	tour.UpdatedAt = at
	t.state.tours[tour.ID] = tour
	return nil
}

func (t *memTx) RetagReservations(_ context.Context, tourID uuid.UUID, date time.Time, title string) error {
	for id, r := range t.state.reservations {
		if r.TourID == tourID {
			r.TourDate = date
			r.TourTitle = title
			t.state.reservations[id] = r
		}
	}
	return nil
}

func (t *memTx) SetTourStatus(_ context.Context, id uuid.UUID, status domain.TourStatus, at time.Time) error {
	tour, ok := t.state.tours[id]
	if !ok {
		return fmt.Errorf("memTx.SetTourStatus: %w", domain.ErrNotFound)
	}
	tour.Status = status
	tour.UpdatedAt = at
	t.state.tours[id] = tour
	return nil
}

func (t *memTx) ListConfirmedByTour(_ context.Context, tourID uuid.UUID) ([]domain.Reservation, error) {
	var out []domain.Reservation
	for _, id := range t.state.order {
		r := t.state.reservations[id]
		if r.TourID == tourID && r.Status == domain.ReservationConfirmed {
			out = append(out, r)
		}
	}
	return out, nil
}

func (t *memTx) HasConfirmed(_ context.Context, identity string, tourID uuid.UUID, date time.Time) (bool, error) {
	for _, r := range t.state.reservations {
		if r.MessagingIdentity == identity && r.TourID == tourID &&
			r.TourDate.Equal(date) && r.Status == domain.ReservationConfirmed {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) InsertReservation(_ context.Context, res domain.Reservation) error {
	if _, ok := t.state.reservations[res.ID]; ok {
		return fmt.Errorf("memTx.InsertReservation: duplicate id %s", res.ID)
	}
	t.state.reservations[res.ID] = res
	t.state.order = append(t.state.order, res.ID)
	return nil
}

func (t *memTx) GetReservationForUpdate(_ context.Context, id uuid.UUID) (domain.Reservation, error) {
	r, ok := t.state.reservations[id]
	if !ok {
		return domain.Reservation{}, fmt.Errorf("memTx.GetReservationForUpdate: %w", domain.ErrNotFound)
	}
	return r, nil
}

func (t *memTx) CancelReservation(_ context.Context, id uuid.UUID, at time.Time) error {
	r, ok := t.state.reservations[id]
	if !ok || r.Status != domain.ReservationConfirmed {
		return nil
	}
	r.Status = domain.ReservationCancelled
	r.CancelledAt = &at
	t.state.reservations[id] = r
	return nil
}

func (t *memTx) UpsertProfile(_ context.Context, p domain.Profile) error {
	cur := t.state.profiles[p.MessagingIdentity]
	cur.MessagingIdentity = p.MessagingIdentity
	merge := func(dst *string, src string) {
		if src != "" {
			*dst = src
		}
	}
	merge(&cur.Name, p.Name)
	merge(&cur.Phone, p.Phone)
	merge(&cur.Zip, p.Zip)
	merge(&cur.Pref, p.Pref)
	merge(&cur.City, p.City)
	merge(&cur.Street, p.Street)
	cur.ConsentAutoFill = p.ConsentAutoFill
	cur.UpdatedAt = p.UpdatedAt
	t.state.profiles[p.MessagingIdentity] = cur
	return nil
}
