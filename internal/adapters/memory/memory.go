// Package memory provides in-process implementations of the repository
// contracts, used for tests and dependency-free composition.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"innkeeper/internal/domain"
)

type ReservationStore struct {
	mu           sync.RWMutex
	reservations map[uuid.UUID]domain.Reservation
}

func NewReservationStore() *ReservationStore {
	return &ReservationStore{reservations: make(map[uuid.UUID]domain.Reservation)}
}

// Save holds the write lock across the conflict scan and the insert, so two
// racing saves for overlapping periods serialize and one of them fails.
func (s *ReservationStore) Save(ctx context.Context, r *domain.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, other := range s.reservations {
		if other.RoomID != r.RoomID || other.Cancelled {
			continue
		}
		if domain.Overlaps(r.CheckIn, r.CheckOut, other.CheckIn, other.CheckOut) {
			return domain.ErrRoomConflict
		}
	}

	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	s.reservations[r.ID] = *r
	return nil
}

func (s *ReservationStore) FindByID(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reservations[id]
	if !ok {
		return nil, errors.Mark(errors.Newf("reservation %s", id), domain.ErrNotFound)
	}
	return &r, nil
}

func (s *ReservationStore) Update(ctx context.Context, r *domain.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reservations[r.ID]; !ok {
		return errors.Mark(errors.Newf("reservation %s", r.ID), domain.ErrNotFound)
	}
	s.reservations[r.ID] = *r
	return nil
}

func (s *ReservationStore) FindAll(ctx context.Context) ([]domain.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Reservation, 0, len(s.reservations))
	for _, r := range s.reservations {
		out = append(out, r)
	}
	return out, nil
}

func (s *ReservationStore) FindConflicts(ctx context.Context, roomID int64, checkIn, checkOut time.Time, excludeID uuid.UUID) ([]domain.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Reservation
	for _, r := range s.reservations {
		if r.RoomID != roomID || r.Cancelled || r.ID == excludeID {
			continue
		}
		if domain.Overlaps(checkIn, checkOut, r.CheckIn, r.CheckOut) {
			out = append(out, r)
		}
	}
	return out, nil
}

type GuestStore struct {
	mu         sync.RWMutex
	byDocument map[string]domain.Guest
}

func NewGuestStore() *GuestStore {
	return &GuestStore{byDocument: make(map[string]domain.Guest)}
}

// Save is the atomic uniqueness check: the write lock covers lookup and
// insert.
func (s *GuestStore) Save(ctx context.Context, g *domain.Guest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byDocument[g.Document]; ok {
		return domain.ErrDuplicateDocument
	}
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	s.byDocument[g.Document] = *g
	return nil
}

func (s *GuestStore) FindByDocument(ctx context.Context, document string) (*domain.Guest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.byDocument[domain.NormalizeDocument(document)]
	if !ok {
		return nil, errors.Mark(errors.New("guest"), domain.ErrNotFound)
	}
	return &g, nil
}

func (s *GuestStore) FindAll(ctx context.Context) ([]domain.Guest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Guest, 0, len(s.byDocument))
	for _, g := range s.byDocument {
		out = append(out, g)
	}
	return out, nil
}
