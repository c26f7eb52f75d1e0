package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ReservationRepository is the persistence contract for reservations.
// Save must run its conflict check and insert as one atomic unit with
// respect to other writers: of two racing saves for overlapping periods on
// the same room, exactly one may succeed and the other must observe
// ErrRoomConflict.
type ReservationRepository interface {
	Save(ctx context.Context, r *Reservation) error
	FindByID(ctx context.Context, id uuid.UUID) (*Reservation, error)
	Update(ctx context.Context, r *Reservation) error
	FindAll(ctx context.Context) ([]Reservation, error)
	FindConflicts(ctx context.Context, roomID int64, checkIn, checkOut time.Time, excludeID uuid.UUID) ([]Reservation, error)
}

// GuestRepository stores guest profiles keyed by their normalized document.
// Save returns ErrDuplicateDocument when the document is already registered;
// the check is atomic with the insert.
type GuestRepository interface {
	Save(ctx context.Context, g *Guest) error
	FindByDocument(ctx context.Context, document string) (*Guest, error)
	FindAll(ctx context.Context) ([]Guest, error)
}
