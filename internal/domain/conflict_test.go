package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reservationFor(t *testing.T, roomID int64, checkIn, checkOut string) Reservation {
	r, err := NewReservation(1, 0, roomID, date(t, checkIn), date(t, checkOut))
	require.NoError(t, err)
	r.ID = uuid.New()
	return *r
}

func TestHasConflict(t *testing.T) {
	existing := []Reservation{
		reservationFor(t, 2, "2025-09-14", "2025-09-16"),
		reservationFor(t, 3, "2025-09-10", "2025-09-20"),
	}

	tests := []struct {
		name     string
		roomID   int64
		checkIn  string
		checkOut string
		want     bool
	}{
		{"full overlap same room", 2, "2025-09-14", "2025-09-16", true},
		{"partial overlap", 2, "2025-09-15", "2025-09-18", true},
		{"containing interval", 2, "2025-09-13", "2025-09-17", true},
		{"contained interval", 3, "2025-09-12", "2025-09-13", true},
		{"adjacent after is allowed", 2, "2025-09-16", "2025-09-18", false},
		{"adjacent before is allowed", 2, "2025-09-12", "2025-09-14", false},
		{"other room", 4, "2025-09-14", "2025-09-16", false},
		{"disjoint", 2, "2025-09-20", "2025-09-22", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HasConflict(tt.roomID, date(t, tt.checkIn), date(t, tt.checkOut), existing, uuid.Nil)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHasConflict_IgnoresCancelled(t *testing.T) {
	r := reservationFor(t, 2, "2025-09-14", "2025-09-16")
	r.Cancelled = true
	assert.False(t, HasConflict(2, date(t, "2025-09-14"), date(t, "2025-09-16"), []Reservation{r}, uuid.Nil))
}

func TestHasConflict_ExcludesSelf(t *testing.T) {
	r := reservationFor(t, 2, "2025-09-14", "2025-09-16")
	assert.False(t, HasConflict(2, date(t, "2025-09-14"), date(t, "2025-09-16"), []Reservation{r}, r.ID))
	assert.True(t, HasConflict(2, date(t, "2025-09-14"), date(t, "2025-09-16"), []Reservation{r}, uuid.New()))
}

// Pairwise invariant over a set of accepted bookings: no two non-cancelled
// reservations on one room may intersect.
func TestOverlapInvariantHolds(t *testing.T) {
	accepted := []Reservation{
		reservationFor(t, 2, "2025-09-14", "2025-09-16"),
		reservationFor(t, 2, "2025-09-16", "2025-09-18"),
		reservationFor(t, 2, "2025-09-18", "2025-09-20"),
	}
	for i := range accepted {
		for j := range accepted {
			if i == j {
				continue
			}
			a, b := accepted[i], accepted[j]
			assert.False(t, Overlaps(a.CheckIn, a.CheckOut, b.CheckIn, b.CheckOut))
		}
	}
}
