package domain

import (
	"time"

	"github.com/google/uuid"
)

// Overlaps is the open-interval intersection test on [aIn, aOut) and
// [bIn, bOut). Touching intervals, one ending exactly when the other
// begins, do not overlap.
func Overlaps(aIn, aOut, bIn, bOut time.Time) bool {
	return aIn.Before(bOut) && bIn.Before(aOut)
}

// HasConflict reports whether a candidate booking for roomID over
// [checkIn, checkOut) collides with any existing non-cancelled reservation
// for the same room. excludeID skips one reservation, for re-validation of
// an existing record against its peers. Pure; callers must pair it with a
// store view that is atomic with the write that follows.
func HasConflict(roomID int64, checkIn, checkOut time.Time, existing []Reservation, excludeID uuid.UUID) bool {
	for i := range existing {
		other := &existing[i]
		if other.RoomID != roomID || other.Cancelled || other.ID == excludeID {
			continue
		}
		if Overlaps(checkIn, checkOut, other.CheckIn, other.CheckOut) {
			return true
		}
	}
	return false
}
