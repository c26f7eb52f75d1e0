package domain

import (
	"time"

	"github.com/google/uuid"
)

// DateLayout is the wire format for check-in/check-out dates.
const DateLayout = "2006-01-02"

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentPaid      PaymentStatus = "paid"
	PaymentCancelled PaymentStatus = "cancelled"
)

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch PaymentStatus(s) {
	case PaymentPending, PaymentPaid, PaymentCancelled:
		return PaymentStatus(s), nil
	}
	return "", Validationf("unknown payment status %q", s)
}

type Reservation struct {
	ID            uuid.UUID
	UserID        int64
	GuestID       int64
	RoomID        int64
	CheckIn       time.Time
	CheckOut      time.Time
	CheckedIn     bool
	CheckedOut    bool
	Cancelled     bool
	PaymentStatus PaymentStatus
	Amount        float64
	CreatedAt     time.Time
}

// NewReservation validates the booking request and returns a pending,
// unpaid reservation. GuestID falls back to UserID when zero: the account
// holder is assumed to be the occupant unless told otherwise.
func NewReservation(userID, guestID, roomID int64, checkIn, checkOut time.Time) (*Reservation, error) {
	if userID <= 0 {
		return nil, Validationf("userId must be a positive integer")
	}
	if roomID <= 0 {
		return nil, Validationf("roomId must be a positive integer")
	}
	if checkIn.IsZero() || checkOut.IsZero() {
		return nil, Validationf("checkIn and checkOut are required")
	}
	if !checkIn.Before(checkOut) {
		return nil, Validationf("checkIn must be before checkOut")
	}
	if guestID == 0 {
		guestID = userID
	}
	return &Reservation{
		UserID:        userID,
		GuestID:       guestID,
		RoomID:        roomID,
		CheckIn:       checkIn,
		CheckOut:      checkOut,
		PaymentStatus: PaymentPending,
		CreatedAt:     time.Now(),
	}, nil
}

func (r *Reservation) MarkCheckedIn() error {
	if r.Cancelled {
		return transitionError("reservation is cancelled")
	}
	if r.CheckedIn {
		return transitionError("check-in already done")
	}
	r.CheckedIn = true
	return nil
}

func (r *Reservation) MarkCheckedOut() error {
	if !r.CheckedIn {
		return transitionError("check-in not done")
	}
	if r.CheckedOut {
		return transitionError("check-out already done")
	}
	r.CheckedOut = true
	return nil
}

func (r *Reservation) MarkCancelled() error {
	if r.Cancelled {
		return transitionError("reservation already cancelled")
	}
	if r.CheckedOut {
		return transitionError("reservation already finished")
	}
	r.Cancelled = true
	return nil
}

func (r *Reservation) SetAmount(amount float64) error {
	if amount < 0 {
		return Validationf("amount must be non-negative")
	}
	r.Amount = amount
	return nil
}

// Active reports whether the reservation still occupies its room in the
// future: neither cancelled nor completed.
func (r *Reservation) Active() bool {
	return !r.Cancelled && !r.CheckedOut
}

// OccupiedAt reports whether the room is occupied by this reservation on the
// given date. The interval is half-open: the check-out date itself is free.
func (r *Reservation) OccupiedAt(date time.Time) bool {
	return !r.Cancelled && !r.CheckIn.After(date) && date.Before(r.CheckOut)
}
