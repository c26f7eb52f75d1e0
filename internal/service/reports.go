package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"innkeeper/internal/domain"
)

// ReportService derives read-only projections over the store's current
// snapshot; it holds no state and enforces no invariants of its own.
type ReportService struct {
	repo domain.ReservationRepository
}

func NewReportService(repo domain.ReservationRepository) *ReportService {
	return &ReportService{repo: repo}
}

// ListActive returns reservations that are neither cancelled nor finished.
func (s *ReportService) ListActive(ctx context.Context) ([]domain.Reservation, error) {
	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	active := make([]domain.Reservation, 0, len(all))
	for _, r := range all {
		if r.Active() {
			active = append(active, r)
		}
	}
	return active, nil
}

type Occupancy struct {
	RoomID        int64     `json:"roomId"`
	ReservationID uuid.UUID `json:"reservationId"`
	GuestID       int64     `json:"guestId"`
	CheckIn       string    `json:"checkIn"`
	CheckOut      string    `json:"checkOut"`
}

// OccupancyAt lists rooms occupied on the given date, using the half-open
// [checkIn, checkOut) convention: a room frees up on its check-out date.
func (s *ReportService) OccupancyAt(ctx context.Context, date time.Time) ([]Occupancy, error) {
	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Occupancy, 0)
	for _, r := range all {
		if !r.OccupiedAt(date) {
			continue
		}
		out = append(out, Occupancy{
			RoomID:        r.RoomID,
			ReservationID: r.ID,
			GuestID:       r.GuestID,
			CheckIn:       r.CheckIn.Format(domain.DateLayout),
			CheckOut:      r.CheckOut.Format(domain.DateLayout),
		})
	}
	return out, nil
}

type Revenue struct {
	Total float64 `json:"total"`
	Count int     `json:"count"`
}

// RevenueBetween sums paid reservations whose stay completes entirely
// inside [start, end]. Full containment is deliberate and differs from the
// occupancy test: this answers "revenue from stays settled in the window",
// not "who was in the building".
func (s *ReportService) RevenueBetween(ctx context.Context, start, end time.Time) (*Revenue, error) {
	if start.IsZero() || end.IsZero() {
		return nil, domain.Validationf("start and end are required")
	}
	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	rev := &Revenue{}
	for _, r := range all {
		if r.PaymentStatus != domain.PaymentPaid {
			continue
		}
		if r.CheckIn.Before(start) || r.CheckOut.After(end) {
			continue
		}
		rev.Total += r.Amount
		rev.Count++
	}
	return rev, nil
}
