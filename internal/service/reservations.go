package service

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"innkeeper/internal/domain"
	"innkeeper/internal/observability"
)

// Notifier is the fire-and-forget side channel: implementations must return
// immediately and never surface delivery failures to the caller.
type Notifier interface {
	ReservationEvent(action, subject string, r *domain.Reservation)
	GuestRegistered(subject string, g *domain.Guest)
}

// NopNotifier drops all notifications.
type NopNotifier struct{}

func (NopNotifier) ReservationEvent(string, string, *domain.Reservation) {}
func (NopNotifier) GuestRegistered(string, *domain.Guest)                {}

// ReservationService owns the reservation lifecycle. Every operation
// re-reads the current record, mutates a local copy and writes it back;
// no state is cached across requests.
type ReservationService struct {
	repo     domain.ReservationRepository
	notifier Notifier
	logger   observability.Logger
}

func NewReservationService(repo domain.ReservationRepository, notifier Notifier, logger observability.Logger) *ReservationService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &ReservationService{repo: repo, notifier: notifier, logger: logger}
}

type CreateReservationInput struct {
	UserID   int64
	GuestID  int64
	RoomID   int64
	CheckIn  string
	CheckOut string
}

func parseDate(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, domain.Validationf("%s is required", field)
	}
	d, err := time.Parse(domain.DateLayout, value)
	if err != nil {
		return time.Time{}, domain.Validationf("%s must be a valid date (YYYY-MM-DD)", field)
	}
	return d, nil
}

func (s *ReservationService) Create(ctx context.Context, subject string, in CreateReservationInput) (*domain.Reservation, error) {
	checkIn, err := parseDate("checkIn", in.CheckIn)
	if err != nil {
		return nil, err
	}
	checkOut, err := parseDate("checkOut", in.CheckOut)
	if err != nil {
		return nil, err
	}

	r, err := domain.NewReservation(in.UserID, in.GuestID, in.RoomID, checkIn, checkOut)
	if err != nil {
		return nil, err
	}

	// Advisory pre-check with the pure detector. The store's Save repeats
	// the scan atomically with the insert and remains the authority.
	existing, err := s.repo.FindConflicts(ctx, r.RoomID, r.CheckIn, r.CheckOut, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if domain.HasConflict(r.RoomID, r.CheckIn, r.CheckOut, existing, uuid.Nil) {
		observability.BookingConflicts.Inc()
		return nil, domain.ErrRoomConflict
	}

	if err := s.repo.Save(ctx, r); err != nil {
		if errors.Is(err, domain.ErrRoomConflict) || errors.Is(err, domain.ErrTxConflict) {
			// The loser of a racing pair observes the same conflict as a
			// sequential overlap.
			observability.BookingConflicts.Inc()
			return nil, domain.ErrRoomConflict
		}
		return nil, err
	}

	observability.ReservationsCreated.Inc()
	s.logger.WithField("reservation_id", r.ID).Info("reservation created")
	s.notifier.ReservationEvent("reservation.created", subject, r)
	return r, nil
}

func (s *ReservationService) Get(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *ReservationService) List(ctx context.Context) ([]domain.Reservation, error) {
	return s.repo.FindAll(ctx)
}

// transition re-reads the record, applies fn to the local copy and
// persists it.
func (s *ReservationService) transition(ctx context.Context, id uuid.UUID, fn func(*domain.Reservation) error) (*domain.Reservation, error) {
	r, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(r); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *ReservationService) CheckIn(ctx context.Context, subject string, id uuid.UUID) (*domain.Reservation, error) {
	r, err := s.transition(ctx, id, (*domain.Reservation).MarkCheckedIn)
	if err != nil {
		return nil, err
	}
	s.notifier.ReservationEvent("reservation.checked_in", subject, r)
	return r, nil
}

func (s *ReservationService) CheckOut(ctx context.Context, subject string, id uuid.UUID) (*domain.Reservation, error) {
	r, err := s.transition(ctx, id, (*domain.Reservation).MarkCheckedOut)
	if err != nil {
		return nil, err
	}
	s.notifier.ReservationEvent("reservation.checked_out", subject, r)
	return r, nil
}

func (s *ReservationService) Cancel(ctx context.Context, subject string, id uuid.UUID) (*domain.Reservation, error) {
	r, err := s.transition(ctx, id, (*domain.Reservation).MarkCancelled)
	if err != nil {
		return nil, err
	}
	s.notifier.ReservationEvent("reservation.cancelled", subject, r)
	return r, nil
}

// UpdatePaymentStatus is also the entry point for the payment service's
// callback; it carries no side effects beyond the write and the detached
// notification.
func (s *ReservationService) UpdatePaymentStatus(ctx context.Context, subject string, id uuid.UUID, status string) (*domain.Reservation, error) {
	parsed, err := domain.ParsePaymentStatus(status)
	if err != nil {
		return nil, err
	}
	r, err := s.transition(ctx, id, func(r *domain.Reservation) error {
		r.PaymentStatus = parsed
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notifier.ReservationEvent("reservation.payment_updated", subject, r)
	return r, nil
}

func (s *ReservationService) UpdateAmount(ctx context.Context, subject string, id uuid.UUID, amount float64) (*domain.Reservation, error) {
	if amount < 0 {
		return nil, domain.Validationf("amount must be non-negative")
	}
	return s.transition(ctx, id, func(r *domain.Reservation) error {
		return r.SetAmount(amount)
	})
}
