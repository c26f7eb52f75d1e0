// Package notify delivers best-effort notifications to the event bus, the
// audit trail and the payment collaborator. Deliveries run detached from
// the triggering request: failures are logged and counted, never returned.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	mongoadapter "innkeeper/internal/adapters/mongo"
	"innkeeper/internal/adapters/rabbit"
	"innkeeper/internal/domain"
	"innkeeper/internal/observability"
)

type Notifier struct {
	pub        *rabbit.Publisher
	audit      *mongoadapter.AuditLogger
	paymentURL string
	client     *http.Client
	logger     observability.Logger
	timeout    time.Duration
}

// New builds a notifier. Any of pub, audit and paymentURL may be zero;
// the corresponding delivery is skipped.
func New(pub *rabbit.Publisher, audit *mongoadapter.AuditLogger, paymentURL string, logger observability.Logger, timeout time.Duration) *Notifier {
	return &Notifier{
		pub:        pub,
		audit:      audit,
		paymentURL: paymentURL,
		client:     &http.Client{Timeout: timeout},
		logger:     logger,
		timeout:    timeout,
	}
}

// ReservationEvent publishes the event and records the audit entry on a
// detached context so the caller's response path never waits on them.
func (n *Notifier) ReservationEvent(action, subject string, r *domain.Reservation) {
	snapshot := *r
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()

		if n.pub != nil {
			payload, _ := json.Marshal(map[string]interface{}{
				"reservation_id": snapshot.ID,
				"room_id":        snapshot.RoomID,
				"payment_status": string(snapshot.PaymentStatus),
			})
			msg := amqp.Publishing{
				MessageId:   uuid.New().String(),
				ContentType: "application/json",
				Body:        payload,
			}
			if err := n.pub.Publish(ctx, action, msg); err != nil {
				observability.NotifyFailures.Inc()
				n.logger.WithField("action", action).Error("failed to publish reservation event", err)
			}
		}

		if n.audit != nil {
			if err := n.audit.LogReservation(ctx, action, subject, &snapshot); err != nil {
				observability.NotifyFailures.Inc()
			}
		}

		if n.paymentURL != "" {
			if err := n.postPayment(ctx, action, &snapshot); err != nil {
				observability.NotifyFailures.Inc()
				n.logger.WithField("action", action).Error("failed to notify payment service", err)
			}
		}
	}()
}

func (n *Notifier) postPayment(ctx context.Context, action string, r *domain.Reservation) error {
	body, err := json.Marshal(map[string]interface{}{
		"reservation_id": r.ID,
		"action":         action,
		"amount":         r.Amount,
		"payment_status": string(r.PaymentStatus),
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.paymentURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func (n *Notifier) GuestRegistered(subject string, g *domain.Guest) {
	snapshot := *g
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()

		if n.audit != nil {
			if err := n.audit.LogGuest(ctx, subject, &snapshot); err != nil {
				observability.NotifyFailures.Inc()
			}
		}
	}()
}
