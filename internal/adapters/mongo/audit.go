package mongo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"innkeeper/internal/domain"
	"innkeeper/internal/observability"
)

// AuditLogger keeps a trail of lifecycle actions in mongo. Writes are
// best-effort: callers fire them detached and failures only get logged.
type AuditLogger struct {
	coll   *mongo.Collection
	logger observability.Logger
}

func NewAuditLogger(db *mongo.Database, logger observability.Logger) *AuditLogger {
	return &AuditLogger{
		coll:   db.Collection("audit_logs"),
		logger: logger,
	}
}

type AuditLog struct {
	ID        uuid.UUID `bson:"_id"`
	Action    string    `bson:"action"`
	Subject   string    `bson:"subject"`
	Timestamp time.Time `bson:"timestamp"`
	Data      bson.M    `bson:"data"`
}

func (a *AuditLogger) LogEvent(ctx context.Context, action, subject string, data map[string]interface{}) error {
	entry := AuditLog{
		ID:        uuid.New(),
		Action:    action,
		Subject:   subject,
		Timestamp: time.Now(),
		Data:      bson.M(data),
	}
	_, err := a.coll.InsertOne(ctx, entry)
	if err != nil {
		a.logger.Error("failed to insert audit log", err)
		return err
	}
	return nil
}

func (a *AuditLogger) LogReservation(ctx context.Context, action, subject string, r *domain.Reservation) error {
	data := map[string]interface{}{
		"reservation_id": r.ID,
		"room_id":        r.RoomID,
		"guest_id":       r.GuestID,
		"check_in":       r.CheckIn.Format(domain.DateLayout),
		"check_out":      r.CheckOut.Format(domain.DateLayout),
		"payment_status": string(r.PaymentStatus),
	}
	return a.LogEvent(ctx, action, subject, data)
}

func (a *AuditLogger) LogGuest(ctx context.Context, subject string, g *domain.Guest) error {
	data := map[string]interface{}{
		"guest_id": g.ID,
		"document": g.Document,
	}
	return a.LogEvent(ctx, "guest.registered", subject, data)
}
