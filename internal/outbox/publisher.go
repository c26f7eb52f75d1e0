// Package outbox drains staged reservation events into the AMQP
// exchange. Events are written in the same transaction as the row that
// produced them, so a crash between commit and publish only delays the
// event, never loses it.
package outbox

import (
	"context"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"golang.org/x/sync/errgroup"

	"innkeeper/internal/adapters/crdb"
	"innkeeper/internal/adapters/rabbit"
	"innkeeper/internal/observability"
)

const (
	drainInterval = 5 * time.Second
	batchSize     = 10
)

type Publisher struct {
	repo      *crdb.Repository
	rabbitPub *rabbit.Publisher
	logger    observability.Logger
}

func NewPublisher(repo *crdb.Repository, rabbitPub *rabbit.Publisher, logger observability.Logger) *Publisher {
	return &Publisher{repo: repo, rabbitPub: rabbitPub, logger: logger}
}

// Run drains the outbox on a fixed interval until the context ends.
// Consumers deduplicate on MessageId, so republishing a record whose
// MarkPublished write was lost is safe.
func (p *Publisher) Run(ctx context.Context) {
	ticker := time.NewTicker(drainInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.drain(ctx); err != nil {
				p.logger.Error("outbox drain failed", err)
			}
		}
	}
}

func (p *Publisher) drain(ctx context.Context) error {
	records, err := p.repo.GetUnpublishedOutbox(ctx, batchSize)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, rec := range records {
		rec := rec
		g.Go(func() error {
			msg := amqp.Publishing{
				MessageId:   rec.DedupeKey,
				ContentType: "application/json",
				Body:        rec.Payload,
			}
			if err := p.rabbitPub.Publish(ctx, rec.EventType, msg); err != nil {
				return err
			}
			return p.repo.MarkPublished(ctx, rec.ID, time.Now())
		})
	}
	return g.Wait()
}
