package events

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/attribution-engine/internal/ports"
)

// OutboxWorker drains the transactional outbox into the broker. Each cycle
// claims a batch under a fresh token so concurrent instances never publish
// the same event twice; failures release the claim for a later retry until
// the dead-letter threshold.
type OutboxWorker struct {
	logger     *slog.Logger
	outbox     ports.OutboxRepository
	publisher  ports.EventPublisher
	interval   time.Duration
	batchSize  int
	maxRetries int
}

func NewOutboxWorker(logger *slog.Logger, outbox ports.OutboxRepository, publisher ports.EventPublisher, interval time.Duration, batchSize int) *OutboxWorker {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &OutboxWorker{
		logger:     logger,
		outbox:     outbox,
		publisher:  publisher,
		interval:   interval,
		batchSize:  batchSize,
		maxRetries: 10,
	}
}

func (w *OutboxWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		if err := w.processOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.ErrorContext(ctx, "outbox iteration failed",
				"module", "events.outbox_worker",
				"layer", "adapter",
				"operation", "process_once",
				"outcome", "failure",
				"error", err,
			)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (w *OutboxWorker) processOnce(ctx context.Context) error {
	claimToken := uuid.NewString()
	claimUntil := time.Now().UTC().Add(2 * w.interval)
	records, err := w.outbox.ClaimUnpublished(ctx, w.batchSize, claimToken, claimUntil)
	if err != nil {
		return err
	}
	for _, rec := range records {
		now := time.Now().UTC()
		if err := w.publisher.Publish(ctx, rec.EventType, rec.Payload, rec.PartitionKey); err != nil {
			if rec.RetryCount+1 >= w.maxRetries {
				_ = w.outbox.MarkDeadLettered(ctx, rec.OutboxID, claimToken, err.Error(), now)
				w.logger.ErrorContext(ctx, "outbox event dead-lettered",
					"module", "events.outbox_worker",
					"layer", "adapter",
					"operation", "publish",
					"outcome", "dead_letter",
					"outbox_id", rec.OutboxID,
					"event_type", rec.EventType,
					"retry_count", rec.RetryCount+1,
					"error", err,
				)
				continue
			}
			_ = w.outbox.RecordFailure(ctx, rec.OutboxID, claimToken, err.Error())
			continue
		}
		_ = w.outbox.MarkPublished(ctx, rec.OutboxID, claimToken, now)
	}
	return nil
}
