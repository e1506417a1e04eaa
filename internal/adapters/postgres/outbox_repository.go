package postgres

import (
	"context"
	"time"

	"github.com/viralforge/attribution-engine/internal/ports"
	"gorm.io/gorm"
)

type outboxRepository struct {
	db *gorm.DB
}

func (r *outboxRepository) Enqueue(ctx context.Context, record ports.OutboxRecord) error {
	rec := outboxModel{
		OutboxID:     record.OutboxID,
		EventType:    record.EventType,
		PartitionKey: record.PartitionKey,
		Payload:      string(record.Payload),
		RetryCount:   record.RetryCount,
		CreatedAt:    record.CreatedAt,
	}
	return r.db.WithContext(ctx).Create(&rec).Error
}

// ClaimUnpublished leases a batch to one worker. The claim token plus expiry
// keeps two drainer instances from double-publishing without needing
// advisory locks.
func (r *outboxRepository) ClaimUnpublished(ctx context.Context, limit int, claimToken string, claimUntil time.Time) ([]ports.OutboxRecord, error) {
	now := time.Now().UTC()
	err := r.db.WithContext(ctx).Exec(`
		UPDATE attribution_outbox
		SET claim_token = ?, claim_until = ?
		WHERE outbox_id IN (
			SELECT outbox_id FROM attribution_outbox
			WHERE published_at IS NULL
			  AND dead_lettered_at IS NULL
			  AND (claim_until IS NULL OR claim_until < ?)
			ORDER BY created_at ASC
			LIMIT ?
			FOR UPDATE SKIP LOCKED
		)`, claimToken, claimUntil, now, limit).Error
	if err != nil {
		return nil, err
	}

	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("claim_token = ?", claimToken).
		Where("published_at IS NULL").
		Where("dead_lettered_at IS NULL").
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	result := make([]ports.OutboxRecord, 0, len(rows))
	for _, row := range rows {
		result = append(result, ports.OutboxRecord{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      []byte(row.Payload),
			RetryCount:   row.RetryCount,
			CreatedAt:    row.CreatedAt,
		})
	}
	return result, nil
}

func (r *outboxRepository) MarkPublished(ctx context.Context, outboxID, claimToken string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", outboxID).
		Where("claim_token = ?", claimToken).
		Update("published_at", at).Error
}

func (r *outboxRepository) MarkDeadLettered(ctx context.Context, outboxID, claimToken, reason string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", outboxID).
		Where("claim_token = ?", claimToken).
		Updates(map[string]any{
			"dead_lettered_at": at,
			"last_error":       reason,
			"retry_count":      gorm.Expr("retry_count + 1"),
		}).Error
}

// RecordFailure releases the claim so a later cycle retries the event.
func (r *outboxRepository) RecordFailure(ctx context.Context, outboxID, claimToken, reason string) error {
	return r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", outboxID).
		Where("claim_token = ?", claimToken).
		Updates(map[string]any{
			"claim_token": "",
			"claim_until": nil,
			"last_error":  reason,
			"retry_count": gorm.Expr("retry_count + 1"),
		}).Error
}
