package application

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/attribution-engine/internal/ports"
)

const (
	eventAttributionCreated   = "attribution.created"
	eventAttributionConfirmed = "attribution.confirmed"
	eventAttributionRejected  = "attribution.rejected"
	eventModelRetrained       = "model.retrained"
	eventContentAttributed    = "content.attributed"
)

// enqueueEvent stores a domain event in the transactional outbox for the
// worker to deliver. Event loss degrades observability, never correctness,
// so failures are logged and swallowed.
func (s *Service) enqueueEvent(ctx context.Context, eventType, partitionKey string, payload any) {
	if s.outbox == nil {
		return
	}
	blob, err := json.Marshal(payload)
	if err != nil {
		return
	}
	record := ports.OutboxRecord{
		OutboxID:     uuid.NewString(),
		EventType:    eventType,
		PartitionKey: partitionKey,
		Payload:      blob,
		CreatedAt:    s.nowFn(),
	}
	enqueueCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.outbox.Enqueue(enqueueCtx, record); err != nil {
		s.logger.WarnContext(ctx, "outbox enqueue failed",
			"module", "events",
			"operation", "enqueue_event",
			"outcome", "degraded",
			"event_type", eventType,
			"error", err.Error(),
		)
	}
}
