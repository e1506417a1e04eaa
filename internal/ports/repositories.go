package ports

import (
	"context"
	"time"

	"github.com/viralforge/attribution-engine/internal/domain"
)

// ClickRepository is the durable (Tier 3) click store. Window queries are the
// correctness backstop for clicks not present in the warm tiers.
type ClickRepository interface {
	Create(ctx context.Context, click domain.ClickEvent) error
	GetByID(ctx context.Context, id string) (domain.ClickEvent, error)
	// FindByIPWithinWindow returns unattributed, non-inferred clicks for the
	// user with this exact IP, clicked inside [saleTime-window, saleTime].
	FindByIPWithinWindow(ctx context.Context, userID, ip string, saleTime time.Time, window time.Duration) ([]domain.ClickEvent, error)
	// FindByGeoWithinWindow is the weakest exact strategy: exact
	// (country, city) pair inside the window.
	FindByGeoWithinWindow(ctx context.Context, userID, country, city string, saleTime time.Time, window time.Duration) ([]domain.ClickEvent, error)
	// MarkAttributed flips the attributed flag once. Idempotent for the same
	// sale; attribution is monotonic and never reverts.
	MarkAttributed(ctx context.Context, clickID, saleID string, at time.Time) error
}

// SaleRepository persists sales delivered by the payment-webhook collaborator.
type SaleRepository interface {
	Upsert(ctx context.Context, sale domain.SaleEvent) error
	GetByID(ctx context.Context, id string) (domain.SaleEvent, error)
}

// AttributionRepository owns the one-row-per-sale attribution records.
type AttributionRepository interface {
	// Create fails with domain.ErrConflict when the sale already has a row.
	Create(ctx context.Context, attribution domain.Attribution) error
	GetByID(ctx context.Context, id string) (domain.Attribution, error)
	GetBySaleID(ctx context.Context, saleID string) (domain.Attribution, error)
	UpdateStatus(ctx context.Context, id, status string, at time.Time) error
}

// LinkRepository hydrates tracked links and materializes synthetic ones for
// probabilistic attributions.
type LinkRepository interface {
	GetByID(ctx context.Context, id string) (domain.TrackedLink, error)
	CreateSynthetic(ctx context.Context, link domain.TrackedLink) error
}

// ContentRepository serves the probabilistic fallback and the deterministic
// content engine.
type ContentRepository interface {
	// SaveContent persists an ingested post so later sales can consider it.
	SaveContent(ctx context.Context, content domain.RawContent) error
	// ListRecentByUser returns the user's content posted inside
	// [saleTime-window, saleTime], newest first.
	ListRecentByUser(ctx context.Context, userID string, saleTime time.Time, window time.Duration) ([]domain.RawContent, error)
	// ListProjectsByAccount returns the creator projects linked to a social
	// account, for deterministic content matching.
	ListProjectsByAccount(ctx context.Context, accountID string) ([]domain.CreatorProject, error)
	// UpsertAttribution inserts or updates on (project_id, content_id); only
	// engagement and manual-review fields change on update.
	UpsertAttribution(ctx context.Context, attribution domain.ContentAttribution) (domain.ContentAttribution, error)
}

// GroundTruthRepository is append-only durable storage for training samples.
type GroundTruthRepository interface {
	Append(ctx context.Context, sample domain.GroundTruthSample) error
}

// ModelSnapshotRepository persists published weight versions so a restarted
// instance resumes from the last retrain instead of expert defaults.
type ModelSnapshotRepository interface {
	Save(ctx context.Context, weights domain.ModelWeights) error
	Latest(ctx context.Context) (domain.ModelWeights, error)
}

// OutboxRecord is one pending domain event awaiting broker delivery.
type OutboxRecord struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	RetryCount   int
	CreatedAt    time.Time
}

// OutboxRepository stores domain events transactionally next to the rows
// that caused them; a worker drains it into the broker.
type OutboxRepository interface {
	Enqueue(ctx context.Context, record OutboxRecord) error
	ClaimUnpublished(ctx context.Context, limit int, claimToken string, claimUntil time.Time) ([]OutboxRecord, error)
	MarkPublished(ctx context.Context, outboxID, claimToken string, at time.Time) error
	MarkDeadLettered(ctx context.Context, outboxID, claimToken, reason string, at time.Time) error
	// RecordFailure releases the claim and bumps the retry counter so a
	// later drain cycle picks the event up again.
	RecordFailure(ctx context.Context, outboxID, claimToken, reason string) error
}
