package application

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/viralforge/attribution-engine/internal/domain"
)

// RecordClick ingests one click from the link-redirect path. Fire-and-forget
// semantics: once the click is indexed in Tier 1 the call succeeds; cache and
// durable writes are best-effort and only logged on failure.
func (s *Service) RecordClick(ctx context.Context, click domain.ClickEvent) (domain.ClickEvent, error) {
	if strings.TrimSpace(click.UserID) == "" || strings.TrimSpace(click.LinkID) == "" {
		return domain.ClickEvent{}, domain.ErrInvalidInput
	}
	if click.ID == "" {
		click.ID = uuid.NewString()
	}
	if click.ClickedAt.IsZero() {
		click.ClickedAt = s.nowFn()
	}
	// Ingested clicks never arrive pre-attributed.
	click.Attributed = false
	click.SaleID = ""

	if s.clickStore != nil {
		s.clickStore.Record(click)
	}

	if s.cache != nil {
		cacheCtx, cancel := context.WithTimeout(ctx, s.cfg.TierTimeout)
		if err := s.cache.RecordClick(cacheCtx, click, s.cfg.AttributionWindow); err != nil {
			s.logger.WarnContext(ctx, "click cache write failed",
				"module", "clicks",
				"operation", "record_click",
				"outcome", "degraded",
				"click_id", click.ID,
				"error", err.Error(),
			)
		}
		cancel()
	}

	if s.clicks != nil {
		if err := s.clicks.Create(ctx, click); err != nil {
			s.logger.ErrorContext(ctx, "durable click write failed",
				"module", "clicks",
				"operation", "record_click",
				"outcome", "degraded",
				"click_id", click.ID,
				"error", err.Error(),
			)
		}
	}

	return click, nil
}

// GetClickStats exposes Tier 1 pool health for operational dashboards.
func (s *Service) GetClickStats(context.Context) domain.ClickStats {
	if s.clickStore == nil {
		return domain.ClickStats{}
	}
	return s.clickStore.Stats()
}
