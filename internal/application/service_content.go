package application

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/viralforge/attribution-engine/internal/domain"
)

// IngestContent runs the deterministic content engine over one social post:
// every project linked to the posting account is evaluated independently
// against the fixed rule precedence, and each hit is upserted. Zero hits is
// a normal outcome, not an error.
func (s *Service) IngestContent(ctx context.Context, content domain.RawContent) ([]domain.ContentAttribution, error) {
	if strings.TrimSpace(content.ID) == "" || strings.TrimSpace(content.AccountID) == "" {
		return nil, domain.ErrInvalidInput
	}
	if s.content == nil {
		return nil, domain.ErrUnavailable
	}
	if content.PostedAt.IsZero() {
		content.PostedAt = s.nowFn()
	}

	if err := s.content.SaveContent(ctx, content); err != nil {
		s.logger.WarnContext(ctx, "content persistence failed",
			"module", "content",
			"operation", "save_content",
			"outcome", "degraded",
			"content_id", content.ID,
			"error", err.Error(),
		)
	}

	projects, err := s.content.ListProjectsByAccount(ctx, content.AccountID)
	if err != nil {
		return nil, err
	}

	now := s.nowFn()
	var attributed []domain.ContentAttribution
	for _, project := range projects {
		match, ok := domain.MatchContent(project, content)
		if !ok {
			continue
		}
		match.ID = uuid.NewString()
		match.CreatedAt = now
		match.UpdatedAt = now
		saved, err := s.content.UpsertAttribution(ctx, match)
		if err != nil {
			s.logger.WarnContext(ctx, "content attribution upsert failed",
				"module", "content",
				"operation", "upsert_attribution",
				"outcome", "degraded",
				"project_id", project.ID,
				"content_id", content.ID,
				"error", err.Error(),
			)
			continue
		}
		attributed = append(attributed, saved)
		s.enqueueEvent(ctx, eventContentAttributed, project.ID, saved)
	}
	return attributed, nil
}
