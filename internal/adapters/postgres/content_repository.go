package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/viralforge/attribution-engine/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type contentRepository struct {
	db *gorm.DB
}

func (r *contentRepository) SaveContent(ctx context.Context, content domain.RawContent) error {
	now := time.Now().UTC()
	rec := rawContentModel{
		ContentID: content.ID,
		AccountID: content.AccountID,
		UserID:    content.UserID,
		Platform:  content.Platform,
		Type:      content.Type,
		URL:       content.URL,
		Text:      content.Text,
		PostedAt:  content.PostedAt,
		Views:     content.Engagement.Views,
		Likes:     content.Engagement.Likes,
		Comments:  content.Engagement.Comments,
		Shares:    content.Engagement.Shares,
		CreatedAt: now,
		UpdatedAt: now,
	}
	// Re-ingests refresh engagement only; the post itself is immutable.
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "content_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"views":      rec.Views,
			"likes":      rec.Likes,
			"comments":   rec.Comments,
			"shares":     rec.Shares,
			"updated_at": rec.UpdatedAt,
		}),
	}).Create(&rec).Error
}

func (r *contentRepository) ListRecentByUser(ctx context.Context, userID string, saleTime time.Time, window time.Duration) ([]domain.RawContent, error) {
	var rows []rawContentModel
	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("posted_at >= ?", saleTime.Add(-window)).
		Where("posted_at <= ?", saleTime).
		Order("posted_at DESC").
		Limit(100)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.RawContent, 0, len(rows))
	for _, row := range rows {
		result = append(result, toDomainContent(row))
	}
	return result, nil
}

func (r *contentRepository) ListProjectsByAccount(ctx context.Context, accountID string) ([]domain.CreatorProject, error) {
	var rows []creatorProjectModel
	if err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.CreatorProject, 0, len(rows))
	for _, row := range rows {
		result = append(result, toDomainProject(row))
	}
	return result, nil
}

func (r *contentRepository) UpsertAttribution(ctx context.Context, attribution domain.ContentAttribution) (domain.ContentAttribution, error) {
	rec := contentAttributionModel{
		ID:              attribution.ID,
		ProjectID:       attribution.ProjectID,
		ContentID:       attribution.ContentID,
		AccountID:       attribution.AccountID,
		ContentType:     attribution.ContentType,
		ContentURL:      attribution.ContentURL,
		ContentText:     attribution.ContentText,
		PostedAt:        attribution.PostedAt,
		Reason:          attribution.Reason,
		MatchedKeywords: encodeStrings(attribution.MatchedKeywords),
		Confidence:      attribution.Confidence,
		Views:           attribution.Engagement.Views,
		Likes:           attribution.Engagement.Likes,
		Comments:        attribution.Engagement.Comments,
		Shares:          attribution.Engagement.Shares,
		ManualOverride:  attribution.ManualOverride,
		OverrideAuthor:  attribution.OverrideAuthor,
		OverrideNote:    attribution.OverrideNote,
		CreatedAt:       attribution.CreatedAt,
		UpdatedAt:       attribution.UpdatedAt,
	}
	// (project_id, content_id) is the natural key; manual review fields are
	// never overwritten by re-ingestion.
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "project_id"},
			{Name: "content_id"},
		},
		DoUpdates: clause.Assignments(map[string]any{
			"views":      rec.Views,
			"likes":      rec.Likes,
			"comments":   rec.Comments,
			"shares":     rec.Shares,
			"updated_at": rec.UpdatedAt,
		}),
	}).Create(&rec).Error
	if err != nil {
		return domain.ContentAttribution{}, err
	}

	var saved contentAttributionModel
	if err := r.db.WithContext(ctx).
		Where("project_id = ?", attribution.ProjectID).
		Where("content_id = ?", attribution.ContentID).
		Take(&saved).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ContentAttribution{}, domain.ErrNotFound
		}
		return domain.ContentAttribution{}, err
	}
	return toDomainContentAttribution(saved), nil
}
