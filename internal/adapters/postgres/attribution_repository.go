package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/viralforge/attribution-engine/internal/domain"
	"gorm.io/gorm"
)

type attributionRepository struct {
	db *gorm.DB
}

func (r *attributionRepository) Create(ctx context.Context, attribution domain.Attribution) error {
	rec := attributionModel{
		AttributionID:    attribution.ID,
		UserID:           attribution.UserID,
		ClickID:          attribution.ClickID,
		SaleID:           attribution.SaleID,
		LinkID:           attribution.LinkID,
		Confidence:       attribution.Confidence,
		Status:           attribution.Status,
		MatchType:        attribution.MatchType,
		Tier:             attribution.Tier,
		TimeDeltaMinutes: attribution.TimeDeltaMinutes,
		MatchedSignals:   encodeStrings(attribution.MatchedSignals),
		CreatedAt:        attribution.CreatedAt,
		UpdatedAt:        attribution.UpdatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		// The unique index on sale_id is the arbiter of the
		// one-attribution-per-sale invariant under concurrent webhooks.
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *attributionRepository) GetByID(ctx context.Context, id string) (domain.Attribution, error) {
	var rec attributionModel
	if err := r.db.WithContext(ctx).Where("attribution_id = ?", id).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Attribution{}, domain.ErrNotFound
		}
		return domain.Attribution{}, err
	}
	return toDomainAttribution(rec), nil
}

func (r *attributionRepository) GetBySaleID(ctx context.Context, saleID string) (domain.Attribution, error) {
	var rec attributionModel
	if err := r.db.WithContext(ctx).Where("sale_id = ?", saleID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Attribution{}, domain.ErrNotFound
		}
		return domain.Attribution{}, err
	}
	return toDomainAttribution(rec), nil
}

func (r *attributionRepository) UpdateStatus(ctx context.Context, id, status string, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&attributionModel{}).
		Where("attribution_id = ?", id).
		Updates(map[string]any{
			"status":     status,
			"updated_at": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
