package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/viralforge/attribution-engine/internal/domain"
	"gorm.io/gorm"
)

type clickRepository struct {
	db *gorm.DB
}

func (r *clickRepository) Create(ctx context.Context, click domain.ClickEvent) error {
	rec := toClickModel(click)
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *clickRepository) GetByID(ctx context.Context, id string) (domain.ClickEvent, error) {
	var rec clickModel
	if err := r.db.WithContext(ctx).Where("click_id = ?", id).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ClickEvent{}, domain.ErrNotFound
		}
		return domain.ClickEvent{}, err
	}
	return toDomainClick(rec), nil
}

func (r *clickRepository) FindByIPWithinWindow(ctx context.Context, userID, ip string, saleTime time.Time, window time.Duration) ([]domain.ClickEvent, error) {
	return r.findWithinWindow(ctx, saleTime, window, map[string]any{
		"user_id":    userID,
		"ip_address": ip,
	})
}

func (r *clickRepository) FindByGeoWithinWindow(ctx context.Context, userID, country, city string, saleTime time.Time, window time.Duration) ([]domain.ClickEvent, error) {
	return r.findWithinWindow(ctx, saleTime, window, map[string]any{
		"user_id": userID,
		"country": country,
		"city":    city,
	})
}

// findWithinWindow shares the durable-tier query shape: exact signal
// equality, inside the inclusive window, unattributed, never inferred,
// newest first so callers can take the head as best candidate.
func (r *clickRepository) findWithinWindow(ctx context.Context, saleTime time.Time, window time.Duration, conditions map[string]any) ([]domain.ClickEvent, error) {
	var rows []clickModel
	query := r.db.WithContext(ctx).
		Where(conditions).
		Where("clicked_at >= ?", saleTime.Add(-window)).
		Where("clicked_at <= ?", saleTime).
		Where("attributed = FALSE").
		Where("inferred = FALSE").
		Order("clicked_at DESC").
		Limit(50)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.ClickEvent, 0, len(rows))
	for _, row := range rows {
		result = append(result, toDomainClick(row))
	}
	return result, nil
}

func (r *clickRepository) MarkAttributed(ctx context.Context, clickID, saleID string, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&clickModel{}).
		Where("click_id = ?", clickID).
		Where("attributed = FALSE").
		Updates(map[string]any{
			"attributed": true,
			"sale_id":    saleID,
			"updated_at": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var rec clickModel
		if err := r.db.WithContext(ctx).Where("click_id = ?", clickID).Take(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		// Already attributed: idempotent for the same sale, conflict otherwise.
		if rec.SaleID != saleID {
			return domain.ErrConflict
		}
	}
	return nil
}
