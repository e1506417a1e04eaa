package postgres

import (
	"context"
	"errors"

	"github.com/viralforge/attribution-engine/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type linkRepository struct {
	db *gorm.DB
}

func (r *linkRepository) GetByID(ctx context.Context, id string) (domain.TrackedLink, error) {
	var rec trackedLinkModel
	if err := r.db.WithContext(ctx).Where("link_id = ?", id).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.TrackedLink{}, domain.ErrNotFound
		}
		return domain.TrackedLink{}, err
	}
	return toDomainLink(rec), nil
}

func (r *linkRepository) CreateSynthetic(ctx context.Context, link domain.TrackedLink) error {
	rec := trackedLinkModel{
		LinkID:    link.ID,
		UserID:    link.UserID,
		Slug:      link.Slug,
		TargetURL: link.TargetURL,
		Platform:  link.Platform,
		Synthetic: true,
		CreatedAt: link.CreatedAt,
	}
	// Retried probabilistic attributions may re-materialize the same link.
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "link_id"}},
		DoNothing: true,
	}).Create(&rec).Error
}
