package postgres

import (
	"context"

	"github.com/viralforge/attribution-engine/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type groundTruthRepository struct {
	db *gorm.DB
}

func (r *groundTruthRepository) Append(ctx context.Context, sample domain.GroundTruthSample) error {
	rec := groundTruthModel{
		SampleID:         sample.ID,
		ClickID:          sample.ClickID,
		SaleID:           sample.SaleID,
		TimeDeltaMinutes: sample.TimeDeltaMinutes,
		GeoScore:         sample.GeoScore,
		SentimentScore:   sample.SentimentScore,
		Platform:         sample.Platform,
		DidConvert:       sample.DidConvert,
		RecordedAt:       sample.RecordedAt,
	}
	// Append-only with replay tolerance: a redelivered sample is a no-op.
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "sample_id"}},
		DoNothing: true,
	}).Create(&rec).Error
}
