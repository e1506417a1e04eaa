package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/viralforge/attribution-engine/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type modelSnapshotRepository struct {
	db *gorm.DB
}

func (r *modelSnapshotRepository) Save(ctx context.Context, weights domain.ModelWeights) error {
	raw, err := json.Marshal(weights)
	if err != nil {
		return fmt.Errorf("marshal model weights: %w", err)
	}
	rec := modelSnapshotModel{
		Version:       weights.Version,
		Weights:       string(raw),
		Accuracy:      weights.Accuracy,
		TrainingCount: weights.TrainingCount,
		UpdatedAt:     weights.UpdatedAt,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "version"}},
		DoNothing: true,
	}).Create(&rec).Error
}

func (r *modelSnapshotRepository) Latest(ctx context.Context) (domain.ModelWeights, error) {
	var rec modelSnapshotModel
	if err := r.db.WithContext(ctx).Order("updated_at DESC").Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ModelWeights{}, domain.ErrNotFound
		}
		return domain.ModelWeights{}, err
	}
	var weights domain.ModelWeights
	if err := json.Unmarshal([]byte(rec.Weights), &weights); err != nil {
		return domain.ModelWeights{}, fmt.Errorf("unmarshal model weights %s: %w", rec.Version, err)
	}
	weights.Normalize()
	return weights, nil
}
