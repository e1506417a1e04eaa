package postgres

import (
	"errors"

	"github.com/viralforge/attribution-engine/internal/ports"
	"gorm.io/gorm"
)

type Repositories struct {
	Clicks       ports.ClickRepository
	Sales        ports.SaleRepository
	Attributions ports.AttributionRepository
	Links        ports.LinkRepository
	Content      ports.ContentRepository
	GroundTruth  ports.GroundTruthRepository
	Snapshots    ports.ModelSnapshotRepository
	Outbox       ports.OutboxRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Clicks:       &clickRepository{db: db},
		Sales:        &saleRepository{db: db},
		Attributions: &attributionRepository{db: db},
		Links:        &linkRepository{db: db},
		Content:      &contentRepository{db: db},
		GroundTruth:  &groundTruthRepository{db: db},
		Snapshots:    &modelSnapshotRepository{db: db},
		Outbox:       &outboxRepository{db: db},
	}
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
