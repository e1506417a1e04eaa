package postgres

import (
	"context"
	"errors"

	"github.com/viralforge/attribution-engine/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type saleRepository struct {
	db *gorm.DB
}

func (r *saleRepository) Upsert(ctx context.Context, sale domain.SaleEvent) error {
	rec := saleModel{
		SaleID:        sale.ID,
		UserID:        sale.UserID,
		AmountCents:   sale.AmountCents,
		Currency:      sale.Currency,
		CustomerEmail: sale.CustomerEmail,
		CustomerName:  sale.CustomerName,
		IPAddress:     sale.IPAddress,
		TrackerID:     sale.TrackerID,
		Fingerprint:   sale.Fingerprint,
		Country:       sale.Country,
		City:          sale.City,
		Product:       sale.Product,
		Description:   sale.Description,
		Provider:      sale.Provider,
		Metadata:      encodeJSONMap(sale.Metadata),
		OccurredAt:    sale.CreatedAt,
		CreatedAt:     sale.CreatedAt,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "sale_id"}},
		DoNothing: true,
	}).Create(&rec).Error
}

func (r *saleRepository) GetByID(ctx context.Context, id string) (domain.SaleEvent, error) {
	var rec saleModel
	if err := r.db.WithContext(ctx).Where("sale_id = ?", id).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.SaleEvent{}, domain.ErrNotFound
		}
		return domain.SaleEvent{}, err
	}
	return domain.SaleEvent{
		ID:            rec.SaleID,
		UserID:        rec.UserID,
		AmountCents:   rec.AmountCents,
		Currency:      rec.Currency,
		CustomerEmail: rec.CustomerEmail,
		CustomerName:  rec.CustomerName,
		IPAddress:     rec.IPAddress,
		TrackerID:     rec.TrackerID,
		Fingerprint:   rec.Fingerprint,
		Country:       rec.Country,
		City:          rec.City,
		Product:       rec.Product,
		Description:   rec.Description,
		Provider:      rec.Provider,
		Metadata:      decodeJSONMap(rec.Metadata),
		CreatedAt:     rec.OccurredAt,
	}, nil
}
