package ports

import (
	"context"

	"github.com/viralforge/attribution-engine/internal/domain"
)

// SentimentProvider scores content sentiment in 0..1. The engine ships a
// constant implementation until a real sentiment pipeline exists; failures
// must degrade to that constant, never abort attribution.
type SentimentProvider interface {
	Score(ctx context.Context, content domain.RawContent) (float64, error)
}

// AudienceGeoReader reports what fraction of a content item's audience is
// located in a given city. Optional enrichment: errors degrade to zero.
type AudienceGeoReader interface {
	CityFraction(ctx context.Context, content domain.RawContent, country, city string) (float64, error)
}

// ConstantSentiment is the default no-op sentiment signal.
type ConstantSentiment struct {
	Value float64
}

func (c ConstantSentiment) Score(context.Context, domain.RawContent) (float64, error) {
	return c.Value, nil
}
