package application

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/viralforge/attribution-engine/internal/domain"
	"github.com/viralforge/attribution-engine/internal/engine"
)

// ProcessAttributionFeedback applies a human confirm/reject decision to an
// attribution and feeds the outcome back into the learning model. Rejection
// is the only source of negative labels, so it is never silently discarded.
func (s *Service) ProcessAttributionFeedback(ctx context.Context, attributionID string, confirmed bool) (domain.Attribution, error) {
	if strings.TrimSpace(attributionID) == "" {
		return domain.Attribution{}, domain.ErrInvalidInput
	}
	if s.attributions == nil {
		return domain.Attribution{}, domain.ErrUnavailable
	}

	attribution, err := s.attributions.GetByID(ctx, attributionID)
	if err != nil {
		return domain.Attribution{}, err
	}
	if attribution.Finalized() {
		return attribution, domain.ErrFeedbackFinalized
	}

	now := s.nowFn()
	status := domain.AttributionStatusRejected
	eventType := eventAttributionRejected
	if confirmed {
		status = domain.AttributionStatusConfirmed
		eventType = eventAttributionConfirmed
	}
	if err := s.attributions.UpdateStatus(ctx, attribution.ID, status, now); err != nil {
		return domain.Attribution{}, err
	}
	attribution.Status = status
	attribution.UpdatedAt = now

	geoScore := 0.0
	for _, signal := range attribution.MatchedSignals {
		if signal == domain.MatchTypeGeo {
			geoScore = 1.0
		}
	}
	platform := s.platformForClick(ctx, attribution.ClickID)

	if s.model != nil {
		s.model.ProvideFeedback(engine.Feedback{
			SaleID:           attribution.SaleID,
			PredictedScore:   attribution.Confidence,
			ActualConverted:  confirmed,
			TimeDeltaMinutes: attribution.TimeDeltaMinutes,
			GeoScore:         geoScore,
			SentimentScore:   0.5,
			Platform:         platform,
		})
	}

	if s.groundTruth != nil {
		sample := domain.GroundTruthSample{
			ID:               uuid.NewString(),
			ClickID:          attribution.ClickID,
			SaleID:           attribution.SaleID,
			TimeDeltaMinutes: attribution.TimeDeltaMinutes,
			GeoScore:         geoScore,
			SentimentScore:   0.5,
			Platform:         platform,
			DidConvert:       confirmed,
			RecordedAt:       now,
		}
		if err := s.groundTruth.Append(ctx, sample); err != nil {
			s.logger.WarnContext(ctx, "feedback ground truth persistence failed",
				"module", "feedback",
				"operation", "append_ground_truth",
				"outcome", "degraded",
				"attribution_id", attribution.ID,
				"error", err.Error(),
			)
		}
	}

	s.enqueueEvent(ctx, eventType, attribution.UserID, attribution)
	return attribution, nil
}

func (s *Service) platformForClick(ctx context.Context, clickID string) string {
	if s.clicks == nil || clickID == "" {
		return domain.DefaultLambdaKey
	}
	click, err := s.clicks.GetByID(ctx, clickID)
	if err != nil || click.Platform == "" {
		return domain.DefaultLambdaKey
	}
	return click.Platform
}

// GetModelState exposes the live learning-model state for dashboards.
func (s *Service) GetModelState(context.Context) ModelState {
	if s.model == nil {
		return ModelState{Weights: domain.DefaultWeights()}
	}
	weights, count := s.model.State()
	return ModelState{Weights: weights, SampleCount: count}
}
