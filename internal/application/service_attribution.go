package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/attribution-engine/internal/domain"
	"github.com/viralforge/attribution-engine/internal/engine"
)

// AttributeSale is invoked once per incoming sale. It extracts signals,
// resolves an exact click match across the tiers, scores it, records ground
// truth, and persists the attribution; with no exact match it falls back to
// probabilistic content scoring. Idempotent: a sale that already has an
// attribution short-circuits to the existing result.
//
// Everything upstream of the final attribution write is best-effort; only
// that write's failure propagates to the caller.
func (s *Service) AttributeSale(ctx context.Context, sale domain.SaleEvent, opts AttributeOptions) (AttributionResult, error) {
	if strings.TrimSpace(sale.ID) == "" || strings.TrimSpace(sale.UserID) == "" {
		return AttributionResult{}, domain.ErrInvalidInput
	}
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = s.nowFn()
	}

	if existing, ok := s.existingResult(ctx, sale.ID); ok {
		return existing, nil
	}

	if s.sales != nil {
		if err := s.sales.Upsert(ctx, sale); err != nil {
			s.logger.WarnContext(ctx, "sale persistence failed",
				"module", "attribution",
				"operation", "persist_sale",
				"outcome", "degraded",
				"sale_id", sale.ID,
				"error", err.Error(),
			)
		}
	}

	window := s.window(opts)
	signals := domain.ExtractSignals(sale)

	if signals.HasAny() {
		if match := s.resolveExactMatch(ctx, sale, signals, window); match != nil {
			return s.persistExactMatch(ctx, sale, signals, match)
		}
	}

	return s.attributeProbabilistically(ctx, sale, window, s.minConfidence(opts))
}

// existingResult reconstructs the response for a sale processed earlier.
// The check is advisory (check-then-act); the unique sale index in the
// attribution store closes the remaining race.
func (s *Service) existingResult(ctx context.Context, saleID string) (AttributionResult, bool) {
	if s.attributions == nil {
		return AttributionResult{}, false
	}
	attribution, err := s.attributions.GetBySaleID(ctx, saleID)
	if err != nil {
		return AttributionResult{}, false
	}
	result := AttributionResult{
		Attributed:  true,
		Confidence:  attribution.Confidence,
		MatchType:   attribution.MatchType,
		Tier:        attribution.Tier,
		Attribution: &attribution,
	}
	if click := s.hydrateClick(ctx, domain.ClickEvent{ID: attribution.ClickID}); click.ID != "" && click.UserID != "" {
		result.MatchedClick = &click
	}
	result.MatchedLink = s.hydrateLink(ctx, attribution.LinkID)
	return result, true
}

func (s *Service) persistExactMatch(ctx context.Context, sale domain.SaleEvent, signals domain.SaleSignals, match *exactMatch) (AttributionResult, error) {
	now := s.nowFn()
	click := match.click

	matched := domain.MatchedSignals{
		IP:          signals.IPAddress != "" && click.IPAddress == signals.IPAddress,
		Tracker:     signals.TrackerID != "" && click.TrackerID == signals.TrackerID,
		Fingerprint: signals.Fingerprint != "" && click.Fingerprint == signals.Fingerprint,
		Geo:         signals.Country != "" && signals.City != "" && click.Country == signals.Country && click.City == signals.City,
	}
	elapsed := sale.CreatedAt.Sub(click.ClickedAt)

	// The tier strategy score is the provisional floor; the signal scorer
	// can only lift it when several signals agree.
	confidence := domain.ScoreConfidence(matched, elapsed)
	if match.score > confidence {
		confidence = match.score
	}

	attribution := domain.Attribution{
		ID:               uuid.NewString(),
		UserID:           sale.UserID,
		ClickID:          click.ID,
		SaleID:           sale.ID,
		LinkID:           click.LinkID,
		Confidence:       confidence,
		Status:           domain.StatusForConfidence(confidence),
		MatchType:        match.matchType,
		Tier:             match.tier,
		TimeDeltaMinutes: elapsed.Minutes(),
		MatchedSignals:   matched.Names(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	s.recordExactGroundTruth(ctx, click, sale, matched, elapsed)

	if err := s.createAttribution(ctx, &attribution); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			if existing, ok := s.existingResult(ctx, sale.ID); ok {
				return existing, nil
			}
		}
		return AttributionResult{}, err
	}
	s.enqueueEvent(ctx, eventAttributionCreated, sale.UserID, attribution)

	click.Attributed = true
	click.SaleID = sale.ID
	return AttributionResult{
		Attributed:   true,
		Confidence:   confidence,
		MatchType:    match.matchType,
		Tier:         match.tier,
		Attribution:  &attribution,
		MatchedClick: &click,
		MatchedLink:  match.link,
	}, nil
}

// recordExactGroundTruth appends a positive training sample; exact matches
// are definitionally true positives. A retrain boundary publishes the new
// weight version.
func (s *Service) recordExactGroundTruth(ctx context.Context, click domain.ClickEvent, sale domain.SaleEvent, matched domain.MatchedSignals, elapsed time.Duration) {
	if s.model == nil {
		return
	}
	geoScore := 0.0
	if matched.Geo {
		geoScore = 1.0
	}
	sample := domain.GroundTruthSample{
		ID:               uuid.NewString(),
		ClickID:          click.ID,
		SaleID:           sale.ID,
		TimeDeltaMinutes: elapsed.Minutes(),
		GeoScore:         geoScore,
		SentimentScore:   s.sentimentFor(ctx, domain.RawContent{UserID: sale.UserID, Platform: click.Platform}),
		Platform:         click.Platform,
		DidConvert:       true,
		RecordedAt:       s.nowFn(),
	}

	if s.groundTruth != nil {
		if err := s.groundTruth.Append(ctx, sample); err != nil {
			s.logger.WarnContext(ctx, "ground truth persistence failed",
				"module", "attribution",
				"operation", "append_ground_truth",
				"outcome", "degraded",
				"sale_id", sale.ID,
				"error", err.Error(),
			)
		}
	}

	if retrained := s.model.RecordGroundTruth(sample); retrained != nil {
		s.publishRetrain(ctx, *retrained)
	}
}

func (s *Service) publishRetrain(ctx context.Context, weights domain.ModelWeights) {
	if s.snapshots != nil {
		if err := s.snapshots.Save(ctx, weights); err != nil {
			s.logger.WarnContext(ctx, "model snapshot persistence failed",
				"module", "attribution",
				"operation", "save_model_snapshot",
				"outcome", "degraded",
				"version", weights.Version,
				"error", err.Error(),
			)
		}
	}
	s.enqueueEvent(ctx, eventModelRetrained, weights.Version, weights)
	s.logger.InfoContext(ctx, "model retrained",
		"module", "attribution",
		"operation", "retrain",
		"outcome", "success",
		"version", weights.Version,
		"training_count", weights.TrainingCount,
		"accuracy", weights.Accuracy,
	)
}

// attributeProbabilistically scores the user's recent content against the
// sale with the current model weights and accepts the best candidate above
// the confidence floor. An accepted candidate materializes a synthetic
// inferred click so the Attribution->Click relationship stays uniform.
func (s *Service) attributeProbabilistically(ctx context.Context, sale domain.SaleEvent, window time.Duration, minConfidence float64) (AttributionResult, error) {
	noMatch := AttributionResult{Attributed: false, Confidence: 0, MatchType: domain.MatchTypeNone}
	if s.content == nil || s.model == nil {
		return noMatch, nil
	}

	listCtx, cancel := context.WithTimeout(ctx, s.cfg.TierTimeout)
	candidates, err := s.content.ListRecentByUser(listCtx, sale.UserID, sale.CreatedAt, window)
	cancel()
	if err != nil {
		s.logger.WarnContext(ctx, "content lookup failed",
			"module", "attribution",
			"operation", "list_recent_content",
			"outcome", "degraded",
			"sale_id", sale.ID,
			"error", err.Error(),
		)
		return noMatch, nil
	}
	if len(candidates) == 0 {
		return noMatch, nil
	}

	weights := s.model.ScoringWeights()
	var best *domain.RawContent
	bestScore := -1.0
	for i := range candidates {
		candidate := candidates[i]
		hours := sale.CreatedAt.Sub(candidate.PostedAt).Hours()
		score := engine.CandidateScore(
			weights,
			candidate.Platform,
			hours,
			s.geoOverlapFor(ctx, candidate, sale),
			s.sentimentFor(ctx, candidate),
		)
		if score > bestScore {
			bestScore = score
			best = &candidates[i]
		}
	}

	if best == nil || bestScore < minConfidence {
		return noMatch, nil
	}
	return s.persistInferredMatch(ctx, sale, *best, bestScore)
}

func (s *Service) persistInferredMatch(ctx context.Context, sale domain.SaleEvent, content domain.RawContent, confidence float64) (AttributionResult, error) {
	now := s.nowFn()
	delta := sale.CreatedAt.Sub(content.PostedAt)

	link := domain.TrackedLink{
		ID:        uuid.NewString(),
		UserID:    sale.UserID,
		Slug:      "inferred-" + content.ID,
		TargetURL: content.URL,
		Platform:  content.Platform,
		Synthetic: true,
		CreatedAt: now,
	}
	if s.links != nil {
		if err := s.links.CreateSynthetic(ctx, link); err != nil {
			s.logger.WarnContext(ctx, "synthetic link persistence failed",
				"module", "attribution",
				"operation", "create_synthetic_link",
				"outcome", "degraded",
				"sale_id", sale.ID,
				"error", err.Error(),
			)
		}
	}

	// Backdated to the content's posting moment; tagged inferred so it is
	// never itself a future exact-match candidate.
	click := domain.ClickEvent{
		ID:         uuid.NewString(),
		LinkID:     link.ID,
		UserID:     sale.UserID,
		Platform:   content.Platform,
		ClickedAt:  sale.CreatedAt.Add(-delta),
		Attributed: true,
		SaleID:     sale.ID,
		Inferred:   true,
	}
	if s.clicks != nil {
		if err := s.clicks.Create(ctx, click); err != nil {
			s.logger.WarnContext(ctx, "inferred click persistence failed",
				"module", "attribution",
				"operation", "create_inferred_click",
				"outcome", "degraded",
				"sale_id", sale.ID,
				"error", err.Error(),
			)
		}
	}

	attribution := domain.Attribution{
		ID:               uuid.NewString(),
		UserID:           sale.UserID,
		ClickID:          click.ID,
		SaleID:           sale.ID,
		LinkID:           link.ID,
		Confidence:       confidence,
		Status:           domain.StatusForConfidence(confidence),
		MatchType:        domain.MatchTypeInferred,
		TimeDeltaMinutes: delta.Minutes(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.createAttribution(ctx, &attribution); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			if existing, ok := s.existingResult(ctx, sale.ID); ok {
				return existing, nil
			}
		}
		return AttributionResult{}, err
	}
	s.enqueueEvent(ctx, eventAttributionCreated, sale.UserID, attribution)

	return AttributionResult{
		Attributed:   true,
		Confidence:   confidence,
		MatchType:    domain.MatchTypeInferred,
		Attribution:  &attribution,
		MatchedClick: &click,
		MatchedLink:  &link,
	}, nil
}

// createAttribution is the one write whose failure is fatal to the caller.
func (s *Service) createAttribution(ctx context.Context, attribution *domain.Attribution) error {
	if s.attributions == nil {
		return domain.ErrUnavailable
	}
	return s.attributions.Create(ctx, *attribution)
}

func (s *Service) sentimentFor(ctx context.Context, content domain.RawContent) float64 {
	score, err := s.sentiment.Score(ctx, content)
	if err != nil {
		// Placeholder-grade signal: failures fall back to neutral.
		return 0.5
	}
	return score
}

func (s *Service) geoOverlapFor(ctx context.Context, content domain.RawContent, sale domain.SaleEvent) float64 {
	if s.audienceGeo == nil || sale.Country == "" || sale.City == "" {
		return 0
	}
	fraction, err := s.audienceGeo.CityFraction(ctx, content, sale.Country, sale.City)
	if err != nil {
		return 0
	}
	return engine.GeoOverlapScore(fraction)
}
