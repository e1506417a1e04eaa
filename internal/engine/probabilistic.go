package engine

import (
	"math"

	"github.com/viralforge/attribution-engine/internal/domain"
)

// GeoOverlapScore converts the fraction of a content item's audience located
// in the buyer's city into a 0..1 feature. The x5 amplification is
// deliberate: exact city overlap is rare but strongly informative, so even a
// 20% audience share saturates the signal.
func GeoOverlapScore(cityAudienceFraction float64) float64 {
	if cityAudienceFraction <= 0 {
		return 0
	}
	score := cityAudienceFraction * 5
	if score > 1 {
		return 1
	}
	return score
}

// CandidateScore scores one piece of content against a sale using the
// current model weights:
//
//	timeWeight·exp(−λ_platform·hours) + geoWeight·geoOverlap + sentimentWeight·sentiment
//
// clamped to [0,1]. Negative elapsed time (content "posted after" the sale,
// possible with clock skew) is treated as zero hours.
func CandidateScore(w domain.ModelWeights, platform string, hoursSincePost, geoOverlap, sentiment float64) float64 {
	if hoursSincePost < 0 {
		hoursSincePost = 0
	}
	timeScore := math.Exp(-w.LambdaFor(platform) * hoursSincePost)
	return domain.PredictScore(w, timeScore, geoOverlap, sentiment)
}
