package domain

import (
	"math"
	"time"
)

// DefaultLambdaKey is the fallback entry every lambda map must carry.
const DefaultLambdaKey = "default"

// ModelWeights are the published scoring parameters for probabilistic
// attribution. The three feature weights always sum to 1.0; Normalize is the
// single place that restores that invariant.
type ModelWeights struct {
	Version         string             `json:"version"`
	TimeWeight      float64            `json:"time_weight"`
	GeoWeight       float64            `json:"geo_weight"`
	SentimentWeight float64            `json:"sentiment_weight"`
	Lambda          map[string]float64 `json:"lambda"`
	Accuracy        float64            `json:"accuracy"`
	TrainingCount   int                `json:"training_count"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// DefaultWeights returns the domain-expert starting point used until enough
// ground truth accumulates to trust a trained model.
func DefaultWeights() ModelWeights {
	return ModelWeights{
		Version:         "default",
		TimeWeight:      0.5,
		GeoWeight:       0.3,
		SentimentWeight: 0.2,
		Lambda: map[string]float64{
			DefaultLambdaKey: 0.1,
			"twitter":        0.15,
			"instagram":      0.1,
			"tiktok":         0.2,
			"youtube":        0.05,
		},
	}
}

// Normalize rescales the three feature weights to sum to 1.0 and guarantees
// the lambda map carries a default entry. Called defensively at read and
// write boundaries rather than trusted as an invariant held by discipline.
func (w *ModelWeights) Normalize() {
	for _, v := range []*float64{&w.TimeWeight, &w.GeoWeight, &w.SentimentWeight} {
		if *v < 0 || math.IsNaN(*v) || math.IsInf(*v, 0) {
			*v = 0
		}
	}
	sum := w.TimeWeight + w.GeoWeight + w.SentimentWeight
	if sum <= 0 {
		defaults := DefaultWeights()
		w.TimeWeight = defaults.TimeWeight
		w.GeoWeight = defaults.GeoWeight
		w.SentimentWeight = defaults.SentimentWeight
		sum = 1.0
	}
	w.TimeWeight /= sum
	w.GeoWeight /= sum
	w.SentimentWeight /= sum
	if w.Lambda == nil {
		w.Lambda = map[string]float64{}
	}
	if _, ok := w.Lambda[DefaultLambdaKey]; !ok {
		w.Lambda[DefaultLambdaKey] = DefaultWeights().Lambda[DefaultLambdaKey]
	}
}

// LambdaFor returns the platform time-decay rate, falling back to default.
func (w ModelWeights) LambdaFor(platform string) float64 {
	if rate, ok := w.Lambda[platform]; ok && rate > 0 {
		return rate
	}
	return w.Lambda[DefaultLambdaKey]
}

// Clone deep-copies the weights so published snapshots stay immutable.
func (w ModelWeights) Clone() ModelWeights {
	out := w
	out.Lambda = make(map[string]float64, len(w.Lambda))
	for k, v := range w.Lambda {
		out.Lambda[k] = v
	}
	return out
}

// GroundTruthSample is one training example from a confirmed click->sale
// pairing. Samples are append-only; the engine never mutates or deletes one.
type GroundTruthSample struct {
	ID               string    `json:"id"`
	ClickID          string    `json:"click_id"`
	SaleID           string    `json:"sale_id"`
	TimeDeltaMinutes float64   `json:"time_delta_minutes"`
	GeoScore         float64   `json:"geo_score"`
	SentimentScore   float64   `json:"sentiment_score"`
	Platform         string    `json:"platform"`
	DidConvert       bool      `json:"did_convert"`
	RecordedAt       time.Time `json:"recorded_at"`
}

// Features converts the sample into the three model feature values given a
// platform decay rate.
func (s GroundTruthSample) Features(lambda float64) (timeScore, geoScore, sentimentScore float64) {
	hours := s.TimeDeltaMinutes / 60.0
	if hours < 0 {
		hours = 0
	}
	return math.Exp(-lambda * hours), clamp01(s.GeoScore), clamp01(s.SentimentScore)
}

// Label returns the binary training label.
func (s GroundTruthSample) Label() float64 {
	if s.DidConvert {
		return 1.0
	}
	return 0.0
}

// PredictScore is the weighted feature sum the model optimizes, clamped to
// [0,1] so it is comparable with the binary label.
func PredictScore(w ModelWeights, timeScore, geoScore, sentimentScore float64) float64 {
	return clamp01(w.TimeWeight*timeScore + w.GeoWeight*geoScore + w.SentimentWeight*sentimentScore)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
