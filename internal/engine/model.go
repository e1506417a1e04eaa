package engine

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/viralforge/attribution-engine/internal/domain"
)

// ModelConfig is the explicit construction-time tuning of the adaptive
// model. Tests build fresh models with small thresholds instead of poking
// internal state.
type ModelConfig struct {
	// MinTrainingSamples gates both retraining and serving trained weights.
	// Below it the expert defaults are served even while samples accumulate.
	MinTrainingSamples int
	// RetrainEvery fires a batch retrain whenever the total recorded sample
	// count is a multiple of it (once past MinTrainingSamples).
	RetrainEvery int
	// LearningRate applies to both the online step and batch descent.
	LearningRate float64
	// BatchIterations is the fixed retrain iteration count.
	BatchIterations int
	// MaxSamples caps in-memory history; beyond it new samples overwrite a
	// random slot (reservoir-style) so old evidence decays instead of OOMing.
	MaxSamples int
}

func (c *ModelConfig) applyDefaults() {
	if c.MinTrainingSamples <= 0 {
		c.MinTrainingSamples = 50
	}
	if c.RetrainEvery <= 0 {
		c.RetrainEvery = 10
	}
	if c.LearningRate <= 0 {
		c.LearningRate = 0.01
	}
	if c.BatchIterations <= 0 {
		c.BatchIterations = 100
	}
	if c.MaxSamples <= 0 {
		c.MaxSamples = 10000
	}
}

// Feedback is one human-review outcome fed back into the model. It is the
// only path that can carry a negative label.
type Feedback struct {
	SaleID           string
	PredictedScore   float64
	ActualConverted  bool
	TimeDeltaMinutes float64
	GeoScore         float64
	SentimentScore   float64
	Platform         string
}

// AdaptiveModel holds the current scoring weights and the accumulated ground
// truth, and improves the weights from evidence two ways: a noisy online
// gradient step after each feedback, and periodic batch retraining over the
// full history. Batch retraining owns Version and TrainingCount; the online
// path never touches them.
//
// Weight reads take a read lock and return a clone, so concurrent scoring
// never observes a half-updated vector mid-retrain.
type AdaptiveModel struct {
	mu      sync.RWMutex
	cfg     ModelConfig
	weights domain.ModelWeights
	samples []domain.GroundTruthSample
	// total counts every recorded sample, including ones the reservoir cap
	// later overwrote. Retrain cadence keys off this monotonic count.
	total int
	nowFn func() time.Time
	rng   *rand.Rand
}

// NewAdaptiveModel starts from the domain-expert default weights.
func NewAdaptiveModel(cfg ModelConfig) *AdaptiveModel {
	cfg.applyDefaults()
	return &AdaptiveModel{
		cfg:     cfg,
		weights: domain.DefaultWeights(),
		nowFn:   func() time.Time { return time.Now().UTC() },
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Restore replaces current weights with a persisted snapshot, typically the
// last retrain before a restart. Ignores snapshots older than the in-memory
// training count, which only happens in tests.
func (m *AdaptiveModel) Restore(weights domain.ModelWeights) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if weights.TrainingCount < m.total {
		return
	}
	weights.Normalize()
	m.weights = weights.Clone()
	if weights.TrainingCount > m.total {
		m.total = weights.TrainingCount
	}
}

// SetNow overrides the clock; used by tests to pin version tags.
func (m *AdaptiveModel) SetNow(nowFn func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nowFn = nowFn
}

// ScoringWeights returns the weights probabilistic attribution should use
// right now. Until MinTrainingSamples accumulate this is always the expert
// default, an explicit guard against overfitting tiny histories.
func (m *AdaptiveModel) ScoringWeights() domain.ModelWeights {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.total < m.cfg.MinTrainingSamples {
		return domain.DefaultWeights()
	}
	out := m.weights.Clone()
	out.Normalize()
	return out
}

// State returns the live weight state for introspection, plus sample count.
func (m *AdaptiveModel) State() (domain.ModelWeights, int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := m.weights.Clone()
	out.Normalize()
	return out, m.total
}

// RecordGroundTruth appends a positive sample from an exact match. Exact
// matches are definitionally true positives. Returns the retrained weights
// when this sample crossed a retrain boundary (total ≥ min and a multiple of
// RetrainEvery), nil otherwise.
func (m *AdaptiveModel) RecordGroundTruth(sample domain.GroundTruthSample) *domain.ModelWeights {
	sample.DidConvert = true
	m.mu.Lock()
	defer m.mu.Unlock()

	m.appendLocked(sample)
	if m.total >= m.cfg.MinTrainingSamples && m.total%m.cfg.RetrainEvery == 0 {
		retrained := m.retrainLocked()
		return &retrained
	}
	return nil
}

// ProvideFeedback appends a human-labeled sample (possibly negative) and
// immediately performs one online gradient step. The step is deliberately
// noisy; the next batch retrain anneals it out.
func (m *AdaptiveModel) ProvideFeedback(fb Feedback) domain.ModelWeights {
	sample := domain.GroundTruthSample{
		SaleID:           fb.SaleID,
		TimeDeltaMinutes: fb.TimeDeltaMinutes,
		GeoScore:         fb.GeoScore,
		SentimentScore:   fb.SentimentScore,
		Platform:         fb.Platform,
		DidConvert:       fb.ActualConverted,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	sample.RecordedAt = m.nowFn()
	m.appendLocked(sample)

	w := m.weights.Clone()
	w.Normalize()
	timeScore, geoScore, sentimentScore := sample.Features(w.LambdaFor(sample.Platform))

	predicted := fb.PredictedScore
	if predicted <= 0 || predicted > 1 {
		predicted = domain.PredictScore(w, timeScore, geoScore, sentimentScore)
	}
	gradient := 2 * (predicted - sample.Label())

	w.TimeWeight -= m.cfg.LearningRate * gradient * timeScore
	w.GeoWeight -= m.cfg.LearningRate * gradient * geoScore
	w.SentimentWeight -= m.cfg.LearningRate * gradient * sentimentScore
	w.Normalize()
	w.UpdatedAt = sample.RecordedAt

	m.weights = w
	return w.Clone()
}

// Retrain runs full-batch gradient descent over the accumulated history and
// publishes the best-loss snapshot seen, stamped with a fresh version tag.
func (m *AdaptiveModel) Retrain() domain.ModelWeights {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.retrainLocked()
}

func (m *AdaptiveModel) appendLocked(sample domain.GroundTruthSample) {
	if sample.RecordedAt.IsZero() {
		sample.RecordedAt = m.nowFn()
	}
	m.total++
	if len(m.samples) < m.cfg.MaxSamples {
		m.samples = append(m.samples, sample)
		return
	}
	m.samples[m.rng.Intn(len(m.samples))] = sample
}

func (m *AdaptiveModel) retrainLocked() domain.ModelWeights {
	now := m.nowFn()
	if len(m.samples) == 0 {
		out := m.weights.Clone()
		out.Normalize()
		return out
	}

	w := m.weights.Clone()
	w.Normalize()
	best := w.Clone()
	bestLoss := m.lossLocked(w)

	n := float64(len(m.samples))
	for i := 0; i < m.cfg.BatchIterations; i++ {
		var gradTime, gradGeo, gradSentiment float64
		for _, sample := range m.samples {
			timeScore, geoScore, sentimentScore := sample.Features(w.LambdaFor(sample.Platform))
			residual := 2 * (domain.PredictScore(w, timeScore, geoScore, sentimentScore) - sample.Label())
			gradTime += residual * timeScore
			gradGeo += residual * geoScore
			gradSentiment += residual * sentimentScore
		}
		w.TimeWeight -= m.cfg.LearningRate * gradTime / n
		w.GeoWeight -= m.cfg.LearningRate * gradGeo / n
		w.SentimentWeight -= m.cfg.LearningRate * gradSentiment / n
		w.Normalize()

		if loss := m.lossLocked(w); loss < bestLoss {
			bestLoss = loss
			best = w.Clone()
		}
	}

	best.Version = fmt.Sprintf("v%d", now.UnixMilli())
	best.Accuracy = 1 - bestLoss
	best.TrainingCount = m.total
	best.UpdatedAt = now
	m.weights = best.Clone()
	return best
}

// lossLocked is the mean squared error of the weights over the history.
func (m *AdaptiveModel) lossLocked(w domain.ModelWeights) float64 {
	if len(m.samples) == 0 {
		return 0
	}
	var sum float64
	for _, sample := range m.samples {
		timeScore, geoScore, sentimentScore := sample.Features(w.LambdaFor(sample.Platform))
		diff := domain.PredictScore(w, timeScore, geoScore, sentimentScore) - sample.Label()
		sum += diff * diff
	}
	return sum / float64(len(m.samples))
}
