package application

import (
	"log/slog"
	"time"

	"github.com/viralforge/attribution-engine/internal/domain"
	"github.com/viralforge/attribution-engine/internal/engine"
	"github.com/viralforge/attribution-engine/internal/ports"
)

// Config tunes the orchestration service. Per-call options can narrow the
// window and raise the confidence floor, never the other way around.
type Config struct {
	ServiceName string
	// AttributionWindow bounds how far back a click or content item may be.
	AttributionWindow time.Duration
	// MinConfidence is the probabilistic acceptance floor.
	MinConfidence float64
	// TierTimeout caps each Tier 2/3 call; a timeout is a miss, not a failure.
	TierTimeout time.Duration
}

// AttributeOptions are per-sale overrides, mirroring the webhook contract.
type AttributeOptions struct {
	WindowMinutes int
	MinConfidence float64
}

// AttributionResult is returned for every processed sale, attributed or not.
type AttributionResult struct {
	Attributed   bool                `json:"attributed"`
	Confidence   float64             `json:"confidence"`
	MatchType    string              `json:"match_type"`
	Tier         string              `json:"tier,omitempty"`
	Attribution  *domain.Attribution `json:"attribution,omitempty"`
	MatchedClick *domain.ClickEvent  `json:"matched_click,omitempty"`
	MatchedLink  *domain.TrackedLink `json:"matched_link,omitempty"`
}

// ModelState is the read-only introspection view of the learning model.
type ModelState struct {
	Weights     domain.ModelWeights `json:"weights"`
	SampleCount int                 `json:"sample_count"`
}

// Service is the attribution engine's single entry point. It is constructed
// once at startup and injected wherever needed; there is deliberately no
// process-global instance.
type Service struct {
	cfg Config

	clickStore *engine.ClickStore
	model      *engine.AdaptiveModel

	clicks       ports.ClickRepository
	sales        ports.SaleRepository
	attributions ports.AttributionRepository
	links        ports.LinkRepository
	content      ports.ContentRepository
	groundTruth  ports.GroundTruthRepository
	snapshots    ports.ModelSnapshotRepository
	outbox       ports.OutboxRepository

	cache       ports.ClickCache
	sentiment   ports.SentimentProvider
	audienceGeo ports.AudienceGeoReader

	logger *slog.Logger
	nowFn  func() time.Time
}

// Dependencies wires the service. ClickStore and Model are required; every
// port may be nil-checked optional except Attributions, which owns the only
// write whose failure is fatal to a sale.
type Dependencies struct {
	Config Config

	ClickStore *engine.ClickStore
	Model      *engine.AdaptiveModel

	Clicks       ports.ClickRepository
	Sales        ports.SaleRepository
	Attributions ports.AttributionRepository
	Links        ports.LinkRepository
	Content      ports.ContentRepository
	GroundTruth  ports.GroundTruthRepository
	Snapshots    ports.ModelSnapshotRepository
	Outbox       ports.OutboxRepository

	Cache       ports.ClickCache
	Sentiment   ports.SentimentProvider
	AudienceGeo ports.AudienceGeoReader

	Logger *slog.Logger
}

// NewService applies config defaults and builds the orchestration service.
func NewService(deps Dependencies) *Service {
	cfg := deps.Config
	if cfg.ServiceName == "" {
		cfg.ServiceName = "attribution-engine"
	}
	if cfg.AttributionWindow <= 0 {
		cfg.AttributionWindow = 24 * time.Hour
	}
	if cfg.MinConfidence <= 0 {
		cfg.MinConfidence = 0.5
	}
	if cfg.TierTimeout <= 0 {
		cfg.TierTimeout = 2 * time.Second
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sentiment := deps.Sentiment
	if sentiment == nil {
		sentiment = ports.ConstantSentiment{Value: 0.5}
	}
	return &Service{
		cfg:          cfg,
		clickStore:   deps.ClickStore,
		model:        deps.Model,
		clicks:       deps.Clicks,
		sales:        deps.Sales,
		attributions: deps.Attributions,
		links:        deps.Links,
		content:      deps.Content,
		groundTruth:  deps.GroundTruth,
		snapshots:    deps.Snapshots,
		outbox:       deps.Outbox,
		cache:        deps.Cache,
		sentiment:    sentiment,
		audienceGeo:  deps.AudienceGeo,
		logger:       logger.With("service", cfg.ServiceName, "layer", "application"),
		nowFn:        func() time.Time { return time.Now().UTC() },
	}
}

// SetNow overrides the service clock for tests.
func (s *Service) SetNow(nowFn func() time.Time) {
	s.nowFn = nowFn
}

func (s *Service) window(opts AttributeOptions) time.Duration {
	if opts.WindowMinutes > 0 {
		return time.Duration(opts.WindowMinutes) * time.Minute
	}
	return s.cfg.AttributionWindow
}

func (s *Service) minConfidence(opts AttributeOptions) float64 {
	if opts.MinConfidence > 0 {
		return opts.MinConfidence
	}
	return s.cfg.MinConfidence
}
