package domain

import "time"

// Match types name the single strongest signal that tied a click to a sale.
const (
	MatchTypeIP          = "ip"
	MatchTypeTracker     = "tracker"
	MatchTypeFingerprint = "fingerprint"
	MatchTypeGeo         = "geo"
	MatchTypeInferred    = "inferred"
	MatchTypeNone        = "none"
)

// Resolver tiers, in cost order. The engine tier is in-process memory,
// redis is the shared cache, database is the durable backstop.
const (
	TierEngine   = "engine"
	TierRedis    = "redis"
	TierDatabase = "database"
)

// Fixed per-strategy match scores. IP is the strongest exact signal because
// click and purchase shared a network path; geo pairs are the weakest
// accepted exact strategy.
const (
	StrategyScoreIP          = 0.95
	StrategyScoreTracker     = 0.90
	StrategyScoreFingerprint = 0.80
	StrategyScoreGeo         = 0.60
)

// ClickEvent is a single click on a tracked link. Identity signals are all
// optional; the resolver simply skips strategies whose signal is absent.
type ClickEvent struct {
	ID          string    `json:"id"`
	LinkID      string    `json:"link_id"`
	UserID      string    `json:"user_id"`
	Platform    string    `json:"platform,omitempty"`
	IPAddress   string    `json:"ip_address,omitempty"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	TrackerID   string    `json:"tracker_id,omitempty"`
	Country     string    `json:"country,omitempty"`
	Region      string    `json:"region,omitempty"`
	City        string    `json:"city,omitempty"`
	Referrer    string    `json:"referrer,omitempty"`
	UTMSource   string    `json:"utm_source,omitempty"`
	UTMMedium   string    `json:"utm_medium,omitempty"`
	UTMCampaign string    `json:"utm_campaign,omitempty"`
	ClickedAt   time.Time `json:"clicked_at"`
	Attributed  bool      `json:"attributed"`
	SaleID      string    `json:"sale_id,omitempty"`
	// Inferred marks synthetic clicks materialized for probabilistic
	// attributions. They exist to keep the Attribution->Click relationship
	// uniform and are never eligible for exact matching.
	Inferred bool `json:"inferred,omitempty"`
}

// SaleSignals are the identity signals extracted from a sale that the
// resolver can match against recorded clicks.
type SaleSignals struct {
	IPAddress   string `json:"ip_address,omitempty"`
	TrackerID   string `json:"tracker_id,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`
	Country     string `json:"country,omitempty"`
	City        string `json:"city,omitempty"`
}

// HasAny reports whether at least one resolver strategy can run.
func (s SaleSignals) HasAny() bool {
	return s.IPAddress != "" || s.TrackerID != "" || s.Fingerprint != "" || (s.Country != "" && s.City != "")
}

// ClickMatch is a candidate click annotated with the strategy that found it.
type ClickMatch struct {
	Click     ClickEvent
	MatchType string
	Score     float64
}

// InWindow reports whether clickedAt falls inside [saleTime-window, saleTime].
// Both edges are inclusive: a click at exactly saleTime-window still counts.
func InWindow(clickedAt, saleTime time.Time, window time.Duration) bool {
	if clickedAt.After(saleTime) {
		return false
	}
	return !clickedAt.Before(saleTime.Add(-window))
}

// TrackedLink is the minimal link record the engine needs for hydration.
// Synthetic links back probabilistic attributions so downstream consumers
// always have a link to point at.
type TrackedLink struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Slug      string    `json:"slug,omitempty"`
	TargetURL string    `json:"target_url,omitempty"`
	Platform  string    `json:"platform,omitempty"`
	Synthetic bool      `json:"synthetic,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ClickStats is the read-only introspection snapshot for dashboards.
type ClickStats struct {
	TrackedClicks    int       `json:"tracked_clicks"`
	AttributedClicks int       `json:"attributed_clicks"`
	UsersIndexed     int       `json:"users_indexed"`
	OldestClickAt    time.Time `json:"oldest_click_at,omitempty"`
	SweepCount       int64     `json:"sweep_count"`
	EvictedClicks    int64     `json:"evicted_clicks"`
}
