package domain

import "time"

// Attribution statuses. MATCHED and UNCERTAIN are machine-assigned;
// CONFIRMED and REJECTED only ever come from human review.
const (
	AttributionStatusMatched   = "MATCHED"
	AttributionStatusUncertain = "UNCERTAIN"
	AttributionStatusConfirmed = "CONFIRMED"
	AttributionStatusRejected  = "REJECTED"
)

// Confidence bands for machine-assigned statuses.
const (
	MatchedThreshold   = 0.80
	UncertainThreshold = 0.50
)

// Attribution is the resolved link between a sale and at most one click.
// At most one attribution row may exist per sale.
type Attribution struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	ClickID          string    `json:"click_id"`
	SaleID           string    `json:"sale_id"`
	LinkID           string    `json:"link_id,omitempty"`
	Confidence       float64   `json:"confidence"`
	Status           string    `json:"status"`
	MatchType        string    `json:"match_type"`
	Tier             string    `json:"tier,omitempty"`
	TimeDeltaMinutes float64   `json:"time_delta_minutes"`
	MatchedSignals   []string  `json:"matched_signals,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// StatusForConfidence maps a confidence score onto the machine status bands.
// Scores below the uncertain floor never reach persistence as attributions,
// but the mapping stays total so callers cannot produce an undefined status.
func StatusForConfidence(confidence float64) string {
	if confidence >= MatchedThreshold {
		return AttributionStatusMatched
	}
	return AttributionStatusUncertain
}

// Finalized reports whether human review already settled this attribution.
func (a Attribution) Finalized() bool {
	return a.Status == AttributionStatusConfirmed || a.Status == AttributionStatusRejected
}
