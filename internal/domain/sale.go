package domain

import (
	"strings"
	"time"
)

// SaleEvent is a revenue event delivered by a payment-webhook collaborator.
// The engine treats it as immutable; provider metadata is an opaque blob
// mined for tracking signals.
type SaleEvent struct {
	ID            string         `json:"id"`
	UserID        string         `json:"user_id"`
	AmountCents   int64          `json:"amount_cents"`
	Currency      string         `json:"currency"`
	CustomerEmail string         `json:"customer_email,omitempty"`
	CustomerName  string         `json:"customer_name,omitempty"`
	IPAddress     string         `json:"ip_address,omitempty"`
	TrackerID     string         `json:"tracker_id,omitempty"`
	Fingerprint   string         `json:"fingerprint,omitempty"`
	Country       string         `json:"country,omitempty"`
	City          string         `json:"city,omitempty"`
	Product       string         `json:"product,omitempty"`
	Description   string         `json:"description,omitempty"`
	Provider      string         `json:"provider,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// Metadata keys checked per signal, in preference order. Explicit tracker
// metadata set by the redirect path outranks values the provider derived.
var (
	metaTrackerKeys     = []string{"vf_tracker_id", "tracker_id", "vf_tid"}
	metaFingerprintKeys = []string{"vf_fingerprint", "device_fingerprint", "fingerprint"}
	metaIPKeys          = []string{"client_ip", "ip_address", "buyer_ip"}
	metaCountryKeys     = []string{"geo_country", "country"}
	metaCityKeys        = []string{"geo_city", "city"}
)

// ExtractSignals pulls the resolver signals out of a sale, preferring
// explicit provider-metadata entries over direct (often derived) fields.
func ExtractSignals(sale SaleEvent) SaleSignals {
	return SaleSignals{
		IPAddress:   firstOf(sale.Metadata, metaIPKeys, sale.IPAddress),
		TrackerID:   firstOf(sale.Metadata, metaTrackerKeys, sale.TrackerID),
		Fingerprint: firstOf(sale.Metadata, metaFingerprintKeys, sale.Fingerprint),
		Country:     firstOf(sale.Metadata, metaCountryKeys, sale.Country),
		City:        firstOf(sale.Metadata, metaCityKeys, sale.City),
	}
}

func firstOf(meta map[string]any, keys []string, fallback string) string {
	for _, key := range keys {
		raw, ok := meta[key]
		if !ok {
			continue
		}
		if str, ok := raw.(string); ok {
			if trimmed := strings.TrimSpace(str); trimmed != "" {
				return trimmed
			}
		}
	}
	return strings.TrimSpace(fallback)
}
