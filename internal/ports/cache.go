package ports

import (
	"context"
	"time"

	"github.com/viralforge/attribution-engine/internal/domain"
)

// ClickCache is the shared Tier 2 click pool. It mirrors the in-process
// indexing scheme so multiple instances converge on the same clicks, with
// TTL-based expiry equal to the attribution window.
//
// Read failures are expected operational events: the resolver treats any
// error as "no match at this tier" and keeps going.
type ClickCache interface {
	// RecordClick writes the click plus all of its index entries in one
	// pipelined round trip.
	RecordClick(ctx context.Context, click domain.ClickEvent, ttl time.Duration) error
	// FindByTracker resolves the single-slot, latest-wins tracker index.
	FindByTracker(ctx context.Context, userID, trackerID string, saleTime time.Time, window time.Duration) (domain.ClickEvent, bool, error)
	// FindBySignals runs the general multi-signal query in the same strategy
	// order as Tier 1 and returns score-annotated matches.
	FindBySignals(ctx context.Context, userID string, saleTime time.Time, signals domain.SaleSignals, window time.Duration) ([]domain.ClickMatch, error)
	// MarkAttributed flips the attributed flag on the cached click so other
	// instances stop matching it.
	MarkAttributed(ctx context.Context, clickID, saleID string) error
}
