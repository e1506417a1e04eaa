package engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/viralforge/attribution-engine/internal/domain"
)

var saleTime = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

func testClick(id string, clickedAt time.Time) domain.ClickEvent {
	return domain.ClickEvent{
		ID:        id,
		LinkID:    "link-1",
		UserID:    "user-1",
		Platform:  "twitter",
		IPAddress: "203.0.113.9",
		ClickedAt: clickedAt,
	}
}

func TestFindMatchingClicksStrategyPriority(t *testing.T) {
	t.Parallel()

	store := NewClickStore(ClickStoreConfig{Window: 24 * time.Hour})

	geoClick := testClick("click-geo", saleTime.Add(-time.Hour))
	geoClick.IPAddress = ""
	geoClick.Country, geoClick.City = "US", "Austin"
	store.Record(geoClick)

	trackerClick := testClick("click-tracker", saleTime.Add(-2*time.Hour))
	trackerClick.IPAddress = ""
	trackerClick.TrackerID = "trk-1"
	store.Record(trackerClick)

	ipClick := testClick("click-ip", saleTime.Add(-3*time.Hour))
	store.Record(ipClick)

	matches := store.FindMatchingClicks("user-1", saleTime, domain.SaleSignals{
		IPAddress: "203.0.113.9",
		TrackerID: "trk-1",
		Country:   "US",
		City:      "Austin",
	})
	if len(matches) != 3 {
		t.Fatalf("expected 3 matches, got %d", len(matches))
	}
	if matches[0].MatchType != domain.MatchTypeIP || matches[0].Score != domain.StrategyScoreIP {
		t.Fatalf("ip strategy must come first, got %s at %v", matches[0].MatchType, matches[0].Score)
	}
	if matches[1].MatchType != domain.MatchTypeTracker {
		t.Fatalf("tracker strategy must come second, got %s", matches[1].MatchType)
	}
	if matches[2].MatchType != domain.MatchTypeGeo || matches[2].Score != domain.StrategyScoreGeo {
		t.Fatalf("geo strategy must come last, got %s at %v", matches[2].MatchType, matches[2].Score)
	}
}

func TestFindMatchingClicksDoesNotReReportAcrossStrategies(t *testing.T) {
	t.Parallel()

	store := NewClickStore(ClickStoreConfig{Window: 24 * time.Hour})
	click := testClick("click-1", saleTime.Add(-time.Hour))
	click.TrackerID = "trk-1"
	store.Record(click)

	matches := store.FindMatchingClicks("user-1", saleTime, domain.SaleSignals{
		IPAddress: "203.0.113.9",
		TrackerID: "trk-1",
	})
	if len(matches) != 1 {
		t.Fatalf("one click must appear once, got %d matches", len(matches))
	}
	if matches[0].MatchType != domain.MatchTypeIP {
		t.Fatalf("the click keeps its strongest strategy, got %s", matches[0].MatchType)
	}
}

func TestFindMatchingClicksWindowEdges(t *testing.T) {
	t.Parallel()

	window := 24 * time.Hour
	store := NewClickStore(ClickStoreConfig{Window: window})
	store.Record(testClick("click-edge", saleTime.Add(-window)))
	store.Record(testClick("click-old", saleTime.Add(-window-time.Minute)))
	store.Record(testClick("click-future", saleTime.Add(time.Minute)))

	matches := store.FindMatchingClicks("user-1", saleTime, domain.SaleSignals{IPAddress: "203.0.113.9"})
	if len(matches) != 1 || matches[0].Click.ID != "click-edge" {
		t.Fatalf("only the click at exactly saleTime-window qualifies, got %+v", matches)
	}
}

func TestFindMatchingClicksSkipsInferredAndAttributed(t *testing.T) {
	t.Parallel()

	store := NewClickStore(ClickStoreConfig{Window: 24 * time.Hour})

	inferred := testClick("click-inferred", saleTime.Add(-time.Hour))
	inferred.Inferred = true
	store.Record(inferred)

	store.Record(testClick("click-live", saleTime.Add(-time.Hour)))
	store.MarkAttributed("click-live", "sale-1")

	matches := store.FindMatchingClicks("user-1", saleTime, domain.SaleSignals{IPAddress: "203.0.113.9"})
	if len(matches) != 0 {
		t.Fatalf("inferred and attributed clicks must not match, got %+v", matches)
	}
}

func TestMarkAttributedFirstSaleWins(t *testing.T) {
	t.Parallel()

	store := NewClickStore(ClickStoreConfig{Window: 24 * time.Hour})
	store.Record(testClick("click-1", saleTime.Add(-time.Hour)))

	store.MarkAttributed("click-1", "sale-1")
	store.MarkAttributed("click-1", "sale-2")

	stats := store.Stats()
	if stats.AttributedClicks != 1 {
		t.Fatalf("expected one attributed click, got %d", stats.AttributedClicks)
	}
}

func TestRecordBoundsPerUserList(t *testing.T) {
	t.Parallel()

	store := NewClickStore(ClickStoreConfig{Window: 24 * time.Hour, MaxClicksPerUser: 2})
	for i := 0; i < 3; i++ {
		store.Record(testClick(fmt.Sprintf("click-%d", i), saleTime.Add(-time.Duration(i+1)*time.Minute)))
	}

	matches := store.FindMatchingClicks("user-1", saleTime, domain.SaleSignals{IPAddress: "203.0.113.9"})
	if len(matches) != 2 {
		t.Fatalf("per-user index must stay bounded at 2, got %d", len(matches))
	}
	for _, match := range matches {
		if match.Click.ID == "click-0" {
			t.Fatalf("the oldest entry should have been evicted from the index")
		}
	}
}

func TestSweepRemovesExpiredClicks(t *testing.T) {
	t.Parallel()

	window := time.Hour
	store := NewClickStore(ClickStoreConfig{Window: window})
	store.Record(testClick("click-old", saleTime.Add(-2*time.Hour)))
	store.Record(testClick("click-fresh", saleTime.Add(-10*time.Minute)))

	removed := store.Sweep(saleTime)
	if removed != 1 {
		t.Fatalf("expected exactly the expired click removed, got %d", removed)
	}

	stats := store.Stats()
	if stats.TrackedClicks != 1 {
		t.Fatalf("fresh click must survive, tracked=%d", stats.TrackedClicks)
	}
	if stats.SweepCount != 1 || stats.EvictedClicks != 1 {
		t.Fatalf("sweep counters wrong: %+v", stats)
	}
	if !stats.OldestClickAt.Equal(saleTime.Add(-10 * time.Minute)) {
		t.Fatalf("oldest click should be the surviving one, got %v", stats.OldestClickAt)
	}
}

func TestStatsOnEmptyStore(t *testing.T) {
	t.Parallel()

	stats := NewClickStore(ClickStoreConfig{}).Stats()
	if stats.TrackedClicks != 0 || stats.UsersIndexed != 0 || !stats.OldestClickAt.IsZero() {
		t.Fatalf("empty store stats wrong: %+v", stats)
	}
}
