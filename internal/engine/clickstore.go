package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/viralforge/attribution-engine/internal/domain"
)

// ClickStoreConfig bounds the in-process click pool.
type ClickStoreConfig struct {
	// Window is the attribution window; clicks older than saleTime-window
	// never match and are swept once they can no longer qualify.
	Window time.Duration
	// MaxClicksPerUser bounds the per-user list; the oldest entry drops.
	MaxClicksPerUser int
	// SweepInterval is how often the background sweep runs.
	SweepInterval time.Duration
}

func (c *ClickStoreConfig) applyDefaults() {
	if c.Window <= 0 {
		c.Window = 24 * time.Hour
	}
	if c.MaxClicksPerUser <= 0 {
		c.MaxClicksPerUser = 100
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = 5 * time.Minute
	}
}

// ClickStore is the Tier 1 in-process click index. All lookups are scoped to
// one user and the attribution window. Index mutations take a single mutex;
// every critical section is O(small) so lookups never stall behind the sweep.
//
// Expiry is explicit: each click registers in a minute-granular expiry bucket
// at record time, so the sweep touches only entries that actually expired.
type ClickStore struct {
	mu  sync.RWMutex
	cfg ClickStoreConfig

	clicks        map[string]*domain.ClickEvent
	byUser        map[string][]string
	byIP          map[string][]string // key userID|ip
	byTracker     map[string]string   // key userID|tracker, single slot, latest wins
	byFingerprint map[string][]string // key userID|fingerprint

	expiry map[int64][]string // unix-minute bucket -> click IDs

	sweepCount int64
	evicted    int64
}

// NewClickStore constructs an empty Tier 1 store.
func NewClickStore(cfg ClickStoreConfig) *ClickStore {
	cfg.applyDefaults()
	return &ClickStore{
		cfg:           cfg,
		clicks:        map[string]*domain.ClickEvent{},
		byUser:        map[string][]string{},
		byIP:          map[string][]string{},
		byTracker:     map[string]string{},
		byFingerprint: map[string][]string{},
		expiry:        map[int64][]string{},
	}
}

// Record indexes one click. O(1) amortized, no I/O. Inferred clicks are
// accepted but never returned by FindMatchingClicks.
func (s *ClickStore) Record(click domain.ClickEvent) {
	if click.ID == "" || click.UserID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := click
	s.clicks[click.ID] = &stored

	s.byUser[click.UserID] = appendBounded(s.byUser[click.UserID], click.ID, s.cfg.MaxClicksPerUser)
	if click.IPAddress != "" {
		key := click.UserID + "|" + click.IPAddress
		s.byIP[key] = appendBounded(s.byIP[key], click.ID, s.cfg.MaxClicksPerUser)
	}
	if click.TrackerID != "" {
		s.byTracker[click.UserID+"|"+click.TrackerID] = click.ID
	}
	if click.Fingerprint != "" {
		key := click.UserID + "|" + click.Fingerprint
		s.byFingerprint[key] = appendBounded(s.byFingerprint[key], click.ID, s.cfg.MaxClicksPerUser)
	}

	bucket := click.ClickedAt.Add(s.cfg.Window).Truncate(time.Minute).Unix()
	s.expiry[bucket] = append(s.expiry[bucket], click.ID)
}

// FindMatchingClicks evaluates strategies in strict priority order
// (ip, tracker, fingerprint, geo) for one user's sale. Each strategy only
// considers clicks inside [saleTime-window, saleTime] that are not yet
// attributed. Results carry the fixed strategy score and arrive sorted
// descending; a click found by an earlier strategy is not re-reported.
func (s *ClickStore) FindMatchingClicks(userID string, saleTime time.Time, signals domain.SaleSignals) []domain.ClickMatch {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []domain.ClickMatch
	seen := map[string]bool{}

	add := func(id, matchType string, score float64) {
		if seen[id] {
			return
		}
		click, ok := s.clicks[id]
		if !ok || !s.eligible(click, saleTime) {
			return
		}
		seen[id] = true
		matches = append(matches, domain.ClickMatch{Click: *click, MatchType: matchType, Score: score})
	}

	if signals.IPAddress != "" {
		for _, id := range s.byIP[userID+"|"+signals.IPAddress] {
			add(id, domain.MatchTypeIP, domain.StrategyScoreIP)
		}
	}
	if signals.TrackerID != "" {
		if id, ok := s.byTracker[userID+"|"+signals.TrackerID]; ok {
			add(id, domain.MatchTypeTracker, domain.StrategyScoreTracker)
		}
	}
	if signals.Fingerprint != "" {
		for _, id := range s.byFingerprint[userID+"|"+signals.Fingerprint] {
			add(id, domain.MatchTypeFingerprint, domain.StrategyScoreFingerprint)
		}
	}
	if signals.Country != "" && signals.City != "" {
		for _, id := range s.byUser[userID] {
			click, ok := s.clicks[id]
			if !ok || seen[id] {
				continue
			}
			if click.Country == signals.Country && click.City == signals.City {
				add(id, domain.MatchTypeGeo, domain.StrategyScoreGeo)
			}
		}
	}
	return matches
}

func (s *ClickStore) eligible(click *domain.ClickEvent, saleTime time.Time) bool {
	if click.Attributed || click.Inferred {
		return false
	}
	return domain.InWindow(click.ClickedAt, saleTime, s.cfg.Window)
}

// MarkAttributed flips the attributed flag in place. Idempotent; a click
// never reverts to unattributed.
func (s *ClickStore) MarkAttributed(clickID, saleID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	click, ok := s.clicks[clickID]
	if !ok || click.Attributed {
		return
	}
	click.Attributed = true
	click.SaleID = saleID
}

// Sweep removes every click whose attribution window elapsed before now.
// Cost is proportional to the number of expired entries, not pool size.
func (s *ClickStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := now.Unix()
	removed := 0
	for bucket, ids := range s.expiry {
		if bucket > cutoff {
			continue
		}
		for _, id := range ids {
			if s.removeLocked(id) {
				removed++
			}
		}
		delete(s.expiry, bucket)
	}
	s.sweepCount++
	s.evicted += int64(removed)
	return removed
}

func (s *ClickStore) removeLocked(id string) bool {
	click, ok := s.clicks[id]
	if !ok {
		return false
	}
	delete(s.clicks, id)
	s.byUser[click.UserID] = removeID(s.byUser[click.UserID], id)
	if len(s.byUser[click.UserID]) == 0 {
		delete(s.byUser, click.UserID)
	}
	if click.IPAddress != "" {
		key := click.UserID + "|" + click.IPAddress
		s.byIP[key] = removeID(s.byIP[key], id)
		if len(s.byIP[key]) == 0 {
			delete(s.byIP, key)
		}
	}
	if click.TrackerID != "" {
		key := click.UserID + "|" + click.TrackerID
		if s.byTracker[key] == id {
			delete(s.byTracker, key)
		}
	}
	if click.Fingerprint != "" {
		key := click.UserID + "|" + click.Fingerprint
		s.byFingerprint[key] = removeID(s.byFingerprint[key], id)
		if len(s.byFingerprint[key]) == 0 {
			delete(s.byFingerprint, key)
		}
	}
	return true
}

// Run executes the periodic sweep until context cancellation.
func (s *ClickStore) Run(ctx context.Context, logger *slog.Logger) {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			removed := s.Sweep(now.UTC())
			if removed > 0 && logger != nil {
				logger.DebugContext(ctx, "click store swept",
					"module", "engine.clickstore",
					"operation", "sweep",
					"outcome", "success",
					"removed", removed,
				)
			}
		}
	}
}

// Stats returns the introspection snapshot for dashboards.
func (s *ClickStore) Stats() domain.ClickStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := domain.ClickStats{
		TrackedClicks: len(s.clicks),
		UsersIndexed:  len(s.byUser),
		SweepCount:    s.sweepCount,
		EvictedClicks: s.evicted,
	}
	for _, click := range s.clicks {
		if click.Attributed {
			stats.AttributedClicks++
		}
		if stats.OldestClickAt.IsZero() || click.ClickedAt.Before(stats.OldestClickAt) {
			stats.OldestClickAt = click.ClickedAt
		}
	}
	return stats
}

func appendBounded(ids []string, id string, max int) []string {
	ids = append(ids, id)
	if len(ids) > max {
		ids = ids[len(ids)-max:]
	}
	return ids
}

func removeID(ids []string, id string) []string {
	for i, candidate := range ids {
		if candidate == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
