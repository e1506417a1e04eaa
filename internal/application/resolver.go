package application

import (
	"context"
	"time"

	"github.com/viralforge/attribution-engine/internal/domain"
)

// exactMatch is the resolver's single authoritative candidate for a sale.
type exactMatch struct {
	click     domain.ClickEvent
	link      *domain.TrackedLink
	tier      string
	matchType string
	score     float64
}

// resolveExactMatch walks Tier 1 (in-process) -> Tier 2 (redis) -> Tier 3
// (database) in strict cost order and stops at the first qualifying hit.
// Tier errors and timeouts degrade to a miss at that tier; this function
// never fails a sale. Returns nil when no exact match exists anywhere.
func (s *Service) resolveExactMatch(ctx context.Context, sale domain.SaleEvent, signals domain.SaleSignals, window time.Duration) *exactMatch {
	now := s.nowFn()

	// Tier 1: warm in-memory pool. The overwhelming majority of sales
	// resolve here.
	if s.clickStore != nil {
		if matches := s.clickStore.FindMatchingClicks(sale.UserID, sale.CreatedAt, signals); len(matches) > 0 {
			best := matches[0]
			match := &exactMatch{
				click:     s.hydrateClick(ctx, best.Click),
				tier:      domain.TierEngine,
				matchType: best.MatchType,
				score:     best.Score,
			}
			match.link = s.hydrateLink(ctx, match.click.LinkID)
			s.markAttributedEverywhere(ctx, match.click.ID, sale.ID, now)
			return match
		}
	}

	// Tier 2: shared cache. Tracker first, it is a single deterministic slot
	// and skips the general multi-signal query.
	if s.cache != nil {
		cacheCtx, cancel := context.WithTimeout(ctx, s.cfg.TierTimeout)
		defer cancel()

		if signals.TrackerID != "" {
			click, found, err := s.cache.FindByTracker(cacheCtx, sale.UserID, signals.TrackerID, sale.CreatedAt, window)
			if err != nil {
				s.logTierMiss(ctx, domain.TierRedis, "find_by_tracker", err)
			} else if found {
				match := &exactMatch{
					click:     s.hydrateClick(ctx, click),
					tier:      domain.TierRedis,
					matchType: domain.MatchTypeTracker,
					score:     domain.StrategyScoreTracker,
				}
				match.link = s.hydrateLink(ctx, match.click.LinkID)
				s.markAttributedEverywhere(ctx, match.click.ID, sale.ID, now)
				return match
			}
		}

		matches, err := s.cache.FindBySignals(cacheCtx, sale.UserID, sale.CreatedAt, signals, window)
		if err != nil {
			s.logTierMiss(ctx, domain.TierRedis, "find_by_signals", err)
		} else if len(matches) > 0 {
			best := matches[0]
			match := &exactMatch{
				click:     s.hydrateClick(ctx, best.Click),
				tier:      domain.TierRedis,
				matchType: best.MatchType,
				score:     best.Score,
			}
			match.link = s.hydrateLink(ctx, match.click.LinkID)
			s.markAttributedEverywhere(ctx, match.click.ID, sale.ID, now)
			return match
		}
	}

	// Tier 3: durable store, the correctness backstop for cold starts and
	// clicks recorded by other instances before the cache warmed.
	if s.clicks != nil {
		dbCtx, cancel := context.WithTimeout(ctx, s.cfg.TierTimeout)
		defer cancel()

		if signals.IPAddress != "" {
			clicks, err := s.clicks.FindByIPWithinWindow(dbCtx, sale.UserID, signals.IPAddress, sale.CreatedAt, window)
			if err != nil {
				s.logTierMiss(ctx, domain.TierDatabase, "find_by_ip", err)
			} else if len(clicks) > 0 {
				match := &exactMatch{
					click:     clicks[0],
					tier:      domain.TierDatabase,
					matchType: domain.MatchTypeIP,
					score:     domain.StrategyScoreIP,
				}
				match.link = s.hydrateLink(ctx, match.click.LinkID)
				s.markAttributedEverywhere(ctx, match.click.ID, sale.ID, now)
				return match
			}
		}
		if signals.Country != "" && signals.City != "" {
			clicks, err := s.clicks.FindByGeoWithinWindow(dbCtx, sale.UserID, signals.Country, signals.City, sale.CreatedAt, window)
			if err != nil {
				s.logTierMiss(ctx, domain.TierDatabase, "find_by_geo", err)
			} else if len(clicks) > 0 {
				match := &exactMatch{
					click:     clicks[0],
					tier:      domain.TierDatabase,
					matchType: domain.MatchTypeGeo,
					score:     domain.StrategyScoreGeo,
				}
				match.link = s.hydrateLink(ctx, match.click.LinkID)
				s.markAttributedEverywhere(ctx, match.click.ID, sale.ID, now)
				return match
			}
		}
	}

	return nil
}

// hydrateClick prefers the durable record over the index copy; the cached
// copy is authoritative enough when the durable store is unreachable.
func (s *Service) hydrateClick(ctx context.Context, click domain.ClickEvent) domain.ClickEvent {
	if s.clicks == nil || click.ID == "" {
		return click
	}
	hydrateCtx, cancel := context.WithTimeout(ctx, s.cfg.TierTimeout)
	defer cancel()
	full, err := s.clicks.GetByID(hydrateCtx, click.ID)
	if err != nil {
		return click
	}
	return full
}

func (s *Service) hydrateLink(ctx context.Context, linkID string) *domain.TrackedLink {
	if s.links == nil || linkID == "" {
		return nil
	}
	hydrateCtx, cancel := context.WithTimeout(ctx, s.cfg.TierTimeout)
	defer cancel()
	link, err := s.links.GetByID(hydrateCtx, linkID)
	if err != nil {
		return nil
	}
	return &link
}

// markAttributedEverywhere flips the attributed flag across all tiers so no
// other sale can claim this click. Each tier is best-effort.
func (s *Service) markAttributedEverywhere(ctx context.Context, clickID, saleID string, at time.Time) {
	if s.clickStore != nil {
		s.clickStore.MarkAttributed(clickID, saleID)
	}
	if s.cache != nil {
		markCtx, cancel := context.WithTimeout(ctx, s.cfg.TierTimeout)
		if err := s.cache.MarkAttributed(markCtx, clickID, saleID); err != nil {
			s.logTierMiss(ctx, domain.TierRedis, "mark_attributed", err)
		}
		cancel()
	}
	if s.clicks != nil {
		markCtx, cancel := context.WithTimeout(ctx, s.cfg.TierTimeout)
		if err := s.clicks.MarkAttributed(markCtx, clickID, saleID, at); err != nil {
			s.logTierMiss(ctx, domain.TierDatabase, "mark_attributed", err)
		}
		cancel()
	}
}

func (s *Service) logTierMiss(ctx context.Context, tier, operation string, err error) {
	s.logger.WarnContext(ctx, "tier degraded to miss",
		"module", "resolver",
		"operation", operation,
		"outcome", "degraded",
		"tier", tier,
		"error", err.Error(),
	)
}
