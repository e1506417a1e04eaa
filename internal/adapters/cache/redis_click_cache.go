package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/viralforge/attribution-engine/internal/domain"
)

// Per-index candidate cap. Index lists are LTrimmed so a click-storm on one
// signal cannot grow a key without bound.
const maxIndexEntries = 50

// RedisClickCache implements the shared Tier 2 click pool. Clicks are stored
// as JSON blobs keyed by ID; per-signal index lists point back at them. All
// keys carry the attribution-window TTL so expiry needs no sweeper.
type RedisClickCache struct {
	client *redis.Client
}

// NewRedisClickCache creates a click cache backed by Redis.
func NewRedisClickCache(client *redis.Client) *RedisClickCache {
	return &RedisClickCache{client: client}
}

func clickKey(clickID string) string { return "attr:click:" + clickID }

func trackerKey(userID, trackerID string) string {
	return "attr:tracker:" + userID + ":" + trackerID
}

func ipKey(userID, ip string) string { return "attr:ip:" + userID + ":" + ip }

func fingerprintKey(userID, fingerprint string) string {
	return "attr:fp:" + userID + ":" + fingerprint
}

func geoKey(userID, country, city string) string {
	return "attr:geo:" + userID + ":" + country + ":" + city
}

func (c *RedisClickCache) RecordClick(ctx context.Context, click domain.ClickEvent, ttl time.Duration) error {
	raw, err := json.Marshal(click)
	if err != nil {
		return fmt.Errorf("marshal click %s: %w", click.ID, err)
	}

	_, err = c.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, clickKey(click.ID), raw, ttl)
		if click.TrackerID != "" {
			// Single slot, latest wins: a tracker ID identifies one redirect.
			p.Set(ctx, trackerKey(click.UserID, click.TrackerID), click.ID, ttl)
		}
		indexes := make([]string, 0, 3)
		if click.IPAddress != "" {
			indexes = append(indexes, ipKey(click.UserID, click.IPAddress))
		}
		if click.Fingerprint != "" {
			indexes = append(indexes, fingerprintKey(click.UserID, click.Fingerprint))
		}
		if click.Country != "" && click.City != "" {
			indexes = append(indexes, geoKey(click.UserID, click.Country, click.City))
		}
		for _, key := range indexes {
			p.LPush(ctx, key, click.ID)
			p.LTrim(ctx, key, 0, maxIndexEntries-1)
			p.Expire(ctx, key, ttl)
		}
		return nil
	})
	return err
}

func (c *RedisClickCache) FindByTracker(ctx context.Context, userID, trackerID string, saleTime time.Time, window time.Duration) (domain.ClickEvent, bool, error) {
	clickID, err := c.client.Get(ctx, trackerKey(userID, trackerID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.ClickEvent{}, false, nil
		}
		return domain.ClickEvent{}, false, err
	}
	click, ok, err := c.loadClick(ctx, clickID)
	if err != nil || !ok {
		return domain.ClickEvent{}, false, err
	}
	if !eligible(click, saleTime, window) {
		return domain.ClickEvent{}, false, nil
	}
	return click, true, nil
}

func (c *RedisClickCache) FindBySignals(ctx context.Context, userID string, saleTime time.Time, signals domain.SaleSignals, window time.Duration) ([]domain.ClickMatch, error) {
	type strategy struct {
		key       string
		matchType string
		score     float64
	}
	strategies := make([]strategy, 0, 3)
	if signals.IPAddress != "" {
		strategies = append(strategies, strategy{ipKey(userID, signals.IPAddress), domain.MatchTypeIP, domain.StrategyScoreIP})
	}
	if signals.Fingerprint != "" {
		strategies = append(strategies, strategy{fingerprintKey(userID, signals.Fingerprint), domain.MatchTypeFingerprint, domain.StrategyScoreFingerprint})
	}
	if signals.Country != "" && signals.City != "" {
		strategies = append(strategies, strategy{geoKey(userID, signals.Country, signals.City), domain.MatchTypeGeo, domain.StrategyScoreGeo})
	}

	var matches []domain.ClickMatch
	for _, s := range strategies {
		clickIDs, err := c.client.LRange(ctx, s.key, 0, maxIndexEntries-1).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return nil, err
		}
		for _, clickID := range clickIDs {
			click, ok, err := c.loadClick(ctx, clickID)
			if err != nil {
				return nil, err
			}
			if !ok || !eligible(click, saleTime, window) {
				continue
			}
			matches = append(matches, domain.ClickMatch{
				Click:     click,
				MatchType: s.matchType,
				Score:     s.score,
			})
			// Index lists are newest-first; the head eligible click is the
			// strategy's best candidate.
			break
		}
	}
	return matches, nil
}

func (c *RedisClickCache) MarkAttributed(ctx context.Context, clickID, saleID string) error {
	click, ok, err := c.loadClick(ctx, clickID)
	if err != nil || !ok {
		return err
	}
	click.Attributed = true
	click.SaleID = saleID
	raw, err := json.Marshal(click)
	if err != nil {
		return fmt.Errorf("marshal click %s: %w", clickID, err)
	}
	return c.client.Set(ctx, clickKey(clickID), raw, redis.KeepTTL).Err()
}

func (c *RedisClickCache) loadClick(ctx context.Context, clickID string) (domain.ClickEvent, bool, error) {
	raw, err := c.client.Get(ctx, clickKey(clickID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.ClickEvent{}, false, nil
		}
		return domain.ClickEvent{}, false, err
	}
	var click domain.ClickEvent
	if err := json.Unmarshal([]byte(raw), &click); err != nil {
		return domain.ClickEvent{}, false, fmt.Errorf("unmarshal click %s: %w", clickID, err)
	}
	return click, true, nil
}

func eligible(click domain.ClickEvent, saleTime time.Time, window time.Duration) bool {
	return !click.Attributed && !click.Inferred && domain.InWindow(click.ClickedAt, saleTime, window)
}
