package off

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/mmrshk/purio-backend/internal/domain"
)

// CachedLookup wraps an UpstreamLookup with a cache. Hits and confirmed
// not-found answers are both cached; transport failures are not, so a flaky
// upstream gets retried on the next scoring run.
type CachedLookup struct {
	next  domain.UpstreamLookup
	cache domain.CacheRepository
	ttl   time.Duration
	log   zerolog.Logger
}

// cachedScores is the stored entry shape; NotFound marks a confirmed miss.
type cachedScores struct {
	NovaGroup  int    `json:"novaGroup"`
	NutriGrade string `json:"nutriGrade"`
	NotFound   bool   `json:"notFound"`
}

// NewCachedLookup decorates next with cache. ttl 0 defaults to 24h; upstream
// scores change rarely.
func NewCachedLookup(next domain.UpstreamLookup, cache domain.CacheRepository, ttl time.Duration, log zerolog.Logger) *CachedLookup {
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &CachedLookup{next: next, cache: cache, ttl: ttl, log: log}
}

func (c *CachedLookup) ProductByBarcode(ctx context.Context, barcode string) (domain.UpstreamScores, error) {
	return c.lookup(ctx, "off:barcode:"+barcode, func() (domain.UpstreamScores, error) {
		return c.next.ProductByBarcode(ctx, barcode)
	})
}

func (c *CachedLookup) SearchByName(ctx context.Context, name string) (domain.UpstreamScores, error) {
	return c.lookup(ctx, "off:name:"+name, func() (domain.UpstreamScores, error) {
		return c.next.SearchByName(ctx, name)
	})
}

func (c *CachedLookup) lookup(ctx context.Context, key string, fetch func() (domain.UpstreamScores, error)) (domain.UpstreamScores, error) {
	if cached, err := c.cache.Get(ctx, key); err == nil {
		if scores, notFound, ok := decodeCached(cached); ok {
			if notFound {
				return domain.UpstreamScores{}, domain.ErrProductNotFound
			}
			return scores, nil
		}
		c.log.Warn().Str("key", key).Msg("unreadable cache entry, refetching")
	}

	scores, err := fetch()
	switch {
	case err == nil:
		c.store(ctx, key, cachedScores{NovaGroup: scores.NovaGroup, NutriGrade: scores.NutriGrade})
	case errors.Is(err, domain.ErrProductNotFound):
		c.store(ctx, key, cachedScores{NotFound: true})
	}
	return scores, err
}

func (c *CachedLookup) store(ctx context.Context, key string, entry cachedScores) {
	if err := c.cache.Set(ctx, key, entry, c.ttl); err != nil {
		c.log.Warn().Str("key", key).Err(err).Msg("cache write failed")
	}
}

// decodeCached restores a cachedScores from whatever shape the cache hands
// back (the in-memory cache round-trips through JSON, so values arrive as
// generic maps).
func decodeCached(value interface{}) (domain.UpstreamScores, bool, bool) {
	raw, err := json.Marshal(value)
	if err != nil {
		return domain.UpstreamScores{}, false, false
	}
	var entry cachedScores
	if err := json.Unmarshal(raw, &entry); err != nil {
		return domain.UpstreamScores{}, false, false
	}
	return domain.UpstreamScores{NovaGroup: entry.NovaGroup, NutriGrade: entry.NutriGrade}, entry.NotFound, true
}

var _ domain.UpstreamLookup = (*CachedLookup)(nil)
