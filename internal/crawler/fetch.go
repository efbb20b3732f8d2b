package crawler

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/WilliamsRotolo/autocaricamento/config"
	"github.com/WilliamsRotolo/autocaricamento/helpers"
	"github.com/WilliamsRotolo/autocaricamento/logger"
	crawlerrors "github.com/WilliamsRotolo/autocaricamento/pkg/errors"
	"github.com/WilliamsRotolo/autocaricamento/services/cache"
)

// PageFetcher retrieves the HTML of one listing page
type PageFetcher interface {
	FetchPage(ctx context.Context, target string, params url.Values) (string, error)
}

var (
	_ PageFetcher = (*helpers.HTTPFetcher)(nil)
	_ PageFetcher = (*helpers.CollyFetcher)(nil)
	_ PageFetcher = (*CachedFetcher)(nil)
)

// NewPageFetcher builds the fetcher selected by cfg.FetchBackend
func NewPageFetcher(cfg *config.Config) (PageFetcher, error) {
	switch strings.ToLower(cfg.FetchBackend) {
	case "", "http":
		return helpers.NewHTTPFetcher(cfg.UserAgent, cfg.RequestTimeout, cfg.RequestsPerSecond), nil
	case "colly":
		return helpers.NewCollyFetcher(cfg.UserAgent, cfg.RequestTimeout, cfg.RequestsPerSecond), nil
	default:
		return nil, crawlerrors.NewConfiguration(fmt.Sprintf("unknown fetch backend %q", cfg.FetchBackend), nil)
	}
}

// CachedFetcher stops sending requests for a while once the site answers
// with a rate-limit status. The block is kept in the cache so it survives
// restarts and is shared by every process using the same cache.
type CachedFetcher struct {
	Fetcher   PageFetcher
	CacheSvc  cache.CacheService
	CacheKey  string
	BlockTime time.Duration
}

// NewCachedFetcher wraps fetcher with a rate-limit block stored under key
func NewCachedFetcher(fetcher PageFetcher, cacheSvc cache.CacheService, key string, blockTime time.Duration) *CachedFetcher {
	return &CachedFetcher{
		Fetcher:   fetcher,
		CacheSvc:  cacheSvc,
		CacheKey:  key,
		BlockTime: blockTime,
	}
}

func (c *CachedFetcher) FetchPage(ctx context.Context, target string, params url.Values) (string, error) {
	if c.CacheSvc != nil && c.CacheKey != "" {
		if _, err := c.CacheSvc.Get(c.CacheKey); err == nil {
			return "", crawlerrors.NewRateLimit(c.CacheKey, c.BlockTime)
		}
	}

	body, err := c.Fetcher.FetchPage(ctx, target, params)
	if err != nil {
		if c.CacheSvc != nil && c.CacheKey != "" && crawlerrors.IsType(err, crawlerrors.ErrorTypeRateLimit) {
			value := []byte(fmt.Sprintf("%d", int(c.BlockTime/time.Second)))
			if setErr := c.CacheSvc.Set(c.CacheKey, value, c.BlockTime); setErr != nil {
				logger.ForCache().Warn().Err(setErr).Str("key", c.CacheKey).Msg("Failed to store rate limit block")
			}
		}
		return "", err
	}
	return body, nil
}
