package commands

import (
	"fmt"
	"io"

	"github.com/WilliamsRotolo/autocaricamento/config"
	"github.com/WilliamsRotolo/autocaricamento/helpers"
	"github.com/WilliamsRotolo/autocaricamento/internal/crawler"
	"github.com/WilliamsRotolo/autocaricamento/logger"
	"github.com/WilliamsRotolo/autocaricamento/services/cache"
	"github.com/WilliamsRotolo/autocaricamento/services/publisher"
)

const (
	cachePrefix  = "autocaricamento:"
	rateLimitKey = "rotoloautomobili"
)

// Services holds all the initialized services
type Services struct {
	Cache     cache.CacheService
	Publisher publisher.Publisher
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.Publisher != nil {
		if err := s.Publisher.Close(); err != nil {
			logger.ForPublisher().Warn().Err(err).Msg("Failed to close publisher")
		}
	}
}

// initializeServices connects the optional cache and the publisher.
// An unreachable memcached only disables the rate-limit block.
func initializeServices(cfg *config.Config, withPublisher bool) (*Services, error) {
	services := &Services{Publisher: publisher.NopPublisher{}}

	if cfg.MemcacheAddr != "" {
		cacheService := cache.NewMemcacheService(cfg.MemcacheAddr, cachePrefix)
		if err := cacheService.Ping(); err != nil {
			logger.ForCache().Warn().Err(err).Str("addr", cfg.MemcacheAddr).Msg("Memcache unavailable, rate limit block disabled")
		} else {
			services.Cache = cacheService
			logger.LogInfo("cache", "Connected to Memcache at %s", cfg.MemcacheAddr)
		}
	}

	if withPublisher {
		pub, err := publisher.New(cfg)
		if err != nil {
			return nil, err
		}
		services.Publisher = pub
		logger.LogInfo("publisher", "Publishing crawl results with %s", cfg.Publisher)
	}

	return services, nil
}

// newSectionCrawler wires the configured fetch backend, behind the cache
// block when a cache is available
func newSectionCrawler(cfg *config.Config, services *Services) (*crawler.SectionCrawler, error) {
	fetcher, err := crawler.NewPageFetcher(cfg)
	if err != nil {
		return nil, err
	}
	if services != nil && services.Cache != nil {
		fetcher = crawler.NewCachedFetcher(fetcher, services.Cache, cache.RateLimitKey(rateLimitKey), cfg.RateLimitBlock)
	}
	return crawler.NewSectionCrawler(cfg, fetcher), nil
}

// newTraceSink writes progress lines to out and to the crawl log file
func newTraceSink(cfg *config.Config, out io.Writer) helpers.LogSink {
	var file helpers.LogSink
	if cfg.CrawlLogFile != "" {
		file = helpers.NewFileLog(cfg.CrawlLogFile)
	}
	console := helpers.LogSinkFunc(func(line string) {
		fmt.Fprintln(out, line)
	})
	return helpers.Tee(console, file)
}
