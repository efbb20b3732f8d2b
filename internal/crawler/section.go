package crawler

import (
	"context"
	"net/url"
	"time"

	"github.com/WilliamsRotolo/autocaricamento/config"
	"github.com/WilliamsRotolo/autocaricamento/helpers"
	"github.com/WilliamsRotolo/autocaricamento/logger"
	crawlerrors "github.com/WilliamsRotolo/autocaricamento/pkg/errors"
)

// Options controls pacing, retries and stopping of a section crawl
type Options struct {
	MaxAttempts   int
	RetryDelay    time.Duration
	PageDelay     time.Duration
	PageJitter    time.Duration
	MaxEmptyPages int
	MaxPages      int
}

// DefaultOptions returns the options used against the live site
func DefaultOptions() Options {
	return Options{
		MaxAttempts:   3,
		RetryDelay:    2 * time.Second,
		PageDelay:     1500 * time.Millisecond,
		PageJitter:    500 * time.Millisecond,
		MaxEmptyPages: 2,
		MaxPages:      50,
	}
}

// OptionsFromConfig reads the crawl options out of cfg
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		MaxAttempts:   cfg.MaxAttempts,
		RetryDelay:    cfg.RetryDelay,
		PageDelay:     cfg.PageDelay,
		PageJitter:    cfg.PageJitter,
		MaxEmptyPages: cfg.MaxEmptyPages,
		MaxPages:      cfg.MaxPages,
	}
}

// SectionCrawler walks the pages of one section sequentially
type SectionCrawler struct {
	BaseURL  string
	Parser   *CardParser
	Fetcher  PageFetcher
	Throttle Throttle
	Options  Options
}

// NewSectionCrawler creates a crawler for the site configured in cfg
func NewSectionCrawler(cfg *config.Config, fetcher PageFetcher) *SectionCrawler {
	return &SectionCrawler{
		BaseURL:  cfg.BaseURL,
		Parser:   NewCardParser(cfg.BaseURL, cfg.ImageOrigin),
		Fetcher:  fetcher,
		Throttle: SleepThrottle{},
		Options:  OptionsFromConfig(cfg),
	}
}

// Crawl collects the listings of one section in the order they are found.
// Fetch failures are retried, then counted as empty pages; only an unknown
// category or a canceled context is returned as an error.
func (c *SectionCrawler) Crawl(ctx context.Context, id CategoryID, sink helpers.LogSink) ([]Listing, error) {
	section, err := Section(id)
	if err != nil {
		return nil, err
	}

	log := logger.ForSection(string(id))
	parser := c.parser()
	target := section.URL(c.BaseURL)
	maxEmpty := max(c.Options.MaxEmptyPages, 1)

	var listings []Listing
	seen := make(map[string]bool)
	emptyPages := 0

	for page := 1; ; page++ {
		helpers.Logf(sink, "[%s] Page %d...", id, page)

		doc, err := c.fetchDocument(ctx, id, target, section.Params(page))
		if err != nil {
			if ctx.Err() != nil {
				return listings, ctx.Err()
			}
			emptyPages++
			helpers.Logf(sink, "[%s] Error on page %d: %v", id, page, err)
			log.Warn().Err(err).Int("page", page).Int("empty_pages", emptyPages).Msg("Page failed")
			if emptyPages >= maxEmpty {
				helpers.Logf(sink, "[%s] %d consecutive pages without new listings. Stopping.", id, emptyPages)
				break
			}
		} else {
			fresh := 0
			for _, listing := range parser.ParseDocument(doc) {
				if seen[listing.Link] {
					continue
				}
				seen[listing.Link] = true
				listing.Category = id
				listings = append(listings, listing)
				fresh++
			}

			if fresh == 0 {
				emptyPages++
				helpers.Logf(sink, "[%s] Page %d empty (count=%d)", id, page, emptyPages)
				log.Debug().Int("page", page).Int("empty_pages", emptyPages).Msg("No new listings")
				if emptyPages >= maxEmpty {
					helpers.Logf(sink, "[%s] %d consecutive pages without new listings. Stopping.", id, emptyPages)
					break
				}
			} else {
				emptyPages = 0
				helpers.Logf(sink, "[%s] Page %d: %d listings found", id, page, fresh)
				log.Debug().Int("page", page).Int("found", fresh).Msg("Parsed page")
			}

			if !hasNextPage(doc, parser.Selectors, page) {
				helpers.Logf(sink, "[%s] No next page after page %d. Done.", id, page)
				break
			}
		}

		if c.Options.MaxPages > 0 && page >= c.Options.MaxPages {
			helpers.Logf(sink, "[%s] Reached the limit of %d pages. Stopping.", id, c.Options.MaxPages)
			log.Info().Int("max_pages", c.Options.MaxPages).Msg("Page ceiling reached")
			break
		}

		if err := c.throttle().Wait(ctx, c.Options.PageDelay, c.Options.PageJitter); err != nil {
			return listings, err
		}
	}

	log.Info().Int("listings", len(listings)).Msg("Section crawled")
	return listings, nil
}

// fetchDocument fetches and parses one page, retrying transient failures
// with a delay of attempt × RetryDelay between attempts
func (c *SectionCrawler) fetchDocument(ctx context.Context, id CategoryID, target string, params url.Values) (MarkupNode, error) {
	attempts := max(c.Options.MaxAttempts, 1)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		html, err := c.Fetcher.FetchPage(ctx, target, params)
		if err == nil {
			doc, parseErr := ParseMarkup(html)
			if parseErr != nil {
				return nil, crawlerrors.NewParsing(string(id), "failed to parse page", parseErr)
			}
			return doc, nil
		}

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
		if !crawlerrors.IsRetryable(err) {
			break
		}

		if attempt < attempts {
			logger.ForSection(string(id)).Debug().
				Err(err).
				Int("attempt", attempt).
				Msg("Retrying page fetch")
			if err := c.throttle().Wait(ctx, time.Duration(attempt)*c.Options.RetryDelay, 0); err != nil {
				return nil, err
			}
		}
	}
	return nil, lastErr
}

func (c *SectionCrawler) parser() *CardParser {
	if c.Parser != nil {
		return c.Parser
	}
	return NewCardParser(c.BaseURL, "")
}

func (c *SectionCrawler) throttle() Throttle {
	if c.Throttle != nil {
		return c.Throttle
	}
	return SleepThrottle{}
}
