package worker

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/WilliamsRotolo/autocaricamento/helpers"
	"github.com/WilliamsRotolo/autocaricamento/internal/crawler"
	"github.com/WilliamsRotolo/autocaricamento/logger"
	crawlerrors "github.com/WilliamsRotolo/autocaricamento/pkg/errors"
	"github.com/WilliamsRotolo/autocaricamento/services/publisher"

	"github.com/google/uuid"
)

// MessageKey names the published crawl result
const MessageKey = "b64_listings"

// Runner performs one full crawl
type Runner interface {
	Run(ctx context.Context, sink helpers.LogSink) ([]crawler.Listing, error)
}

var _ Runner = (*crawler.Aggregator)(nil)

// CrawlResult is the payload published after every crawl
type CrawlResult struct {
	RunID     uuid.UUID         `json:"run_id"`
	CrawledAt time.Time         `json:"crawled_at"`
	Total     int               `json:"total"`
	Listings  []crawler.Listing `json:"listings"`
}

// Worker runs crawls and hands the results to a publisher
type Worker struct {
	runner        Runner
	publisher     publisher.Publisher
	sink          helpers.LogSink
	crawlInterval time.Duration
	now           func() time.Time
}

// NewWorker creates a new worker. A crawlInterval of zero means Start
// returns after a single crawl.
func NewWorker(
	runner Runner,
	pub publisher.Publisher,
	sink helpers.LogSink,
	crawlInterval time.Duration,
) *Worker {
	if pub == nil {
		pub = publisher.NopPublisher{}
	}
	return &Worker{
		runner:        runner,
		publisher:     pub,
		sink:          sink,
		crawlInterval: crawlInterval,
		now:           time.Now,
	}
}

// Start runs crawls until ctx is canceled, or once when no interval is set
func (w *Worker) Start(ctx context.Context) error {
	log := logger.ForWorker()

	for {
		start := w.now()
		result, err := w.RunOnce(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Error().Err(err).Msg("Crawl failed")
			if crawlerrors.IsType(err, crawlerrors.ErrorTypeConfiguration) {
				return err
			}
		} else if os.Getenv("AUTOCARICAMENTO_ENVIRONMENT") != "production" {
			log.Info().
				Str("run_id", result.RunID.String()).
				Dur("elapsed", w.now().Sub(start)).
				Msg("Crawl finished")
		}

		if w.crawlInterval <= 0 {
			return err
		}

		timer := time.NewTimer(w.crawlInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// RunOnce crawls, publishes the result and trims the streams
func (w *Worker) RunOnce(ctx context.Context) (*CrawlResult, error) {
	listings, err := w.runner.Run(ctx, w.sink)
	if err != nil {
		return nil, err
	}
	if crawler.HasPositionConflicts(listings) {
		logger.ForWorker().Warn().Int("listings", len(listings)).Msg("Duplicate positions, renumbering")
		crawler.Renumber(listings)
	}

	result := &CrawlResult{
		RunID:     uuid.New(),
		CrawledAt: w.now().UTC(),
		Total:     len(listings),
		Listings:  listings,
	}
	if result.Listings == nil {
		result.Listings = []crawler.Listing{}
	}

	if err := w.publish(ctx, result); err != nil {
		return result, err
	}
	return result, nil
}

func (w *Worker) publish(ctx context.Context, result *CrawlResult) error {
	log := logger.ForWorker()

	data, err := json.Marshal(result)
	if err != nil {
		return crawlerrors.NewPublisher("failed to encode crawl result", err)
	}

	if err := w.publisher.Publish(ctx, MessageKey, data); err != nil {
		return err
	}

	// Trim the streams after publishing
	if err := w.publisher.TrimStreams(ctx); err != nil {
		log.Warn().Err(err).Msg("Stream trimming failed")
	}

	log.Info().
		Str("run_id", result.RunID.String()).
		Int("total", result.Total).
		Int("bytes", len(data)).
		Msg("Crawl result published")

	if logger.IsDebugEnabled() && len(result.Listings) > 0 {
		// Log only the first listing, without the image URL
		sample := result.Listings[0]
		if sample.Image != "" {
			sample.Image = "OK"
		}
		sampleData, _ := json.Marshal(sample)
		log.Debug().RawJSON("listing", sampleData).Msg("Sample listing")
	}
	return nil
}
