package commands

import (
	"github.com/WilliamsRotolo/autocaricamento/internal/crawler"
	"github.com/WilliamsRotolo/autocaricamento/logger"
	"github.com/WilliamsRotolo/autocaricamento/services/worker"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Crawls every section, publishes the result and prints the listings.",
	Long: "Crawls every section, publishes the result and prints the listings.\n" +
		"With CRAWL_INTERVAL_SECONDS set the crawl repeats until interrupted\n" +
		"and nothing is printed.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkFormat(outputFormat); err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		services, err := initializeServices(cfg, true)
		if err != nil {
			return err
		}
		defer services.Cleanup()

		sections, err := newSectionCrawler(cfg, services)
		if err != nil {
			return err
		}
		aggregator := crawler.NewAggregator(sections, cfg.ShuffleSeed)
		sink := newTraceSink(cfg, cmd.ErrOrStderr())
		w := worker.NewWorker(aggregator, services.Publisher, sink, cfg.CrawlInterval)

		logger.ForWorker().Info().
			Str("environment", cfg.Environment).
			Str("fetch_backend", cfg.FetchBackend).
			Str("publisher", cfg.Publisher).
			Dur("crawl_interval", cfg.CrawlInterval).
			Msg("Starting crawl")

		if cfg.CrawlInterval > 0 {
			return w.Start(cmd.Context())
		}

		result, err := w.RunOnce(cmd.Context())
		if err != nil && result == nil {
			return err
		}
		if renderErr := renderListings(cmd.OutOrStdout(), outputFormat, result.Listings); renderErr != nil {
			return renderErr
		}
		return err
	},
}
