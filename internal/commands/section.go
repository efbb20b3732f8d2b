package commands

import (
	"github.com/WilliamsRotolo/autocaricamento/internal/crawler"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(sectionCmd)
}

var sectionCmd = &cobra.Command{
	Use:       "section <km0|usato|outlet>",
	Short:     "Crawls a single section without publishing.",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(crawler.ZeroMileage), string(crawler.Used), string(crawler.OutletClearance)},
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkFormat(outputFormat); err != nil {
			return err
		}
		id, err := crawler.ParseCategory(args[0])
		if err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		services, err := initializeServices(cfg, false)
		if err != nil {
			return err
		}
		defer services.Cleanup()

		sections, err := newSectionCrawler(cfg, services)
		if err != nil {
			return err
		}

		listings, err := sections.Crawl(cmd.Context(), id, newTraceSink(cfg, cmd.ErrOrStderr()))
		if err != nil {
			return err
		}
		return renderListings(cmd.OutOrStdout(), outputFormat, listings)
	},
}
