package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/WilliamsRotolo/autocaricamento/config"
	crawlerrors "github.com/WilliamsRotolo/autocaricamento/pkg/errors"

	"github.com/spf13/cobra"
)

var outputFormat string

var rootCmd = &cobra.Command{
	Use:           "autocaricamento",
	Short:         "Crawls the dealership listing pages and publishes the vehicles found.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", formatJSON, "output format: json or table")
}

// ExecuteContext runs the command selected by os.Args
func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the environment and rejects unusable settings
func loadConfig() (*config.Config, error) {
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		return nil, crawlerrors.NewConfiguration("invalid configuration", err)
	}
	return cfg, nil
}
