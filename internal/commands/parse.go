package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/WilliamsRotolo/autocaricamento/internal/crawler"
	crawlerrors "github.com/WilliamsRotolo/autocaricamento/pkg/errors"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(nextCmd)
}

func readPage(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

var parseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Extracts the listings from a saved listing page.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkFormat(outputFormat); err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		page, err := readPage(args[0])
		if err != nil {
			return err
		}

		parser := crawler.NewCardParser(cfg.BaseURL, cfg.ImageOrigin)
		return renderListings(cmd.OutOrStdout(), outputFormat, parser.Parse(page))
	},
}

var nextCmd = &cobra.Command{
	Use:   "next <file> <page>",
	Short: "Reports whether a saved listing page links to the following page.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkFormat(outputFormat); err != nil {
			return err
		}
		current, err := strconv.Atoi(args[1])
		if err != nil || current < 1 {
			return crawlerrors.NewValidation("", fmt.Sprintf("page must be a positive number, got %q", args[1]))
		}
		page, err := readPage(args[0])
		if err != nil {
			return err
		}

		check := pageCheck{Page: current, HasNext: crawler.HasNextPage(page, current)}
		return renderPageCheck(cmd.OutOrStdout(), outputFormat, check)
	},
}
