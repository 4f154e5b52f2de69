package main

import (
	"github.com/spf13/cobra"

	"github.com/pkordes/belatedly/internal/app"
	"github.com/pkordes/belatedly/internal/logging"
)

var upcomingCmd = &cobra.Command{
	Use:   "upcoming",
	Short: "List dates from the calendar, soonest first",
	Long: `Load every date record from the configured calendar and print them
ordered by their next occurrence.

Example:
  belatedly upcoming
  belatedly upcoming --limit 5`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := mustConfig()
		limit, _ := cmd.Flags().GetInt("limit")

		logger, logFile := logging.New(cliLogger(cfg))
		defer logFile.Close()

		a, err := app.New(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Bootstrap(cmd.Context()); err != nil {
			return err
		}
		return renderOccurrences(cmd.OutOrStdout(), a.Records.Upcoming(), limit)
	},
}

func init() {
	upcomingCmd.Flags().IntP("limit", "n", 0, "show at most this many records (0 shows all)")
}
