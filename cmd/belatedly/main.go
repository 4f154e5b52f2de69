// Package main is the belatedly command-line client. It signs in, lists
// upcoming dates and previews import files without starting the server.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pkordes/belatedly/internal/config"
	"github.com/pkordes/belatedly/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "belatedly",
	Short: "Keep birthdays and anniversaries in your calendar",
	Long: `belatedly stores yearly dates as all-day recurring events in a
Microsoft or Google calendar.

Configuration comes from the same environment variables as the API server
(CALENDAR_PROVIDER, OAUTH_CLIENT_ID, TOKEN_FILE, ...), optionally layered
over the YAML file named by CONFIG_FILE.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(loginCmd, upcomingCmd, previewCmd)
}

// mustConfig loads the configuration, exiting with the problem list.
func mustConfig() config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// cliLogger writes warnings and errors to stderr so they never mix with the
// table on stdout.
func cliLogger(cfg config.Config) logging.Options {
	level := cfg.LogLevel
	if level == "" || level == "info" {
		level = "warn"
	}
	return logging.Options{Level: level, File: cfg.LogFile, Stdout: os.Stderr}
}
