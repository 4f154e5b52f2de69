package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/pkordes/belatedly/internal/importer"
)

var previewCmd = &cobra.Command{
	Use:   "preview <file>",
	Short: "Show the drafts an import file would stage",
	Long: `Parse a .csv or .ics file the way POST /import does and print the
drafts it yields. Nothing is sent to the calendar.

Rows without a readable date are shown with an empty date; they cannot be
imported until the date is fixed.

Example:
  belatedly preview contacts.csv
  belatedly preview --max-rows 500 birthdays.ics`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		maxRows, _ := cmd.Flags().GetInt("max-rows")

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		rows, err := importer.Rows(filepath.Base(args[0]), f)
		if err != nil {
			return err
		}
		drafts, err := importer.Drafts(rows, maxRows, time.Now())
		if err != nil {
			return err
		}
		if len(drafts) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No rows found.")
			return nil
		}
		return renderDrafts(cmd.OutOrStdout(), drafts)
	},
}

func init() {
	previewCmd.Flags().Int("max-rows", 100, "read at most this many rows")
}
