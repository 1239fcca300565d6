package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"EventRadar/internal/timeparse"
)

var normalizeLocale string

var normalizeCmd = &cobra.Command{
	Use:   "normalize <text>",
	Short: "Show how a scraped date/time text is normalized",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		loc, err := timeparse.LocaleByName(normalizeLocale)
		if err != nil {
			return err
		}
		text := strings.Join(args, " ")
		res, ok := timeparse.Normalize(text, loc)
		if !ok {
			return fmt.Errorf("unparseable: %q", text)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", res.Instant.Format(time.RFC3339), res.Step)
		return nil
	},
}

func init() {
	normalizeCmd.Flags().StringVar(&normalizeLocale, "locale", "utc", "london|brussels|newyork|utc")
}
