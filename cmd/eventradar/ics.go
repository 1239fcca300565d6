package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"EventRadar/internal/calendar"
	"EventRadar/internal/infrastructure/storage"
)

var (
	icsDays int
	icsOut  string
)

var icsCmd = &cobra.Command{
	Use:   "ics",
	Short: "Export upcoming occurrences as iCalendar",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := storage.Open(cmd.Context(), cfg.Database.DSN)
		if err != nil {
			return err
		}
		defer db.Close()

		now := time.Now().UTC()
		occs, err := storage.NewOccurrenceStore(db).Query(cmd.Context(), now, now.Add(time.Duration(icsDays)*24*time.Hour), nil)
		if err != nil {
			return err
		}
		body := calendar.Export(occs, now)
		if icsOut == "" || icsOut == "-" {
			_, err = fmt.Fprint(cmd.OutOrStdout(), body)
			return err
		}
		return os.WriteFile(icsOut, []byte(body), 0o644)
	},
}

func init() {
	icsCmd.Flags().IntVar(&icsDays, "days", 14, "horizon in days")
	icsCmd.Flags().StringVarP(&icsOut, "output", "o", "-", "output file")
}
