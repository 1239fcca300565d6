package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"EventRadar/internal/domain"
	"EventRadar/internal/infrastructure/storage"
	"EventRadar/internal/usecase"
)

var (
	nextHours      int
	nextCategories []string
)

var nextCmd = &cobra.Command{
	Use:   "next",
	Short: "List upcoming occurrences from the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		cats := make([]domain.Category, 0, len(nextCategories))
		for _, name := range nextCategories {
			c, err := domain.ParseCategory(name)
			if err != nil {
				return err
			}
			cats = append(cats, c)
		}

		db, err := storage.Open(cmd.Context(), cfg.Database.DSN)
		if err != nil {
			return err
		}
		defer db.Close()

		occs, err := usecase.NewListing(storage.NewOccurrenceStore(db), nil, nil).List(cmd.Context(), nextHours, cats)
		if err != nil {
			return err
		}
		loc := cfg.Scheduler.Location()
		out := cmd.OutOrStdout()
		for _, occ := range occs {
			fmt.Fprintf(out, "%s  %-11s %s\n", occ.Start.In(loc).Format("2006-01-02 15:04 MST"), occ.Category, occ.Title)
		}
		if len(occs) == 0 {
			hours := nextHours
			if hours <= 0 {
				hours = usecase.DefaultListHours
			}
			fmt.Fprintf(out, "nothing in the next %dh\n", hours)
		}
		return nil
	},
}

func init() {
	nextCmd.Flags().IntVar(&nextHours, "hours", usecase.DefaultListHours, "horizon in hours")
	nextCmd.Flags().StringSliceVar(&nextCategories, "category", nil, "filter by category (repeatable)")
}
