package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/formulaspark/formulaspark/pkg/formula"
	"github.com/formulaspark/formulaspark/pkg/history"
	"github.com/formulaspark/formulaspark/pkg/models"
)

func newHistoryCmd() *cobra.Command {
	var (
		limit  int
		search string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past generations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := history.New(cfg.History.Path, cfg.History.Limit)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			var entries []models.HistoryEntry
			if search != "" {
				entries, err = store.Search(cmd.Context(), search, limit)
			} else {
				entries, err = store.Recent(cmd.Context(), limit)
			}
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("No history entries found.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCREATED\tMODEL\tSHEET\tPROMPT\tFORMULA")
			for _, e := range entries {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
					e.ID, e.CreatedAt.Format("2006-01-02 15:04"), e.Model, e.Sheet,
					formula.Truncate(e.Prompt, 40), formula.Truncate(e.Formula, 40))
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum entries to show")
	cmd.Flags().StringVar(&search, "search", "", "filter by prompt or formula text")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all history entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := history.New(cfg.History.Path, cfg.History.Limit)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()
			if err := store.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("History cleared.")
			return nil
		},
	}
	cmd.AddCommand(clearCmd)
	return cmd
}
