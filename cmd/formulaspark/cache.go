package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/formulaspark/formulaspark/pkg/cache"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the formula result cache",
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := cache.New(cfg.Cache.Path, cfg.Cache.TTL, logger)
			if err != nil {
				return err
			}
			stats := store.Stats()
			fmt.Printf("Entries: %d\nHits:    %d\nMisses:  %d\n", stats.Entries, stats.Hits, stats.Misses)
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear all cached formulas",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := cache.New(cfg.Cache.Path, cfg.Cache.TTL, logger)
			if err != nil {
				return err
			}
			if err := store.Clear(); err != nil {
				return err
			}
			fmt.Println("All cache entries cleared.")
			return nil
		},
	}

	cmd.AddCommand(statsCmd, clearCmd)
	return cmd
}
