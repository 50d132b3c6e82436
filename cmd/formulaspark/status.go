package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/formulaspark/formulaspark/pkg/cache"
	"github.com/formulaspark/formulaspark/pkg/history"
	"github.com/formulaspark/formulaspark/pkg/ollama"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check endpoint reachability, cache, and history health",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			client := ollama.New(cfg.OllamaBaseURL, cfg.Timeout, logger)
			ctx := cmd.Context()

			// Probe reachability and the model list concurrently; both
			// results matter even if one fails.
			var (
				pingErr   error
				available []ollama.Model
				modelsErr error
			)
			g := new(errgroup.Group)
			g.Go(func() error {
				pingErr = client.Ping(ctx)
				return nil
			})
			g.Go(func() error {
				available, modelsErr = client.Models(ctx)
				return nil
			})
			_ = g.Wait()

			state := "ONLINE"
			if pingErr != nil {
				state = "OFFLINE"
			}
			fmt.Printf("Endpoint: %s  [%s]\n", cfg.OllamaBaseURL, state)
			if modelsErr == nil {
				fmt.Printf("Models:   %d available\n", len(available))
			}

			if cfg.Cache.Enabled {
				store, err := cache.New(cfg.Cache.Path, cfg.Cache.TTL, logger)
				if err != nil {
					fmt.Printf("Cache:    unavailable (%v)\n", err)
				} else {
					fmt.Printf("Cache:    %d entries (%s)\n", store.Stats().Entries, cfg.Cache.Path)
				}
			} else {
				fmt.Println("Cache:    disabled")
			}

			hist, err := history.New(cfg.History.Path, cfg.History.Limit)
			if err != nil {
				fmt.Printf("History:  unavailable (%v)\n", err)
				return nil
			}
			defer func() { _ = hist.Close() }()
			n, err := hist.Count(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("History:  %d entries (%s)\n", n, cfg.History.Path)
			return nil
		},
	}
}
