package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/formulaspark/formulaspark/pkg/ollama"
)

func newModelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List models available at the configured endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			client := ollama.New(cfg.OllamaBaseURL, cfg.Timeout, logger)
			list, err := client.Models(cmd.Context())
			if err != nil {
				return fmt.Errorf("list models: %w", err)
			}
			if len(list) == 0 {
				fmt.Println("No models found.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSIZE\tMODIFIED")
			for _, m := range list {
				fmt.Fprintf(w, "%s\t%s\t%s\n", m.Name, formatSize(m.Size), m.ModifiedAt.Format("2006-01-02"))
			}
			return w.Flush()
		},
	}
}

func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGT"[exp])
}
