package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/formulaspark/formulaspark/pkg/formula"
	"github.com/formulaspark/formulaspark/pkg/workbook"
)

func newHeadersCmd() *cobra.Command {
	var (
		workbookPath string
		sheet        string
		saveTags     bool
	)

	cmd := &cobra.Command{
		Use:   "headers",
		Short: "Inspect a sheet's headers, columns, and suggested tags",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			wb, err := workbook.Open(workbookPath)
			if err != nil {
				return err
			}
			defer func() { _ = wb.Close() }()

			if sheet == "" {
				if names := wb.SheetNames(); len(names) > 0 {
					sheet = names[0]
				}
			}

			headers, err := wb.Headers(sheet)
			if err != nil {
				return err
			}
			if len(headers) == 0 {
				fmt.Println("No headers found.")
				return nil
			}
			refs, err := wb.HeaderColumns(sheet)
			if err != nil {
				return err
			}
			dates, err := wb.DateColumns(sheet)
			if err != nil {
				return err
			}

			// Saved tag assignments win over fresh suggestions.
			saved := cfg.HeaderTags(sheet)
			tags := make(map[string]string, len(headers))
			for _, h := range headers {
				if tag, ok := saved[h]; ok {
					tags[h] = tag
				} else {
					tags[h] = formula.SmartTag(h)
				}
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "HEADER\tCOLUMN\tRANGE\tTAG\tDATE")
			for _, h := range headers {
				ref := refs[h]
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", h, ref.Column, ref.Range, tags[h], dates[h])
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if saveTags {
				cfg.SetHeaderTags(sheet, tags)
				if err := cfg.Save(configPath); err != nil {
					return fmt.Errorf("save config: %w", err)
				}
				fmt.Printf("Saved %d tags for sheet %q to %s\n", len(tags), sheet, configPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&workbookPath, "workbook", "", "xlsx workbook to inspect")
	cmd.Flags().StringVar(&sheet, "sheet", "", "sheet name (default: first sheet)")
	cmd.Flags().BoolVar(&saveTags, "save-tags", false, "persist the tag assignments to the config file")
	_ = cmd.MarkFlagRequired("workbook")
	return cmd
}
