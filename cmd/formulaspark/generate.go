package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/formulaspark/formulaspark/pkg/cache"
	"github.com/formulaspark/formulaspark/pkg/config"
	"github.com/formulaspark/formulaspark/pkg/formula"
	"github.com/formulaspark/formulaspark/pkg/generate"
	"github.com/formulaspark/formulaspark/pkg/history"
	"github.com/formulaspark/formulaspark/pkg/models"
	"github.com/formulaspark/formulaspark/pkg/ollama"
	"github.com/formulaspark/formulaspark/pkg/workbook"
)

func newGenerateCmd() *cobra.Command {
	var (
		workbookPath string
		sheet        string
		model        string
		noCache      bool
		insert       bool
		quiet        bool
	)

	cmd := &cobra.Command{
		Use:   "generate \"request\"",
		Short: "Generate a formula from a natural-language request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if model == "" {
				model = cfg.Model
			}

			req := models.GenerationRequest{
				UserPrompt: args[0],
				Model:      model,
			}

			var wb *workbook.Workbook
			if workbookPath != "" {
				wb, err = workbook.Open(workbookPath)
				if err != nil {
					return err
				}
				defer func() { _ = wb.Close() }()

				if sheet == "" {
					if names := wb.SheetNames(); len(names) > 0 {
						sheet = names[0]
					}
				}
				req.SheetName = sheet
				if cfg.UseContext {
					if err := gatherContext(&req, wb, sheet, cfg); err != nil {
						return err
					}
				}
			}

			var store generate.ResultCache
			if cfg.Cache.Enabled && !noCache {
				s, err := cache.New(cfg.Cache.Path, cfg.Cache.TTL, logger)
				if err != nil {
					return fmt.Errorf("init cache: %w", err)
				}
				store = s
			}

			transport := ollama.New(cfg.OllamaBaseURL, cfg.Timeout, logger)
			client := generate.New(transport, store, cfg.ModelSettings(), logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var (
				result string
				done   bool
			)
			if quiet {
				result, done, err = runBlocking(ctx, client, req)
			} else {
				result, done, err = runStreaming(ctx, client, req)
			}
			if err != nil {
				return err
			}
			if !done {
				fmt.Fprintln(os.Stderr, "Cancelled.")
				return nil
			}

			fmt.Println(result)

			if cfg.AutoValidate && result != "" {
				if err := formula.Validate(result); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
				}
			}

			if hist, err := history.New(cfg.History.Path, cfg.History.Limit); err != nil {
				logger.Warn("history unavailable", zap.Error(err))
			} else {
				defer func() { _ = hist.Close() }()
				entry := models.HistoryEntry{
					Prompt:  req.UserPrompt,
					Formula: result,
					Model:   model,
					Sheet:   req.SheetName,
				}
				if err := hist.Add(ctx, entry); err != nil {
					logger.Warn("record history", zap.Error(err))
				}
			}

			if insert {
				if wb == nil {
					return errors.New("--insert requires --workbook")
				}
				if result == "" {
					fmt.Fprintln(os.Stderr, "Empty formula, nothing to insert.")
					return nil
				}
				name, err := wb.InsertFormulaSheet(result, sheet)
				if err != nil {
					return fmt.Errorf("insert formula: %w", err)
				}
				fmt.Fprintf(os.Stderr, "Formula inserted into new sheet %q\n", name)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&workbookPath, "workbook", "", "xlsx workbook to read sheet context from")
	cmd.Flags().StringVar(&sheet, "sheet", "", "sheet name (default: first sheet)")
	cmd.Flags().StringVar(&model, "model", "", "model name (default: config model)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the result cache")
	cmd.Flags().BoolVar(&insert, "insert", false, "write the formula into a new sheet of the workbook")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "suppress progress output and retries")
	return cmd
}

// gatherContext fills the request with the sheet's headers, detected date
// columns, and any tag assignments saved in the config. Saved tags that no
// longer match a header cell are skipped.
func gatherContext(req *models.GenerationRequest, wb *workbook.Workbook, sheet string, cfg *config.Config) error {
	headers, err := wb.Headers(sheet)
	if err != nil {
		return err
	}
	req.Headers = headers

	dates, err := wb.DateColumns(sheet)
	if err != nil {
		return err
	}
	if len(dates) > 0 {
		req.DateColumns = dates
	}

	saved := cfg.HeaderTags(sheet)
	if len(saved) == 0 {
		return nil
	}
	refs, err := wb.HeaderColumns(sheet)
	if err != nil {
		return err
	}
	tagged := make(map[string]models.HeaderRef, len(saved))
	for header, tag := range saved {
		if ref, ok := refs[header]; ok {
			tagged[tag] = ref
		}
	}
	if len(tagged) > 0 {
		req.TaggedHeaders = tagged
	}
	return nil
}

// runStreaming consumes the event channel, echoing progress to stderr. The
// returned bool reports whether a formula was produced; false with a nil
// error means the run was cancelled.
func runStreaming(ctx context.Context, client *generate.Client, req models.GenerationRequest) (string, bool, error) {
	var result string
	done := false
	for ev := range client.Generate(ctx, req) {
		switch ev.Type {
		case generate.EventProgress:
			fmt.Fprintln(os.Stderr, ev.Message)
		case generate.EventSucceeded:
			if ev.FromCache {
				fmt.Fprintln(os.Stderr, "Served from cache.")
			}
			result = ev.Formula
			done = true
		case generate.EventFailed:
			return "", false, errors.New(ev.Message)
		}
	}
	return result, done, nil
}

func runBlocking(ctx context.Context, client *generate.Client, req models.GenerationRequest) (string, bool, error) {
	result, err := client.GenerateBlocking(ctx, req)
	if errors.Is(err, generate.ErrCancelled) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return result, true, nil
}
