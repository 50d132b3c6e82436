package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/formulaspark/formulaspark/pkg/config"
)

var version = "dev"

var (
	configPath string
	verbose    bool

	logger *zap.Logger
)

func main() {
	root := &cobra.Command{
		Use:           "formulaspark",
		Short:         "FormulaSpark generates spreadsheet formulas from plain English",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			zcfg := zap.NewProductionConfig()
			if verbose {
				zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			} else {
				// Formulas go to stdout; keep routine logging out of the way.
				zcfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
			}
			var err error
			logger, err = zcfg.Build()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "formulaspark.yaml", "path to config file")
	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug logging")

	root.AddCommand(
		newGenerateCmd(),
		newModelsCmd(),
		newStatusCmd(),
		newCacheCmd(),
		newHistoryCmd(),
		newValidateCmd(),
		newTemplatesCmd(),
		newHeadersCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
