package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/cv-intake/internal/app"
	"github.com/joseph-ayodele/cv-intake/internal/common"
)

var (
	configPath string
	ledgerFlag string
	modeFlag   string
	logFile    string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "cv-batch",
	Short: "Extract candidate details from résumé PDFs into the ledger",
	Long: `cv-batch runs résumé PDFs through rasterization, transcription, extraction and
validation, then appends one row per candidate to the configured ledger.

Examples:
  cv-batch process a.pdf b.pdf
  cv-batch process --dir ./inbox --report ./batch.xlsx
  cv-batch watch ./inbox`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "optional YAML config file")
	rootCmd.PersistentFlags().StringVar(&ledgerFlag, "ledger", "", "override ledger backend (sheets|xlsx)")
	rootCmd.PersistentFlags().StringVar(&modeFlag, "mode", "", "override pipeline mode (full|fast)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write JSON logs to this file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(watchCmd)
}

// setup loads config, applies flag overrides and builds the pipeline. The returned cleanup
// drains the ledger and closes the log file.
func setup(ctx context.Context) (*app.App, *slog.Logger, func(), error) {
	cfg, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	if ledgerFlag != "" {
		cfg.Ledger.Backend = ledgerFlag
	}
	if modeFlag != "" {
		cfg.Pipeline.Mode = modeFlag
	}
	if logFile != "" {
		cfg.Log.File = logFile
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, err
	}

	logger, closeLog := common.SetupLogger(cfg.Log.File, common.ParseLevel(cfg.Log.Level))
	slog.SetDefault(logger)

	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		_ = closeLog()
		return nil, nil, nil, fmt.Errorf("build pipeline: %w", err)
	}
	cleanup := func() {
		// Fresh context: the command's may already be canceled.
		if err := a.Close(context.Background()); err != nil {
			logger.Error("app.close_failed", "error", err)
		}
		_ = closeLog()
	}
	return a, logger, cleanup, nil
}
