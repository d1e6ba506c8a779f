package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/cv-intake/internal/entity"
	"github.com/joseph-ayodele/cv-intake/internal/export"
	"github.com/joseph-ayodele/cv-intake/internal/ingest"
)

var (
	processDir        string
	processReport     string
	processShowHidden bool
)

var processCmd = &cobra.Command{
	Use:   "process [files...]",
	Short: "Process résumé PDFs given as arguments or found under --dir",
	RunE:  runProcess,
}

func init() {
	processCmd.Flags().StringVarP(&processDir, "dir", "d", "", "directory to scan for PDFs (recursive)")
	processCmd.Flags().StringVarP(&processReport, "report", "r", "", "write per-document outcomes to this XLSX file")
	processCmd.Flags().BoolVar(&processShowHidden, "include-hidden", false, "also scan hidden files and directories")
}

func runProcess(cmd *cobra.Command, args []string) error {
	if processDir == "" && len(args) == 0 {
		return fmt.Errorf("pass PDF files or --dir")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	a, logger, cleanup, err := setup(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	seen := ingest.NewSeen()
	var docs []entity.Document
	for _, p := range args {
		doc, err := ingest.LoadFile(p)
		if err != nil {
			return err
		}
		if first, dup := seen.Mark(doc.ContentHashHex(), p); dup {
			logger.Info("ingest.file.deduplicated", "path", p, "first", first)
			continue
		}
		docs = append(docs, doc)
	}
	if processDir != "" {
		found, _, stats, err := ingest.LoadDirectory(ctx, processDir, !processShowHidden, seen, logger)
		if err != nil {
			return fmt.Errorf("scan %s: %w", processDir, err)
		}
		logger.Info("ingest.dir.summary",
			"dir", processDir,
			"scanned", stats.Scanned,
			"matched", stats.Matched,
			"loaded", stats.Loaded,
			"deduplicated", stats.Deduplicated,
			"failed", stats.Failed,
		)
		docs = append(docs, found...)
	}
	if len(docs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no documents to process")
		return nil
	}

	outcomes := a.Orchestrator.Process(ctx, docs)
	succeeded := printOutcomes(cmd, outcomes)

	if processReport != "" {
		b, err := export.NewReport(logger).OutcomesXLSX(outcomes)
		if err != nil {
			return fmt.Errorf("build report: %w", err)
		}
		if dir := filepath.Dir(processReport); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create report dir: %w", err)
			}
		}
		if err := os.WriteFile(processReport, b, 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "report written to %s\n", processReport)
	}

	if succeeded < len(outcomes) {
		return fmt.Errorf("%d of %d documents failed", len(outcomes)-succeeded, len(outcomes))
	}
	return nil
}

func printOutcomes(cmd *cobra.Command, outcomes []entity.BatchOutcome) int {
	out := cmd.OutOrStdout()
	succeeded := 0
	for _, oc := range outcomes {
		if oc.Succeeded() {
			succeeded++
			fmt.Fprintf(out, "  ok    %s  %s <%s>\n", oc.Filename, oc.Record.Name, oc.Record.Email)
			continue
		}
		fmt.Fprintf(out, "  FAIL  %s  [%s] %s\n", oc.Filename, oc.ErrorCode, oc.Error)
		for _, d := range oc.Details {
			fmt.Fprintf(out, "          %s\n", d)
		}
	}
	fmt.Fprintf(out, "\n%d succeeded, %d failed\n", succeeded, len(outcomes)-succeeded)
	return succeeded
}
