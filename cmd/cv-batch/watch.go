package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/cv-intake/internal/common"
	"github.com/joseph-ayodele/cv-intake/internal/ingest"
)

var (
	watchInitial  bool
	watchDebounce time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir> [dirs...]",
	Short: "Process PDFs as they are dropped into inbox directories",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchInitial, "initial-scan", true, "process PDFs already present at startup")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 750*time.Millisecond, "wait for writes to settle before processing")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, logger, cleanup, err := setup(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	paths, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       args,
		InitialScan: watchInitial,
		Debounce:    watchDebounce,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "watching %v (Ctrl+C to stop)\n", args)

	seen := ingest.NewSeen()
	for {
		select {
		case p, ok := <-paths:
			if !ok {
				return nil
			}
			doc, err := ingest.LoadFile(p)
			if err != nil {
				logger.Warn("watch.load_failed", "path", p, "error", err)
				continue
			}
			if first, dup := seen.Mark(doc.ContentHashHex(), p); dup {
				logger.Info("watch.deduplicated", "path", p, "first", first)
				continue
			}
			rec, err := a.Processor.Process(ctx, doc)
			if err != nil {
				logger.Error("watch.process_failed", "path", p, "code", common.CodeOf(err), "error", err)
				fmt.Fprintf(cmd.OutOrStdout(), "  FAIL  %s  [%s]\n", doc.Filename, common.CodeOf(err))
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  ok    %s  %s <%s>\n", doc.Filename, rec.Name, rec.Email)
		case err, ok := <-errs:
			if ok && err != nil {
				logger.Error("watch.error", "error", err)
			}
			if !ok {
				errs = nil
			}
		case <-ctx.Done():
			return nil
		}
	}
}
