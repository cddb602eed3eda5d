package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/bankdoc-rag/internal/adapters/driving/watcher"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Ingest documents as they appear in a folder",
	Long: `Watches a directory tree and ingests new or changed .txt, .docx and .pdf
files. A changed file replaces its previous ingest; a deleted file is removed
from the index. Press Ctrl+C to stop.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watcher.DefaultDebounce, "quiet period before a changed file is processed")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if pipelineService == nil {
		return errors.New("pipeline service not configured")
	}
	if documentService == nil {
		return errors.New("document service not configured")
	}

	info, err := os.Stat(args[0])
	if err != nil {
		return fmt.Errorf("cannot access %s: %w", args[0], err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", args[0])
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := watcher.New(args[0], pipelineService, documentService,
		watcher.WithDebounce(watchDebounce),
		watcher.WithResultHandler(func(r watcher.Result) {
			printWatchResult(cmd, r)
		}),
	)

	cmd.Printf("Watching %s (Ctrl+C to stop)\n", args[0])
	return w.Run(ctx)
}

func printWatchResult(cmd *cobra.Command, r watcher.Result) {
	switch r.Action {
	case watcher.ActionIngested:
		cmd.Printf("Ingested %s as %s (%s)\n", r.Path, r.DocumentID, r.DocType)
		if r.Err != nil {
			cmd.PrintErrf("Warning: previous copy of %s not removed: %v\n", r.Path, r.Err)
		}
	case watcher.ActionRemoved:
		cmd.Printf("Removed %s\n", r.Path)
	case watcher.ActionSkipped:
		cmd.Printf("Skipped %s: %v\n", r.Path, r.Err)
	case watcher.ActionFailed:
		cmd.PrintErrf("Failed %s: %v\n", r.Path, r.Err)
	}
}
