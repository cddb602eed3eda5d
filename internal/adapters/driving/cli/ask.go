package cli

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/bankdoc-rag/internal/adapters/driving/tui"
)

var askCmd = &cobra.Command{
	Use:     "ask",
	Aliases: []string{"tui"},
	Short:   "Ask questions in the interactive terminal UI",
	Long: `Opens an interactive terminal UI for asking questions about ingested
documents, browsing documents and their extracted entities, and viewing
index statistics.

Controls:
  ↑/k, ↓/j - Navigate
  Enter    - Ask / Select
  Tab      - Cycle document type filter
  Esc      - Back
  ctrl+c   - Quit`,
	Args: cobra.NoArgs,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, _ []string) (err error) {
	if pipelineService == nil {
		return errors.New("pipeline service not configured")
	}

	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			err = fmt.Errorf("TUI panic: %v", r)
		}
	}()

	app, err := tui.NewApp(tui.NewPorts(pipelineService, documentService))
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	if ctx := cmd.Context(); ctx != nil {
		app.WithContext(ctx)
	}

	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
