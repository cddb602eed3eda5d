// Package cli provides the bankdoc command-line interface.
//
// Commands reach the core through package-level driving ports that the
// composition root installs with SetServices before calling Execute.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/bankdoc-rag/internal/core/ports/driving"
	"github.com/custodia-labs/bankdoc-rag/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	pipelineService driving.PipelineService
	documentService driving.DocumentService
	settingsService driving.SettingsService
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "bankdoc",
	Short: "Question answering over banking documents",
	Long: `bankdoc ingests banking documents (salary slips, bank statements, KYC
documents, loan applications), extracts and validates structured entities,
indexes the text for semantic retrieval, and answers natural-language
questions grounded in the ingested documents.

Answers come from a local Ollama model by default. When no generative
backend is reachable, bankdoc lists the most relevant excerpts instead.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print pipeline diagnostics to stderr")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// SetServices installs the services used by all commands.
func SetServices(pipeline driving.PipelineService, documents driving.DocumentService, settings driving.SettingsService) {
	pipelineService = pipeline
	documentService = documents
	settingsService = settings
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
