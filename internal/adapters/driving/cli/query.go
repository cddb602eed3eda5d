package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/bankdoc-rag/internal/core/domain"
	"github.com/custodia-labs/bankdoc-rag/internal/core/ports/driving"
)

// Output formats for query results.
const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

var (
	queryTopK      int
	queryType      string
	queryMaxTokens int
	queryJSON      bool
	queryOutput    string
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Ask a question about ingested documents",
	Long: `Retrieves the chunks most similar to the question and asks the generative
backend for an answer grounded only in those chunks.

When the backend is unavailable the answer lists the top excerpts instead.
Use --type to restrict retrieval to one document type:
  loan_application, kyc_document, bank_statement, salary_slip, other`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of chunks to retrieve (0 = configured default)")
	queryCmd.Flags().StringVarP(&queryType, "type", "t", "", "restrict retrieval to a document type")
	queryCmd.Flags().IntVar(&queryMaxTokens, "max-tokens", 0, "maximum answer length (0 = configured default)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output result as JSON (same as --output json)")
	queryCmd.Flags().StringVarP(&queryOutput, "output", "o", outputText, "output format: text, json or yaml")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if pipelineService == nil {
		return errors.New("pipeline service not configured")
	}

	format := queryOutput
	if queryJSON {
		format = outputJSON
	}
	if format != outputText && format != outputJSON && format != outputYAML {
		return fmt.Errorf("unknown output format %q", format)
	}

	docType, err := domain.ParseDocumentType(queryType)
	if err != nil {
		return fmt.Errorf("unknown document type %q: %w", queryType, err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	result, err := pipelineService.Query(ctx, args[0], driving.QueryOptions{
		TopK:      queryTopK,
		DocType:   docType,
		MaxTokens: queryMaxTokens,
	})
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	switch format {
	case outputJSON:
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		cmd.Println(string(data))
	case outputYAML:
		data, err := yaml.Marshal(result)
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		cmd.Print(string(data))
	default:
		outputQueryText(cmd, result)
	}
	return nil
}

func outputQueryText(cmd *cobra.Command, result *domain.QueryResult) {
	cmd.Println(strings.TrimSpace(result.Answer))
	cmd.Println()

	if len(result.Sources) > 0 {
		cmd.Println("Sources:")
		for i, s := range result.Sources {
			cmd.Printf("  %d. %s (%s, relevance %.3f)\n", i+1, s.Filename, s.DocType, s.Relevance)
		}
		cmd.Println()
	}

	cmd.Printf("%d chunks retrieved in %.1fms (total %.1fms)\n",
		result.ChunksRetrieved, result.SearchTimeMS, result.TotalTimeMS)
}
