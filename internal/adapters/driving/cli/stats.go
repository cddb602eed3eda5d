package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/bankdoc-rag/internal/core/domain"
)

var (
	statsJSON    bool
	historyLimit int
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index and corpus statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently answered questions",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output statistics as JSON")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "number of queries to show")
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(historyCmd)
}

// statsReport is the JSON shape of the stats command.
type statsReport struct {
	Index  *domain.IndexStats       `json:"index"`
	Corpus *domain.CorpusStatistics `json:"corpus"`
}

func runStats(cmd *cobra.Command, _ []string) error {
	if pipelineService == nil {
		return errors.New("pipeline service not configured")
	}
	if documentService == nil {
		return errors.New("document service not configured")
	}

	ctx := context.Background()
	index, err := pipelineService.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to get index stats: %w", err)
	}
	corpus, err := documentService.Statistics(ctx)
	if err != nil {
		return fmt.Errorf("failed to get corpus statistics: %w", err)
	}

	if statsJSON {
		data, err := json.MarshalIndent(statsReport{Index: index, Corpus: corpus}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal stats: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println("[Index]")
	cmd.Printf("  Chunks:          %d\n", index.TotalRecords)
	cmd.Printf("  Embedding model: %s\n", orNone(index.EmbeddingModel))
	if index.GenerativeAvailable {
		cmd.Printf("  LLM:             %s (available)\n", index.GenerativeModel)
	} else {
		cmd.Println("  LLM:             unavailable (answers list excerpts)")
	}
	cmd.Println()

	cmd.Println("[Corpus]")
	cmd.Printf("  Documents:       %d\n", corpus.TotalDocuments)
	for _, t := range domain.AllDocumentTypes() {
		if n := corpus.ByType[t]; n > 0 {
			cmd.Printf("    %-18s %d\n", t.Description()+":", n)
		}
	}
	cmd.Printf("  Avg quality:     %.2f\n", corpus.AverageQualityScore)
	cmd.Printf("  Entities:        %d\n", corpus.TotalEntities)
	cmd.Printf("  Queries:         %d\n", corpus.TotalQueries)
	return nil
}

func runHistory(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	logs, err := documentService.RecentQueries(context.Background(), historyLimit)
	if err != nil {
		return fmt.Errorf("failed to get query history: %w", err)
	}

	if len(logs) == 0 {
		cmd.Println("No queries yet.")
		return nil
	}

	for _, l := range logs {
		cmd.Printf("%s  %s\n", l.CreatedAt.Format("2006-01-02 15:04:05"), l.Question)
		names := make([]string, 0, len(l.Sources))
		for _, s := range l.Sources {
			names = append(names, s.Filename)
		}
		if len(names) > 0 {
			cmd.Printf("  sources: %s\n", strings.Join(names, ", "))
		}
		cmd.Printf("  answered in %.1fms\n", l.ResponseTimeMS)
	}
	return nil
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
