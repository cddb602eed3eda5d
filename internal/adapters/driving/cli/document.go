package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/bankdoc-rag/internal/core/domain"
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Manage ingested documents",
	Long:  `List, inspect, and delete ingested documents and their extracted entities.`,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ingested documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentGetCmd = &cobra.Command{
	Use:   "get [doc-id]",
	Short: "Show document info",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentGet,
}

var documentContentCmd = &cobra.Command{
	Use:   "content [doc-id]",
	Short: "Print extracted document text",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentContent,
}

var documentChunksCmd = &cobra.Command{
	Use:   "chunks [doc-id]",
	Short: "Print the indexed chunks of a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentChunks,
}

var documentEntitiesCmd = &cobra.Command{
	Use:   "entities [doc-id]",
	Short: "List extracted entities",
	Long: `Lists the entities stored for a document with their format check.

With --positions every occurrence in the document text is listed instead,
duplicates included, with start-end character offsets.`,
	Args: cobra.ExactArgs(1),
	RunE: runDocumentEntities,
}

var documentSummaryCmd = &cobra.Command{
	Use:   "summary [doc-id]",
	Short: "Summarise entities with validation results",
	Long: `Prints the entity count per type and whether each PAN, Aadhaar and IFSC
value passes its format check.`,
	Args: cobra.ExactArgs(1),
	RunE: runDocumentSummary,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document and its index records",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDelete,
}

var documentSearchEntitiesCmd = &cobra.Command{
	Use:   "search-entities",
	Short: "Find entities across documents",
	Long: `Finds entities by type and/or value substring. Both filters are optional.

Entity types:
  pan_number, aadhaar_number, phone_number, email, amount, date,
  account_number, ifsc_code, pin_code, percentage`,
	Args: cobra.NoArgs,
	RunE: runDocumentSearchEntities,
}

var (
	documentListType  string
	documentJSON      bool
	entitySearchType  string
	entitySearchValue string
	documentDeleteYes bool
	entityPositions   bool
)

const documentListFormat = "%-36s  %-16s  %6s  %s\n"

func init() {
	documentListCmd.Flags().StringVarP(&documentListType, "type", "t", "", "only list documents of this type")
	documentEntitiesCmd.Flags().BoolVar(&entityPositions, "positions", false, "list every occurrence with its character offsets")
	documentSummaryCmd.Flags().BoolVar(&documentJSON, "json", false, "output summary as JSON")
	documentDeleteCmd.Flags().BoolVarP(&documentDeleteYes, "yes", "y", false, "confirm deletion")
	documentSearchEntitiesCmd.Flags().StringVarP(&entitySearchType, "type", "t", "", "entity type")
	documentSearchEntitiesCmd.Flags().StringVar(&entitySearchValue, "value", "", "value substring")

	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentContentCmd)
	documentCmd.AddCommand(documentChunksCmd)
	documentCmd.AddCommand(documentEntitiesCmd)
	documentCmd.AddCommand(documentSummaryCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	documentCmd.AddCommand(documentSearchEntitiesCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	docType, err := domain.ParseDocumentType(documentListType)
	if err != nil {
		return fmt.Errorf("unknown document type %q: %w", documentListType, err)
	}

	docs, err := documentService.List(context.Background(), docType)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Println("No documents ingested.")
		return nil
	}

	cmd.Printf(documentListFormat, "ID", "TYPE", "SCORE", "FILENAME")
	for i := range docs {
		cmd.Printf(documentListFormat, docs[i].ID, docs[i].Type, fmt.Sprintf("%.1f", docs[i].QualityScore), docs[i].Filename)
	}

	cmd.Printf("\nTotal: %d documents\n", len(docs))
	return nil
}

func runDocumentGet(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	doc, err := documentService.Get(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	cmd.Printf("Document: %s\n\n", doc.ID)
	cmd.Printf("  Filename:   %s\n", doc.Filename)
	if doc.FilePath != "" {
		cmd.Printf("  Path:       %s\n", doc.FilePath)
	}
	if doc.FileSize > 0 {
		cmd.Printf("  Size:       %d bytes\n", doc.FileSize)
	}
	cmd.Printf("  Type:       %s\n", doc.Type.Description())
	cmd.Printf("  Status:     %s\n", doc.Status)
	cmd.Printf("  Quality:    %.1f\n", doc.QualityScore)
	cmd.Printf("  Uploaded:   %s\n", doc.UploadedAt.Format("2006-01-02 15:04:05"))
	cmd.Printf("  Processed:  %s\n", doc.ProcessedAt.Format("2006-01-02 15:04:05"))
	cmd.Println("\n  Statistics:")
	cmd.Printf("    Characters: %d\n", doc.Stats.Characters)
	cmd.Printf("    Words:      %d\n", doc.Stats.Words)
	cmd.Printf("    Sentences:  %d\n", doc.Stats.Sentences)
	cmd.Printf("    Pages:      %d\n", doc.Stats.Pages)

	return nil
}

func runDocumentContent(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	doc, err := documentService.Get(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	cmd.Println(doc.Text)
	return nil
}

func runDocumentChunks(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	chunks, err := documentService.Chunks(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get chunks: %w", err)
	}

	for _, c := range chunks {
		cmd.Printf("[%s]\n%s\n\n", c.ID, c.Text)
	}
	cmd.Printf("Total: %d chunks\n", len(chunks))
	return nil
}

func runDocumentEntities(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	if entityPositions {
		return printEntityPositions(cmd, args[0])
	}

	entities, err := documentService.Entities(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get entities: %w", err)
	}

	if len(entities) == 0 {
		cmd.Println("No entities found.")
		return nil
	}

	for _, e := range entities {
		cmd.Printf("  %-16s %s%s\n", e.Type, e.Value, validityMark(e.Type, e.Valid))
	}
	cmd.Printf("\nTotal: %d entities\n", len(entities))
	return nil
}

// printEntityPositions lists occurrences in text order. The service reports
// byte offsets; they are shown as character offsets so that a value such
// as ₹50,000 spans 7 positions, not 9.
func printEntityPositions(cmd *cobra.Command, documentID string) error {
	ctx := context.Background()
	doc, err := documentService.Get(ctx, documentID)
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}
	matches, err := documentService.EntityPositions(ctx, documentID)
	if err != nil {
		return fmt.Errorf("failed to locate entities: %w", err)
	}

	if len(matches) == 0 {
		cmd.Println("No entities found.")
		return nil
	}

	cmd.Printf(entityPositionFormat, "TYPE", "CHARS", "VALUE")
	for _, m := range matches {
		start, end := charOffsets(doc.Text, m.Start, m.End)
		cmd.Printf(entityPositionFormat, m.Type, fmt.Sprintf("%d-%d", start, end), m.Value)
	}
	cmd.Printf("\nTotal: %d occurrences\n", len(matches))
	return nil
}

const entityPositionFormat = "  %-16s %-11s %s\n"

// charOffsets converts byte offsets into text to rune offsets.
func charOffsets(text string, start, end int) (int, int) {
	if start < 0 || end < start || end > len(text) {
		return start, end
	}
	from := utf8.RuneCountInString(text[:start])
	return from, from + utf8.RuneCountInString(text[start:end])
}

func runDocumentSummary(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	summary, err := documentService.EntitySummary(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to summarise entities: %w", err)
	}

	if documentJSON {
		data, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal summary: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Total entities: %d\n\n", summary.Total)
	for _, t := range domain.AllEntityTypes() {
		if n := summary.Counts[t]; n > 0 {
			cmd.Printf("  %-16s %d\n", t, n)
		}
	}

	for _, t := range domain.AllEntityTypes() {
		checks, ok := summary.Validated[t]
		if !ok {
			continue
		}
		cmd.Printf("\n%s:\n", t)
		for _, c := range checks {
			cmd.Printf("  %s%s\n", c.Value, validityMark(t, c.Valid))
		}
	}
	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	if pipelineService == nil {
		return errors.New("pipeline service not configured")
	}
	if !documentDeleteYes {
		return errors.New("refusing to delete without --yes")
	}

	if err := pipelineService.DeleteDocument(context.Background(), args[0]); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	cmd.Printf("Deleted document %s\n", args[0])
	return nil
}

func runDocumentSearchEntities(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	entityType := domain.EntityType(strings.TrimSpace(entitySearchType))
	entities, err := documentService.SearchEntities(context.Background(), entityType, entitySearchValue)
	if err != nil {
		return fmt.Errorf("entity search failed: %w", err)
	}

	if len(entities) == 0 {
		cmd.Println("No matching entities.")
		return nil
	}

	for _, e := range entities {
		cmd.Printf("  %-16s %-24s %s (%s)\n", e.Type, e.Value, e.Filename, e.DocumentID)
	}
	cmd.Printf("\nTotal: %d entities\n", len(entities))
	return nil
}

func validityMark(t domain.EntityType, valid bool) string {
	switch {
	case !t.HasValidator():
		return ""
	case valid:
		return "  [valid]"
	default:
		return "  [invalid]"
	}
}
