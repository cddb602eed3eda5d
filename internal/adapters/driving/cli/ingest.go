package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/bankdoc-rag/internal/core/domain"
	"github.com/custodia-labs/bankdoc-rag/internal/core/ports/driving"
)

var (
	ingestText string
	ingestName string
	ingestJSON bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path...]",
	Short: "Ingest banking documents",
	Long: `Extracts text from each file, classifies the document, extracts and
validates entities, scores completeness, and indexes the chunks for retrieval.

Directories are walked recursively. Supported files are .txt, .docx and .pdf;
other files are skipped. Use --text to ingest a literal string instead.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestText, "text", "", "ingest this text instead of files")
	ingestCmd.Flags().StringVar(&ingestName, "name", "pasted.txt", "filename recorded for --text")
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if pipelineService == nil {
		return errors.New("pipeline service not configured")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if ingestText != "" {
		result, err := pipelineService.Ingest(ctx, driving.IngestRequest{Text: ingestText, Filename: ingestName})
		if err != nil {
			return fmt.Errorf("ingest failed: %w", err)
		}
		return outputIngest(cmd, []*domain.IngestResult{result})
	}

	if len(args) == 0 {
		return errors.New("provide at least one path or --text")
	}

	files, err := collectFiles(args)
	if err != nil {
		return err
	}

	var results []*domain.IngestResult
	var failed int
	for _, path := range files {
		result, err := pipelineService.IngestFile(ctx, path)
		switch {
		case errors.Is(err, domain.ErrUnsupportedType):
			if !ingestJSON {
				cmd.Printf("Skipped %s (unsupported file type)\n", path)
			}
			continue
		case err != nil:
			failed++
			cmd.PrintErrf("Failed %s: %v\n", path, err)
			continue
		}
		results = append(results, result)
	}

	if err := outputIngest(cmd, results); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed to ingest", failed, len(files))
	}
	return nil
}

// collectFiles expands directories into the regular files beneath them.
// Hidden files and directories are skipped during the walk.
func collectFiles(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", p, err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			hidden := path != p && strings.HasPrefix(d.Name(), ".")
			if d.IsDir() {
				if hidden {
					return filepath.SkipDir
				}
				return nil
			}
			if !hidden && d.Type().IsRegular() {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", p, err)
		}
	}
	return files, nil
}

func outputIngest(cmd *cobra.Command, results []*domain.IngestResult) error {
	if ingestJSON {
		if results == nil {
			results = []*domain.IngestResult{}
		}
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	for _, r := range results {
		cmd.Printf("Ingested %s\n", r.Filename)
		cmd.Printf("  ID:       %s\n", r.DocumentID)
		cmd.Printf("  Type:     %s\n", r.DocType.Description())
		cmd.Printf("  Quality:  %.1f\n", r.QualityScore)
		cmd.Printf("  Chunks:   %d\n", r.ChunkCount)
		cmd.Printf("  Entities: %d\n", r.Entities.Total())
		for _, t := range r.Entities.Types() {
			cmd.Printf("    %s: %s\n", t, strings.Join(r.Entities[t], ", "))
		}
		cmd.Println()
	}
	cmd.Printf("Total: %d documents ingested\n", len(results))
	return nil
}
