package analysis

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/bankdoc-rag/internal/core/domain"
)

// PageMarker prefixes each page of text produced by the PDF front-end.
const PageMarker = "--- Page"

var sentenceSplit = regexp.MustCompile(`[.!?]+`)

// Stats computes character, word, sentence and page-marker counts.
// Characters are counted as Unicode code points.
func Stats(text string) domain.DocumentStats {
	sentences := 0
	for _, s := range sentenceSplit.Split(text, -1) {
		if strings.TrimSpace(s) != "" {
			sentences++
		}
	}

	return domain.DocumentStats{
		Characters: utf8.RuneCountInString(text),
		Words:      len(strings.Fields(text)),
		Sentences:  sentences,
		Pages:      strings.Count(text, PageMarker),
	}
}
