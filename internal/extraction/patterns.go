package extraction

import (
	"regexp"

	"github.com/custodia-labs/bankdoc-rag/internal/core/domain"
)

// patternSource holds the raw expression for each entity type.
// Expressions are compiled case-insensitively.
var patternSource = map[domain.EntityType]string{
	domain.EntityPAN:           `\b[A-Z]{5}[0-9]{4}[A-Z]\b`,
	domain.EntityAadhaar:       `\b\d{4}\s?\d{4}\s?\d{4}\b`,
	domain.EntityPhone:         `\b[6-9]\d{9}\b`,
	domain.EntityEmail:         `\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`,
	domain.EntityAmount:        `(?:₹|Rs\.?|INR)\s?[\d,]+(?:\.\d{2})?`,
	domain.EntityDate:          `\b\d{2}[/-]\d{2}[/-]\d{4}\b`,
	domain.EntityAccountNumber: `\b\d{9,18}\b`,
	domain.EntityIFSC:          `\b[A-Z]{4}0[A-Z0-9]{6}\b`,
	domain.EntityPinCode:       `\b[1-9]\d{5}\b`,
	domain.EntityPercentage:    `\b\d+(?:\.\d+)?%`,
}

type pattern struct {
	entity domain.EntityType
	re     *regexp.Regexp
}

// registry is the compiled pattern table in extraction order.
var registry = compile()

func compile() []pattern {
	types := domain.AllEntityTypes()
	out := make([]pattern, 0, len(types))
	for _, t := range types {
		src, ok := patternSource[t]
		if !ok {
			continue
		}
		out = append(out, pattern{entity: t, re: regexp.MustCompile(`(?i)` + src)})
	}
	return out
}

// Pattern returns the raw expression for an entity type.
func Pattern(t domain.EntityType) (string, bool) {
	src, ok := patternSource[t]
	return src, ok
}
