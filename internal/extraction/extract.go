package extraction

import (
	"sort"
	"unicode/utf8"

	"github.com/custodia-labs/bankdoc-rag/internal/core/domain"
)

// contextRunes is how many characters of surrounding text a match carries.
const contextRunes = 30

// Extract applies every pattern to text and returns the distinct matches per
// entity type in first-occurrence order. Types with no matches are omitted.
func Extract(text string) domain.EntityMap {
	out := make(domain.EntityMap)
	for _, p := range registry {
		matches := p.re.FindAllString(text, -1)
		if len(matches) == 0 {
			continue
		}
		out[p.entity] = dedupe(matches)
	}
	return out
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// ExtractWithPositions returns every individual match, duplicates included,
// sorted by start offset. Offsets are byte positions into text.
func ExtractWithPositions(text string) []domain.EntityMatch {
	var out []domain.EntityMatch
	for _, p := range registry {
		for _, loc := range p.re.FindAllStringIndex(text, -1) {
			out = append(out, domain.EntityMatch{
				Type:    p.entity,
				Value:   text[loc[0]:loc[1]],
				Start:   loc[0],
				End:     loc[1],
				Context: surrounding(text, loc[0], loc[1]),
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start < out[j].Start
	})
	return out
}

// surrounding returns text[start:end] widened by up to contextRunes
// characters on each side without splitting a multi-byte character.
func surrounding(text string, start, end int) string {
	from := start
	for i := 0; i < contextRunes && from > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(text[:from])
		from -= size
	}
	to := end
	for i := 0; i < contextRunes && to < len(text); i++ {
		_, size := utf8.DecodeRuneInString(text[to:])
		to += size
	}
	return text[from:to]
}

// ToEntities flattens an EntityMap into validated entity rows for a document.
func ToEntities(documentID string, m domain.EntityMap) []domain.Entity {
	out := make([]domain.Entity, 0, m.Total())
	for _, t := range m.Types() {
		for _, v := range m[t] {
			out = append(out, domain.Entity{
				DocumentID: documentID,
				Type:       t,
				Value:      v,
				Valid:      Validate(t, v),
			})
		}
	}
	return out
}
