package extraction

import "github.com/custodia-labs/bankdoc-rag/internal/core/domain"

// Summarize counts entities per type and lists validator outcomes for
// the validated types that are present.
func Summarize(m domain.EntityMap) domain.EntitySummary {
	s := domain.EntitySummary{
		Total:     m.Total(),
		Counts:    make(map[domain.EntityType]int, len(m)),
		Validated: make(map[domain.EntityType][]domain.ValueCheck),
	}
	for _, t := range m.Types() {
		s.Counts[t] = len(m[t])
		if !t.HasValidator() {
			continue
		}
		checks := make([]domain.ValueCheck, 0, len(m[t]))
		for _, v := range m[t] {
			checks = append(checks, domain.ValueCheck{Value: v, Valid: Validate(t, v)})
		}
		s.Validated[t] = checks
	}
	return s
}
