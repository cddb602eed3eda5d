package extraction

import "github.com/custodia-labs/bankdoc-rag/internal/core/domain"

const (
	// UnscoredTypeScore is returned for document types with no required entities.
	UnscoredTypeScore = 75.0

	// ValidationBonus is added once per bonus type with at least one valid value.
	ValidationBonus = 5.0

	maxScore = 100.0
)

// requiredEntities lists the entity types a complete document of each type contains.
var requiredEntities = map[domain.DocumentType][]domain.EntityType{
	domain.DocTypeLoanApplication: {domain.EntityPAN, domain.EntityPhone, domain.EntityAmount, domain.EntityDate},
	domain.DocTypeKYC:             {domain.EntityPAN, domain.EntityAadhaar, domain.EntityPhone, domain.EntityDate},
	domain.DocTypeBankStatement:   {domain.EntityAccountNumber, domain.EntityIFSC, domain.EntityDate, domain.EntityAmount},
	domain.DocTypeSalarySlip:      {domain.EntityPAN, domain.EntityAmount, domain.EntityDate},
	domain.DocTypeOther:           nil,
}

// bonusEntities each add ValidationBonus when any of their values validates.
var bonusEntities = []domain.EntityType{domain.EntityPAN, domain.EntityAadhaar}

// RequiredEntities returns the entity types a document type is scored against.
func RequiredEntities(t domain.DocumentType) []domain.EntityType {
	return append([]domain.EntityType(nil), requiredEntities[t]...)
}

// Score extracts entities from text and scores them for docType.
func Score(text string, docType domain.DocumentType) float64 {
	return ScoreEntities(Extract(text), docType)
}

// ScoreEntities returns completeness plus validation bonuses, capped at 100.
// Types without required entities score a flat UnscoredTypeScore.
func ScoreEntities(m domain.EntityMap, docType domain.DocumentType) float64 {
	required := requiredEntities[docType]
	if len(required) == 0 {
		return UnscoredTypeScore
	}

	found := 0
	for _, t := range required {
		if m.Has(t) {
			found++
		}
	}
	score := float64(found) / float64(len(required)) * 100

	for _, t := range bonusEntities {
		if AnyValid(t, m[t]) {
			score += ValidationBonus
		}
	}

	if score > maxScore {
		return maxScore
	}
	return score
}
