package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/bankdoc-rag/internal/core/domain"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		text string
		want domain.DocumentType
	}{
		{"no keywords", "Minutes of the quarterly meeting.", domain.DocTypeOther},
		{"empty", "", domain.DocTypeOther},
		{"loan", "HOME LOAN application: loan amount and interest rate, loan tenure 20 years", domain.DocTypeLoanApplication},
		{"kyc", "KYC verification with Aadhaar and PAN card as identity proof", domain.DocTypeKYC},
		{"statement", "Bank Statement. Opening balance, closing balance, credit and debit entries", domain.DocTypeBankStatement},
		{"salary", "Salary Slip: gross salary, net salary, basic pay, deductions", domain.DocTypeSalarySlip},
		{"tie goes to earlier type", "collateral and passport", domain.DocTypeLoanApplication},
		{"tie between statement and salary", "debit earnings", domain.DocTypeBankStatement},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.text))
		})
	}
}

func TestKeywordScores_CountsEachKeywordOnce(t *testing.T) {
	scores := KeywordScores("credit credit credit")
	assert.Equal(t, 1, scores[domain.DocTypeBankStatement])
	assert.Equal(t, 0, scores[domain.DocTypeKYC])
}

func TestKeywords(t *testing.T) {
	assert.Contains(t, Keywords(domain.DocTypeKYC), "aadhaar")
	assert.Empty(t, Keywords(domain.DocTypeOther))
}

func TestStats(t *testing.T) {
	text := "--- Page 1 ---\nHello world. How are you?\n--- Page 2 ---\nFine!"

	s := Stats(text)

	assert.Equal(t, len([]rune(text)), s.Characters)
	assert.Equal(t, 14, s.Words)
	assert.Equal(t, 2, s.Pages)
	assert.Equal(t, 3, s.Sentences)
}

func TestStats_Empty(t *testing.T) {
	assert.Equal(t, domain.DocumentStats{}, Stats(""))
}

func TestStats_CountsRunes(t *testing.T) {
	s := Stats("₹500")
	assert.Equal(t, 4, s.Characters)
	assert.Equal(t, 1, s.Words)
	assert.Equal(t, 1, s.Sentences)
}
