// Package analysis classifies banking documents and computes text statistics.
package analysis

import (
	"strings"

	"github.com/custodia-labs/bankdoc-rag/internal/core/domain"
)

// keywordTable lists the phrases that indicate each document type.
// Matching is a case-insensitive substring test and each phrase counts once.
var keywordTable = map[domain.DocumentType][]string{
	domain.DocTypeLoanApplication: {
		"loan application", "loan amount", "emi", "interest rate",
		"home loan", "personal loan", "business loan", "loan tenure",
		"principal amount", "loan purpose", "collateral",
	},
	domain.DocTypeKYC: {
		"aadhaar", "aadhar", "pan card", "kyc", "know your customer",
		"identity proof", "address proof", "passport", "voter id",
		"driving license", "verification", "identity document",
	},
	domain.DocTypeBankStatement: {
		"account statement", "transaction history", "opening balance",
		"closing balance", "credit", "debit", "statement period",
		"account number", "transaction date", "bank statement",
	},
	domain.DocTypeSalarySlip: {
		"salary slip", "pay slip", "gross salary", "net salary",
		"basic pay", "allowances", "deductions", "pf contribution",
		"income tax", "take home", "earnings",
	},
}

// Keywords returns the classification phrases for a document type.
func Keywords(t domain.DocumentType) []string {
	return append([]string(nil), keywordTable[t]...)
}

// KeywordScores returns the number of distinct keywords found per document type.
func KeywordScores(text string) map[domain.DocumentType]int {
	lower := strings.ToLower(text)
	scores := make(map[domain.DocumentType]int, len(keywordTable))
	for t, keywords := range keywordTable {
		n := 0
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				n++
			}
		}
		scores[t] = n
	}
	return scores
}

// Classify returns the document type with the most keyword hits.
// Ties go to the type declared first; no hits at all yields DocTypeOther.
func Classify(text string) domain.DocumentType {
	scores := KeywordScores(text)

	best := domain.DocTypeOther
	bestScore := 0
	for _, t := range domain.AllDocumentTypes() {
		if scores[t] > bestScore {
			best = t
			bestScore = scores[t]
		}
	}
	return best
}
