package domain

// DocumentType is the closed set of banking document categories.
type DocumentType string

// Supported document types, in classification priority order.
const (
	DocTypeLoanApplication DocumentType = "loan_application"
	DocTypeKYC             DocumentType = "kyc_document"
	DocTypeBankStatement   DocumentType = "bank_statement"
	DocTypeSalarySlip      DocumentType = "salary_slip"
	DocTypeOther           DocumentType = "other"
)

// AllDocumentTypes returns every document type in declaration order.
// Classification breaks ties using this order.
func AllDocumentTypes() []DocumentType {
	return []DocumentType{
		DocTypeLoanApplication,
		DocTypeKYC,
		DocTypeBankStatement,
		DocTypeSalarySlip,
		DocTypeOther,
	}
}

// IsValid returns true if the document type is recognised.
func (t DocumentType) IsValid() bool {
	switch t {
	case DocTypeLoanApplication, DocTypeKYC, DocTypeBankStatement, DocTypeSalarySlip, DocTypeOther:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (t DocumentType) String() string {
	return string(t)
}

// Description returns a human-readable label.
func (t DocumentType) Description() string {
	switch t {
	case DocTypeLoanApplication:
		return "Loan Application"
	case DocTypeKYC:
		return "KYC Document"
	case DocTypeBankStatement:
		return "Bank Statement"
	case DocTypeSalarySlip:
		return "Salary Slip"
	case DocTypeOther:
		return "Other"
	default:
		return unknownDescription
	}
}

// ParseDocumentType converts a string into a DocumentType.
// An empty string yields "" with no error, meaning no filter.
func ParseDocumentType(s string) (DocumentType, error) {
	if s == "" {
		return "", nil
	}
	t := DocumentType(s)
	if !t.IsValid() {
		return "", ErrInvalidInput
	}
	return t, nil
}
