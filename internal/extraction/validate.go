package extraction

import (
	"regexp"
	"strings"

	"github.com/custodia-labs/bankdoc-rag/internal/core/domain"
)

var (
	panFormat     = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
	aadhaarFormat = regexp.MustCompile(`^\d{12}$`)
	ifscFormat    = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)
)

// panHolderTypes are the permitted values of a PAN's fourth character.
const panHolderTypes = "PCHFATBLJG"

// validators maps entity types to their format checks.
var validators = map[domain.EntityType]func(string) bool{
	domain.EntityPAN:     ValidatePAN,
	domain.EntityAadhaar: ValidateAadhaar,
	domain.EntityIFSC:    ValidateIFSC,
}

// ValidatePAN reports whether pan is a well-formed PAN with a known holder type.
// The check is case-sensitive.
func ValidatePAN(pan string) bool {
	if !panFormat.MatchString(pan) {
		return false
	}
	return strings.IndexByte(panHolderTypes, pan[3]) >= 0
}

// ValidateAadhaar reports whether aadhaar is 12 digits, ignoring spaces,
// not starting with 0 or 1.
func ValidateAadhaar(aadhaar string) bool {
	clean := strings.ReplaceAll(aadhaar, " ", "")
	if !aadhaarFormat.MatchString(clean) {
		return false
	}
	return clean[0] != '0' && clean[0] != '1'
}

// ValidateIFSC reports whether ifsc is a well-formed 11 character IFSC code.
func ValidateIFSC(ifsc string) bool {
	return ifscFormat.MatchString(ifsc)
}

// Validate applies the validator for t. Types without one are always valid.
func Validate(t domain.EntityType, value string) bool {
	if fn, ok := validators[t]; ok {
		return fn(value)
	}
	return true
}

// AnyValid reports whether at least one value passes the validator for t.
func AnyValid(t domain.EntityType, values []string) bool {
	for _, v := range values {
		if Validate(t, v) {
			return true
		}
	}
	return false
}
