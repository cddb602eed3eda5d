package domain

// EntityType is the closed set of structured value kinds found in banking text.
type EntityType string

// Supported entity types, in extraction order.
const (
	EntityPAN           EntityType = "pan_number"
	EntityAadhaar       EntityType = "aadhaar_number"
	EntityPhone         EntityType = "phone_number"
	EntityEmail         EntityType = "email"
	EntityAmount        EntityType = "amount"
	EntityDate          EntityType = "date"
	EntityAccountNumber EntityType = "account_number"
	EntityIFSC          EntityType = "ifsc_code"
	EntityPinCode       EntityType = "pin_code"
	EntityPercentage    EntityType = "percentage"
)

// AllEntityTypes returns every entity type in extraction order.
func AllEntityTypes() []EntityType {
	return []EntityType{
		EntityPAN,
		EntityAadhaar,
		EntityPhone,
		EntityEmail,
		EntityAmount,
		EntityDate,
		EntityAccountNumber,
		EntityIFSC,
		EntityPinCode,
		EntityPercentage,
	}
}

// IsValid returns true if the entity type is recognised.
func (t EntityType) IsValid() bool {
	for _, known := range AllEntityTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// String returns the string representation.
func (t EntityType) String() string {
	return string(t)
}

// HasValidator reports whether values of this type carry a format check.
func (t EntityType) HasValidator() bool {
	return t == EntityPAN || t == EntityAadhaar || t == EntityIFSC
}

// EntityMap maps an entity type to its distinct values in first-occurrence order.
// Types with no matches are absent.
type EntityMap map[EntityType][]string

// Types returns the present entity types in extraction order.
func (m EntityMap) Types() []EntityType {
	out := make([]EntityType, 0, len(m))
	for _, t := range AllEntityTypes() {
		if len(m[t]) > 0 {
			out = append(out, t)
		}
	}
	return out
}

// Total returns the number of values across all types.
func (m EntityMap) Total() int {
	n := 0
	for _, vs := range m {
		n += len(vs)
	}
	return n
}

// Has reports whether at least one value of the given type was found.
func (m EntityMap) Has(t EntityType) bool {
	return len(m[t]) > 0
}

// Entity is a single persisted entity value.
type Entity struct {
	// ID is the store-assigned identifier. Zero before persistence.
	ID int64

	// DocumentID links the entity to its document.
	DocumentID string

	// Type is the entity kind.
	Type EntityType

	// Value is the matched text exactly as it appeared.
	Value string

	// Valid holds the validator outcome. Types without a validator are always valid.
	Valid bool

	// Filename is populated by entity searches that join documents.
	Filename string
}

// EntityMatch is an entity occurrence with its location in the source text.
type EntityMatch struct {
	// Type is the entity kind.
	Type EntityType

	// Value is the matched text.
	Value string

	// Start and End are byte offsets into the source text.
	Start int
	End   int

	// Context is the surrounding text, up to 30 characters either side.
	Context string
}

// ValueCheck is a value paired with its validator outcome.
type ValueCheck struct {
	Value string `json:"value"`
	Valid bool   `json:"valid"`
}

// EntitySummary aggregates an EntityMap for reporting.
type EntitySummary struct {
	// Total is the number of values across all types.
	Total int `json:"total_entities"`

	// Counts is the number of values per type.
	Counts map[EntityType]int `json:"entity_counts"`

	// Validated lists validator outcomes for PAN, Aadhaar and IFSC values.
	Validated map[EntityType][]ValueCheck `json:"validated"`
}
