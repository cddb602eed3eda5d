package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkID(t *testing.T) {
	assert.Equal(t, "doc-1_chunk_0", ChunkID("doc-1", 0))
	assert.Equal(t, "abc_chunk_12", ChunkID("abc", 12))
}

func TestDocumentType_IsValid(t *testing.T) {
	for _, dt := range AllDocumentTypes() {
		assert.True(t, dt.IsValid(), dt)
		assert.NotEqual(t, unknownDescription, dt.Description())
	}
	assert.False(t, DocumentType("invoice").IsValid())
	assert.Equal(t, unknownDescription, DocumentType("invoice").Description())
}

func TestAllDocumentTypes_Order(t *testing.T) {
	types := AllDocumentTypes()
	require.Len(t, types, 5)
	assert.Equal(t, DocTypeLoanApplication, types[0])
	assert.Equal(t, DocTypeOther, types[len(types)-1])
}

func TestParseDocumentType(t *testing.T) {
	dt, err := ParseDocumentType("")
	require.NoError(t, err)
	assert.Equal(t, DocumentType(""), dt)

	dt, err = ParseDocumentType("kyc_document")
	require.NoError(t, err)
	assert.Equal(t, DocTypeKYC, dt)

	_, err = ParseDocumentType("invoice")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestEntityMap(t *testing.T) {
	m := EntityMap{
		EntityIFSC:   {"HDFC0001234"},
		EntityPAN:    {"ABCPE1234F", "XYZPA9876K"},
		EntityAmount: {},
	}

	assert.Equal(t, []EntityType{EntityPAN, EntityIFSC}, m.Types())
	assert.Equal(t, 3, m.Total())
	assert.True(t, m.Has(EntityPAN))
	assert.False(t, m.Has(EntityAmount))
	assert.False(t, m.Has(EntityEmail))
}

func TestEntityType(t *testing.T) {
	assert.Len(t, AllEntityTypes(), 10)
	assert.True(t, EntityPinCode.IsValid())
	assert.False(t, EntityType("ssn").IsValid())
	assert.True(t, EntityPAN.HasValidator())
	assert.True(t, EntityAadhaar.HasValidator())
	assert.True(t, EntityIFSC.HasValidator())
	assert.False(t, EntityEmail.HasValidator())
}

func TestRetrievedChunk_Relevance(t *testing.T) {
	c := RetrievedChunk{Distance: 0.25}
	assert.InDelta(t, 0.75, c.Relevance(), 1e-9)
}
