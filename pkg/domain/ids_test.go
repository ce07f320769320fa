package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "phraseguard/pkg/domain-errors"
)

// IDs must be valid, non-empty, non-nil UUIDs.
func TestParseUUID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseCheckID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects whitespace", func(t *testing.T) {
		_, err := ParseOrganizationID("   ")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseUserID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects oversized input", func(t *testing.T) {
		_, err := ParseDictionaryItemID(strings.Repeat("a", 200))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseEmbeddingJobID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		valid := uuid.New()
		id, err := ParseCheckID(valid.String())
		require.NoError(t, err)
		assert.Equal(t, CheckID(valid), id)
		assert.Equal(t, valid.String(), id.String())
		assert.False(t, id.IsNil())
	})
}

func TestTypeDistinction(t *testing.T) {
	checkID := CheckID(uuid.New())
	violationID := ViolationID(uuid.New())

	// var _ CheckID = violationID // compile error
	assert.NotEqual(t, uuid.UUID(checkID), uuid.UUID(violationID))
	assert.True(t, CheckID{}.IsNil())
}

func TestIDsMarshalAsStrings(t *testing.T) {
	raw := uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")
	payload := struct {
		Check CheckID        `json:"check_id"`
		Org   OrganizationID `json:"organization_id"`
	}{Check: CheckID(raw), Org: OrganizationID(raw)}

	data, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"check_id":"550e8400-e29b-41d4-a716-446655440000","organization_id":"550e8400-e29b-41d4-a716-446655440000"}`,
		string(data))
}

func TestParseEnums(t *testing.T) {
	p, err := ParsePriority("")
	require.NoError(t, err)
	assert.Equal(t, PriorityNormal, p)

	p, err = ParsePriority("high")
	require.NoError(t, err)
	assert.Equal(t, PriorityHigh, p)

	_, err = ParsePriority("urgent")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	it, err := ParseInputType("")
	require.NoError(t, err)
	assert.Equal(t, InputTypeText, it)

	_, err = ParseInputType("audio")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}
