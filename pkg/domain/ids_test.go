package domain

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "basket/pkg/domain-errors"
)

// IDs must be valid, non-empty, non-nil UUIDs; parsing enforces this at every
// trust boundary.
func TestParseIDInvariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseUserID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseListID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseItemID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		valid := uuid.New()
		parsed, err := ParseUserID(valid.String())
		require.NoError(t, err)
		assert.Equal(t, UserID(valid), parsed)
	})
}

func TestIDRoundTrip(t *testing.T) {
	listID := NewListID()
	parsed, err := ParseListID(listID.String())
	require.NoError(t, err)
	assert.Equal(t, listID, parsed)
}

func TestIDJSONEncoding(t *testing.T) {
	itemID := NewItemID()

	encoded, err := json.Marshal(itemID)
	require.NoError(t, err)
	assert.Equal(t, `"`+itemID.String()+`"`, string(encoded))

	var decoded ItemID
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.Equal(t, itemID, decoded)
}

func TestIsNil(t *testing.T) {
	assert.True(t, UserID{}.IsNil())
	assert.False(t, NewUserID().IsNil())
}
