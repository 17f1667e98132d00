package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contest-api/internal/domain/entity"
)

type sample struct {
	UserID    string `json:"userId" validate:"required"`
	EntryType string `json:"entryType" validate:"required,oneof=text pitch-deck video"`
	Note      string `json:"note,omitempty" validate:"max=5"`
	Internal  string `json:"-"`
}

func TestStruct_Valid(t *testing.T) {
	assert.NoError(t, Struct(sample{UserID: "u1", EntryType: "video"}))
}

func TestStruct_ReportsJSONFieldNames(t *testing.T) {
	err := Struct(sample{EntryType: "podcast", Note: "too long"})
	require.Error(t, err)

	var verrs entity.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, map[string]string{
		"userId":    "is required",
		"entryType": "must be one of: text pitch-deck video",
		"note":      "must be at most 5 characters",
	}, verrs.Fields())
}

func TestStruct_NonStruct(t *testing.T) {
	err := Struct("not a struct")
	require.Error(t, err)
	assert.Nil(t, entity.FieldMessages(err))
}
