package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contest-api/internal/domain/entity"
)

func TestLoadFeeTable_EmptyPathUsesDefault(t *testing.T) {
	table, err := LoadFeeTable("")
	require.NoError(t, err)
	assert.Equal(t, entity.DefaultFeeTable, table)
}

func TestLoadFeeTable_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fees.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
categories:
  pitch-competition: 149
  business-plan: 49
`), 0o600))

	table, err := LoadFeeTable(path)
	require.NoError(t, err)

	fees, err := table.Calculate(entity.CategoryPitchCompetition)
	require.NoError(t, err)
	assert.Equal(t, entity.Fees{EntryFee: 149, Surcharge: 6, Total: 155}, fees)
	assert.False(t, table.Has(entity.CategorySocialImpact))
}

func TestLoadFeeTable_MissingFile(t *testing.T) {
	_, err := LoadFeeTable(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read fee table")
}

func TestParseFeeTable_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		msg  string
	}{
		{name: "no categories", yaml: "categories: {}", msg: "no categories"},
		{name: "empty document", yaml: "", msg: "no categories"},
		{name: "zero fee", yaml: "categories:\n  business-plan: 0", msg: "must be positive"},
		{name: "negative fee", yaml: "categories:\n  business-plan: -5", msg: "must be positive"},
		{name: "fractional fee", yaml: "categories:\n  business-plan: 49.5\n  pitch-competition: 99", msg: `fee for "business-plan" must be a whole number`},
		{name: "float with zero fraction", yaml: "categories:\n  business-plan: 49.0", msg: "must be a whole number"},
		{name: "quoted fee", yaml: "categories:\n  business-plan: \"49\"", msg: "must be a whole number"},
		{name: "null fee", yaml: "categories:\n  business-plan:", msg: "must be a whole number"},
		{name: "nested fee", yaml: "categories:\n  business-plan: {usd: 49}", msg: "must be a whole number"},
		{name: "out of range", yaml: "categories:\n  business-plan: 99999999999999999999", msg: "must be a whole number"},
		{name: "not yaml", yaml: "categories: [", msg: "failed to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFeeTable([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}
