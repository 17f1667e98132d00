package entity

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateFees(t *testing.T) {
	tests := []struct {
		name     string
		category Category
		want     Fees
	}{
		{
			name:     "pitch competition is the higher tier",
			category: CategoryPitchCompetition,
			want:     Fees{EntryFee: 99, Surcharge: 4, Total: 103},
		},
		{
			name:     "business plan",
			category: CategoryBusinessPlan,
			want:     Fees{EntryFee: 49, Surcharge: 2, Total: 51},
		},
		{
			name:     "social impact",
			category: CategorySocialImpact,
			want:     Fees{EntryFee: 49, Surcharge: 2, Total: 51},
		},
		{
			name:     "student innovation",
			category: CategoryStudentInnovation,
			want:     Fees{EntryFee: 49, Surcharge: 2, Total: 51},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CalculateFees(tt.category)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCalculateFees_AllCategoriesHoldInvariant(t *testing.T) {
	for _, c := range DefaultFeeTable.Categories() {
		fees, err := CalculateFees(c)
		require.NoError(t, err)

		wantSurcharge := int64(math.Ceil(float64(fees.EntryFee) * 0.04))
		assert.Equal(t, wantSurcharge, fees.Surcharge, "surcharge for %s", c)
		assert.Equal(t, fees.EntryFee+fees.Surcharge, fees.Total, "total for %s", c)
	}
}

func TestCalculateFees_UnknownCategory(t *testing.T) {
	_, err := CalculateFees("poetry")
	require.Error(t, err)

	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "category", vErr.Field)
	assert.True(t, errors.Is(err, ErrInvalidCategory))
}

func TestComputeFees_RoundsUp(t *testing.T) {
	tests := []struct {
		fee           int64
		wantSurcharge int64
	}{
		{fee: 1, wantSurcharge: 1},
		{fee: 25, wantSurcharge: 1},
		{fee: 26, wantSurcharge: 2},
		{fee: 50, wantSurcharge: 2},
		{fee: 100, wantSurcharge: 4},
		{fee: 101, wantSurcharge: 5},
	}
	for _, tt := range tests {
		got := ComputeFees(tt.fee)
		if got.Surcharge != tt.wantSurcharge {
			t.Errorf("ComputeFees(%d).Surcharge = %d, want %d", tt.fee, got.Surcharge, tt.wantSurcharge)
		}
		if got.Total != tt.fee+tt.wantSurcharge {
			t.Errorf("ComputeFees(%d).Total = %d, want %d", tt.fee, got.Total, tt.fee+tt.wantSurcharge)
		}
	}
}

func TestFees_MinorUnits(t *testing.T) {
	fees := ComputeFees(49)
	assert.Equal(t, int64(5100), fees.MinorUnits())
}
