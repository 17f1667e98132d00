package entity

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// surchargeRate is the processor surcharge applied on top of the entry fee.
var surchargeRate = decimal.RequireFromString("0.04")

// Fees is the breakdown charged for one entry, in whole dollars.
type Fees struct {
	EntryFee  int64
	Surcharge int64
	Total     int64
}

// MinorUnits returns the total in cents, the unit the payment gateway charges in.
func (f Fees) MinorUnits() int64 {
	return f.Total * 100
}

// FeeTable maps each category to its base entry fee in whole dollars.
type FeeTable map[Category]int64

// DefaultFeeTable is the fee schedule used unless a fee table file overrides it.
var DefaultFeeTable = FeeTable{
	CategoryPitchCompetition:  99,
	CategoryBusinessPlan:      49,
	CategorySocialImpact:      49,
	CategoryStudentInnovation: 49,
}

// Calculate returns the fee breakdown for the category.
// The surcharge is ceil(fee * 0.04), computed without floating point.
// An unknown category yields a ValidationError wrapping ErrInvalidCategory.
func (t FeeTable) Calculate(c Category) (Fees, error) {
	fee, ok := t[c]
	if !ok {
		return Fees{}, &ValidationError{
			Field:   "category",
			Message: fmt.Sprintf("invalid category %q", c),
			Err:     ErrInvalidCategory,
		}
	}
	return ComputeFees(fee), nil
}

// Has reports whether the category is in the table.
func (t FeeTable) Has(c Category) bool {
	_, ok := t[c]
	return ok
}

// Categories returns the table's categories in lexical order.
func (t FeeTable) Categories() []Category {
	out := make([]Category, 0, len(t))
	for c := range t {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ComputeFees derives the surcharge and total for a base fee.
func ComputeFees(fee int64) Fees {
	surcharge := decimal.NewFromInt(fee).Mul(surchargeRate).Ceil().IntPart()
	return Fees{
		EntryFee:  fee,
		Surcharge: surcharge,
		Total:     fee + surcharge,
	}
}

// CalculateFees computes fees against DefaultFeeTable.
func CalculateFees(c Category) (Fees, error) {
	return DefaultFeeTable.Calculate(c)
}
