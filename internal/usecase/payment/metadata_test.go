package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contest-api/internal/domain/entity"
)

func TestQuote_RoundTrip(t *testing.T) {
	q := Quote{
		Category:  entity.CategoryPitchCompetition,
		EntryType: entity.EntryTypePitchDeck,
		Fees:      entity.ComputeFees(99),
	}
	intent := &Intent{ID: "pi_1", Status: IntentSucceeded, Amount: 10300, Metadata: q.Metadata()}

	got, err := QuoteFromIntent(intent)
	require.NoError(t, err)
	assert.Equal(t, q, got)
}

func TestQuoteFromIntent_RecomputesFromFee(t *testing.T) {
	// 金額系は entryFee から再計算し、クライアント由来の値は信用しない
	intent := &Intent{Metadata: map[string]string{
		MetaCategory:  "social-impact",
		MetaEntryType: "text",
		MetaEntryFee:  "49",
	}}

	got, err := QuoteFromIntent(intent)
	require.NoError(t, err)
	assert.Equal(t, entity.Fees{EntryFee: 49, Surcharge: 2, Total: 51}, got.Fees)
}

func TestQuoteFromIntent_Rejects(t *testing.T) {
	valid := func() map[string]string {
		return Quote{Category: "business-plan", EntryType: "video", Fees: entity.ComputeFees(49)}.Metadata()
	}
	tests := []struct {
		name   string
		mutate func(md map[string]string, in *Intent)
	}{
		{name: "missing category", mutate: func(md map[string]string, _ *Intent) { delete(md, MetaCategory) }},
		{name: "bad entry type", mutate: func(md map[string]string, _ *Intent) { md[MetaEntryType] = "podcast" }},
		{name: "non numeric fee", mutate: func(md map[string]string, _ *Intent) { md[MetaEntryFee] = "free" }},
		{name: "zero fee", mutate: func(md map[string]string, _ *Intent) { md[MetaEntryFee] = "0" }},
		{name: "tampered surcharge", mutate: func(md map[string]string, _ *Intent) { md[MetaSurcharge] = "0" }},
		{name: "tampered total", mutate: func(md map[string]string, _ *Intent) { md[MetaTotalAmount] = "1" }},
		{name: "amount mismatch", mutate: func(_ map[string]string, in *Intent) { in.Amount = 100 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := &Intent{Amount: 5100, Metadata: valid()}
			tt.mutate(in.Metadata, in)

			_, err := QuoteFromIntent(in)
			assert.ErrorIs(t, err, ErrInvalidMetadata)
		})
	}
}
