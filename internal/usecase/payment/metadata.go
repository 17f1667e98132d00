package payment

import (
	"fmt"
	"strconv"

	"contest-api/internal/domain/entity"
)

// Metadata keys stored on every intent.
const (
	MetaCategory    = "category"
	MetaEntryType   = "entryType"
	MetaEntryFee    = "entryFee"
	MetaSurcharge   = "surcharge"
	MetaTotalAmount = "totalAmount"
)

// Currency is the only currency entries are charged in.
const Currency = "usd"

// Quote is what an entrant is charged for one category and entry type.
type Quote struct {
	Category  entity.Category
	EntryType entity.EntryType
	Fees      entity.Fees
}

// Metadata encodes the quote for the gateway.
func (q Quote) Metadata() map[string]string {
	return map[string]string{
		MetaCategory:    string(q.Category),
		MetaEntryType:   string(q.EntryType),
		MetaEntryFee:    strconv.FormatInt(q.Fees.EntryFee, 10),
		MetaSurcharge:   strconv.FormatInt(q.Fees.Surcharge, 10),
		MetaTotalAmount: strconv.FormatInt(q.Fees.Total, 10),
	}
}

// QuoteFromIntent rebuilds the quote an intent was opened with.
//
// The fee is read from metadata and the surcharge and total are recomputed from
// it; a mismatch with the stored values or with the charged amount means the
// metadata cannot be trusted and ErrInvalidMetadata is returned.
func QuoteFromIntent(in *Intent) (Quote, error) {
	md := in.Metadata
	category := entity.Category(md[MetaCategory])
	entryType := entity.EntryType(md[MetaEntryType])
	if category == "" || !entryType.IsValid() {
		return Quote{}, fmt.Errorf("%w: category=%q entryType=%q", ErrInvalidMetadata, category, entryType)
	}

	fee, err := strconv.ParseInt(md[MetaEntryFee], 10, 64)
	if err != nil || fee <= 0 {
		return Quote{}, fmt.Errorf("%w: entryFee=%q", ErrInvalidMetadata, md[MetaEntryFee])
	}
	fees := entity.ComputeFees(fee)

	if s, ok := md[MetaSurcharge]; ok && s != strconv.FormatInt(fees.Surcharge, 10) {
		return Quote{}, fmt.Errorf("%w: surcharge=%q", ErrInvalidMetadata, s)
	}
	if s, ok := md[MetaTotalAmount]; ok && s != strconv.FormatInt(fees.Total, 10) {
		return Quote{}, fmt.Errorf("%w: totalAmount=%q", ErrInvalidMetadata, s)
	}
	if in.Amount != 0 && in.Amount != fees.MinorUnits() {
		return Quote{}, fmt.Errorf("%w: amount %d does not match total %d", ErrInvalidMetadata, in.Amount, fees.MinorUnits())
	}

	return Quote{Category: category, EntryType: entryType, Fees: fees}, nil
}
