package costing

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// InvalidMarginMarker is rendered in place of a price when the margin does not parse.
const InvalidMarginMarker = "Invalid margin"

// PriceSuggestion is a soft result: an unparsable margin is reported inside a successful
// response instead of failing the request.
type PriceSuggestion struct {
	Price decimal.Decimal
	Valid bool
}

// SuggestPrice marks total up by margin, a fraction such as "0.3" for thirty percent.
func SuggestPrice(total decimal.Decimal, margin string) PriceSuggestion {
	m, err := decimal.NewFromString(strings.TrimSpace(margin))
	if err != nil {
		return PriceSuggestion{}
	}
	return PriceSuggestion{
		Price: total.Mul(decimal.NewFromInt(1).Add(m)).RoundBank(centPlaces),
		Valid: true,
	}
}

func (p PriceSuggestion) MarshalJSON() ([]byte, error) {
	if !p.Valid {
		return json.Marshal(InvalidMarginMarker)
	}
	return json.Marshal(p.Price.InexactFloat64())
}
