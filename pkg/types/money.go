package types

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of fractional digits amounts are stored and shown with.
const MoneyPlaces = 2

// Money marshals a decimal as a string with exactly two fractional digits
// ("300.00", not "300"). It is used by MarshalJSON methods of response and
// payload types; values are still parsed back into decimal.Decimal.
type Money decimal.Decimal

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(decimal.Decimal(m).StringFixed(MoneyPlaces))
}
