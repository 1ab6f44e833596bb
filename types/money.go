// Package types provides common value types used across groupbuy.
package types

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultCurrency is the currency group-buy prices are quoted in.
const DefaultCurrency = "twd"

// Money represents a monetary value in the smallest currency unit.
// All arithmetic is integer-only.
//
// Examples:
//   - TWD(100) = NT$100
//   - Money{Amount: 4900, Currency: "usd"} = $49.00 (4900 cents)
type Money struct {
	Amount   int64  `json:"amount"   bson:"amount"`   // Smallest unit (dollars for TWD, cents for USD)
	Currency string `json:"currency" bson:"currency"` // ISO 4217 lowercase: "twd", "usd"
}

// TWD creates a Money value in New Taiwan Dollars (no minor unit in practice).
func TWD(dollars int64) Money { return Money{Amount: dollars, Currency: "twd"} }

// Zero returns a zero Money value in the specified currency.
func Zero(currency string) Money { return Money{Amount: 0, Currency: strings.ToLower(currency)} }

// Add adds two Money values. Panics if currencies don't match.
func (m Money) Add(other Money) Money {
	m.assertSameCurrency(other)
	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}
}

// Multiply multiplies the Money by a quantity.
func (m Money) Multiply(qty int64) Money {
	return Money{Amount: m.Amount * qty, Currency: m.Currency}
}

// MultiplyChecked is Multiply that reports false instead of wrapping when
// the product does not fit in an int64.
func (m Money) MultiplyChecked(qty int64) (Money, bool) {
	if m.Amount == 0 || qty == 0 {
		return Money{Amount: 0, Currency: m.Currency}, true
	}
	p := m.Multiply(qty)
	if p.Amount/qty != m.Amount || (m.Amount == -1 && qty == math.MinInt64) || (qty == -1 && m.Amount == math.MinInt64) {
		return Money{}, false
	}
	return p, true
}

// IsZero returns true if the amount is zero.
func (m Money) IsZero() bool { return m.Amount == 0 }

// Equal returns true if both Money values are equal (same amount and currency).
func (m Money) Equal(other Money) bool {
	return m.Amount == other.Amount && m.Currency == other.Currency
}

// FormatMajor returns the major unit string without currency symbol.
// "100" for TWD(100), "49.00" for 4900 US cents.
func (m Money) FormatMajor() string {
	decimals := currencyDecimals(m.Currency)
	if decimals == 0 {
		return strconv.FormatInt(m.Amount, 10)
	}

	divisor := int64(1)
	for range decimals {
		divisor *= 10
	}

	abs := m.Amount
	sign := ""
	if abs < 0 {
		abs = -abs
		sign = "-"
	}

	return fmt.Sprintf("%s%d.%0*d", sign, abs/divisor, decimals, abs%divisor)
}

// String returns a human-readable string with currency symbol.
// Examples: "NT$100", "$49.00", "¥100"
func (m Money) String() string {
	return currencySymbol(m.Currency) + m.FormatMajor()
}

// MarshalJSON implements json.Marshaler.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
		Display  string `json:"display"`
	}{
		Amount:   m.Amount,
		Currency: m.Currency,
		Display:  m.String(),
	})
}

// Sum calculates the sum of multiple Money values. All must have the same currency.
func Sum(values ...Money) Money {
	if len(values) == 0 {
		return Zero(DefaultCurrency)
	}

	result := values[0]
	for _, v := range values[1:] {
		result = result.Add(v)
	}
	return result
}

func (m Money) assertSameCurrency(other Money) {
	if m.Currency != other.Currency {
		panic(fmt.Sprintf("money: currency mismatch: %s != %s", m.Currency, other.Currency))
	}
}

func currencySymbol(currency string) string {
	switch strings.ToLower(currency) {
	case "twd":
		return "NT$"
	case "usd":
		return "$"
	case "jpy":
		return "¥"
	default:
		return strings.ToUpper(currency) + " "
	}
}

// currencyDecimals returns the number of decimal places shown for a currency.
// TWD is quoted in whole dollars at every shop this bot is used with.
func currencyDecimals(currency string) int {
	switch strings.ToLower(currency) {
	case "twd", "jpy", "krw", "vnd":
		return 0
	default:
		return 2
	}
}
