package types

import (
	"encoding/json"
	"math"
	"testing"
)

func TestMoneyConstructors(t *testing.T) {
	tests := []struct {
		name     string
		money    Money
		amount   int64
		currency string
		display  string
	}{
		{"TWD", TWD(100), 100, "twd", "NT$100"},
		{"USD", Money{Amount: 4900, Currency: "usd"}, 4900, "usd", "$49.00"},
		{"JPY", Money{Amount: 100, Currency: "jpy"}, 100, "jpy", "¥100"},
		{"Zero TWD", Zero("TWD"), 0, "twd", "NT$0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.money.Amount != tt.amount {
				t.Errorf("Amount: got %d, want %d", tt.money.Amount, tt.amount)
			}
			if tt.money.Currency != tt.currency {
				t.Errorf("Currency: got %s, want %s", tt.money.Currency, tt.currency)
			}
			if tt.money.String() != tt.display {
				t.Errorf("Display: got %s, want %s", tt.money.String(), tt.display)
			}
		})
	}
}

func TestMoneyArithmetic(t *testing.T) {
	tests := []struct {
		name     string
		op       func() Money
		expected Money
	}{
		{"Add", func() Money { return TWD(100).Add(TWD(200)) }, TWD(300)},
		{"Multiply", func() Money { return TWD(100).Multiply(3) }, TWD(300)},
		{"Multiply by zero", func() Money { return TWD(100).Multiply(0) }, TWD(0)},
		{"Order price", func() Money { return TWD(100).Multiply(2).Add(TWD(100)) }, TWD(300)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.op()
			if !result.Equal(tt.expected) {
				t.Errorf("Got %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestMoneyMultiplyChecked(t *testing.T) {
	tests := []struct {
		name  string
		money Money
		qty   int64
		want  int64
		ok    bool
	}{
		{"Small", TWD(100), 3, 300, true},
		{"Zero quantity", TWD(100), 0, 0, true},
		{"Zero price", TWD(0), math.MaxInt64, 0, true},
		{"Largest fit", TWD(1), math.MaxInt64, math.MaxInt64, true},
		{"Wraps", TWD(100), 922337203685477581, 0, false},
		{"Max by two", TWD(2), math.MaxInt64, 0, false},
		{"Min by minus one", TWD(-1), math.MinInt64, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.money.MultiplyChecked(tt.qty)
			if ok != tt.ok {
				t.Fatalf("ok: got %v, want %v", ok, tt.ok)
			}
			if ok && got.Amount != tt.want {
				t.Errorf("Amount: got %d, want %d", got.Amount, tt.want)
			}
		})
	}
}

func TestMoneyCurrencyMismatch(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for currency mismatch")
		}
	}()

	_ = TWD(100).Add(Money{Amount: 100, Currency: "usd"})
}

func TestMoneyFormatMajor(t *testing.T) {
	tests := []struct {
		money    Money
		expected string
	}{
		{TWD(1250), "1250"},
		{TWD(-30), "-30"},
		{Money{Amount: 4900, Currency: "usd"}, "49.00"},
		{Money{Amount: 1, Currency: "usd"}, "0.01"},
		{Money{Amount: -4900, Currency: "usd"}, "-49.00"},
		{Money{Amount: 12345, Currency: "jpy"}, "12345"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.money.FormatMajor(); got != tt.expected {
				t.Errorf("FormatMajor: got %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestMoneyJSON(t *testing.T) {
	data, err := json.Marshal(TWD(300))
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	expected := `{"amount":300,"currency":"twd","display":"NT$300"}`
	if string(data) != expected {
		t.Errorf("JSON: got %s, want %s", string(data), expected)
	}
}

func TestSum(t *testing.T) {
	tests := []struct {
		name     string
		values   []Money
		expected Money
	}{
		{"Empty", nil, Zero("twd")},
		{"Single", []Money{TWD(100)}, TWD(100)},
		{"Multiple", []Money{TWD(100), TWD(200), TWD(300)}, TWD(600)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := Sum(tt.values...); !result.Equal(tt.expected) {
				t.Errorf("Sum: got %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestCurrencySymbols(t *testing.T) {
	tests := []struct {
		currency string
		symbol   string
	}{
		{"twd", "NT$"},
		{"TWD", "NT$"},
		{"usd", "$"},
		{"jpy", "¥"},
		{"unknown", "UNKNOWN "},
	}

	for _, tt := range tests {
		t.Run(tt.currency, func(t *testing.T) {
			if got := currencySymbol(tt.currency); got != tt.symbol {
				t.Errorf("Symbol for %s: got %s, want %s", tt.currency, got, tt.symbol)
			}
		})
	}
}

func BenchmarkMoneyString(b *testing.B) {
	m := TWD(4900)
	for b.Loop() {
		_ = m.String()
	}
}
