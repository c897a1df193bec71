package models

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a money value stored in a Document.
//
// It marshals as a plain JSON number and unmarshals leniently: numbers and
// numeric strings are parsed, anything else (null, "", booleans, garbage)
// becomes zero so that a single malformed entry never breaks a dashboard.
type Amount struct {
	decimal.Decimal
}

// NewAmount wraps a decimal value.
func NewAmount(d decimal.Decimal) Amount {
	return Amount{Decimal: d}
}

// AmountFromInt returns an Amount for a whole number.
func AmountFromInt(v int64) Amount {
	return Amount{Decimal: decimal.NewFromInt(v)}
}

// AmountFromFloat returns an Amount for a float value.
func AmountFromFloat(v float64) Amount {
	return Amount{Decimal: decimal.NewFromFloat(v)}
}

// ParseAmount parses user input such as "12", "12.50" or "12,50".
func ParseAmount(s string) (Amount, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, err
	}
	return Amount{Decimal: d}, nil
}

// Plus returns a + b.
func (a Amount) Plus(b Amount) Amount {
	return Amount{Decimal: a.Add(b.Decimal)}
}

// Minus returns a - b.
func (a Amount) Minus(b Amount) Amount {
	return Amount{Decimal: a.Sub(b.Decimal)}
}

// MarshalJSON implements json.Marshaler.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal.String()), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(data []byte) error {
	a.Decimal = coerceDecimal(data)
	return nil
}

func coerceDecimal(data []byte) decimal.Decimal {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return decimal.Zero
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return decimal.Zero
		}
		s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
		if s == "" {
			return decimal.Zero
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero
		}
		return d
	}

	d, err := decimal.NewFromString(string(data))
	if err != nil {
		return decimal.Zero
	}
	return d
}
