// Package core provides the report domain: projects, their attachments,
// amount parsing and the capitalized-numeral rendering used in reports.
//
// This file contains functions for parsing monetary amounts typed into the
// report form.
package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

var tenThousand = decimal.NewFromInt(10000)

// Bounds on typed amounts. Scientific notation is accepted, but only with
// exponents an amount field can plausibly need.
const (
	maxAmountLen      = 64
	maxAmountExponent = 32
)

// amountNoise lists the decorations users paste along with amounts.
var amountNoise = strings.NewReplacer("¥", "", "￥", "", ",", "", "，", "", " ", "", "\u00a0", "")

// ParseAmount parses a decimal amount as typed in the form.
//
// Currency signs, thousands separators and blanks are ignored, so "¥14,750,000.00"
// parses as 14750000. Negative values parse; callers that render them decide.
//
// Examples:
//
//	ParseAmount("1475")          -> 1475
//	ParseAmount("¥1,475.50")     -> 1475.5
//	ParseAmount("abc")           -> ErrInvalidAmount
//	ParseAmount("1e20000000")    -> ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = amountNoise.Replace(strings.TrimSpace(s))
	if s == "" || len(s) > maxAmountLen {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if exp := d.Exponent(); exp > maxAmountExponent || exp < -maxAmountExponent {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// WanToYuan converts an amount in 万元 (ten thousand yuan) to yuan.
func WanToYuan(wan decimal.Decimal) decimal.Decimal {
	return wan.Mul(tenThousand)
}

// FormatAmount formats v with two fraction digits, used for amounts that
// arrive as JSON numbers.
func FormatAmount(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}
