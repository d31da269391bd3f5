package core

import (
	"errors"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// ZeroYuan is the rendering of a zero amount.
const ZeroYuan = "零元整"

var (
	ErrNegativeAmount   = errors.New("amount must not be negative")
	ErrNonFiniteAmount  = errors.New("amount must be a finite number")
	ErrAmountOutOfRange = errors.New("amount exceeds the largest grouping unit")
)

var (
	capitalDigits  = [10]string{"零", "壹", "贰", "叁", "肆", "伍", "陆", "柒", "捌", "玖"}
	positionUnits  = [4]string{"", "拾", "佰", "仟"}
	groupingUnits  = [4]string{"", "万", "亿", "兆"}
	maxMajorDigits = len(groupingUnits) * 4

	hundred = decimal.NewFromInt(100)
)

// tokenKind tags the last token written by the numeral accumulator.
type tokenKind int

const (
	tokenNone tokenKind = iota
	tokenDigit
	tokenUnit
	tokenZero
	tokenGroup
)

// numeralBuilder accumulates the whole-yuan part of an amount. It tracks the
// kind of the last emitted token so zero markers can be collapsed and dropped
// in front of grouping units without string post-processing.
type numeralBuilder struct {
	parts []string
	kinds []tokenKind
}

func (b *numeralBuilder) last() tokenKind {
	if len(b.kinds) == 0 {
		return tokenNone
	}
	return b.kinds[len(b.kinds)-1]
}

func (b *numeralBuilder) emit(kind tokenKind, s string) {
	if s == "" {
		return
	}
	b.parts = append(b.parts, s)
	b.kinds = append(b.kinds, kind)
}

func (b *numeralBuilder) zero() {
	// No leading zero and no runs of zeros.
	switch b.last() {
	case tokenNone, tokenZero:
		return
	}
	b.emit(tokenZero, capitalDigits[0])
}

func (b *numeralBuilder) group(idx int) {
	if b.last() == tokenZero {
		b.parts = b.parts[:len(b.parts)-1]
		b.kinds = b.kinds[:len(b.kinds)-1]
	}
	b.emit(tokenGroup, groupingUnits[idx])
}

func (b *numeralBuilder) trimTrailingZeros() {
	for b.last() == tokenZero {
		b.parts = b.parts[:len(b.parts)-1]
		b.kinds = b.kinds[:len(b.kinds)-1]
	}
}

func (b *numeralBuilder) String() string {
	return strings.Join(b.parts, "")
}

// AmountToChinese renders a yuan amount in capitalized Chinese numerals as used
// on financial documents, e.g. 14750000 -> 壹仟肆佰柒拾伍万元整.
//
// The amount is first quantized to fen (hundredths), rounding half away from
// zero. When a fen digit is present without a jiao digit no zero jiao term is
// written: 0.05 renders as 零元伍分.
func AmountToChinese(amount decimal.Decimal) (string, error) {
	if amount.IsNegative() {
		return "", ErrNegativeAmount
	}
	if amount.IsZero() {
		return ZeroYuan, nil
	}

	// The value is below 10^magnitude. Range checks use it so that no big
	// integer is built from the exponent alone.
	magnitude := amount.NumDigits() + int(amount.Exponent())
	if magnitude > maxMajorDigits {
		return "", ErrAmountOutOfRange
	}
	if magnitude < -2 {
		// Below 0.001, nothing survives quantization to fen.
		return ZeroYuan, nil
	}
	if amount.Exponent() < -3 {
		// Three fraction digits decide half-up rounding to fen.
		amount = amount.Truncate(3)
	}

	minor := amount.Mul(hundred).Round(0)
	major, rest := minor.QuoRem(hundred, 0)
	jiao, fen := rest.IntPart()/10, rest.IntPart()%10

	majorDigits := major.String()
	if len(majorDigits) > maxMajorDigits {
		return "", ErrAmountOutOfRange
	}

	var sb strings.Builder
	if major.IsZero() {
		sb.WriteString(capitalDigits[0])
	} else {
		sb.WriteString(wholePart(majorDigits))
	}
	sb.WriteString("元")

	if jiao == 0 && fen == 0 {
		sb.WriteString("整")
		return sb.String(), nil
	}
	if jiao != 0 {
		sb.WriteString(capitalDigits[jiao])
		sb.WriteString("角")
	}
	if fen != 0 {
		sb.WriteString(capitalDigits[fen])
		sb.WriteString("分")
	}
	return sb.String(), nil
}

// wholePart renders a string of decimal digits with no leading zeros.
func wholePart(digits string) string {
	var b numeralBuilder
	groupHasDigit := false
	for i := 0; i < len(digits); i++ {
		d := int(digits[i] - '0')
		pos := len(digits) - i - 1

		if d == 0 {
			b.zero()
		} else {
			b.emit(tokenDigit, capitalDigits[d])
			b.emit(tokenUnit, positionUnits[pos%4])
			groupHasDigit = true
		}

		if pos%4 == 0 {
			// An all-zero group gets no unit; its zero marker carries over.
			if pos > 0 && groupHasDigit {
				b.group(pos / 4)
			}
			groupHasDigit = false
		}
	}
	b.trimTrailingZeros()
	return b.String()
}

// FloatToChinese is AmountToChinese for float input. NaN and infinities are
// rejected before conversion.
func FloatToChinese(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", ErrNonFiniteAmount
	}
	return AmountToChinese(decimal.NewFromFloat(f))
}
