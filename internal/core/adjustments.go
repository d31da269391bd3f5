package core

import (
	"fmt"
	"strconv"
	"strings"
)

// Adjustment is one cost reduction line item of an audit report. Amount is in 万元.
type Adjustment struct {
	Content string
	Amount  string
}

// RenderAdjustments writes the adjustment items as one paragraph:
//
//	（1）C30混凝土工程量按实调减，造价核减12.50万元；（2）…，造价核减8.30万元。
//
// Items are separated by a full-width semicolon and the last one ends with a
// full-width period. An empty list renders as "".
func RenderAdjustments(items []Adjustment) string {
	var sb strings.Builder
	for i, item := range items {
		fmt.Fprintf(&sb, "（%d）%s，造价核减%s万元", i+1, item.Content, item.Amount)
		if i == len(items)-1 {
			sb.WriteString("。")
		} else {
			sb.WriteString("；")
		}
	}
	return sb.String()
}

// AdjustmentsFromData extracts the "adjustments" list from a decoded JSON
// payload. Entries that are not objects are skipped; numeric amounts are
// formatted with two decimals and string amounts are kept as typed.
func AdjustmentsFromData(v any) []Adjustment {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]Adjustment, 0, len(list))
	for _, raw := range list {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, Adjustment{
			Content: strings.TrimSpace(TextValue(m["content"])),
			Amount:  amountText(m["amount"]),
		})
	}
	return out
}

func amountText(v any) string {
	switch val := v.(type) {
	case float64:
		return FormatAmount(val)
	case int:
		return FormatAmount(float64(val))
	case int64:
		return FormatAmount(float64(val))
	default:
		return strings.TrimSpace(TextValue(v))
	}
}

// TextValue converts a decoded JSON value to its display text. Floats are
// written without exponent.
func TextValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}
