// Package report turns a project's form payload into a rendered audit report.
package report

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"auditreport/internal/core"
)

// AmountPlaceholder is written when an amount cannot be converted.
const AmountPlaceholder = "***元整"

// ChineseSuffix is appended to an amount field name to form the key of its
// capitalized rendering.
const ChineseSuffix = "_chinese"

// AdjustmentsTextKey holds the rendered adjustments paragraph.
const AdjustmentsTextKey = "adjustments_text"

// Amount fields typed in 万元 that get a capitalized rendering.
var chineseAmountFields = []string{"final_approved_amount", "reduction_amount"}

// Free text fields whose line breaks are kept.
var multilineFields = []string{"adjustments_description", "other_notes", "quality_status"}

var lineBreaks = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// PrepareData derives the template values from a form payload. The input is
// not modified. Every value in the result is a string.
func PrepareData(data core.ReportData) core.ReportData {
	out := data.Clone()

	for _, field := range chineseAmountFields {
		if v, ok := out[field]; ok && present(v) {
			out[field+ChineseSuffix] = chineseAmount(v)
		}
	}

	for _, field := range multilineFields {
		if s, ok := out[field].(string); ok {
			out[field] = lineBreaks.Replace(s)
		}
	}

	out[AdjustmentsTextKey] = core.RenderAdjustments(core.AdjustmentsFromData(out["adjustments"]))
	delete(out, "adjustments")

	for k, v := range out {
		out[k] = flatten(v)
	}
	return out
}

// Values returns the string form of prepared data for a Renderer.
func Values(prepared core.ReportData) map[string]string {
	values := make(map[string]string, len(prepared))
	for k, v := range prepared {
		values[k] = flatten(v)
	}
	return values
}

// present mirrors form semantics: missing, empty and zero values are skipped.
func present(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return val != ""
	case float64:
		return val != 0
	case bool:
		return val
	default:
		return true
	}
}

// chineseAmount renders an amount typed in 万元. JSON numbers take the float
// path; everything else is parsed as text.
func chineseAmount(v any) string {
	var s string
	var err error
	if f, ok := v.(float64); ok {
		s, err = core.FloatToChinese(f * 10000)
	} else {
		var wan decimal.Decimal
		if wan, err = core.ParseAmount(core.TextValue(v)); err == nil {
			s, err = core.AmountToChinese(core.WanToYuan(wan))
		}
	}
	if err != nil {
		return AmountPlaceholder
	}
	return s
}

func flatten(v any) string {
	switch v.(type) {
	case []any, map[string]any:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(v); err != nil {
			return ""
		}
		return strings.TrimRight(buf.String(), "\n")
	default:
		return core.TextValue(v)
	}
}
