package report

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auditreport/internal/core"
)

func TestPrepareData_ChineseAmounts(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
		skip  bool
	}{
		{name: "float wan", value: 1475.0, want: "壹仟肆佰柒拾伍万元整"},
		{name: "fractional float wan", value: 12.3456, want: "壹拾贰万叁仟肆佰伍拾陆元整"},
		{name: "float sub yuan", value: 0.00015, want: "壹元伍角"},
		{name: "float out of range", value: 1e300, want: AmountPlaceholder},
		{name: "huge exponent string", value: "1e20000000", want: AmountPlaceholder},
		{name: "string with symbol and commas", value: "¥1,475.00", want: "壹仟肆佰柒拾伍万元整"},
		{name: "fractional wan", value: "12.3456", want: "壹拾贰万叁仟肆佰伍拾陆元整"},
		{name: "sub yuan", value: "0.00015", want: "壹元伍角"},
		{name: "garbage", value: "abc", want: AmountPlaceholder},
		{name: "negative", value: -5.0, want: AmountPlaceholder},
		{name: "empty string skipped", value: "", skip: true},
		{name: "zero skipped", value: 0.0, skip: true},
		{name: "null skipped", value: nil, skip: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := PrepareData(core.ReportData{"final_approved_amount": tt.value})
			got, ok := out["final_approved_amount_chinese"]
			if tt.skip {
				assert.False(t, ok, "got %v", got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrepareData_BothAmountFields(t *testing.T) {
	out := PrepareData(core.ReportData{
		"final_approved_amount": 1475.0,
		"reduction_amount":      75.8,
	})
	assert.Equal(t, "壹仟肆佰柒拾伍万元整", out["final_approved_amount_chinese"])
	assert.Equal(t, "柒拾伍万捌仟元整", out["reduction_amount_chinese"])
	assert.Equal(t, "1475", out["final_approved_amount"])
}

func TestPrepareData_DoesNotModifyInput(t *testing.T) {
	in := core.ReportData{
		"final_approved_amount": 1.0,
		"other_notes":           "a\r\nb",
		"adjustments":           []any{map[string]any{"content": "x", "amount": 1.0}},
	}
	PrepareData(in)
	assert.Equal(t, "a\r\nb", in["other_notes"])
	assert.NotContains(t, in, "final_approved_amount_chinese")
	assert.Contains(t, in, "adjustments")
}

func TestPrepareData_Multiline(t *testing.T) {
	out := PrepareData(core.ReportData{
		"other_notes":             "第一行\r\n第二行\r第三行",
		"quality_status":          "经审核，\n合格",
		"adjustments_description": "",
		"project_description":     "keep\r\nas is",
	})
	assert.Equal(t, "第一行\n第二行\n第三行", out["other_notes"])
	assert.Equal(t, "经审核，\n合格", out["quality_status"])
	assert.Equal(t, "", out["adjustments_description"])
	assert.Equal(t, "keep\r\nas is", out["project_description"])
}

func TestPrepareData_AdjustmentsAndFlattening(t *testing.T) {
	out := PrepareData(core.ReportData{
		"adjustments": []any{
			map[string]any{"content": "C30混凝土工程量按实调减", "amount": 12.5},
			map[string]any{"content": "亮化灯具品牌更换核减差价", "amount": "8.30"},
		},
		"duration_days": 365.0,
		"big":           14800000.0,
		"flag":          true,
		"nested":        map[string]any{"a": "<b>"},
		"missing":       nil,
	})

	assert.Equal(t, "（1）C30混凝土工程量按实调减，造价核减12.50万元；（2）亮化灯具品牌更换核减差价，造价核减8.30万元。", out[AdjustmentsTextKey])
	assert.NotContains(t, out, "adjustments")
	assert.Equal(t, "365", out["duration_days"])
	assert.Equal(t, "14800000", out["big"])
	assert.Equal(t, "true", out["flag"])
	assert.Equal(t, `{"a":"<b>"}`, out["nested"])
	assert.Equal(t, "", out["missing"])

	for k, v := range out {
		_, ok := v.(string)
		assert.True(t, ok, "%s is %T", k, v)
	}
}

func TestPrepareData_NoAdjustments(t *testing.T) {
	out := PrepareData(core.ReportData{})
	assert.Equal(t, "", out[AdjustmentsTextKey])
}

func TestPrepareData_DefaultPayload(t *testing.T) {
	data := core.DefaultReportData("江南大道亮化", "", time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC))
	out := Values(PrepareData(data))

	assert.Equal(t, "2026年01月02日", out["report_date"])
	assert.Equal(t, core.DefaultReportCode, out["report_code"])
	assert.NotEqual(t, AmountPlaceholder, out["final_approved_amount_chinese"])
	assert.Contains(t, out[AdjustmentsTextKey], "（2）")
}

type recordingRenderer struct {
	values map[string]string
	err    error
}

func (r *recordingRenderer) Render(ctx context.Context, templatePath string, values map[string]string, w io.Writer) error {
	r.values = values
	if r.err != nil {
		return r.err
	}
	_, err := io.WriteString(w, "docx:"+values["project_name"])
	return err
}

func writeTemplate(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "report_template.docx")
	require.NoError(t, os.WriteFile(path, []byte("template"), 0644))
	return path
}

func TestGenerator_Generate(t *testing.T) {
	outDir := t.TempDir()
	r := &recordingRenderer{}
	g := NewGenerator(writeTemplate(t), outDir, r)

	path, err := g.Generate(context.Background(), core.ReportData{"project_name": "p", "reduction_amount": 1.0}, "report")
	require.NoError(t, err)

	assert.Equal(t, outDir, filepath.Dir(path))
	assert.Regexp(t, regexp.MustCompile(`^report_[0-9a-f-]{36}\.docx$`), filepath.Base(path))
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "docx:p", string(content))
	assert.Equal(t, "壹万元整", r.values["reduction_amount_chinese"])
}

func TestGenerator_TemplateNotFound(t *testing.T) {
	g := NewGenerator(filepath.Join(t.TempDir(), "missing.docx"), t.TempDir(), &recordingRenderer{})
	assert.False(t, g.TemplateAvailable())

	_, err := g.Generate(context.Background(), core.ReportData{}, "report")
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestGenerator_RenderFailureRemovesOutput(t *testing.T) {
	outDir := t.TempDir()
	g := NewGenerator(writeTemplate(t), outDir, &recordingRenderer{err: errors.New("bad template")})

	_, err := g.Generate(context.Background(), core.ReportData{}, "preview")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTemplateNotFound)

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestNewGenerator_DefaultsToDocx(t *testing.T) {
	g := NewGenerator("t.docx", "out", nil)
	assert.IsType(t, DocxRenderer{}, g.Renderer)
}

func buildArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		fw, err := zw.Create(name)
		require.NoError(t, err)
		_, err = io.WriteString(fw, content)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func readArchive(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	out := make(map[string]string)
	for _, f := range zr.File {
		content, err := readZipFile(f)
		require.NoError(t, err)
		out[f.Name] = string(content)
	}
	return out
}

func TestExpandLineBreaks(t *testing.T) {
	src := buildArchive(t, map[string]string{
		"word/document.xml":   `<w:p><w:r><w:t>第一行` + lineBreakMark + `第二行</w:t></w:r></w:p>`,
		"word/footer1.xml":    `<w:t>a` + lineBreakMark + `b</w:t>`,
		"[Content_Types].xml": `<Types>` + lineBreakMark + `</Types>`,
	})

	var out bytes.Buffer
	require.NoError(t, expandLineBreaks(src, &out))
	files := readArchive(t, out.Bytes())

	assert.Equal(t, `<w:p><w:r><w:t>第一行</w:t><w:br/><w:t xml:space="preserve">第二行</w:t></w:r></w:p>`, files["word/document.xml"])
	assert.Equal(t, `<w:t>a</w:t><w:br/><w:t xml:space="preserve">b</w:t>`, files["word/footer1.xml"])
	assert.Equal(t, `<Types>`+lineBreakMark+`</Types>`, files["[Content_Types].xml"], "only document parts are rewritten")
}

func TestExpandLineBreaks_InvalidArchive(t *testing.T) {
	err := expandLineBreaks([]byte("not a zip"), io.Discard)
	assert.Error(t, err)
}
