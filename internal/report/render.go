package report

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/lukasjarosch/go-docx"

	"auditreport/internal/core"
	applog "auditreport/internal/log"
)

// ErrTemplateNotFound is returned when the report template file is missing.
var ErrTemplateNotFound = errors.New("template file not found")

// Renderer fills a document template with values and writes the result to w.
type Renderer interface {
	Render(ctx context.Context, templatePath string, values map[string]string, w io.Writer) error
}

// lineBreakMark stands in for "\n" while values pass through the template
// engine. It is a private use character, so XML escaping leaves it alone.
const lineBreakMark = "\uE000"

var breakRun = []byte(`</w:t><w:br/><w:t xml:space="preserve">`)

// DocxRenderer replaces {key} placeholders in a .docx template. Placeholders
// without a value are left as they are. Line breaks in values become Word
// line breaks.
type DocxRenderer struct{}

func (DocxRenderer) Render(ctx context.Context, templatePath string, values map[string]string, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	doc, err := docx.Open(templatePath)
	if err != nil {
		return fmt.Errorf("open template: %w", err)
	}
	defer doc.Close()

	breaks := false
	placeholders := make(docx.PlaceholderMap, len(values))
	for k, v := range values {
		if strings.Contains(v, "\n") {
			breaks = true
			v = strings.ReplaceAll(v, "\n", lineBreakMark)
		}
		placeholders[k] = v
	}
	if err := doc.ReplaceAll(placeholders); err != nil {
		return fmt.Errorf("replace placeholders: %w", err)
	}

	if !breaks {
		if err := doc.Write(w); err != nil {
			return fmt.Errorf("write document: %w", err)
		}
		return nil
	}
	var buf bytes.Buffer
	if err := doc.Write(&buf); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return expandLineBreaks(buf.Bytes(), w)
}

// expandLineBreaks copies the .docx archive in src to w, turning every
// lineBreakMark in the document parts into a <w:br/> between text runs.
func expandLineBreaks(src []byte, w io.Writer) error {
	zr, err := zip.NewReader(bytes.NewReader(src), int64(len(src)))
	if err != nil {
		return fmt.Errorf("read rendered document: %w", err)
	}

	zw := zip.NewWriter(w)
	for _, f := range zr.File {
		data, err := readZipFile(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f.Name, err)
		}
		if strings.HasPrefix(f.Name, "word/") && strings.HasSuffix(f.Name, ".xml") {
			data = bytes.ReplaceAll(data, []byte(lineBreakMark), breakRun)
		}

		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     f.Name,
			Method:   f.Method,
			Modified: f.Modified,
		})
		if err != nil {
			return fmt.Errorf("write %s: %w", f.Name, err)
		}
		if _, err := fw.Write(data); err != nil {
			return fmt.Errorf("write %s: %w", f.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// Generator renders report documents into OutputDir.
type Generator struct {
	TemplatePath string
	OutputDir    string
	Renderer     Renderer
}

func NewGenerator(templatePath, outputDir string, renderer Renderer) *Generator {
	if renderer == nil {
		renderer = DocxRenderer{}
	}
	return &Generator{
		TemplatePath: templatePath,
		OutputDir:    outputDir,
		Renderer:     renderer,
	}
}

// TemplateAvailable reports whether the template file exists.
func (g *Generator) TemplateAvailable() bool {
	info, err := os.Stat(g.TemplatePath)
	return err == nil && !info.IsDir()
}

// Generate prepares data and renders it to <prefix>_<uuid>.docx, returning the
// path of the new file.
func (g *Generator) Generate(ctx context.Context, data core.ReportData, prefix string) (string, error) {
	if !g.TemplateAvailable() {
		return "", fmt.Errorf("%s: %w", g.TemplatePath, ErrTemplateNotFound)
	}
	if err := os.MkdirAll(g.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	path := filepath.Join(g.OutputDir, fmt.Sprintf("%s_%s.docx", prefix, uuid.NewString()))
	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create report file: %w", err)
	}

	err = g.Renderer.Render(ctx, g.TemplatePath, Values(PrepareData(data)), out)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("render report: %w", err)
	}

	applog.FromContext(ctx).WithComponent(applog.ComponentReport).InfoContext(ctx, "Report rendered",
		applog.FieldReportPath, path)

	return path, nil
}
