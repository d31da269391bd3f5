// Package convert turns rendered documents into PDF with a headless office suite.
package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	applog "auditreport/internal/log"
)

// ErrConversionFailed is returned when the office process fails, times out or
// produces no output.
var ErrConversionFailed = errors.New("PDF conversion failed")

const DefaultTimeout = 30 * time.Second

// Converter converts a .docx file to PDF and returns the PDF path.
type Converter interface {
	ConvertToPDF(ctx context.Context, docxPath string) (string, error)
}

// SofficeConverter shells out to LibreOffice. At most Concurrency conversions
// run at the same time; further calls wait for a slot or their context.
type SofficeConverter struct {
	Binary  string
	OutDir  string
	Timeout time.Duration

	sem *semaphore.Weighted
}

func NewSofficeConverter(binary, outDir string, timeout time.Duration, concurrency int64) *SofficeConverter {
	if binary == "" {
		binary = "soffice"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &SofficeConverter{
		Binary:  binary,
		OutDir:  outDir,
		Timeout: timeout,
		sem:     semaphore.NewWeighted(concurrency),
	}
}

func (c *SofficeConverter) ConvertToPDF(ctx context.Context, docxPath string) (string, error) {
	logger := applog.FromContext(ctx).WithComponent(applog.ComponentConverter)

	if err := c.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("wait for converter: %w", err)
	}
	defer c.sem.Release(1)

	if err := os.MkdirAll(c.OutDir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(ctx, c.Binary,
		"--headless",
		"--convert-to", "pdf",
		"--outdir", c.OutDir,
		docxPath,
	)
	// LibreOffice keeps its profile under HOME; give it a writable one.
	cmd.Env = append(os.Environ(), "HOME="+c.OutDir)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = 2 * time.Second

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			err = fmt.Errorf("timed out after %v", c.Timeout)
		}
		logger.ErrorContext(ctx, "Office conversion failed",
			applog.FieldError, err.Error(),
			"stderr", strings.TrimSpace(stderr.String()),
			"stdout", strings.TrimSpace(stdout.String()))
		return "", fmt.Errorf("%w: %v", ErrConversionFailed, err)
	}

	base := strings.TrimSuffix(filepath.Base(docxPath), filepath.Ext(docxPath))
	pdfPath := filepath.Join(c.OutDir, base+".pdf")
	if _, err := os.Stat(pdfPath); err != nil {
		logger.ErrorContext(ctx, "Office conversion produced no PDF",
			applog.FieldPDFPath, pdfPath,
			"stdout", strings.TrimSpace(stdout.String()))
		return "", fmt.Errorf("%w: PDF file not generated", ErrConversionFailed)
	}

	logger.InfoContext(ctx, "Document converted to PDF",
		applog.FieldPDFPath, pdfPath,
		applog.FieldDuration, time.Since(start).Milliseconds())

	return pdfPath, nil
}
