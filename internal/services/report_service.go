package services

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/singleflight"

	"auditreport/internal/amqp"
	"auditreport/internal/cache"
	"auditreport/internal/convert"
	"auditreport/internal/core"
	applog "auditreport/internal/log"
	"auditreport/internal/middleware/trace"
)

// File name prefixes of generated documents.
const (
	PrefixReport  = "report"
	PrefixPreview = "preview"
)

// DefaultReportTimeout bounds a single generate or preview request.
const DefaultReportTimeout = 60 * time.Second

// DefaultPreviewGrace is how long an evicted preview PDF stays on disk, so
// responses already holding its path can still stream it.
const DefaultPreviewGrace = time.Minute

// ReportGenerator renders report data to a document file.
type ReportGenerator interface {
	Generate(ctx context.Context, data core.ReportData, prefix string) (string, error)
	TemplateAvailable() bool
}

// Publisher announces generated reports.
type Publisher interface {
	PublishReportGenerated(ctx context.Context, msg *amqp.ReportGeneratedMessage) error
}

// ReportService produces report documents and PDF previews from form data.
// Requests share no state apart from the preview cache. Identical previews
// in flight at the same time share one conversion.
type ReportService struct {
	generator ReportGenerator
	converter convert.Converter
	publisher Publisher
	previews  *cache.LRUCache[string]
	inflight  singleflight.Group
	timeout   time.Duration
}

// ReportOption configures optional ReportService collaborators.
type ReportOption func(*ReportService)

// WithPublisher publishes a message for every generated report.
func WithPublisher(p Publisher) ReportOption {
	return func(s *ReportService) { s.publisher = p }
}

// WithPreviewCache reuses PDFs for identical preview payloads.
func WithPreviewCache(c *cache.LRUCache[string]) ReportOption {
	return func(s *ReportService) { s.previews = c }
}

// WithTimeout overrides DefaultReportTimeout.
func WithTimeout(d time.Duration) ReportOption {
	return func(s *ReportService) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func NewReportService(generator ReportGenerator, converter convert.Converter, opts ...ReportOption) *ReportService {
	s := &ReportService{
		generator: generator,
		converter: converter,
		timeout:   DefaultReportTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewPreviewCache returns a cache of preview PDF paths that deletes a PDF from
// disk grace after its entry is dropped. A zero grace deletes immediately.
func NewPreviewCache(size int, ttl, grace time.Duration) *cache.LRUCache[string] {
	return cache.NewLRUCache[string](size, ttl).OnEvict(func(_ string, pdfPath string) {
		if grace <= 0 {
			os.Remove(pdfPath)
			return
		}
		time.AfterFunc(grace, func() { os.Remove(pdfPath) })
	})
}

// TemplateAvailable reports whether reports can currently be rendered.
func (s *ReportService) TemplateAvailable() bool {
	return s.generator.TemplateAvailable()
}

// GenerateDocx renders data to a .docx file and returns its path.
func (s *ReportService) GenerateDocx(ctx context.Context, data core.ReportData) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	path, err := s.generator.Generate(ctx, data, PrefixReport)
	if err != nil {
		return "", err
	}

	s.publish(ctx, amqp.KindDocument, path, "", data)
	return path, nil
}

// PreviewPDF renders data and converts it to PDF, returning the PDF path.
// Identical payloads are served from the preview cache while the PDF exists.
func (s *ReportService) PreviewPDF(ctx context.Context, data core.ReportData) (string, error) {
	logger := applog.FromContext(ctx).WithComponent(applog.ComponentReport)

	if s.previews == nil {
		return s.renderPreview(ctx, data, "")
	}
	key, err := cache.Key(data)
	if err != nil {
		logger.WarnContext(ctx, "Preview payload not cacheable", applog.FieldError, err.Error())
		return s.renderPreview(ctx, data, "")
	}
	if pdf, ok := s.previews.Get(key); ok && fileExists(pdf) {
		logger.DebugContext(ctx, "Preview served from cache", applog.FieldPDFPath, pdf)
		return pdf, nil
	}

	// The shared conversion outlives any single caller; each caller still
	// stops waiting when its own context ends.
	shared := context.WithoutCancel(ctx)
	ch := s.inflight.DoChan(key, func() (any, error) {
		return s.renderPreview(shared, data, key)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		if res.Shared {
			logger.DebugContext(ctx, "Preview conversion shared", applog.FieldPDFPath, res.Val)
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// renderPreview generates and converts one preview, caching the PDF under
// key when key is set.
func (s *ReportService) renderPreview(ctx context.Context, data core.ReportData, key string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	docx, err := s.generator.Generate(ctx, data, PrefixPreview)
	if err != nil {
		return "", err
	}
	pdf, err := s.converter.ConvertToPDF(ctx, docx)
	if err != nil {
		return "", err
	}

	if key != "" {
		s.previews.Set(key, pdf)
	}
	s.publish(ctx, amqp.KindPreview, docx, pdf, data)
	return pdf, nil
}

func (s *ReportService) publish(ctx context.Context, kind, docx, pdf string, data core.ReportData) {
	if s.publisher == nil {
		return
	}
	msg := amqp.NewReportGeneratedMessage(kind, docx, pdf)
	msg.ProjectName = core.TextValue(data["project_name"])
	msg.ReportCode = core.TextValue(data["report_code"])
	msg.RequestID = trace.GetRequestID(ctx)

	// Publishing never fails the request; the document already exists.
	if err := s.publisher.PublishReportGenerated(ctx, msg); err != nil {
		applog.LogError(ctx, "Failed to publish report generated message", err, applog.ComponentAMQP, applog.OpPublish,
			applog.NewFields().WithRequestID(msg.RequestID))
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// IsTimeout reports whether err came from a request running out of time.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
