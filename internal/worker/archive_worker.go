package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"auditreport/internal/amqp"
	"auditreport/internal/cache"
	applog "auditreport/internal/log"
)

// Archiver stores a local file somewhere durable and returns its remote ID.
type Archiver interface {
	Upload(ctx context.Context, path string) (string, error)
}

// Uploads remembered so a redelivered message does not archive a file twice.
const (
	uploadedMemory    = 4096
	uploadedMemoryTTL = 24 * time.Hour
)

// ArchiveWorker copies generated reports to long term storage as they are
// announced on the queue.
type ArchiveWorker struct {
	archiver Archiver
	logger   *applog.Logger
	previews bool
	uploaded *cache.LRUCache[string]
}

// NewArchiveWorker creates a worker. Preview reports are only archived when
// includePreviews is set.
func NewArchiveWorker(archiver Archiver, logger *applog.Logger, includePreviews bool) *ArchiveWorker {
	return &ArchiveWorker{
		archiver: archiver,
		logger:   logger.WithComponent(applog.ComponentWorker),
		previews: includePreviews,
		uploaded: cache.NewLRUCache[string](uploadedMemory, uploadedMemoryTTL),
	}
}

// HandleReportGenerated archives the document and PDF named by msg. Files that
// no longer exist are skipped. An upload failure is returned so the message is
// redelivered; files archived by an earlier delivery are not uploaded again.
func (w *ArchiveWorker) HandleReportGenerated(ctx context.Context, msg *amqp.ReportGeneratedMessage) error {
	if msg.Kind == amqp.KindPreview && !w.previews {
		w.logger.DebugContext(ctx, "Skipping preview report", applog.FieldReportPath, msg.DocxPath)
		return nil
	}

	w.logger.InfoContext(ctx, "Processing report generated message",
		"kind", msg.Kind,
		applog.FieldReportPath, msg.DocxPath,
		applog.FieldPDFPath, msg.PDFPath,
		applog.FieldRequestID, msg.RequestID)

	archived := 0
	for _, path := range []string{msg.DocxPath, msg.PDFPath} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			w.logger.WarnContext(ctx, "Report file no longer exists, skipping",
				applog.FieldReportPath, path)
			continue
		}
		if id, ok := w.uploaded.Get(path); ok {
			w.logger.DebugContext(ctx, "Report file already archived", applog.FieldReportPath, path, "file_id", id)
			continue
		}

		id, err := w.archiver.Upload(ctx, path)
		if err != nil {
			applog.LogError(ctx, "Failed to archive report", err, applog.ComponentWorker, applog.OpArchive,
				applog.NewFields().WithRequestID(msg.RequestID))
			return fmt.Errorf("archive %s: %w", path, err)
		}
		w.uploaded.Set(path, id)
		archived++
	}

	w.logger.InfoContext(ctx, "Report archived",
		applog.FieldReportPath, msg.DocxPath,
		"files", archived)

	return nil
}
