// Package gdrive archives generated reports into a Google Drive folder.
package gdrive

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	gdrive "google.golang.org/api/drive/v3"
	goption "google.golang.org/api/option"

	applog "auditreport/internal/log"
)

// Uploader stores files in one Drive folder.
type Uploader struct {
	svc      *gdrive.Service
	folderID string
	logger   *applog.Logger
}

// LoadCredentials returns service account JSON from the inline value or, when
// that is empty, from file.
func LoadCredentials(inlineJSON, file string) ([]byte, error) {
	inlineJSON = strings.TrimSpace(inlineJSON)
	file = strings.TrimSpace(file)
	switch {
	case inlineJSON != "":
		return []byte(inlineJSON), nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}
}

// New creates an Uploader authenticated with service account credentials.
// Extra options are applied after the credentials.
func New(ctx context.Context, folderID string, credentialsJSON []byte, logger *applog.Logger, opts ...goption.ClientOption) (*Uploader, error) {
	if strings.TrimSpace(folderID) == "" {
		return nil, errors.New("missing Drive folder ID")
	}

	clientOpts := []goption.ClientOption{goption.WithScopes(gdrive.DriveFileScope)}
	if len(credentialsJSON) > 0 {
		clientOpts = append(clientOpts, goption.WithCredentialsJSON(credentialsJSON))
	}
	clientOpts = append(clientOpts, opts...)

	svc, err := gdrive.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}

	return &Uploader{
		svc:      svc,
		folderID: folderID,
		logger:   logger.WithComponent(applog.ComponentArchive),
	}, nil
}

// Upload copies the file at path into the folder and returns the Drive file ID.
func (u *Uploader) Upload(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	name := filepath.Base(path)
	meta := &gdrive.File{
		Name:     name,
		Parents:  []string{u.folderID},
		MimeType: mimeType(name),
	}

	created, err := u.svc.Files.Create(meta).
		Media(f).
		SupportsAllDrives(true).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("upload %s to drive: %w", name, err)
	}

	u.logger.InfoContext(ctx, "Report archived to Google Drive",
		applog.FieldFilename, name,
		"drive_file_id", created.Id)

	return created.Id, nil
}

func mimeType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".pdf":
		return "application/pdf"
	}
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return "application/octet-stream"
}
