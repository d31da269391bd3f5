// Package files stores uploaded project attachments on local disk.
package files

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	applog "auditreport/internal/log"
)

// DefaultMaxSize is the upload limit used when none is configured.
const DefaultMaxSize int64 = 50 << 20

var (
	ErrTooLarge    = errors.New("file exceeds the upload size limit")
	ErrInvalidName = errors.New("invalid file name")
)

// DiskStore saves uploads under Dir as <8 hex chars>_<base name>.
type DiskStore struct {
	Dir     string
	MaxSize int64
}

func NewDiskStore(dir string, maxSize int64) (*DiskStore, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &DiskStore{Dir: dir, MaxSize: maxSize}, nil
}

// BaseName reduces a client supplied file name to its last path element.
// Both slash styles are treated as separators.
func BaseName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSpace(name)
	if name == "." || name == ".." {
		return ""
	}
	return name
}

// Save copies r to a new file and returns its path and size. A partially
// written file is removed on error.
func (s *DiskStore) Save(ctx context.Context, originalName string, r io.Reader) (string, int64, error) {
	base := BaseName(originalName)
	if base == "" {
		return "", 0, ErrInvalidName
	}

	path := filepath.Join(s.Dir, uuid.New().String()[:8]+"_"+base)
	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", 0, fmt.Errorf("create upload file: %w", err)
	}

	n, err := io.Copy(out, io.LimitReader(r, s.MaxSize+1))
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > s.MaxSize {
		err = ErrTooLarge
	}
	if err != nil {
		os.Remove(path)
		if errors.Is(err, ErrTooLarge) {
			return "", 0, err
		}
		return "", 0, fmt.Errorf("write upload file: %w", err)
	}

	applog.FromContext(ctx).WithComponent(applog.ComponentFiles).DebugContext(ctx, "Upload stored",
		applog.FieldFilename, base,
		applog.FieldSizeBytes, n,
		"stored_path", path)

	return path, n, nil
}

// Remove deletes a stored file. A file that is already gone is not an error.
func (s *DiskStore) Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}
