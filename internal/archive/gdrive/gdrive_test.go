package gdrive

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goption "google.golang.org/api/option"

	applog "auditreport/internal/log"
)

func TestLoadCredentials(t *testing.T) {
	file := filepath.Join(t.TempDir(), "sa.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"type":"service_account"}`), 0600))

	b, err := LoadCredentials(` {"inline":true} `, file)
	require.NoError(t, err)
	assert.Equal(t, `{"inline":true}`, string(b), "inline JSON wins")

	b, err = LoadCredentials("", file)
	require.NoError(t, err)
	assert.Contains(t, string(b), "service_account")

	_, err = LoadCredentials("", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = LoadCredentials("", "")
	assert.Error(t, err)
}

func TestNew_RequiresFolder(t *testing.T) {
	_, err := New(context.Background(), " ", nil, applog.New(applog.Config{Output: io.Discard}))
	assert.Error(t, err)
}

func TestUploader_Upload(t *testing.T) {
	var mu sync.Mutex
	var gotPath, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		gotPath, gotBody = r.URL.Path, string(body)
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"file-123"}`)
	}))
	defer srv.Close()

	var logs bytes.Buffer
	u, err := New(context.Background(), "folder-1", nil, applog.New(applog.Config{Output: &logs}),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()),
		goption.WithoutAuthentication(),
	)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "report_abc.docx")
	require.NoError(t, os.WriteFile(path, []byte("DOCX-BYTES"), 0644))

	id, err := u.Upload(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "file-123", id)

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, strings.HasSuffix(gotPath, "/files"), "path %s", gotPath)
	assert.Contains(t, gotBody, "DOCX-BYTES")
	assert.Contains(t, gotBody, "folder-1")
	assert.Contains(t, logs.String(), "file-123")
}

func TestUploader_UploadMissingFile(t *testing.T) {
	u := &Uploader{folderID: "f", logger: applog.New(applog.Config{Output: io.Discard})}
	_, err := u.Upload(context.Background(), filepath.Join(t.TempDir(), "gone.pdf"))
	assert.Error(t, err)
}

func TestMimeType(t *testing.T) {
	assert.Equal(t, "application/pdf", mimeType("a.PDF"))
	assert.Contains(t, mimeType("a.docx"), "wordprocessingml")
	assert.Equal(t, "application/octet-stream", mimeType("noext"))
}
