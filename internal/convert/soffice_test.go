package convert

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSoffice writes a shell script standing in for LibreOffice. The body
// sees the office arguments as $1..$5 (--headless --convert-to pdf --outdir DIR)
// and the document as $6.
func fakeSoffice(t *testing.T, body string) string {
	t.Helper()
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("requires /bin/sh")
	}
	path := filepath.Join(t.TempDir(), "soffice")
	script := "#!/bin/sh\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0755))
	return path
}

const writesPDF = `out="$5"; doc="$6"; name=$(basename "$doc" .docx); printf '%%PDF' > "$out/$name.pdf"; echo "$HOME" > "$out/home.txt"`

func writeDocx(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "preview_1234.docx")
	require.NoError(t, os.WriteFile(path, []byte("docx"), 0644))
	return path
}

func TestSofficeConverter_Success(t *testing.T) {
	outDir := t.TempDir()
	c := NewSofficeConverter(fakeSoffice(t, writesPDF), outDir, 5*time.Second, 1)

	pdf, err := c.ConvertToPDF(context.Background(), writeDocx(t))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outDir, "preview_1234.pdf"), pdf)

	home, err := os.ReadFile(filepath.Join(outDir, "home.txt"))
	require.NoError(t, err)
	assert.Equal(t, outDir+"\n", string(home), "HOME points at the output directory")
}

func TestSofficeConverter_Failures(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		timeout time.Duration
	}{
		{name: "non-zero exit", body: `echo "boom" >&2; exit 3`, timeout: 5 * time.Second},
		{name: "no output", body: `exit 0`, timeout: 5 * time.Second},
		{name: "timeout", body: `exec sleep 5`, timeout: 200 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewSofficeConverter(fakeSoffice(t, tt.body), t.TempDir(), tt.timeout, 1)
			start := time.Now()
			_, err := c.ConvertToPDF(context.Background(), writeDocx(t))
			assert.ErrorIs(t, err, ErrConversionFailed)
			assert.Less(t, time.Since(start), 4*time.Second)
		})
	}
}

func TestSofficeConverter_MissingBinary(t *testing.T) {
	c := NewSofficeConverter(filepath.Join(t.TempDir(), "nope"), t.TempDir(), time.Second, 1)
	_, err := c.ConvertToPDF(context.Background(), writeDocx(t))
	assert.ErrorIs(t, err, ErrConversionFailed)
}

func TestSofficeConverter_BoundedConcurrency(t *testing.T) {
	// Each run marks itself active with mkdir, which fails if another run holds the lock.
	body := `lock="$5/lock"; if ! mkdir "$lock" 2>/dev/null; then exit 7; fi; sleep 0.1; rmdir "$lock"; ` + writesPDF
	c := NewSofficeConverter(fakeSoffice(t, body), t.TempDir(), 5*time.Second, 1)

	docs := make([]string, 4)
	for i := range docs {
		docs[i] = writeDocx(t)
	}

	var failures int32
	var wg sync.WaitGroup
	for _, doc := range docs {
		wg.Add(1)
		go func(doc string) {
			defer wg.Done()
			if _, err := c.ConvertToPDF(context.Background(), doc); err != nil {
				atomic.AddInt32(&failures, 1)
			}
		}(doc)
	}
	wg.Wait()
	assert.Zero(t, atomic.LoadInt32(&failures), "conversions must not overlap")
}

func TestSofficeConverter_WaitRespectsContext(t *testing.T) {
	c := NewSofficeConverter(fakeSoffice(t, `sleep 1; `+writesPDF), t.TempDir(), 5*time.Second, 1)

	first, second := writeDocx(t), writeDocx(t)
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.ConvertToPDF(context.Background(), first)
	}()
	time.Sleep(100 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.ConvertToPDF(ctx, second)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	<-done
}

func TestNewSofficeConverter_Defaults(t *testing.T) {
	c := NewSofficeConverter("", "out", 0, 0)
	assert.Equal(t, "soffice", c.Binary)
	assert.Equal(t, DefaultTimeout, c.Timeout)
}
