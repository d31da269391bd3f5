package storage

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"auditreport/internal/core"
	applog "auditreport/internal/log"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a project or file does not exist.
var ErrNotFound = errors.New("not found")

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// DSN returns the modernc sqlite data source name for dbPath with foreign keys
// enforced on every connection.
func DSN(dbPath string) string {
	return "file:" + dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", DSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	repo := &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     time.Now,
	}

	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the database connection.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) logger(ctx context.Context) *applog.Logger {
	return applog.FromContext(ctx).WithComponent(applog.ComponentStorage)
}

func (r *SQLiteRepository) timestamp() string {
	return r.now().UTC().Format(timeLayout)
}

// CreateProject stores a new project with its initial report data.
func (r *SQLiteRepository) CreateProject(ctx context.Context, name, code string, data core.ReportData) (core.Project, error) {
	raw, err := encodeData(data)
	if err != nil {
		return core.Project{}, err
	}
	ts := r.timestamp()
	row, err := r.queries.CreateProject(ctx, CreateProjectParams{
		Name:      name,
		Code:      code,
		DataJson:  raw,
		CreatedAt: ts,
		UpdatedAt: ts,
	})
	if err != nil {
		return core.Project{}, fmt.Errorf("create project: %w", err)
	}

	r.logger(ctx).InfoContext(ctx, "Project saved to SQLite",
		applog.FieldProjectID, row.ID,
		applog.FieldProject, row.Name)

	return toCoreProject(row, true), nil
}

// ListProjects returns all projects, newest first. Report data is not loaded.
func (r *SQLiteRepository) ListProjects(ctx context.Context) ([]core.Project, error) {
	rows, err := r.queries.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	projects := make([]core.Project, len(rows))
	for i, row := range rows {
		projects[i] = toCoreProject(row, false)
	}
	return projects, nil
}

// GetProject returns a project with its decoded report data.
func (r *SQLiteRepository) GetProject(ctx context.Context, id int64) (core.Project, error) {
	row, err := r.queries.GetProject(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Project{}, fmt.Errorf("project %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.Project{}, fmt.Errorf("get project %d: %w", id, err)
	}
	return toCoreProject(row, true), nil
}

// UpdateProjectData replaces the report data of a project and bumps updated_at.
func (r *SQLiteRepository) UpdateProjectData(ctx context.Context, id int64, data core.ReportData) error {
	raw, err := encodeData(data)
	if err != nil {
		return err
	}
	n, err := r.queries.UpdateProjectData(ctx, UpdateProjectDataParams{
		DataJson:  raw,
		UpdatedAt: r.timestamp(),
		ID:        id,
	})
	if err != nil {
		return fmt.Errorf("update project %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("project %d: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteProject removes a project and its file records, returning the stored
// paths of the removed files so the caller can delete them from disk.
func (r *SQLiteRepository) DeleteProject(ctx context.Context, id int64) ([]string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	files, err := q.ListProjectFiles(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list files of project %d: %w", id, err)
	}
	n, err := q.DeleteProject(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("delete project %d: %w", id, err)
	}
	if n == 0 {
		return nil, fmt.Errorf("project %d: %w", id, ErrNotFound)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit delete project %d: %w", id, err)
	}

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Filepath
	}

	r.logger(ctx).InfoContext(ctx, "Project deleted from SQLite",
		applog.FieldProjectID, id,
		"files", len(paths))

	return paths, nil
}

// CreateFile records an uploaded file against its project.
func (r *SQLiteRepository) CreateFile(ctx context.Context, f core.ProjectFile) (core.ProjectFile, error) {
	row, err := r.queries.CreateProjectFile(ctx, CreateProjectFileParams{
		ProjectID:  f.ProjectID,
		Filename:   f.Filename,
		Filepath:   f.Path,
		FileType:   f.FileType,
		Category:   f.Category,
		UploadedAt: r.timestamp(),
	})
	if err != nil {
		return core.ProjectFile{}, fmt.Errorf("create file: %w", err)
	}

	r.logger(ctx).InfoContext(ctx, "File record saved to SQLite",
		applog.NewFields().
			WithProject(row.ProjectID, "").
			WithFile(row.ID, row.Filename, row.Category).
			ToSlice()...)

	return toCoreFile(row), nil
}

// GetFile returns a single file record.
func (r *SQLiteRepository) GetFile(ctx context.Context, id int64) (core.ProjectFile, error) {
	row, err := r.queries.GetProjectFile(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ProjectFile{}, fmt.Errorf("file %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.ProjectFile{}, fmt.Errorf("get file %d: %w", id, err)
	}
	return toCoreFile(row), nil
}

// ListFiles returns the files of a project in upload order.
func (r *SQLiteRepository) ListFiles(ctx context.Context, projectID int64) ([]core.ProjectFile, error) {
	rows, err := r.queries.ListProjectFiles(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list files of project %d: %w", projectID, err)
	}
	files := make([]core.ProjectFile, len(rows))
	for i, row := range rows {
		files[i] = toCoreFile(row)
	}
	return files, nil
}

// DeleteFile removes a file record.
func (r *SQLiteRepository) DeleteFile(ctx context.Context, id int64) error {
	n, err := r.queries.DeleteProjectFile(ctx, id)
	if err != nil {
		return fmt.Errorf("delete file %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("file %d: %w", id, ErrNotFound)
	}
	return nil
}

func encodeData(data core.ReportData) (string, error) {
	if data == nil {
		return "{}", nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		return "", fmt.Errorf("encode report data: %w", err)
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// decodeData never fails: unreadable data is treated as an empty object.
func decodeData(raw string) core.ReportData {
	var data core.ReportData
	if err := json.Unmarshal([]byte(raw), &data); err != nil || data == nil {
		return core.ReportData{}
	}
	return data
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func toCoreProject(row Project, withData bool) core.Project {
	p := core.Project{
		ID:        row.ID,
		Name:      row.Name,
		Code:      row.Code,
		CreatedAt: parseTime(row.CreatedAt),
		UpdatedAt: parseTime(row.UpdatedAt),
	}
	if withData {
		p.Data = decodeData(row.DataJson)
	}
	return p
}

func toCoreFile(row ProjectFile) core.ProjectFile {
	return core.ProjectFile{
		ID:         row.ID,
		ProjectID:  row.ProjectID,
		Filename:   row.Filename,
		Path:       row.Filepath,
		FileType:   row.FileType,
		Category:   row.Category,
		UploadedAt: parseTime(row.UploadedAt),
	}
}
