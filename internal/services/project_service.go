package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"auditreport/internal/core"
	applog "auditreport/internal/log"
)

// ProjectStore persists projects and their file records.
type ProjectStore interface {
	CreateProject(ctx context.Context, name, code string, data core.ReportData) (core.Project, error)
	ListProjects(ctx context.Context) ([]core.Project, error)
	GetProject(ctx context.Context, id int64) (core.Project, error)
	UpdateProjectData(ctx context.Context, id int64, data core.ReportData) error
	DeleteProject(ctx context.Context, id int64) ([]string, error)
	CreateFile(ctx context.Context, f core.ProjectFile) (core.ProjectFile, error)
	GetFile(ctx context.Context, id int64) (core.ProjectFile, error)
	ListFiles(ctx context.Context, projectID int64) ([]core.ProjectFile, error)
	DeleteFile(ctx context.Context, id int64) error
}

// FileStore keeps the bytes of uploaded files.
type FileStore interface {
	Save(ctx context.Context, originalName string, r io.Reader) (string, int64, error)
	Remove(path string) error
}

// ProjectDetail is a project with its report data and attachments.
type ProjectDetail struct {
	core.Project
	Files []core.ProjectFile
}

// ProjectService orchestrates project records and their uploaded files.
type ProjectService struct {
	store ProjectStore
	files FileStore
	now   func() time.Time
}

func NewProjectService(store ProjectStore, files FileStore) *ProjectService {
	return &ProjectService{
		store: store,
		files: files,
		now:   time.Now,
	}
}

func (s *ProjectService) logger(ctx context.Context) *applog.Logger {
	return applog.FromContext(ctx).WithComponent(applog.ComponentProject)
}

// Create stores a new project pre-filled with the default report payload.
func (s *ProjectService) Create(ctx context.Context, name, code string) (core.Project, error) {
	p := core.Project{Name: strings.TrimSpace(name), Code: strings.TrimSpace(code)}
	if err := p.Validate(); err != nil {
		return core.Project{}, err
	}

	created, err := s.store.CreateProject(ctx, p.Name, p.Code, core.DefaultReportData(p.Name, p.Code, s.now()))
	if err != nil {
		return core.Project{}, fmt.Errorf("create project: %w", err)
	}

	s.logger(ctx).InfoContext(ctx, "Project created",
		applog.NewFields().WithProject(created.ID, created.Name).WithOperation(applog.OpCreate).ToSlice()...)
	return created, nil
}

// List returns all projects, newest first.
func (s *ProjectService) List(ctx context.Context) ([]core.Project, error) {
	return s.store.ListProjects(ctx)
}

// Get returns a project with its report data and files.
func (s *ProjectService) Get(ctx context.Context, id int64) (ProjectDetail, error) {
	p, err := s.store.GetProject(ctx, id)
	if err != nil {
		return ProjectDetail{}, err
	}
	files, err := s.store.ListFiles(ctx, id)
	if err != nil {
		return ProjectDetail{}, err
	}
	return ProjectDetail{Project: p, Files: files}, nil
}

// SaveData replaces the report data of a project.
func (s *ProjectService) SaveData(ctx context.Context, id int64, data core.ReportData) error {
	if data == nil {
		data = core.ReportData{}
	}
	return s.store.UpdateProjectData(ctx, id, data)
}

// Delete removes a project, its file records and the stored files. Disk
// cleanup failures are logged and do not fail the request.
func (s *ProjectService) Delete(ctx context.Context, id int64) error {
	paths, err := s.store.DeleteProject(ctx, id)
	if err != nil {
		return err
	}
	for _, path := range paths {
		if err := s.files.Remove(path); err != nil {
			applog.LogError(ctx, "Failed to remove stored file", err, applog.ComponentProject, applog.OpDelete,
				applog.NewFields().WithProject(id, ""))
		}
	}

	s.logger(ctx).InfoContext(ctx, "Project deleted",
		applog.FieldProjectID, id,
		"removed_files", len(paths))
	return nil
}

// UploadFile stores r as an attachment of the project. Unknown categories are
// filed under core.DefaultCategory.
func (s *ProjectService) UploadFile(ctx context.Context, projectID int64, filename, category string, r io.Reader) (core.ProjectFile, error) {
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return core.ProjectFile{}, err
	}

	f := core.ProjectFile{
		ProjectID: projectID,
		Filename:  filename,
		FileType:  "file",
		Category:  core.NormalizeCategory(category),
	}
	if err := f.Validate(); err != nil {
		return core.ProjectFile{}, err
	}

	path, size, err := s.files.Save(ctx, filename, r)
	if err != nil {
		return core.ProjectFile{}, err
	}
	f.Path = path

	created, err := s.store.CreateFile(ctx, f)
	if err != nil {
		if rerr := s.files.Remove(path); rerr != nil {
			applog.LogError(ctx, "Failed to remove orphaned upload", rerr, applog.ComponentFiles, applog.OpUpload, nil)
		}
		return core.ProjectFile{}, err
	}

	fields := applog.NewFields().
		WithProject(projectID, "").
		WithFile(created.ID, created.Filename, created.Category)
	fields[applog.FieldSizeBytes] = size
	s.logger(ctx).InfoContext(ctx, "File uploaded", fields.ToSlice()...)

	return created, nil
}

// DeleteFile removes an attachment from disk and from the store.
func (s *ProjectService) DeleteFile(ctx context.Context, id int64) error {
	f, err := s.store.GetFile(ctx, id)
	if err != nil {
		return err
	}
	if err := s.files.Remove(f.Path); err != nil {
		return fmt.Errorf("remove stored file: %w", err)
	}
	return s.store.DeleteFile(ctx, id)
}
