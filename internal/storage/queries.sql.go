package storage

import (
	"context"
)

const createProject = `-- name: CreateProject :one
INSERT INTO projects (name, code, data_json, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
RETURNING id, name, code, data_json, created_at, updated_at
`

type CreateProjectParams struct {
	Name      string `json:"name"`
	Code      string `json:"code"`
	DataJson  string `json:"data_json"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func (q *Queries) CreateProject(ctx context.Context, arg CreateProjectParams) (Project, error) {
	row := q.db.QueryRowContext(ctx, createProject,
		arg.Name,
		arg.Code,
		arg.DataJson,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	var i Project
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Code,
		&i.DataJson,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getProject = `-- name: GetProject :one
SELECT id, name, code, data_json, created_at, updated_at FROM projects
WHERE id = ?
`

func (q *Queries) GetProject(ctx context.Context, id int64) (Project, error) {
	row := q.db.QueryRowContext(ctx, getProject, id)
	var i Project
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Code,
		&i.DataJson,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listProjects = `-- name: ListProjects :many
SELECT id, name, code, data_json, created_at, updated_at FROM projects
ORDER BY created_at DESC, id DESC
`

func (q *Queries) ListProjects(ctx context.Context) ([]Project, error) {
	rows, err := q.db.QueryContext(ctx, listProjects)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Project
	for rows.Next() {
		var i Project
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.Code,
			&i.DataJson,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateProjectData = `-- name: UpdateProjectData :execrows
UPDATE projects
SET data_json = ?, updated_at = ?
WHERE id = ?
`

type UpdateProjectDataParams struct {
	DataJson  string `json:"data_json"`
	UpdatedAt string `json:"updated_at"`
	ID        int64  `json:"id"`
}

func (q *Queries) UpdateProjectData(ctx context.Context, arg UpdateProjectDataParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateProjectData, arg.DataJson, arg.UpdatedAt, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteProject = `-- name: DeleteProject :execrows
DELETE FROM projects
WHERE id = ?
`

func (q *Queries) DeleteProject(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteProject, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const createProjectFile = `-- name: CreateProjectFile :one
INSERT INTO project_files (project_id, filename, filepath, file_type, category, uploaded_at)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING id, project_id, filename, filepath, file_type, category, uploaded_at
`

type CreateProjectFileParams struct {
	ProjectID  int64  `json:"project_id"`
	Filename   string `json:"filename"`
	Filepath   string `json:"filepath"`
	FileType   string `json:"file_type"`
	Category   string `json:"category"`
	UploadedAt string `json:"uploaded_at"`
}

func (q *Queries) CreateProjectFile(ctx context.Context, arg CreateProjectFileParams) (ProjectFile, error) {
	row := q.db.QueryRowContext(ctx, createProjectFile,
		arg.ProjectID,
		arg.Filename,
		arg.Filepath,
		arg.FileType,
		arg.Category,
		arg.UploadedAt,
	)
	var i ProjectFile
	err := row.Scan(
		&i.ID,
		&i.ProjectID,
		&i.Filename,
		&i.Filepath,
		&i.FileType,
		&i.Category,
		&i.UploadedAt,
	)
	return i, err
}

const getProjectFile = `-- name: GetProjectFile :one
SELECT id, project_id, filename, filepath, file_type, category, uploaded_at FROM project_files
WHERE id = ?
`

func (q *Queries) GetProjectFile(ctx context.Context, id int64) (ProjectFile, error) {
	row := q.db.QueryRowContext(ctx, getProjectFile, id)
	var i ProjectFile
	err := row.Scan(
		&i.ID,
		&i.ProjectID,
		&i.Filename,
		&i.Filepath,
		&i.FileType,
		&i.Category,
		&i.UploadedAt,
	)
	return i, err
}

const listProjectFiles = `-- name: ListProjectFiles :many
SELECT id, project_id, filename, filepath, file_type, category, uploaded_at FROM project_files
WHERE project_id = ?
ORDER BY uploaded_at ASC, id ASC
`

func (q *Queries) ListProjectFiles(ctx context.Context, projectID int64) ([]ProjectFile, error) {
	rows, err := q.db.QueryContext(ctx, listProjectFiles, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ProjectFile
	for rows.Next() {
		var i ProjectFile
		if err := rows.Scan(
			&i.ID,
			&i.ProjectID,
			&i.Filename,
			&i.Filepath,
			&i.FileType,
			&i.Category,
			&i.UploadedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteProjectFile = `-- name: DeleteProjectFile :execrows
DELETE FROM project_files
WHERE id = ?
`

func (q *Queries) DeleteProjectFile(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteProjectFile, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
