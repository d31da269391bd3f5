package storage

type Project struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Code      string `json:"code"`
	DataJson  string `json:"data_json"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type ProjectFile struct {
	ID         int64  `json:"id"`
	ProjectID  int64  `json:"project_id"`
	Filename   string `json:"filename"`
	Filepath   string `json:"filepath"`
	FileType   string `json:"file_type"`
	Category   string `json:"category"`
	UploadedAt string `json:"uploaded_at"`
}
