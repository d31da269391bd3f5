package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// Report kinds carried by ReportGeneratedMessage.
const (
	KindDocument = "document"
	KindPreview  = "preview"
)

// ReportGeneratedMessage announces a report file written to the tmp directory.
// Consumers read the files from the shared paths.
type ReportGeneratedMessage struct {
	Kind        string    `json:"kind"`
	DocxPath    string    `json:"docx_path"`
	PDFPath     string    `json:"pdf_path,omitempty"`
	ProjectName string    `json:"project_name,omitempty"`
	ReportCode  string    `json:"report_code,omitempty"`
	RequestID   string    `json:"request_id,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewReportGeneratedMessage creates a message stamped with the current time.
func NewReportGeneratedMessage(kind, docxPath, pdfPath string) *ReportGeneratedMessage {
	return &ReportGeneratedMessage{
		Kind:      kind,
		DocxPath:  docxPath,
		PDFPath:   pdfPath,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ReportGeneratedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReportGeneratedMessageFromJSON parses a message and checks it names a document.
func ReportGeneratedMessageFromJSON(data []byte) (*ReportGeneratedMessage, error) {
	var msg ReportGeneratedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.DocxPath == "" {
		return nil, errors.New("message has no docx_path")
	}
	return &msg, nil
}
