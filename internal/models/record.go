package models

import "time"

// Lifecycle statuses a file record moves through. FAILED is terminal; the
// error that caused it lands in ErrorDetails.
const (
	StatusUploaded    = "UPLOADED"
	StatusTranslating = "TRANSLATING"
	StatusTranslated  = "TRANSLATED"
	StatusFailed      = "FAILED"
)

// FileRecord is the per-file metadata document kept in Firestore. It tracks
// one uploaded file from ingestion through translation and is the durable
// audit trail once the working blobs are cleaned up.
type FileRecord struct {
	OriginalName        string    `firestore:"originalName,omitempty"`
	BlobName            string    `firestore:"blobName,omitempty"`
	FileType            string    `firestore:"fileType,omitempty"`
	ContentType         string    `firestore:"contentType,omitempty"`
	TargetLanguage      string    `firestore:"targetLanguage,omitempty"`
	PageCount           int       `firestore:"pageCount,omitempty"` // omitted when the estimate is unknown
	Status              string    `firestore:"status,omitempty"`
	ErrorDetails        string    `firestore:"errorDetails,omitempty"`
	WorkflowExecutionID string    `firestore:"workflowExecutionId,omitempty"` // For traceability
	UploadedAt          time.Time `firestore:"uploadedAt,omitempty"`
	TranslatedAt        time.Time `firestore:"translatedAt,omitempty"`
}
