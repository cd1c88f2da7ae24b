package models

// These structs define the JSON payloads for HTTP requests and responses
// between the Cloud Workflow and the worker Cloud Functions.

// UploadedFile describes one stored file in an upload response.
type UploadedFile struct {
	DocumentID   string `json:"documentId"`
	OriginalName string `json:"originalName"`
	BlobName     string `json:"blobName"`
	PageCount    *int   `json:"pageCount"` // null when the estimate is unknown
}

// UploadResponse is the output of the upload-receiver function.
type UploadResponse struct {
	Status      string         `json:"status"`
	ExecutionID string         `json:"executionId,omitempty"`
	Files       []UploadedFile `json:"files"`
}

// TranslationRunRequest is the input for the translation-runner function.
// With OperationName set, the runner reports on an already-running batch
// instead of starting a new one.
type TranslationRunRequest struct {
	DocumentIDs    []string `json:"documentIds"`
	TargetLanguage string   `json:"targetLanguage,omitempty"`
	OperationName  string   `json:"operationName,omitempty"`
	ExecutionID    string   `json:"executionId,omitempty"`
}

// TranslationRunResponse is the output of the translation-runner function.
type TranslationRunResponse struct {
	Status          string `json:"status"` // running, success or failed
	OperationName   string `json:"operationName,omitempty"`
	TotalPages      int64  `json:"totalPages"`
	TranslatedPages int64  `json:"translatedPages"`
	FailedPages     int64  `json:"failedPages"`
}

// DownloadListRequest is the input for the result-publisher function.
type DownloadListRequest struct {
	TargetLanguage string `json:"targetLanguage,omitempty"`
	ExecutionID    string `json:"executionId,omitempty"`
}

// TranslatedFile describes one translated output object.
type TranslatedFile struct {
	BlobName     string `json:"blobName"`     // object name in the target bucket
	DownloadName string `json:"downloadName"` // suggested client-side filename
	GCSUri       string `json:"gcsUri"`
	SignedURL    string `json:"signedUrl,omitempty"`
}

// DownloadListResponse is the output of the result-publisher function.
type DownloadListResponse struct {
	Status string           `json:"status"`
	Files  []TranslatedFile `json:"files"`
}

// CleanupRequest is the input for the janitor function. WipeAll clears both
// working buckets outright; otherwise only the given documents' source
// blobs and the language's translated outputs are removed.
type CleanupRequest struct {
	DocumentIDs    []string `json:"documentIds,omitempty"`
	TargetLanguage string   `json:"targetLanguage,omitempty"`
	WipeAll        bool     `json:"wipeAll,omitempty"`
	ExecutionID    string   `json:"executionId,omitempty"`
}

// CleanupResponse is the output of the janitor function.
type CleanupResponse struct {
	Status         string `json:"status"`
	DeletedSource  int    `json:"deletedSource"`
	DeletedOutputs int    `json:"deletedOutputs"`
}
