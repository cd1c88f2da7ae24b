package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	executions "cloud.google.com/go/workflows/executions/apiv1"
	"cloud.google.com/go/workflows/executions/apiv1/executionspb"
	"github.com/wrenhold/doctranslateflow/internal/gcp"
	"github.com/wrenhold/doctranslateflow/internal/models"
	"github.com/wrenhold/doctranslateflow/internal/pagecount"
)

// IngestorConfig holds all configuration for the bucket-watcher service.
type IngestorConfig struct {
	ProjectID        string
	SourceBucket     string
	CollectionName   string
	WorkflowID       string
	WorkflowLocation string
	TargetLanguage   string
}

// IngestorFunction holds the dependencies for the bucket-watcher logic. It
// ingests files dropped straight into the source bucket, bypassing the
// HTTP receiver.
type IngestorFunction struct {
	storageClient    *storage.Client
	firestoreClient  *firestore.Client
	executionsClient *executions.Client
	estimator        *pagecount.Estimator
	config           IngestorConfig
}

// GCSEvent is the payload of a GCS object finalization event.
type GCSEvent struct {
	Bucket      string `json:"bucket"`
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
}

// NewIngestor creates a new IngestorFunction instance.
func NewIngestor(ctx context.Context) (*IngestorFunction, error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}

	config := IngestorConfig{
		ProjectID:        projectID,
		SourceBucket:     gcp.GetEnv("SOURCE_BUCKET", ""),
		CollectionName:   gcp.GetEnv("FIRESTORE_COLLECTION", "files"),
		WorkflowLocation: gcp.GetEnv("WORKFLOW_LOCATION", "us-central1"),
		WorkflowID:       gcp.GetEnv("TRANSLATION_WORKFLOW", "translation-orchestrator"),
		TargetLanguage:   gcp.GetEnv("DEFAULT_TARGET_LANGUAGE", "en"),
	}
	if config.SourceBucket == "" {
		return nil, fmt.Errorf("SOURCE_BUCKET environment variable must be set")
	}

	firestoreClient, err := gcp.NewFirestoreClient(ctx, config.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Storage client: %w", err)
	}
	executionsClient, err := executions.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Workflows Executions client: %w", err)
	}

	f := &IngestorFunction{
		firestoreClient:  firestoreClient,
		storageClient:    storageClient,
		executionsClient: executionsClient,
		estimator:        pagecount.New(),
		config:           config,
	}
	slog.Info("Ingestor logic initialized.", "workflowId", config.WorkflowID)
	return f, nil
}

// Process handles one finalized object in the source bucket: estimate its
// pages, create the file record and hand it to the translation workflow.
// Event redelivery is absorbed by a blob-name duplicate check.
func (f *IngestorFunction) Process(ctx context.Context, e GCSEvent) error {
	logCtx := slog.With("gcsBucket", e.Bucket, "gcsObject", e.Name)
	logCtx.Info("Processing new GCS object.")

	if strings.HasSuffix(e.Name, "/") {
		logCtx.Info("Skipping directory marker.")
		return nil
	}
	if e.Bucket != f.config.SourceBucket {
		logCtx.Warn("Event is not for the source bucket. Skipping.", "expectedBucket", f.config.SourceBucket)
		return nil
	}

	isDuplicate, docID, err := f.isDuplicate(ctx, e.Name)
	if err != nil {
		logCtx.Error("Failed to check for duplicate", "error", err)
		return err
	}
	if isDuplicate {
		logCtx.Info("Object already ingested. Skipping.", "existingDocId", docID)
		return nil // Clean exit for an event redelivery.
	}

	originalName := OriginalNameFromBlob(e.Name)
	data, err := gcp.ReadObject(ctx, f.storageClient.Bucket(e.Bucket), e.Name)
	if err != nil {
		logCtx.Error("Failed to download object", "error", err)
		return err
	}

	est := f.estimator.Estimate(data, originalName)
	if !est.Known {
		logCtx.Warn("Page count could not be estimated.", "format", est.Format.String())
	}

	docRef, err := f.createRecord(ctx, e, originalName, est)
	if err != nil {
		logCtx.Error("Failed to create file record", "error", err)
		return err
	}
	logCtx = logCtx.With("documentId", docRef.ID)
	logCtx.Info("Created file record in Firestore.", "pageCount", est.Pages, "pageCountKnown", est.Known)

	if err := f.triggerWorkflow(ctx, logCtx, docRef); err != nil {
		// Error is already logged and handled in triggerWorkflow.
		return err
	}

	logCtx.Info("Hand-off to workflow complete.")
	return nil
}

func (f *IngestorFunction) isDuplicate(ctx context.Context, blobName string) (bool, string, error) {
	docs, err := f.firestoreClient.Collection(f.config.CollectionName).Where("blobName", "==", blobName).Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return false, "", fmt.Errorf("failed to query for duplicates: %w", err)
	}
	if len(docs) > 0 {
		return true, docs[0].Ref.ID, nil
	}
	return false, "", nil
}

func (f *IngestorFunction) createRecord(ctx context.Context, e GCSEvent, originalName string, est pagecount.Result) (*firestore.DocumentRef, error) {
	contentType := e.ContentType
	if contentType == "" {
		contentType = ContentTypeFor(originalName)
	}
	record := models.FileRecord{
		OriginalName:   originalName,
		BlobName:       e.Name,
		FileType:       FileTypeFor(originalName),
		ContentType:    contentType,
		TargetLanguage: f.config.TargetLanguage,
		Status:         models.StatusUploaded,
		UploadedAt:     time.Now(),
	}
	if est.Known {
		record.PageCount = est.Pages
	}
	docRef, _, err := f.firestoreClient.Collection(f.config.CollectionName).Add(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("failed to create file record: %w", err)
	}
	return docRef, nil
}

func (f *IngestorFunction) triggerWorkflow(ctx context.Context, logCtx *slog.Logger, docRef *firestore.DocumentRef) error {
	logCtx.Info("Triggering translation workflow.")
	workflowPayload := map[string]interface{}{
		"documentIds":    []string{docRef.ID},
		"targetLanguage": f.config.TargetLanguage,
	}
	payloadBytes, err := json.Marshal(workflowPayload)
	if err != nil {
		return f.handleError(ctx, logCtx, docRef, "failed to marshal workflow payload", err)
	}
	req := &executionspb.CreateExecutionRequest{
		Parent: fmt.Sprintf("projects/%s/locations/%s/workflows/%s", f.config.ProjectID, f.config.WorkflowLocation, f.config.WorkflowID),
		Execution: &executionspb.Execution{
			Argument: string(payloadBytes),
		},
	}
	exec, err := f.executionsClient.CreateExecution(ctx, req)
	if err != nil {
		return f.handleError(ctx, logCtx, docRef, "failed to trigger workflow execution", err)
	}

	if _, err := docRef.Update(ctx, []firestore.Update{{Path: "workflowExecutionId", Value: exec.GetName()}}); err != nil {
		logCtx.Warn("Failed to record workflow execution on file record.", "error", err)
	}
	return nil
}

func (f *IngestorFunction) handleError(ctx context.Context, logCtx *slog.Logger, docRef *firestore.DocumentRef, message string, originalErr error) error {
	fullError := fmt.Sprintf("%s: %v", message, originalErr)
	logCtx.Error(message, "error", originalErr)
	if err := updateRecordStatus(ctx, docRef, models.StatusFailed, fullError); err != nil {
		logCtx.Error("CRITICAL: Failed to update file record to FAILED after a processing error.", "updateError", err)
	}
	return fmt.Errorf("%s", fullError)
}
