package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	executions "cloud.google.com/go/workflows/executions/apiv1"
	"cloud.google.com/go/workflows/executions/apiv1/executionspb"
	"github.com/wrenhold/doctranslateflow/internal/gcp"
	"github.com/wrenhold/doctranslateflow/internal/models"
	"github.com/wrenhold/doctranslateflow/internal/pagecount"
	"golang.org/x/sync/errgroup"
)

// UploaderConfig holds all configuration for the upload-receiver service.
type UploaderConfig struct {
	ProjectID        string
	SourceBucket     string
	CollectionName   string
	WorkflowID       string
	WorkflowLocation string
	TargetLanguage   string
}

// UploaderFunction holds the dependencies for the upload logic.
type UploaderFunction struct {
	storageClient    *storage.Client
	firestoreClient  *firestore.Client
	executionsClient *executions.Client
	estimator        *pagecount.Estimator
	config           UploaderConfig
}

// IncomingFile is one file pulled out of a multipart upload.
type IncomingFile struct {
	Name string
	Data []byte
}

func loadUploaderConfig() (*UploaderConfig, error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}

	config := &UploaderConfig{
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
	return config, nil
}

// NewUploader creates a new UploaderFunction instance.
func NewUploader(ctx context.Context) (*UploaderFunction, error) {
	config, err := loadUploaderConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
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

	f := &UploaderFunction{
		storageClient:    storageClient,
		firestoreClient:  firestoreClient,
		executionsClient: executionsClient,
		estimator:        pagecount.New(),
		config:           *config,
	}
	slog.Info("Uploader logic initialized.", "sourceBucket", config.SourceBucket, "workflowId", config.WorkflowID)
	return f, nil
}

// Process stores each uploaded file, records its metadata and hands the
// batch to the translation workflow.
func (f *UploaderFunction) Process(ctx context.Context, files []IncomingFile, targetLanguage string) (*models.UploadResponse, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no files in upload")
	}
	if targetLanguage == "" {
		targetLanguage = f.config.TargetLanguage
	}
	logCtx := slog.With("fileCount", len(files), "targetLanguage", targetLanguage)
	logCtx.Info("Processing upload batch.")

	// --- 1. Store files and create their records concurrently ---
	results := make([]models.UploadedFile, len(files))
	docRefs := make([]*firestore.DocumentRef, len(files))

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(10)
	for i, file := range files {
		eg.Go(func() error {
			uploaded, docRef, err := f.storeFile(gctx, file, targetLanguage)
			if err != nil {
				return fmt.Errorf("%s: %w", file.Name, err)
			}
			results[i] = *uploaded
			docRefs[i] = docRef
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		logCtx.Error("One or more files failed to upload.", "error", err)
		f.failCreatedRecords(ctx, docRefs, fmt.Sprintf("upload batch failed: %v", err))
		return nil, fmt.Errorf("upload batch failed: %w", err)
	}
	logCtx.Info("All files stored.")

	// --- 2. Hand the batch to the translation workflow ---
	documentIDs := make([]string, len(results))
	for i, r := range results {
		documentIDs[i] = r.DocumentID
	}
	executionID, err := f.triggerWorkflow(ctx, logCtx, documentIDs, targetLanguage)
	if err != nil {
		logCtx.Error("Failed to trigger workflow execution.", "error", err)
		f.failCreatedRecords(ctx, docRefs, fmt.Sprintf("failed to trigger workflow: %v", err))
		return nil, err
	}

	// --- 3. Stamp the execution on each record for traceability ---
	for _, docRef := range docRefs {
		if _, err := docRef.Update(ctx, []firestore.Update{{Path: "workflowExecutionId", Value: executionID}}); err != nil {
			logCtx.Warn("Failed to record workflow execution on file record.", "documentId", docRef.ID, "error", err)
		}
	}

	logCtx.Info("Hand-off to workflow complete.", "executionId", executionID)
	return &models.UploadResponse{
		Status:      "success",
		ExecutionID: executionID,
		Files:       results,
	}, nil
}

// storeFile uploads one file and creates its Firestore record. The page
// estimate runs first so the record carries it from the start; an unknown
// estimate leaves the field unset rather than holding up the upload.
func (f *UploaderFunction) storeFile(ctx context.Context, file IncomingFile, targetLanguage string) (*models.UploadedFile, *firestore.DocumentRef, error) {
	blobName := NewBlobName(file.Name)
	contentType := ContentTypeFor(file.Name)

	est := f.estimator.Estimate(file.Data, file.Name)
	if !est.Known {
		slog.Warn("Page count could not be estimated.", "file", file.Name, "format", est.Format.String())
	}

	bucket := f.storageClient.Bucket(f.config.SourceBucket)
	if err := gcp.UploadObject(ctx, bucket, blobName, contentType, file.Data); err != nil {
		return nil, nil, err
	}

	record := models.FileRecord{
		OriginalName:   file.Name,
		BlobName:       blobName,
		FileType:       FileTypeFor(file.Name),
		ContentType:    contentType,
		TargetLanguage: targetLanguage,
		Status:         models.StatusUploaded,
		UploadedAt:     time.Now(),
	}
	if est.Known {
		record.PageCount = est.Pages
	}
	docRef, _, err := f.firestoreClient.Collection(f.config.CollectionName).Add(ctx, record)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create file record: %w", err)
	}

	uploaded := &models.UploadedFile{
		DocumentID:   docRef.ID,
		OriginalName: file.Name,
		BlobName:     blobName,
	}
	if est.Known {
		pages := est.Pages
		uploaded.PageCount = &pages
	}
	return uploaded, docRef, nil
}

func (f *UploaderFunction) triggerWorkflow(ctx context.Context, logCtx *slog.Logger, documentIDs []string, targetLanguage string) (string, error) {
	logCtx.Info("Triggering translation workflow.")
	workflowPayload := map[string]interface{}{
		"documentIds":    documentIDs,
		"targetLanguage": targetLanguage,
	}
	payloadBytes, err := json.Marshal(workflowPayload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal workflow payload: %w", err)
	}
	req := &executionspb.CreateExecutionRequest{
		Parent: fmt.Sprintf("projects/%s/locations/%s/workflows/%s", f.config.ProjectID, f.config.WorkflowLocation, f.config.WorkflowID),
		Execution: &executionspb.Execution{
			Argument: string(payloadBytes),
		},
	}
	exec, err := f.executionsClient.CreateExecution(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to trigger workflow execution: %w", err)
	}
	return exec.GetName(), nil
}

// failCreatedRecords marks whichever records of a broken batch already
// exist as FAILED so nothing lingers half-processed.
func (f *UploaderFunction) failCreatedRecords(ctx context.Context, docRefs []*firestore.DocumentRef, details string) {
	for _, docRef := range docRefs {
		if docRef == nil {
			continue
		}
		if err := updateRecordStatus(ctx, docRef, models.StatusFailed, details); err != nil {
			slog.Error("CRITICAL: Failed to update file record to FAILED after a processing error.", "documentId", docRef.ID, "updateError", err)
		}
	}
}
