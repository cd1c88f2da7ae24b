package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/firestore"
	translate "cloud.google.com/go/translate/apiv3"
	"cloud.google.com/go/translate/apiv3/translatepb"
	"github.com/wrenhold/doctranslateflow/internal/gcp"
	"github.com/wrenhold/doctranslateflow/internal/models"
)

// TranslatorConfig holds all configuration for the translation runner.
type TranslatorConfig struct {
	ProjectID             string
	SourceBucket          string
	TargetBucket          string
	CollectionName        string
	TranslationLocation   string
	SourceLanguage        string
	DefaultTargetLanguage string
	PollInterval          time.Duration
}

// TranslatorFunction holds the dependencies for the translation runner logic.
type TranslatorFunction struct {
	firestoreClient   *firestore.Client
	translationClient *translate.TranslationClient
	config            TranslatorConfig
}

// NewTranslator creates a new TranslatorFunction instance.
func NewTranslator(ctx context.Context) (*TranslatorFunction, error) {
	config, err := loadTranslatorConfig()
	if err != nil {
		return nil, err
	}

	firestoreClient, err := gcp.NewFirestoreClient(ctx, config.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	translationClient, err := gcp.NewTranslationClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Translation client: %w", err)
	}

	f := &TranslatorFunction{
		firestoreClient:   firestoreClient,
		translationClient: translationClient,
		config:            config,
	}
	slog.Info("Translator logic initialized.", "location", config.TranslationLocation)
	return f, nil
}

func loadTranslatorConfig() (TranslatorConfig, error) {
	config := TranslatorConfig{
		ProjectID:             gcp.GetEnv("PROJECT_ID", ""),
		SourceBucket:          gcp.GetEnv("SOURCE_BUCKET", ""),
		TargetBucket:          gcp.GetEnv("TARGET_BUCKET", ""),
		CollectionName:        gcp.GetEnv("FIRESTORE_COLLECTION", "files"),
		TranslationLocation:   gcp.GetEnv("TRANSLATION_LOCATION", "us-central1"),
		SourceLanguage:        gcp.GetEnv("SOURCE_LANGUAGE", "nl"),
		DefaultTargetLanguage: gcp.GetEnv("DEFAULT_TARGET_LANGUAGE", "en"),
	}
	if config.ProjectID == "" {
		return config, fmt.Errorf("PROJECT_ID environment variable must be set")
	}
	if config.SourceBucket == "" || config.TargetBucket == "" {
		return config, fmt.Errorf("SOURCE_BUCKET and TARGET_BUCKET environment variables must be set")
	}

	pollInterval, err := time.ParseDuration(gcp.GetEnv("POLL_INTERVAL", "2s"))
	if err != nil {
		return config, fmt.Errorf("invalid POLL_INTERVAL: %w", err)
	}
	config.PollInterval = pollInterval
	return config, nil
}

// Process runs one translation batch. With OperationName set it polls that
// existing operation once and reports its progress; otherwise it submits
// the documents as a new batch and waits for the operation to finish.
func (f *TranslatorFunction) Process(ctx context.Context, req *models.TranslationRunRequest) (*models.TranslationRunResponse, error) {
	targetLanguage := req.TargetLanguage
	if targetLanguage == "" {
		targetLanguage = f.config.DefaultTargetLanguage
	}
	logCtx := slog.With("executionId", req.ExecutionID, "targetLanguage", targetLanguage)

	if req.OperationName != "" {
		return f.checkOperation(ctx, logCtx, req)
	}

	if len(req.DocumentIDs) == 0 {
		return nil, fmt.Errorf("no document IDs provided")
	}
	logCtx.Info("Starting translation batch.", "documentCount", len(req.DocumentIDs))

	// --- 1. Load the file records and mark them as in flight. ---
	docRefs := make([]*firestore.DocumentRef, 0, len(req.DocumentIDs))
	blobNames := make([]string, 0, len(req.DocumentIDs))
	for _, id := range req.DocumentIDs {
		docRef := f.firestoreClient.Collection(f.config.CollectionName).Doc(id)
		snap, err := docRef.Get(ctx)
		if err != nil {
			return nil, f.handleError(ctx, logCtx, docRefs, "failed to load file record "+id, err)
		}
		var record models.FileRecord
		if err := snap.DataTo(&record); err != nil {
			return nil, f.handleError(ctx, logCtx, docRefs, "failed to parse file record "+id, err)
		}
		docRefs = append(docRefs, docRef)
		blobNames = append(blobNames, record.BlobName)
	}
	for _, docRef := range docRefs {
		if err := updateRecordStatus(ctx, docRef, models.StatusTranslating, ""); err != nil {
			return nil, f.handleError(ctx, logCtx, docRefs, "failed to mark record as translating", err)
		}
	}

	// --- 2. Submit the batch to the translation service. ---
	batchReq := buildBatchRequest(f.config, blobNames, targetLanguage)
	op, err := f.translationClient.BatchTranslateDocument(ctx, batchReq)
	if err != nil {
		return nil, f.handleError(ctx, logCtx, docRefs, "failed to start batch translation", err)
	}
	logCtx = logCtx.With("operationName", op.Name())
	logCtx.Info("Batch translation operation started.")

	// --- 3. Poll until the operation completes. ---
	resp, err := f.pollUntilDone(ctx, logCtx, op)
	if err != nil {
		return nil, f.handleError(ctx, logCtx, docRefs, "batch translation failed", err)
	}
	logCtx.Info("Batch translation finished.",
		"totalPages", resp.GetTotalPages(),
		"translatedPages", resp.GetTranslatedPages(),
		"failedPages", resp.GetFailedPages())

	// --- 4. Mark the records as translated. ---
	now := time.Now()
	for _, docRef := range docRefs {
		updates := []firestore.Update{
			{Path: "status", Value: models.StatusTranslated},
			{Path: "translatedAt", Value: now},
		}
		if _, err := docRef.Update(ctx, updates); err != nil {
			logCtx.Error("Failed to mark record as translated.", "documentId", docRef.ID, "error", err)
		}
	}

	return &models.TranslationRunResponse{
		Status:          "success",
		OperationName:   op.Name(),
		TotalPages:      resp.GetTotalPages(),
		TranslatedPages: resp.GetTranslatedPages(),
		FailedPages:     resp.GetFailedPages(),
	}, nil
}

// checkOperation polls a previously started operation once. The workflow
// uses this to resume waiting across handler invocations.
func (f *TranslatorFunction) checkOperation(ctx context.Context, logCtx *slog.Logger, req *models.TranslationRunRequest) (*models.TranslationRunResponse, error) {
	logCtx = logCtx.With("operationName", req.OperationName)
	op := f.translationClient.BatchTranslateDocumentOperation(req.OperationName)

	resp, err := op.Poll(ctx)
	if err != nil {
		logCtx.Error("Batch translation operation failed.", "error", err)
		f.markDocuments(ctx, logCtx, req.DocumentIDs, models.StatusFailed, err.Error())
		return &models.TranslationRunResponse{Status: "failed", OperationName: req.OperationName}, nil
	}
	if !op.Done() {
		result := &models.TranslationRunResponse{Status: "running", OperationName: req.OperationName}
		if meta, err := op.Metadata(); err == nil {
			result.TotalPages = meta.GetTotalPages()
			result.TranslatedPages = meta.GetTranslatedPages()
			result.FailedPages = meta.GetFailedPages()
		}
		logCtx.Info("Batch translation still running.", "translatedPages", result.TranslatedPages, "totalPages", result.TotalPages)
		return result, nil
	}

	f.markDocuments(ctx, logCtx, req.DocumentIDs, models.StatusTranslated, "")
	logCtx.Info("Batch translation finished.",
		"totalPages", resp.GetTotalPages(),
		"translatedPages", resp.GetTranslatedPages(),
		"failedPages", resp.GetFailedPages())
	return &models.TranslationRunResponse{
		Status:          "success",
		OperationName:   req.OperationName,
		TotalPages:      resp.GetTotalPages(),
		TranslatedPages: resp.GetTranslatedPages(),
		FailedPages:     resp.GetFailedPages(),
	}, nil
}

func (f *TranslatorFunction) pollUntilDone(ctx context.Context, logCtx *slog.Logger, op *translate.BatchTranslateDocumentOperation) (*translatepb.BatchTranslateDocumentResponse, error) {
	ticker := time.NewTicker(f.config.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		resp, err := op.Poll(ctx)
		if err != nil {
			return nil, err
		}
		if op.Done() {
			return resp, nil
		}
		if meta, err := op.Metadata(); err == nil {
			logCtx.Info("Batch translation in progress.",
				"state", meta.GetState().String(),
				"totalPages", meta.GetTotalPages(),
				"translatedPages", meta.GetTranslatedPages(),
				"failedPages", meta.GetFailedPages())
		}
	}
}

// buildBatchRequest assembles the batch request for one target language.
// Translated documents land under a per-language prefix in the target
// bucket so concurrent batches for different languages cannot collide.
func buildBatchRequest(config TranslatorConfig, blobNames []string, targetLanguage string) *translatepb.BatchTranslateDocumentRequest {
	inputConfigs := make([]*translatepb.BatchDocumentInputConfig, 0, len(blobNames))
	for _, blobName := range blobNames {
		inputConfigs = append(inputConfigs, &translatepb.BatchDocumentInputConfig{
			Source: &translatepb.BatchDocumentInputConfig_GcsSource{
				GcsSource: &translatepb.GcsSource{
					InputUri: gcp.GCSUri(config.SourceBucket, blobName),
				},
			},
		})
	}
	return &translatepb.BatchTranslateDocumentRequest{
		Parent:              fmt.Sprintf("projects/%s/locations/%s", config.ProjectID, config.TranslationLocation),
		SourceLanguageCode:  config.SourceLanguage,
		TargetLanguageCodes: []string{targetLanguage},
		InputConfigs:        inputConfigs,
		OutputConfig: &translatepb.BatchDocumentOutputConfig{
			Destination: &translatepb.BatchDocumentOutputConfig_GcsDestination{
				GcsDestination: &translatepb.GcsDestination{
					OutputUriPrefix: gcp.GCSUri(config.TargetBucket, targetLanguage) + "/",
				},
			},
		},
	}
}

func (f *TranslatorFunction) markDocuments(ctx context.Context, logCtx *slog.Logger, documentIDs []string, status, errDetails string) {
	for _, id := range documentIDs {
		docRef := f.firestoreClient.Collection(f.config.CollectionName).Doc(id)
		if err := updateRecordStatus(ctx, docRef, status, errDetails); err != nil {
			logCtx.Error("Failed to update file record status.", "documentId", id, "status", status, "error", err)
		}
	}
}

func (f *TranslatorFunction) handleError(ctx context.Context, logCtx *slog.Logger, docRefs []*firestore.DocumentRef, message string, originalErr error) error {
	fullError := fmt.Sprintf("%s: %v", message, originalErr)
	logCtx.Error(message, "error", originalErr)
	for _, docRef := range docRefs {
		if err := updateRecordStatus(ctx, docRef, models.StatusFailed, fullError); err != nil {
			logCtx.Error("CRITICAL: Failed to update file record to FAILED after a processing error.", "documentId", docRef.ID, "updateError", err)
		}
	}
	return fmt.Errorf("%s", fullError)
}
