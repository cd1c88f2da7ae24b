package services

import (
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	"github.com/wrenhold/doctranslateflow/internal/gcp"
	"github.com/wrenhold/doctranslateflow/internal/models"
	"google.golang.org/api/iterator"
)

// JanitorConfig holds all configuration for the janitor service.
type JanitorConfig struct {
	ProjectID             string
	SourceBucket          string
	TargetBucket          string
	CollectionName        string
	DefaultTargetLanguage string
}

// JanitorFunction holds the dependencies for the cleanup logic.
type JanitorFunction struct {
	storageClient   *storage.Client
	firestoreClient *firestore.Client
	config          JanitorConfig
}

// NewJanitor creates a new JanitorFunction instance.
func NewJanitor(ctx context.Context) (*JanitorFunction, error) {
	config := JanitorConfig{
		ProjectID:             gcp.GetEnv("PROJECT_ID", ""),
		SourceBucket:          gcp.GetEnv("SOURCE_BUCKET", ""),
		TargetBucket:          gcp.GetEnv("TARGET_BUCKET", ""),
		CollectionName:        gcp.GetEnv("FIRESTORE_COLLECTION", "files"),
		DefaultTargetLanguage: gcp.GetEnv("DEFAULT_TARGET_LANGUAGE", "en"),
	}
	if config.ProjectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}
	if config.SourceBucket == "" || config.TargetBucket == "" {
		return nil, fmt.Errorf("SOURCE_BUCKET and TARGET_BUCKET environment variables must be set")
	}

	firestoreClient, err := gcp.NewFirestoreClient(ctx, config.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Storage client: %w", err)
	}

	f := &JanitorFunction{
		storageClient:   storageClient,
		firestoreClient: firestoreClient,
		config:          config,
	}
	slog.Info("Janitor logic initialized.")
	return f, nil
}

// Process removes processed artifacts. Individual delete failures are
// logged and skipped so one missing object never blocks the rest of a
// cleanup run.
func (f *JanitorFunction) Process(ctx context.Context, req *models.CleanupRequest) (*models.CleanupResponse, error) {
	logCtx := slog.With("executionId", req.ExecutionID, "wipeAll", req.WipeAll)
	logCtx.Info("Starting cleanup run.")

	if req.WipeAll {
		return f.wipeAll(ctx, logCtx)
	}

	targetLanguage := req.TargetLanguage
	if targetLanguage == "" {
		targetLanguage = f.config.DefaultTargetLanguage
	}

	// --- 1. Remove the source blobs and records for the given documents. ---
	deletedSource := 0
	for _, id := range req.DocumentIDs {
		docRef := f.firestoreClient.Collection(f.config.CollectionName).Doc(id)
		snap, err := docRef.Get(ctx)
		if err != nil {
			logCtx.Warn("Failed to load file record for cleanup.", "documentId", id, "error", err)
			continue
		}
		var record models.FileRecord
		if err := snap.DataTo(&record); err != nil {
			logCtx.Warn("Failed to parse file record for cleanup.", "documentId", id, "error", err)
			continue
		}
		if err := gcp.DeleteObject(ctx, f.storageClient.Bucket(f.config.SourceBucket), record.BlobName); err != nil {
			logCtx.Warn("Failed to delete source blob.", "blobName", record.BlobName, "error", err)
		} else {
			deletedSource++
		}
		if _, err := docRef.Delete(ctx); err != nil {
			logCtx.Warn("Failed to delete file record.", "documentId", id, "error", err)
		}
	}

	// --- 2. Remove the translated outputs for the language. ---
	deletedOutputs := f.deletePrefix(ctx, logCtx, f.config.TargetBucket, targetLanguage+"/")

	logCtx.Info("Cleanup run finished.", "deletedSource", deletedSource, "deletedOutputs", deletedOutputs)
	return &models.CleanupResponse{
		Status:         "success",
		DeletedSource:  deletedSource,
		DeletedOutputs: deletedOutputs,
	}, nil
}

// wipeAll clears both working buckets and every file record, returning the
// pipeline to a pristine state.
func (f *JanitorFunction) wipeAll(ctx context.Context, logCtx *slog.Logger) (*models.CleanupResponse, error) {
	deletedSource := f.deletePrefix(ctx, logCtx, f.config.SourceBucket, "")
	deletedOutputs := f.deletePrefix(ctx, logCtx, f.config.TargetBucket, "")

	deletedRecords := 0
	it := f.firestoreClient.Collection(f.config.CollectionName).Documents(ctx)
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			logCtx.Warn("Failed while listing file records for wipe.", "error", err)
			break
		}
		if _, err := snap.Ref.Delete(ctx); err != nil {
			logCtx.Warn("Failed to delete file record.", "documentId", snap.Ref.ID, "error", err)
			continue
		}
		deletedRecords++
	}

	logCtx.Info("Wipe finished.", "deletedSource", deletedSource, "deletedOutputs", deletedOutputs, "deletedRecords", deletedRecords)
	return &models.CleanupResponse{
		Status:         "success",
		DeletedSource:  deletedSource,
		DeletedOutputs: deletedOutputs,
	}, nil
}

func (f *JanitorFunction) deletePrefix(ctx context.Context, logCtx *slog.Logger, bucketName, prefix string) int {
	bucket := f.storageClient.Bucket(bucketName)
	it := bucket.Objects(ctx, &storage.Query{Prefix: prefix})
	deleted := 0
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			logCtx.Warn("Failed while listing objects for cleanup.", "bucket", bucketName, "prefix", prefix, "error", err)
			break
		}
		if err := gcp.DeleteObject(ctx, bucket, attrs.Name); err != nil {
			logCtx.Warn("Failed to delete object.", "bucket", bucketName, "object", attrs.Name, "error", err)
			continue
		}
		deleted++
	}
	return deleted
}
