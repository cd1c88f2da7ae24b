package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/wrenhold/doctranslateflow/internal/gcp"
	"github.com/wrenhold/doctranslateflow/internal/models"
	"google.golang.org/api/iterator"
)

// PublisherConfig holds all configuration for the result-publisher service.
type PublisherConfig struct {
	ProjectID             string
	TargetBucket          string
	DefaultTargetLanguage string
	SignedURLTTL          time.Duration
}

// PublisherFunction holds the dependencies for the result-publisher logic.
type PublisherFunction struct {
	storageClient *storage.Client
	config        PublisherConfig
}

// NewPublisher creates a new PublisherFunction instance.
func NewPublisher(ctx context.Context) (*PublisherFunction, error) {
	config := PublisherConfig{
		ProjectID:             gcp.GetEnv("PROJECT_ID", ""),
		TargetBucket:          gcp.GetEnv("TARGET_BUCKET", ""),
		DefaultTargetLanguage: gcp.GetEnv("DEFAULT_TARGET_LANGUAGE", "en"),
	}
	if config.TargetBucket == "" {
		return nil, fmt.Errorf("TARGET_BUCKET environment variable must be set")
	}
	ttl, err := time.ParseDuration(gcp.GetEnv("SIGNED_URL_TTL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid SIGNED_URL_TTL: %w", err)
	}
	config.SignedURLTTL = ttl

	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Storage client: %w", err)
	}

	f := &PublisherFunction{
		storageClient: storageClient,
		config:        config,
	}
	slog.Info("Publisher logic initialized.", "targetBucket", config.TargetBucket)
	return f, nil
}

// List enumerates the translated outputs for one target language and
// returns download metadata for each, including a time-limited signed URL
// where signing credentials are available.
func (f *PublisherFunction) List(ctx context.Context, req *models.DownloadListRequest) (*models.DownloadListResponse, error) {
	targetLanguage := req.TargetLanguage
	if targetLanguage == "" {
		targetLanguage = f.config.DefaultTargetLanguage
	}
	logCtx := slog.With("executionId", req.ExecutionID, "targetLanguage", targetLanguage)
	logCtx.Info("Listing translated documents.")

	bucket := f.storageClient.Bucket(f.config.TargetBucket)
	it := bucket.Objects(ctx, &storage.Query{Prefix: targetLanguage + "/"})

	files := []models.TranslatedFile{}
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list translated objects: %w", err)
		}
		if strings.HasSuffix(attrs.Name, "/") || path.Ext(attrs.Name) == ".csv" {
			// Directory markers and the service-written index manifest.
			continue
		}

		sourceBlob := sourceBlobFromOutput(attrs.Name, targetLanguage)
		file := models.TranslatedFile{
			BlobName:     attrs.Name,
			DownloadName: DownloadName(sourceBlob, targetLanguage),
			GCSUri:       gcp.GCSUri(f.config.TargetBucket, attrs.Name),
		}
		url, err := gcp.SignedDownloadURL(bucket, attrs.Name, f.config.SignedURLTTL)
		if err != nil {
			logCtx.Warn("Failed to sign download URL.", "object", attrs.Name, "error", err)
		} else {
			file.SignedURL = url
		}
		files = append(files, file)
	}

	logCtx.Info("Listed translated documents.", "count", len(files))
	return &models.DownloadListResponse{Status: "success", Files: files}, nil
}

// Open streams one translated object for direct download and returns the
// filename the client should save it under. The caller owns the reader.
func (f *PublisherFunction) Open(ctx context.Context, objectName string) (io.ReadCloser, string, error) {
	reader, err := f.storageClient.Bucket(f.config.TargetBucket).Object(objectName).NewReader(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open object %s: %w", objectName, err)
	}

	targetLanguage := f.config.DefaultTargetLanguage
	if lang, _, ok := strings.Cut(objectName, "/"); ok && lang != "" {
		targetLanguage = lang
	}
	sourceBlob := sourceBlobFromOutput(objectName, targetLanguage)
	return reader, DownloadName(sourceBlob, targetLanguage), nil
}

// sourceBlobFromOutput recovers the source blob name from a translated
// output object. The translation service names each output after its input
// object with a language marker before the extension; objects without the
// marker map back to their own base name.
func sourceBlobFromOutput(objectName, targetLanguage string) string {
	base := path.Base(objectName)
	ext := path.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	marker := "_" + targetLanguage + "_translations"
	if trimmed, ok := strings.CutSuffix(stem, marker); ok {
		return trimmed + ext
	}
	return base
}
