package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

// GetEnv is a helper to read an environment variable or return a default value.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// GCSUri formats the gs:// URI for an object.
func GCSUri(bucket, object string) string {
	return fmt.Sprintf("gs://%s/%s", bucket, object)
}

// UploadObject writes data to a GCS object with the given content type,
// retrying transient failures with doubling backoff. The write is
// conditional on the object not existing: a precondition failure means an
// earlier attempt already landed it, which is treated as success so that
// retried invocations stay idempotent.
func UploadObject(ctx context.Context, bucket *storage.BucketHandle, objectName, contentType string, data []byte) error {
	const maxRetries = 4
	backoff := 1 * time.Second
	var lastErr error

	for i := 0; i < maxRetries; i++ {
		err := func() error {
			writeCtx, cancel := context.WithTimeout(ctx, 50*time.Second)
			defer cancel()

			writer := bucket.Object(objectName).If(storage.Conditions{DoesNotExist: true}).NewWriter(writeCtx)
			writer.ContentType = contentType

			if _, err := writer.Write(data); err != nil {
				_ = writer.Close()
				return fmt.Errorf("failed to write to GCS: %w", err)
			}
			if err := writer.Close(); err != nil {
				return fmt.Errorf("failed to finalize GCS write: %w", err)
			}
			return nil
		}()

		if err == nil {
			return nil
		}
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed {
			slog.Info("Object already exists, skipping upload.", "gcsObject", objectName)
			return nil // Not a failure in an idempotent workflow.
		}

		lastErr = err
		slog.Warn(
			"Upload failed, will retry.",
			"gcsObject", objectName,
			"attempt", i+1,
			"maxRetries", maxRetries,
			"backoff", backoff.String(),
			"error", err,
		)

		select {
		case <-time.After(backoff):
			backoff *= 2
		case <-ctx.Done():
			slog.Error("Context cancelled during backoff. Aborting retries.", "gcsObject", objectName, "error", ctx.Err())
			return ctx.Err()
		}
	}
	slog.Error("Upload failed after all retries.", "gcsObject", objectName, "error", lastErr)
	return fmt.Errorf("upload for %s failed after all retries: %w", objectName, lastErr)
}

// ReadObject fetches an entire object into memory.
func ReadObject(ctx context.Context, bucket *storage.BucketHandle, objectName string) ([]byte, error) {
	reader, err := bucket.Object(objectName).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open reader for %s: %w", objectName, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", objectName, err)
	}
	return data, nil
}

// DeleteObject removes an object, treating an already-absent object as
// success.
func DeleteObject(ctx context.Context, bucket *storage.BucketHandle, objectName string) error {
	err := bucket.Object(objectName).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete object %s: %w", objectName, err)
	}
	return nil
}

// SignedDownloadURL builds a V4 signed GET URL for an object, valid for the
// given duration. Signing credentials are derived from the ambient service
// account.
func SignedDownloadURL(bucket *storage.BucketHandle, objectName string, ttl time.Duration) (string, error) {
	opts := &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: time.Now().Add(ttl),
	}
	url, err := bucket.SignedURL(objectName, opts)
	if err != nil {
		return "", fmt.Errorf("failed to sign URL for %s: %w", objectName, err)
	}
	return url, nil
}
