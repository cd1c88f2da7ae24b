package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/wrenhold/doctranslateflow/internal/services"
)

var (
	ingestorInstance *services.IngestorFunction
	once             sync.Once
	initErr          error
)

func init() {
	// --- Set up structured logging ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Register the CloudEvent function. The framework routes bucket
	// finalization events here.
	functions.CloudEvent("IngestBucketObject", ingestBucketObject)
}

// main is required by the Go Functions Framework.
func main() {}

// ingestBucketObject is the Cloud Function entry point for GCS events.
func ingestBucketObject(ctx context.Context, e cloudevents.Event) error {
	once.Do(func() {
		ingestorInstance, initErr = services.NewIngestor(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}

	var gcsEvent services.GCSEvent
	if err := json.Unmarshal(e.Data(), &gcsEvent); err != nil {
		slog.Error("Failed to unmarshal event data", "error", err, "data", string(e.Data()))
		return fmt.Errorf("json.Unmarshal: %w", err)
	}

	if err := ingestorInstance.Process(ctx, gcsEvent); err != nil {
		// The error is already logged with context within the Process method.
		// Returning it marks the function invocation as failed.
		return err
	}
	return nil
}
