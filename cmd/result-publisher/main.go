package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/wrenhold/doctranslateflow/internal/models"
	"github.com/wrenhold/doctranslateflow/internal/services"
)

var (
	publisherInstance *services.PublisherFunction
	once              sync.Once
	initErr           error
)

func init() {
	// --- Set up structured logging ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.HTTP("HandleDownloads", handleDownloads)
}

func main() {}

// handleDownloads is the HTTP handler for the result publisher. A GET with
// an "object" query parameter streams that translated object back; any
// other request lists the available downloads for a target language.
func handleDownloads(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		publisherInstance, initErr = services.NewPublisher(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical: Publisher initialization failed", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}

	if r.Method == http.MethodGet {
		if objectName := r.URL.Query().Get("object"); objectName != "" {
			streamObject(w, r, objectName)
			return
		}
	}

	var req models.DownloadListRequest
	if r.Body != nil && r.Method == http.MethodPost {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
			slog.Warn("Could not decode request body", "error", err)
			http.Error(w, "Bad Request: could not parse JSON", http.StatusBadRequest)
			return
		}
	} else {
		req.TargetLanguage = r.URL.Query().Get("targetLanguage")
	}

	res, err := publisherInstance.List(r.Context(), &req)
	if err != nil {
		slog.Error("Failed to list translated documents", "error", err, "executionId", req.ExecutionID)
		http.Error(w, "Internal Server Error: processing failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(res); err != nil {
		slog.Error("Failed to write response", "error", err, "executionId", req.ExecutionID)
		http.Error(w, "Internal Server Error: failed to encode response", http.StatusInternalServerError)
	}
}

func streamObject(w http.ResponseWriter, r *http.Request, objectName string) {
	reader, downloadName, err := publisherInstance.Open(r.Context(), objectName)
	if err != nil {
		slog.Warn("Could not open translated object", "object", objectName, "error", err)
		http.Error(w, "Not Found: translated object unavailable", http.StatusNotFound)
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", services.ContentTypeFor(downloadName))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", downloadName))
	if _, err := io.Copy(w, reader); err != nil {
		slog.Error("Failed to stream translated object", "object", objectName, "error", err)
	}
}
