package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/wrenhold/doctranslateflow/internal/services"
)

const maxUploadBytes = 64 << 20

var (
	uploaderInstance *services.UploaderFunction
	once             sync.Once
	initErr          error
)

func init() {
	// --- Set up structured logging ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.HTTP("HandleUploadDocuments", handleUploadDocuments)
}

func main() {}

// handleUploadDocuments is the HTTP handler for the upload service. It
// accepts a multipart form with one or more files under the "files" field
// and an optional "targetLanguage" value.
func handleUploadDocuments(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		uploaderInstance, initErr = services.NewUploader(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical: Uploader initialization failed", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}

	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed: use POST", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		slog.Warn("Could not parse multipart form", "error", err)
		http.Error(w, "Bad Request: could not parse multipart form", http.StatusBadRequest)
		return
	}

	fileHeaders := r.MultipartForm.File["files"]
	if len(fileHeaders) == 0 {
		http.Error(w, "Bad Request: no files provided", http.StatusBadRequest)
		return
	}

	files := make([]services.IncomingFile, 0, len(fileHeaders))
	for _, fh := range fileHeaders {
		part, err := fh.Open()
		if err != nil {
			slog.Warn("Could not open uploaded file", "filename", fh.Filename, "error", err)
			http.Error(w, "Bad Request: could not read uploaded file", http.StatusBadRequest)
			return
		}
		data, err := io.ReadAll(part)
		part.Close()
		if err != nil {
			slog.Warn("Could not read uploaded file", "filename", fh.Filename, "error", err)
			http.Error(w, "Bad Request: could not read uploaded file", http.StatusBadRequest)
			return
		}
		files = append(files, services.IncomingFile{Name: fh.Filename, Data: data})
	}

	res, err := uploaderInstance.Process(r.Context(), files, r.FormValue("targetLanguage"))
	if err != nil {
		// Error is already logged with context in the Process method.
		http.Error(w, "Internal Server Error: processing failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(res); err != nil {
		slog.Error("Failed to write response", "error", err, "executionId", res.ExecutionID)
		http.Error(w, "Internal Server Error: failed to encode response", http.StatusInternalServerError)
	}
}
