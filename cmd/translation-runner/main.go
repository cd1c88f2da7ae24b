package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/wrenhold/doctranslateflow/internal/models"
	"github.com/wrenhold/doctranslateflow/internal/services"
)

var (
	translatorInstance *services.TranslatorFunction
	once               sync.Once
	initErr            error
)

func init() {
	// --- Set up structured logging ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.HTTP("HandleRunTranslation", handleRunTranslation)
}

func main() {}

// handleRunTranslation is the HTTP handler for the translation runner.
func handleRunTranslation(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		translatorInstance, initErr = services.NewTranslator(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical: Translator initialization failed", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}

	var req models.TranslationRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Could not decode request body", "error", err)
		http.Error(w, "Bad Request: could not parse JSON", http.StatusBadRequest)
		return
	}

	res, err := translatorInstance.Process(r.Context(), &req)
	if err != nil {
		// Error is already logged with context in the Process method.
		http.Error(w, "Internal Server Error: processing failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(res); err != nil {
		slog.Error(
			"Failed to write response",
			"error", err,
			"operationName", res.OperationName,
			"executionId", req.ExecutionID,
		)
		http.Error(w, "Internal Server Error: failed to encode response", http.StatusInternalServerError)
	}
}
