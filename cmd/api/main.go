package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/andresuchdata/inventory-ops/backend-go/internal/config"
	"github.com/andresuchdata/inventory-ops/backend-go/internal/drive"
	"github.com/andresuchdata/inventory-ops/backend-go/pkg/logger"
	"github.com/gorilla/mux"
	gdrive "google.golang.org/api/drive/v3"
)

func main() {
	// Load configuration
	cfg := config.Load()
	logger.SetLevel(cfg.App.LogLevel)
	ctx := context.Background()

	// Initialize Google Drive service
	credentials, err := os.ReadFile(cfg.Google.CredentialsFile)
	if err != nil {
		logger.Log.Fatal().Err(err).Str("path", cfg.Google.CredentialsFile).Msg("Failed to read Google credentials")
	}
	httpClient, err := drive.NewHTTPClient(ctx, credentials, gdrive.DriveScope)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to authorize Google Drive")
	}
	driveService, err := drive.NewService(ctx, httpClient)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize Google Drive service")
	}

	// Reference tables land where pipeline runs read them
	ingestService := drive.NewIngestService(driveService, cfg.Pipeline.ReferenceDir)

	// Register routes
	r := mux.NewRouter()
	driveHandler := drive.NewHandler(driveService, ingestService)
	driveHandler.RegisterRoutes(r)

	// Health check endpoint
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	logger.Log.Info().Str("addr", addr).Msg("Drive API starting")
	if err := http.ListenAndServe(addr, r); err != nil {
		logger.Log.Fatal().Err(err).Msg("Drive API stopped")
	}
}
