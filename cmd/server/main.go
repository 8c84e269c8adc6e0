package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/promoscope/promoscope/internal/ai"
	"github.com/promoscope/promoscope/internal/api"
	"github.com/promoscope/promoscope/internal/config"
	"github.com/promoscope/promoscope/internal/database"
	"github.com/promoscope/promoscope/internal/job"
	"github.com/promoscope/promoscope/internal/logging"
	"github.com/promoscope/promoscope/internal/processing"
	"github.com/promoscope/promoscope/internal/storage"
	"github.com/promoscope/promoscope/internal/video"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := logging.NewLogger("production")
		fallback.Fatal().Err(err).Msg("invalid configuration")
	}

	logger := logging.NewLogger(cfg.AppEnv)

	store, err := storage.NewManager(cfg.StorageDir, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("initializing storage failed")
	}

	db, err := database.NewDB(cfg.DBPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("initializing database failed")
	}
	defer db.Close()

	catalog := database.NewAnalysisRepo(db)
	frames := database.NewFrameMetricsRepo(db)

	jobs := job.NewStore()
	caps := ai.NewModelClient(cfg.ModelServerURL).Bundle()
	pipeline := processing.NewPipeline(
		video.NewFFmpegOpener(), caps, jobs, store, catalog, frames,
		cfg.TrackerMode, logger,
	)

	app := &api.App{
		Jobs:          jobs,
		Pipeline:      pipeline,
		Store:         store,
		Catalog:       catalog,
		MaxUploadSize: cfg.MaxUploadSize,
		Logger:        logger,
	}

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: api.NewRouter(app),
	}

	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("storage_dir", cfg.StorageDir).
			Str("db_path", cfg.DBPath).
			Str("model_server", cfg.ModelServerURL).
			Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("shutdown failed")
	}
}
