package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/promoscope/promoscope/internal/ai"
	"github.com/promoscope/promoscope/internal/config"
	"github.com/promoscope/promoscope/internal/database"
	"github.com/promoscope/promoscope/internal/logging"
	"github.com/promoscope/promoscope/internal/processing"
	"github.com/promoscope/promoscope/internal/storage"
	"github.com/promoscope/promoscope/internal/video"
)

// analyze-video runs one analysis synchronously and prints the result JSON.
func main() {
	videoPath := flag.String("video", "", "Path to the video file to analyze")
	quiet := flag.Bool("quiet", false, "Suppress progress output")
	flag.Parse()

	if *videoPath == "" {
		fmt.Fprintln(os.Stderr, "Please provide a video path with -video")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Invalid configuration:", err)
		os.Exit(1)
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

	caps := ai.NewModelClient(cfg.ModelServerURL).Bundle()
	pipeline := processing.NewPipeline(
		video.NewFFmpegOpener(), caps, nil, store,
		database.NewAnalysisRepo(db), database.NewFrameMetricsRepo(db),
		cfg.TrackerMode, logger,
	)

	progress := func(pct float64) {
		if !*quiet {
			fmt.Fprintf(os.Stderr, "\rprogress: %5.1f%%", pct)
		}
	}

	result, err := pipeline.Analyze(context.Background(), *videoPath, progress)
	if !*quiet {
		fmt.Fprintln(os.Stderr)
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("analysis failed")
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		logger.Fatal().Err(err).Msg("encoding result failed")
	}
	fmt.Println(string(out))
}
