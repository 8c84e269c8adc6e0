package processing

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/promoscope/promoscope/internal/ai"
	"github.com/promoscope/promoscope/internal/analysis"
	"github.com/promoscope/promoscope/internal/database"
	"github.com/promoscope/promoscope/internal/job"
	"github.com/promoscope/promoscope/internal/storage"
	"github.com/promoscope/promoscope/internal/video"
)

// Stage boundaries as percentages of the whole run. Storage and cataloging
// occupy the tail up to completion.
const (
	progressFramesEnd    = 40.0
	progressAudioEnd     = 55.0
	progressHumanEnd     = 75.0
	progressTextVocalEnd = 85.0
	progressFusionEnd    = 90.0
)

// Pipeline sequences the analysis stages for one video and owns the job
// bookkeeping around them. Every stage after opening the video is
// best-effort: modality failures degrade to neutral defaults and the run
// still completes.
type Pipeline struct {
	opener      video.Opener
	caps        ai.Capabilities
	jobs        *job.Store
	store       *storage.Manager
	catalog     *database.AnalysisRepo
	frames      *database.FrameMetricsRepo
	trackerMode string
	logger      zerolog.Logger
}

// NewPipeline wires the pipeline. catalog and frames may be nil, in which
// case completed analyses are not cataloged.
func NewPipeline(
	opener video.Opener,
	caps ai.Capabilities,
	jobs *job.Store,
	store *storage.Manager,
	catalog *database.AnalysisRepo,
	frames *database.FrameMetricsRepo,
	trackerMode string,
	logger zerolog.Logger,
) *Pipeline {
	return &Pipeline{
		opener:      opener,
		caps:        caps,
		jobs:        jobs,
		store:       store,
		catalog:     catalog,
		frames:      frames,
		trackerMode: trackerMode,
		logger:      logger.With().Str("component", "pipeline").Logger(),
	}
}

// Process runs one analysis to a terminal job state. Intended to be launched
// in its own goroutine after job.Store.Create.
func (p *Pipeline) Process(ctx context.Context, jobID, videoPath string) {
	log := p.logger.With().Str("task_id", jobID).Logger()
	log.Info().Str("video", videoPath).Msg("starting analysis")

	result, err := p.Analyze(ctx, videoPath, func(pct float64) {
		p.jobs.SetProgress(jobID, pct)
	})
	if err != nil {
		log.Error().Err(err).Msg("analysis failed")
		p.jobs.Fail(jobID, fmt.Sprintf("Analysis failed: %v", err))
		return
	}

	p.jobs.Complete(jobID, result, "Analysis completed successfully")
	log.Info().
		Float64("score", result.Metrics.OverallEffectivenessScore).
		Int("frames", result.Metrics.TotalFrames).
		Msg("analysis completed")
}

// Analyze runs the full stage sequence and returns the assembled result.
// progress receives percentages in [0,100]. The only fatal condition is a
// video that cannot be opened or read at all.
func (p *Pipeline) Analyze(ctx context.Context, videoPath string, progress func(float64)) (*analysis.Result, error) {
	if progress == nil {
		progress = func(float64) {}
	}

	scratchDir, err := os.MkdirTemp("", "promoscope-*")
	if err != nil {
		return nil, fmt.Errorf("creating scratch dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(scratchDir); err != nil {
			p.logger.Warn().Err(err).Str("dir", scratchDir).Msg("scratch dir cleanup failed")
		}
	}()

	src, err := p.opener.Open(ctx, videoPath)
	if err != nil {
		return nil, fmt.Errorf("opening video: %w", err)
	}
	info := src.Info()

	extractor := analysis.NewFrameMetricsExtractor(p.caps.Detector, analysis.NewTracker(p.trackerMode), p.logger)
	frames, framesErr := extractor.Run(ctx, src, func(frac float64) {
		progress(frac * progressFramesEnd)
	})
	if err := src.Close(); err != nil {
		p.logger.Warn().Err(err).Msg("closing frame source failed")
	}
	if framesErr != nil {
		return nil, framesErr
	}
	progress(progressFramesEnd)

	audio := analysis.NewAudioStage(p.caps.Transcriber, p.logger)
	transcript := audio.Run(ctx, videoPath, scratchDir, info.HasAudio, func(frac float64) {
		progress(progressFramesEnd + frac*(progressAudioEnd-progressFramesEnd))
	})

	human := p.humanPass(ctx, videoPath, progress)
	progress(progressHumanEnd)

	textVocal := analysis.NewTextVocalStage(p.caps.TextSentiment, p.caps.VocalEmotion, p.logger).
		Run(ctx, transcript.Transcript, transcript.WAVPath)
	progress(progressTextVocalEnd)

	sentiment := analysis.ClassifyTranscript(ctx, p.caps.TextSentiment, transcript.Transcript, p.logger)

	metrics, viz := analysis.Fuse(frames, human, textVocal, sentiment)
	progress(progressFusionEnd)

	result := &analysis.Result{
		Transcription:    transcript.Transcript,
		Language:         transcript.Language,
		Sentiment:        sentiment,
		HumanSentiment:   human,
		TextVocal:        textVocal,
		Metrics:          metrics,
		DetectedProducts: analysis.Products(frames.Products),
		Visualization:    viz,
	}

	storageInfo := p.store.Store(videoPath, result)
	result.Storage = &storageInfo

	p.catalogResult(ctx, storageInfo, result)
	return result, nil
}

// humanPass reopens the video for the sampled facial/body pass. A second
// decode is cheaper than buffering every frame of the first pass in memory.
// Failure to reopen degrades to the neutral human sentiment.
func (p *Pipeline) humanPass(ctx context.Context, videoPath string, progress func(float64)) analysis.HumanSentiment {
	src, err := p.opener.Open(ctx, videoPath)
	if err != nil {
		p.logger.Warn().Err(err).Msg("reopening video for human pass failed, using neutral sentiment")
		return analysis.NeutralHumanSentiment()
	}
	defer func() {
		if err := src.Close(); err != nil {
			p.logger.Warn().Err(err).Msg("closing human pass source failed")
		}
	}()

	stage := analysis.NewHumanSentimentStage(p.caps.FacialEmotion, p.caps.Pose, p.logger)
	return stage.Run(ctx, src, func(frac float64) {
		progress(progressAudioEnd + frac*(progressHumanEnd-progressAudioEnd))
	})
}

// catalogResult records the stored analysis in the relational catalog.
// Catalog failures never fail the run; the JSON document remains the source
// of truth.
func (p *Pipeline) catalogResult(ctx context.Context, info analysis.StorageInfo, result *analysis.Result) {
	if p.catalog == nil || !info.Success {
		return
	}

	entry := database.CatalogEntry{
		AnalysisID:   info.AnalysisID,
		CreatedAt:    time.Now().UTC(),
		OverallScore: result.Metrics.OverallEffectivenessScore,
		VideoPath:    info.VideoPath,
		JSONPath:     info.ResultsJSONPath,
		ReportPath:   info.ReportPath,
	}
	if err := p.catalog.Insert(ctx, entry); err != nil {
		p.logger.Warn().Err(err).Str("analysis_id", info.AnalysisID).Msg("catalog insert failed")
		return
	}

	if p.frames == nil {
		return
	}
	if err := p.frames.InsertSamples(ctx, info.AnalysisID, result.Visualization.FrameData); err != nil {
		p.logger.Warn().Err(err).Str("analysis_id", info.AnalysisID).Msg("frame metrics insert failed")
	}
}
