package analysis

import (
	"context"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/promoscope/promoscope/internal/ai"
	"github.com/promoscope/promoscope/internal/video"
)

// Sentinels substituted when the audio stage degrades. A broken audio stage
// must never fail the whole analysis.
const (
	NoAudioTranscript  = "No audio detected in video"
	FallbackTranscript = "Transcription unavailable"
	UnknownLanguage    = "unknown"
)

// TranscriptResult is what the audio stage hands to the later stages.
type TranscriptResult struct {
	Transcript string
	Language   string
	// WAVPath is the extracted 16 kHz mono audio inside the job scratch dir,
	// empty when there is no usable audio.
	WAVPath string
}

// AudioStage extracts the audio track into scratch space and transcribes it.
// Every failure inside the stage is non-fatal to the job.
type AudioStage struct {
	transcriber ai.Transcriber
	extract     func(ctx context.Context, videoPath, outPath string) error
	logger      zerolog.Logger
}

func NewAudioStage(transcriber ai.Transcriber, logger zerolog.Logger) *AudioStage {
	return &AudioStage{
		transcriber: transcriber,
		extract:     video.ExtractAudio,
		logger:      logger.With().Str("component", "audio_stage").Logger(),
	}
}

// Run extracts and transcribes. hasAudio comes from the probe; a video with
// no audio track yields the no-audio sentinel and is not a failure.
// scratchDir must exist; the caller owns its cleanup. progress is called
// with a fraction in [0,1] after extraction and after transcription.
func (s *AudioStage) Run(ctx context.Context, videoPath, scratchDir string, hasAudio bool, progress func(float64)) TranscriptResult {
	if progress == nil {
		progress = func(float64) {}
	}
	defer progress(1)

	if !hasAudio {
		s.logger.Info().Str("video", videoPath).Msg("video has no audio track")
		return TranscriptResult{Transcript: NoAudioTranscript, Language: UnknownLanguage}
	}

	wavPath := filepath.Join(scratchDir, uuid.New().String()+".wav")
	if err := s.extract(ctx, videoPath, wavPath); err != nil {
		s.logger.Warn().Err(err).Msg("audio extraction failed, continuing with fallback transcript")
		return TranscriptResult{Transcript: FallbackTranscript, Language: UnknownLanguage}
	}
	progress(0.33)

	transcription, err := s.transcriber.Transcribe(ctx, wavPath)
	if err != nil {
		s.logger.Warn().Err(err).Msg("transcription failed, continuing with fallback transcript")
		return TranscriptResult{Transcript: FallbackTranscript, Language: UnknownLanguage, WAVPath: wavPath}
	}

	s.logger.Debug().Str("language", transcription.Language).Int("chars", len(transcription.Text)).Msg("transcription complete")
	return TranscriptResult{
		Transcript: transcription.Text,
		Language:   transcription.Language,
		WAVPath:    wavPath,
	}
}
