package analysis

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/promoscope/promoscope/internal/ai"
)

type stubTranscriber struct {
	result ai.Transcription
	err    error
}

func (s *stubTranscriber) Transcribe(ctx context.Context, wavPath string) (ai.Transcription, error) {
	return s.result, s.err
}

func TestAudioStage(t *testing.T) {
	logger := zerolog.Nop()

	t.Run("NoAudioTrack", func(t *testing.T) {
		stage := NewAudioStage(&stubTranscriber{err: errors.New("should not be called")}, logger)
		got := stage.Run(context.Background(), "video.mp4", t.TempDir(), false, nil)

		if got.Transcript != NoAudioTranscript {
			t.Errorf("Expected no-audio sentinel, got %q", got.Transcript)
		}
		if got.Language != UnknownLanguage {
			t.Errorf("Expected unknown language, got %q", got.Language)
		}
		if got.WAVPath != "" {
			t.Errorf("Expected no WAV path, got %q", got.WAVPath)
		}
	})

	t.Run("ExtractionFailure", func(t *testing.T) {
		stage := NewAudioStage(&stubTranscriber{err: errors.New("should not be called")}, logger)
		stage.extract = func(ctx context.Context, videoPath, outPath string) error {
			return errors.New("ffmpeg exploded")
		}

		got := stage.Run(context.Background(), "video.mp4", t.TempDir(), true, nil)
		if got.Transcript != FallbackTranscript {
			t.Errorf("Expected fallback transcript, got %q", got.Transcript)
		}
		if got.WAVPath != "" {
			t.Errorf("Expected no WAV path after failed extraction, got %q", got.WAVPath)
		}
	})

	t.Run("TranscriptionFailureKeepsWAV", func(t *testing.T) {
		stage := NewAudioStage(&stubTranscriber{err: errors.New("model down")}, logger)
		stage.extract = func(ctx context.Context, videoPath, outPath string) error {
			return os.WriteFile(outPath, []byte("RIFF"), 0o644)
		}

		got := stage.Run(context.Background(), "video.mp4", t.TempDir(), true, nil)
		if got.Transcript != FallbackTranscript {
			t.Errorf("Expected fallback transcript, got %q", got.Transcript)
		}
		// The WAV survives for the vocal emotion stage.
		if got.WAVPath == "" {
			t.Error("Expected WAV path to be kept after transcription failure")
		}
	})

	t.Run("Success", func(t *testing.T) {
		scratch := t.TempDir()
		stage := NewAudioStage(&stubTranscriber{
			result: ai.Transcription{Text: "try our new product today", Language: "en"},
		}, logger)
		stage.extract = func(ctx context.Context, videoPath, outPath string) error {
			return os.WriteFile(outPath, []byte("RIFF"), 0o644)
		}

		var progress []float64
		got := stage.Run(context.Background(), "video.mp4", scratch, true, func(p float64) {
			progress = append(progress, p)
		})

		if got.Transcript != "try our new product today" || got.Language != "en" {
			t.Errorf("Unexpected transcript result: %+v", got)
		}
		if filepath.Dir(got.WAVPath) != scratch {
			t.Errorf("Expected WAV inside scratch dir, got %q", got.WAVPath)
		}
		if len(progress) == 0 || progress[len(progress)-1] != 1 {
			t.Errorf("Expected progress to finish at 1, got %v", progress)
		}
	})
}
