package analysis

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/promoscope/promoscope/internal/ai"
)

// Confidence above which a positive/negative classification is promoted to
// the Very Good / Very Bad bucket.
const strongConfidence = 0.65

// NeutralSentiment is the substitute used for empty transcripts and for
// classifier failures.
func NeutralSentiment(rawLabel string) SentimentScore {
	return SentimentScore{
		Label:    "Neutral",
		Score:    50,
		RawLabel: rawLabel,
		RawScore: 0.5,
	}
}

// ClassifyTranscript produces the 5-bucket sentiment for a transcript.
// Empty transcripts and the audio-stage sentinels classify as neutral, and a
// classifier failure degrades to neutral rather than failing the analysis.
func ClassifyTranscript(ctx context.Context, clf ai.TextSentimentClassifier, transcript string, logger zerolog.Logger) SentimentScore {
	trimmed := strings.TrimSpace(transcript)
	if trimmed == "" || trimmed == NoAudioTranscript || trimmed == FallbackTranscript {
		return NeutralSentiment("neutral")
	}
	if len(trimmed) > textSentimentMaxChars {
		trimmed = trimmed[:textSentimentMaxChars]
	}

	ts, err := clf.ClassifyText(ctx, trimmed)
	if err != nil {
		logger.Warn().Err(err).Msg("transcript sentiment classification failed, using neutral")
		return NeutralSentiment("error")
	}
	return MapTextSentiment(ts)
}

// MapTextSentiment converts the classifier's 3-way label into the shared
// 5-bucket representation.
func MapTextSentiment(ts ai.TextSentiment) SentimentScore {
	label := strings.ToLower(ts.Label)
	switch label {
	case "negative":
		if ts.Confidence > strongConfidence {
			return SentimentScore{Label: "Very Bad", Score: 0, RawLabel: label, RawScore: ts.Confidence}
		}
		return SentimentScore{Label: "Bad", Score: 25, RawLabel: label, RawScore: ts.Confidence}
	case "positive":
		if ts.Confidence > strongConfidence {
			return SentimentScore{Label: "Very Good", Score: 100, RawLabel: label, RawScore: ts.Confidence}
		}
		return SentimentScore{Label: "Good", Score: 75, RawLabel: label, RawScore: ts.Confidence}
	case "neutral":
		return SentimentScore{Label: "Neutral", Score: 50, RawLabel: label, RawScore: ts.Confidence}
	default:
		return SentimentScore{Label: "Neutral", Score: 50, RawLabel: label, RawScore: ts.Confidence}
	}
}
