package analysis

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/promoscope/promoscope/internal/ai"
)

// Only the head of the transcript goes to the text-sentiment model.
const textSentimentMaxChars = 512

// textSentimentBase maps the 3-way label to a base percentage before
// confidence blending.
var textSentimentBase = map[string]float64{
	"positive": 85,
	"neutral":  50,
	"negative": 20,
}

// vocalEmotion pairs a display name with its percentage score.
type vocalEmotion struct {
	name  string
	score float64
}

var vocalEmotionScores = map[string]vocalEmotion{
	"happy":      {"Happy", 90},
	"excited":    {"Excited", 85},
	"neutral":    {"Neutral", 50},
	"angry":      {"Angry", 20},
	"sad":        {"Sad", 25},
	"frustrated": {"Frustrated", 30},
	"fearful":    {"Fearful", 35},
	"surprised":  {"Surprised", 70},
	"disgusted":  {"Disgusted", 15},
}

// Text and vocal halves weigh equally in the combined score.
const (
	textWeight  = 0.5
	vocalWeight = 0.5
)

// NeutralTextVocal is the short-circuit result for empty transcripts and the
// fallback for any internal stage failure.
func NeutralTextVocal(transcript string) TextVocal {
	return TextVocal{
		Transcript:    transcript,
		TextLabel:     "Neutral",
		TextScore:     neutralScore,
		VocalLabel:    "Neutral",
		VocalScore:    neutralScore,
		CombinedScore: neutralScore,
	}
}

// TextVocalStage classifies transcript sentiment and vocal emotion and fuses
// them. Best-effort: any failure yields the neutral default.
type TextVocalStage struct {
	text   ai.TextSentimentClassifier
	vocal  ai.VocalEmotionClassifier
	logger zerolog.Logger
}

func NewTextVocalStage(text ai.TextSentimentClassifier, vocal ai.VocalEmotionClassifier, logger zerolog.Logger) *TextVocalStage {
	return &TextVocalStage{
		text:   text,
		vocal:  vocal,
		logger: logger.With().Str("component", "text_vocal").Logger(),
	}
}

// Run scores the transcript and, when wavPath is non-empty, the voice track.
// The audio stage's sentinels count as empty transcripts.
func (s *TextVocalStage) Run(ctx context.Context, transcript, wavPath string) TextVocal {
	trimmed := strings.TrimSpace(transcript)
	if trimmed == "" || trimmed == NoAudioTranscript || trimmed == FallbackTranscript {
		return NeutralTextVocal(transcript)
	}

	result := TextVocal{Transcript: transcript}
	result.TextLabel, result.TextScore = s.scoreText(ctx, trimmed)
	result.VocalLabel, result.VocalScore = s.scoreVoice(ctx, wavPath)
	result.CombinedScore = textWeight*result.TextScore + vocalWeight*result.VocalScore
	return result
}

// scoreText blends the base label score with classifier confidence so that
// low-confidence predictions regress toward neutral:
// score = base*conf + 50*(1-conf).
func (s *TextVocalStage) scoreText(ctx context.Context, transcript string) (string, float64) {
	if len(transcript) > textSentimentMaxChars {
		transcript = transcript[:textSentimentMaxChars]
	}

	ts, err := s.text.ClassifyText(ctx, transcript)
	if err != nil {
		s.logger.Warn().Err(err).Msg("text sentiment classification failed, using neutral")
		return "Neutral", neutralScore
	}

	label := strings.ToLower(ts.Label)
	base, ok := textSentimentBase[label]
	if !ok {
		base = neutralScore
	}
	score := base*ts.Confidence + neutralScore*(1-ts.Confidence)
	return titleCase(label), score
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func (s *TextVocalStage) scoreVoice(ctx context.Context, wavPath string) (string, float64) {
	if wavPath == "" {
		return "Neutral", neutralScore
	}

	label, err := s.vocal.ClassifyVoice(ctx, wavPath)
	if err != nil {
		s.logger.Warn().Err(err).Msg("vocal emotion classification failed, using neutral")
		return "Neutral", neutralScore
	}

	emotion, ok := vocalEmotionScores[strings.ToLower(label)]
	if !ok {
		return "Neutral", neutralScore
	}
	return emotion.name, emotion.score
}
