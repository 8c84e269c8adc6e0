package analysis

import (
	"context"
	"math"

	"github.com/rs/zerolog"

	"github.com/promoscope/promoscope/internal/ai"
	"github.com/promoscope/promoscope/internal/video"
)

// Frames are sampled every sampleIntervalSeconds of source video, never less
// often than every frame.
const sampleIntervalSeconds = 2.0

// facialEmotionScores maps a dominant facial emotion to a percentage. Tunable
// constants, not derived values.
var facialEmotionScores = map[string]float64{
	"happy":    90,
	"surprise": 75,
	"neutral":  50,
	"fear":     30,
	"sad":      25,
	"disgust":  20,
	"angry":    15,
}

// Body-language blend: posture dominates arm openness.
const (
	postureWeight  = 0.6
	opennessWeight = 0.4
)

// Facial vs body blend inside the combined human score.
const (
	facialWeight = 0.7
	bodyWeight   = 0.3
)

const neutralScore = 50.0

// NeutralHumanSentiment is the stage's fallback when it cannot run at all.
func NeutralHumanSentiment() HumanSentiment {
	return HumanSentiment{
		FacialScore:     neutralScore,
		BodyScore:       neutralScore,
		CombinedScore:   neutralScore,
		DominantEmotion: "unknown",
	}
}

// HumanSentimentStage samples frames periodically and scores facial emotion
// and body language. The entire stage is best-effort: it never fails a job.
type HumanSentimentStage struct {
	facial ai.FacialEmotionClassifier
	pose   ai.PoseEstimator
	logger zerolog.Logger
}

func NewHumanSentimentStage(facial ai.FacialEmotionClassifier, pose ai.PoseEstimator, logger zerolog.Logger) *HumanSentimentStage {
	return &HumanSentimentStage{
		facial: facial,
		pose:   pose,
		logger: logger.With().Str("component", "human_sentiment").Logger(),
	}
}

// Run consumes its own frame pass over the source. progress is called per
// sampled frame with a fraction in [0,1].
func (s *HumanSentimentStage) Run(ctx context.Context, src video.FrameSource, progress func(float64)) HumanSentiment {
	info := src.Info()

	fps := info.FPS
	if fps <= 0 {
		fps = video.DefaultFPS
	}
	interval := int(math.Round(sampleIntervalSeconds * fps))
	if interval < 1 {
		interval = 1
	}

	var (
		sampled       int
		facialSum     float64
		facialCount   int
		bodySum       float64
		bodyCount     int
		emotionCounts = map[string]int{}
	)

	expectedSamples := 0
	if info.FrameCount > 0 {
		expectedSamples = info.FrameCount/interval + 1
	}

	for {
		if ctx.Err() != nil {
			break
		}

		frame, err := src.Next()
		if err != nil {
			break
		}
		if frame.Index%interval != 0 {
			continue
		}
		sampled++

		jpeg, err := frame.JPEG()
		if err != nil {
			s.logger.Warn().Err(err).Int("frame", frame.Index).Msg("frame encode failed, skipping sample")
			continue
		}

		if emotion := s.classifyFace(ctx, jpeg, frame.Index); emotion != nil {
			score, ok := facialEmotionScores[emotion.Dominant]
			if !ok {
				score = neutralScore
			}
			facialSum += score
			facialCount++
			emotionCounts[emotion.Dominant]++
		}

		if pose := s.estimatePose(ctx, jpeg, frame.Index); pose != nil {
			bodySum += bodyLanguageScore(pose)
			bodyCount++
		}

		if progress != nil && expectedSamples > 0 {
			progress(math.Min(1, float64(sampled)/float64(expectedSamples)))
		}
	}

	if progress != nil {
		progress(1)
	}

	result := HumanSentiment{
		FacialScore:     neutralScore,
		BodyScore:       neutralScore,
		DominantEmotion: "none",
		SampleCount:     sampled,
	}
	if facialCount > 0 {
		result.FacialScore = facialSum / float64(facialCount)
		result.DominantEmotion = dominantEmotion(emotionCounts)
	}
	if bodyCount > 0 {
		result.BodyScore = bodySum / float64(bodyCount)
	}
	result.CombinedScore = facialWeight*result.FacialScore + bodyWeight*result.BodyScore
	if sampled > 0 {
		result.HumanPresenceRatio = float64(facialCount) / float64(sampled) * 100
	}

	s.logger.Debug().
		Int("sampled", sampled).
		Int("faces", facialCount).
		Float64("combined", result.CombinedScore).
		Msg("human sentiment pass complete")

	return result
}

// classifyFace is best-effort; absence of a face and classifier errors both
// yield nil, the latter with a warning.
func (s *HumanSentimentStage) classifyFace(ctx context.Context, jpeg []byte, frameIdx int) *ai.FaceEmotion {
	emotion, err := s.facial.ClassifyFace(ctx, jpeg)
	if err != nil {
		s.logger.Warn().Err(err).Int("frame", frameIdx).Msg("facial emotion classification failed")
		return nil
	}
	return emotion
}

func (s *HumanSentimentStage) estimatePose(ctx context.Context, jpeg []byte, frameIdx int) *ai.Pose {
	pose, err := s.pose.EstimatePose(ctx, jpeg)
	if err != nil {
		s.logger.Warn().Err(err).Int("frame", frameIdx).Msg("pose estimation failed")
		return nil
	}
	return pose
}

// bodyLanguageScore blends posture (normalized shoulder height; higher
// shoulders score higher) with arm openness (normalized horizontal wrist
// spread) into a 0-100 score.
func bodyLanguageScore(p *ai.Pose) float64 {
	shoulderY := (p.LeftShoulder.Y + p.RightShoulder.Y) / 2
	posture := clamp01(1 - shoulderY)

	openness := clamp01(math.Abs(p.LeftWrist.X - p.RightWrist.X))

	return (postureWeight*posture + opennessWeight*openness) * 100
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func dominantEmotion(counts map[string]int) string {
	best := ""
	bestCount := 0
	for emotion, count := range counts {
		if count > bestCount || (count == bestCount && emotion < best) {
			best = emotion
			bestCount = count
		}
	}
	return best
}
