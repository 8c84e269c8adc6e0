package analysis

import (
	"fmt"
	"sort"
)

// Weights of the overall effectiveness blend. Policy constants; they must
// sum to 1.0 (checked in tests).
const (
	WeightProximity     = 0.2
	WeightHumanCombined = 0.3
	WeightTextVocal     = 0.3
	WeightTextSentiment = 0.2
)

// NormalizeSeries scales a series to 0-100 by dividing by its maximum.
// An empty series yields an empty output, never a division error.
func NormalizeSeries(xs []float64) []float64 {
	if len(xs) == 0 {
		return nil
	}
	max := xs[0]
	for _, x := range xs[1:] {
		if x > max {
			max = x
		}
	}
	if max == 0 {
		max = 1
	}

	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = x / max * 100
	}
	return out
}

// InvertBlurSeries normalizes blur variance and inverts it: 100·(1 − b/max).
// Higher blur variance means a sharper frame, so after inversion a LOW value
// marks a sharp frame; ProximityScore relies on exactly this orientation.
func InvertBlurSeries(blur []float64) []float64 {
	if len(blur) == 0 {
		return nil
	}
	max := blur[0]
	for _, b := range blur[1:] {
		if b > max {
			max = b
		}
	}
	if max == 0 {
		max = 1
	}

	out := make([]float64, len(blur))
	for i, b := range blur {
		out[i] = (1 - b/max) * 100
	}
	return out
}

// ProximityScore averages sharpness-discounted proximity over the frame
// series: mean(prox_pct[i] · (1 − blur_pct[i]/100)). Empty series → 0.
func ProximityScore(proximityPct, blurPct []float64) float64 {
	if len(proximityPct) == 0 {
		return 0
	}
	sum := 0.0
	for i, p := range proximityPct {
		sum += p * (1 - blurPct[i]/100)
	}
	return sum / float64(len(proximityPct))
}

// ObjectDurationPercentage relates total tracked screen time to the video
// duration. Zero totalFrames yields 0, never a division error.
func ObjectDurationPercentage(trackedDuration float64, totalFrames int, frameTime float64) float64 {
	if totalFrames == 0 || frameTime == 0 {
		return 0
	}
	return trackedDuration / (float64(totalFrames) * frameTime) * 100
}

// OverallScore fuses the four modality scores with the fixed policy weights.
func OverallScore(proximityScore, humanCombined, textVocalCombined, textSentimentScore float64) float64 {
	return WeightProximity*proximityScore +
		WeightHumanCombined*humanCombined +
		WeightTextVocal*textVocalCombined +
		WeightTextSentiment*textSentimentScore
}

// distributionRanges are the four fixed buckets of the score histograms.
var distributionRanges = [4]string{"0-25%", "25-50%", "50-75%", "75-100%"}

// Distribution buckets a 0-100 series into [0,25), [25,50), [50,75), [75,100].
func Distribution(pct []float64) []RangeBucket {
	counts := [4]int{}
	for _, v := range pct {
		switch {
		case v < 25:
			counts[0]++
		case v < 50:
			counts[1]++
		case v < 75:
			counts[2]++
		default:
			counts[3]++
		}
	}

	buckets := make([]RangeBucket, 4)
	for i := range buckets {
		buckets[i] = RangeBucket{Range: distributionRanges[i], Count: counts[i]}
	}
	return buckets
}

// Fuse builds the aggregate metrics and visualization payload from the
// per-stage outputs.
func Fuse(frames *FrameMetrics, human HumanSentiment, textVocal TextVocal, textSentiment SentimentScore) (Metrics, VisualizationData) {
	proximityPct := NormalizeSeries(frames.ProximitySeries)
	blurPct := InvertBlurSeries(frames.BlurSeries)

	proximityScore := ProximityScore(proximityPct, blurPct)
	objectDurationPct := ObjectDurationPercentage(frames.TrackedDuration, frames.TotalFrames, frames.FrameTime)

	metrics := Metrics{
		ObjectDuration:           frames.TrackedDuration,
		ObjectDurationPercentage: objectDurationPct,
		ProximityScore:           proximityScore,
		TotalFrames:              frames.TotalFrames,
		AverageBlurriness:        frames.AverageBlur(),
		OverallEffectivenessScore: OverallScore(
			proximityScore,
			human.CombinedScore,
			textVocal.CombinedScore,
			textSentiment.Score,
		),
	}

	viz := VisualizationData{
		Metrics: VizMetrics{
			ObjectDuration: objectDurationPct,
			ProximityScore: proximityScore,
			SentimentScore: textSentiment.Score,
		},
		FrameData:             frames.Samples,
		BlurDistribution:      Distribution(blurPct),
		ProximityDistribution: Distribution(proximityPct),
	}

	return metrics, viz
}

// Products flattens the detection counts into the result list form.
func Products(counts map[string]int) []DetectedProduct {
	if len(counts) == 0 {
		return []DetectedProduct{}
	}
	products := make([]DetectedProduct, 0, len(counts))
	for name, count := range counts {
		products = append(products, DetectedProduct{Name: name, Count: count})
	}
	sort.Slice(products, func(i, j int) bool {
		if products[i].Count != products[j].Count {
			return products[i].Count > products[j].Count
		}
		return products[i].Name < products[j].Name
	})
	return products
}

func init() {
	sum := WeightProximity + WeightHumanCombined + WeightTextVocal + WeightTextSentiment
	if sum < 0.999 || sum > 1.001 {
		panic(fmt.Sprintf("effectiveness weights sum to %v, want 1.0", sum))
	}
}
