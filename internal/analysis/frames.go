package analysis

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/promoscope/promoscope/internal/ai"
	"github.com/promoscope/promoscope/internal/video"
)

// Detection thresholds handed to the object detector for every frame.
const (
	DetectionConfThreshold = 0.5
	DetectionIoUThreshold  = 0.5
)

// FrameMetrics is everything the frame pass produces.
type FrameMetrics struct {
	Samples         []FrameSample
	ProximitySeries []float64 // avg object pixel area per frame
	BlurSeries      []float64 // Laplacian variance per frame
	Products        map[string]int
	TotalFrames     int
	FrameTime       float64 // seconds per frame
	TrackedDuration float64 // total object screen time, seconds
}

// AverageBlur returns the mean raw blur variance over all frames.
func (m *FrameMetrics) AverageBlur() float64 {
	if len(m.BlurSeries) == 0 {
		return 0
	}
	sum := 0.0
	for _, b := range m.BlurSeries {
		sum += b
	}
	return sum / float64(len(m.BlurSeries))
}

// FrameMetricsExtractor runs the per-frame measurement pass: blur variance,
// object detection, proximity and screen-time tracking.
type FrameMetricsExtractor struct {
	detector ai.ObjectDetector
	tracker  Tracker
	logger   zerolog.Logger
}

func NewFrameMetricsExtractor(detector ai.ObjectDetector, tracker Tracker, logger zerolog.Logger) *FrameMetricsExtractor {
	return &FrameMetricsExtractor{
		detector: detector,
		tracker:  tracker,
		logger:   logger.With().Str("component", "frame_metrics").Logger(),
	}
}

// Run consumes the frame source to exhaustion. progress is called once per
// frame with the fraction of frames processed in [0,1]. Per-frame detector
// failures degrade to zero detections; a read error ends the pass like EOF,
// keeping the frames measured so far. Only cancellation returns an error.
func (e *FrameMetricsExtractor) Run(ctx context.Context, src video.FrameSource, progress func(float64)) (*FrameMetrics, error) {
	info := src.Info()

	fps := info.FPS
	if fps <= 0 {
		e.logger.Warn().Float64("fps", fps).Msgf("frame rate not readable, defaulting to %.0f", video.DefaultFPS)
		fps = video.DefaultFPS
	}
	frameTime := 1 / fps

	metrics := &FrameMetrics{
		Products:  make(map[string]int),
		FrameTime: frameTime,
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		frame, err := src.Next()
		if err != nil {
			break
		}

		blur := BlurVariance(frame)
		metrics.BlurSeries = append(metrics.BlurSeries, blur)

		detections := e.detect(ctx, frame)

		boxes := make([]ai.Box, 0, len(detections))
		proximitySum := 0.0
		for _, det := range detections {
			boxes = append(boxes, det.Box)
			proximitySum += det.Box.Area()
			if det.Label != "" {
				metrics.Products[det.Label]++
			}
		}
		e.tracker.Observe(boxes, frameTime)

		// An empty frame contributes proximity 0; it is not skipped.
		avgProximity := 0.0
		if len(detections) > 0 {
			avgProximity = proximitySum / float64(len(detections))
		}
		metrics.ProximitySeries = append(metrics.ProximitySeries, avgProximity)

		metrics.TotalFrames++
		metrics.Samples = append(metrics.Samples, FrameSample{
			FrameNumber:  metrics.TotalFrames,
			Proximity:    avgProximity,
			Blurriness:   blur,
			ObjectsCount: len(detections),
		})

		if progress != nil && info.FrameCount > 0 {
			progress(float64(metrics.TotalFrames) / float64(info.FrameCount))
		}
	}

	metrics.TrackedDuration = e.tracker.TotalDuration()

	if progress != nil {
		progress(1)
	}

	e.logger.Debug().
		Int("frames", metrics.TotalFrames).
		Int("products", len(metrics.Products)).
		Float64("tracked_duration", metrics.TrackedDuration).
		Msg("frame pass complete")

	return metrics, nil
}

func (e *FrameMetricsExtractor) detect(ctx context.Context, frame *video.Frame) []ai.Detection {
	jpeg, err := frame.JPEG()
	if err != nil {
		e.logger.Warn().Err(err).Int("frame", frame.Index).Msg("frame encode failed, skipping detection")
		return nil
	}

	detections, err := e.detector.DetectObjects(ctx, jpeg, DetectionConfThreshold, DetectionIoUThreshold)
	if err != nil {
		e.logger.Warn().Err(err).Int("frame", frame.Index).Msg("object detection failed for frame")
		return nil
	}
	return detections
}
