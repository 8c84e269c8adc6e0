package analysis

import (
	"github.com/google/uuid"

	"github.com/promoscope/promoscope/internal/ai"
)

// Tracker accumulates per-object screen time across frames. Implementations
// trade accuracy for cost; both report total tracked duration in seconds.
type Tracker interface {
	// Observe records the detections of one frame. frameTime is the duration
	// of a single frame in seconds.
	Observe(boxes []ai.Box, frameTime float64)
	// TotalDuration returns the summed screen time of all tracks in seconds.
	TotalDuration() float64
}

// NewTracker selects a tracker by mode: "bucket" for the approximate
// position-keyed tracker, anything else gets the IoU tracker.
func NewTracker(mode string) Tracker {
	if mode == "bucket" {
		return NewPositionBucketTracker()
	}
	return NewIOUTracker()
}

// PositionBucketTracker approximates identity by bucketing each detection on
// the integer midpoint x-coordinate of its box. Distinct objects at similar
// x-positions are conflated and moving objects spawn new buckets; kept only
// as a documented approximate mode for parity with earlier runs.
type PositionBucketTracker struct {
	buckets map[int]float64
}

func NewPositionBucketTracker() *PositionBucketTracker {
	return &PositionBucketTracker{buckets: make(map[int]float64)}
}

func (t *PositionBucketTracker) Observe(boxes []ai.Box, frameTime float64) {
	for _, box := range boxes {
		t.buckets[box.MidX()] += frameTime
	}
}

func (t *PositionBucketTracker) TotalDuration() float64 {
	total := 0.0
	for _, d := range t.buckets {
		total += d
	}
	return total
}

// IoU tracker tuning. A track unmatched for maxLostFrames is dropped.
const (
	trackIoUThreshold = 0.3
	maxLostFrames     = 30
)

type track struct {
	id       string
	box      ai.Box
	duration float64
	lost     int
}

// IOUTracker greedily matches each frame's detections to existing tracks by
// intersection-over-union, giving stable track ids across frames.
type IOUTracker struct {
	tracks  []*track
	expired float64 // duration carried by dropped tracks
}

func NewIOUTracker() *IOUTracker {
	return &IOUTracker{}
}

func (t *IOUTracker) Observe(boxes []ai.Box, frameTime float64) {
	existing := len(t.tracks)
	matched := make(map[int]bool, existing)

	for _, box := range boxes {
		bestIdx := -1
		bestIoU := trackIoUThreshold
		for i := 0; i < existing; i++ {
			if matched[i] {
				continue
			}
			if iou := box.IoU(t.tracks[i].box); iou > bestIoU {
				bestIoU = iou
				bestIdx = i
			}
		}

		if bestIdx >= 0 {
			tr := t.tracks[bestIdx]
			tr.box = box
			tr.duration += frameTime
			tr.lost = 0
			matched[bestIdx] = true
			continue
		}

		t.tracks = append(t.tracks, &track{
			id:       uuid.New().String(),
			box:      box,
			duration: frameTime,
		})
	}

	alive := t.tracks[:0]
	for i, tr := range t.tracks {
		if i < existing && !matched[i] {
			tr.lost++
		}
		if tr.lost > maxLostFrames {
			t.expired += tr.duration
			continue
		}
		alive = append(alive, tr)
	}
	t.tracks = alive
}

func (t *IOUTracker) TotalDuration() float64 {
	total := t.expired
	for _, tr := range t.tracks {
		total += tr.duration
	}
	return total
}
