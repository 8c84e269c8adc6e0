package ai

import "context"

// Box is a detection bounding box in analysis-resolution pixel coordinates.
type Box struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Area returns the box area in px².
func (b Box) Area() float64 {
	w := b.X2 - b.X1
	h := b.Y2 - b.Y1
	if w <= 0 || h <= 0 {
		return 0
	}
	return float64(w) * float64(h)
}

// MidX returns the integer midpoint x-coordinate of the box.
func (b Box) MidX() int {
	return (b.X1 + b.X2) / 2
}

// IoU returns the intersection-over-union of two boxes.
func (b Box) IoU(o Box) float64 {
	ix1 := max(b.X1, o.X1)
	iy1 := max(b.Y1, o.Y1)
	ix2 := min(b.X2, o.X2)
	iy2 := min(b.Y2, o.Y2)
	if ix2 <= ix1 || iy2 <= iy1 {
		return 0
	}
	inter := float64(ix2-ix1) * float64(iy2-iy1)
	union := b.Area() + o.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// Detection is a single detected object in one frame.
type Detection struct {
	Box        Box     `json:"box"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Transcription is the output of the speech-to-text capability.
type Transcription struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// TextSentiment is the raw 3-way output of the text-sentiment capability.
type TextSentiment struct {
	Label      string  `json:"label"` // positive, neutral, negative
	Confidence float64 `json:"confidence"`
}

// FaceEmotion is the output of the facial-emotion capability for one frame.
type FaceEmotion struct {
	Dominant    string             `json:"dominant"`
	Confidences map[string]float64 `json:"confidences"`
}

// Landmark is a normalized image coordinate in [0,1].
type Landmark struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pose holds the body landmarks used for the body-language score.
type Pose struct {
	LeftShoulder  Landmark `json:"leftShoulder"`
	RightShoulder Landmark `json:"rightShoulder"`
	LeftWrist     Landmark `json:"leftWrist"`
	RightWrist    Landmark `json:"rightWrist"`
}

// ObjectDetector detects objects in a JPEG-encoded frame.
type ObjectDetector interface {
	DetectObjects(ctx context.Context, image []byte, confThreshold, iouThreshold float64) ([]Detection, error)
}

// Transcriber converts an extracted WAV audio file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, wavPath string) (Transcription, error)
}

// TextSentimentClassifier classifies the sentiment of a transcript.
type TextSentimentClassifier interface {
	ClassifyText(ctx context.Context, text string) (TextSentiment, error)
}

// FacialEmotionClassifier classifies the dominant facial emotion in a
// JPEG-encoded frame. A nil result with nil error means no detectable face.
type FacialEmotionClassifier interface {
	ClassifyFace(ctx context.Context, image []byte) (*FaceEmotion, error)
}

// PoseEstimator estimates body landmarks in a JPEG-encoded frame. A nil
// result with nil error means no detectable person.
type PoseEstimator interface {
	EstimatePose(ctx context.Context, image []byte) (*Pose, error)
}

// VocalEmotionClassifier classifies the emotional tone of an extracted WAV
// audio file and returns a single label.
type VocalEmotionClassifier interface {
	ClassifyVoice(ctx context.Context, wavPath string) (string, error)
}

// Capabilities bundles the external model capabilities consumed by the
// analysis pipeline. All fields must be non-nil.
type Capabilities struct {
	Detector      ObjectDetector
	Transcriber   Transcriber
	TextSentiment TextSentimentClassifier
	FacialEmotion FacialEmotionClassifier
	Pose          PoseEstimator
	VocalEmotion  VocalEmotionClassifier
}
