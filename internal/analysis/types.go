package analysis

// Result is the terminal aggregate of one analysis run. Immutable after the
// pipeline builds it; JSON keys match the persisted document format.
type Result struct {
	Transcription    string            `json:"transcription"`
	Language         string            `json:"language"`
	Sentiment        SentimentScore    `json:"sentiment"`
	HumanSentiment   HumanSentiment    `json:"human_sentiment"`
	TextVocal        TextVocal         `json:"text_vocal_sentiment"`
	Metrics          Metrics           `json:"metrics"`
	DetectedProducts []DetectedProduct `json:"detected_products"`
	Visualization    VisualizationData `json:"visualization_data"`
	Storage          *StorageInfo      `json:"storage_info,omitempty"`
}

// SentimentScore is the normalized 5-bucket sentiment representation shared
// by the text, facial and vocal modalities.
type SentimentScore struct {
	Label    string  `json:"sentiment"` // Very Bad, Bad, Neutral, Good, Very Good
	Score    float64 `json:"score"`     // 0-100
	RawLabel string  `json:"raw_label"`
	RawScore float64 `json:"raw_score"`
}

// HumanSentiment aggregates the facial-emotion and body-language scores over
// the sampled frames.
type HumanSentiment struct {
	FacialScore        float64 `json:"facial_score"`
	BodyScore          float64 `json:"body_score"`
	CombinedScore      float64 `json:"combined_score"`
	HumanPresenceRatio float64 `json:"human_presence_ratio"`
	DominantEmotion    string  `json:"dominant_emotion"`
	SampleCount        int     `json:"sample_count"`
}

// TextVocal fuses transcript sentiment with vocal emotion.
type TextVocal struct {
	Transcript    string  `json:"transcript"`
	TextLabel     string  `json:"text_sentiment_label"`
	TextScore     float64 `json:"text_sentiment_score"`
	VocalLabel    string  `json:"vocal_emotion_label"`
	VocalScore    float64 `json:"vocal_score"`
	CombinedScore float64 `json:"combined_score"`
}

// Metrics are the fused aggregate numbers for the whole video.
type Metrics struct {
	ObjectDuration            float64 `json:"object_duration"` // seconds
	ObjectDurationPercentage  float64 `json:"object_duration_percentage"`
	ProximityScore            float64 `json:"proximity_score"`
	TotalFrames               int     `json:"total_frames"`
	AverageBlurriness         float64 `json:"average_blurriness"`
	OverallEffectivenessScore float64 `json:"overall_effectiveness_score"`
}

// DetectedProduct counts detections of one labeled class across the video.
type DetectedProduct struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// FrameSample is the per-frame record collected for visualization.
type FrameSample struct {
	FrameNumber  int     `json:"frameNumber"`
	Proximity    float64 `json:"proximity"` // average object pixel area, px²
	Blurriness   float64 `json:"blurriness"`
	ObjectsCount int     `json:"objectsCount"`
}

// RangeBucket is one row of a 4-range score distribution.
type RangeBucket struct {
	Range string `json:"range"`
	Count int    `json:"count"`
}

// VizMetrics is the summary triple shown alongside the frame series.
type VizMetrics struct {
	ObjectDuration float64 `json:"objectDuration"`
	ProximityScore float64 `json:"proximityScore"`
	SentimentScore float64 `json:"sentimentScore"`
}

// VisualizationData carries everything the frontend needs to render charts.
type VisualizationData struct {
	Metrics               VizMetrics    `json:"metrics"`
	FrameData             []FrameSample `json:"frameData"`
	BlurDistribution      []RangeBucket `json:"blurDistribution"`
	ProximityDistribution []RangeBucket `json:"proximityDistribution"`
}

// StorageInfo records where a completed analysis was persisted. Success is
// false when any step of the copy/write sequence failed; the job still
// completes with its in-memory results.
type StorageInfo struct {
	AnalysisID      string `json:"analysis_id"`
	VideoPath       string `json:"video_path"`
	ResultsJSONPath string `json:"json_path"`
	ReportPath      string `json:"report_path"`
	Success         bool   `json:"success"`
	Error           string `json:"error,omitempty"`
}
