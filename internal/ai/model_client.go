package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// ModelClient talks to the model server that hosts the trained models
// (detector, whisper, sentiment, emotion, pose). It implements every
// capability interface so a single client can be wired into Capabilities.
type ModelClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewModelClient(baseURL string) *ModelClient {
	return &ModelClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// Bundle returns a Capabilities backed entirely by this client.
func (c *ModelClient) Bundle() Capabilities {
	return Capabilities{
		Detector:      c,
		Transcriber:   c,
		TextSentiment: c,
		FacialEmotion: c,
		Pose:          c,
		VocalEmotion:  c,
	}
}

type detectRequest struct {
	Image         string  `json:"image"`
	ConfThreshold float64 `json:"confThreshold"`
	IoUThreshold  float64 `json:"iouThreshold"`
}

type detectResponse struct {
	Detections []Detection `json:"detections"`
	Error      string      `json:"error,omitempty"`
}

func (c *ModelClient) DetectObjects(ctx context.Context, image []byte, confThreshold, iouThreshold float64) ([]Detection, error) {
	req := detectRequest{
		Image:         base64.StdEncoding.EncodeToString(image),
		ConfThreshold: confThreshold,
		IoUThreshold:  iouThreshold,
	}

	var resp detectResponse
	if err := c.post(ctx, "/v1/detect", req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("detector error: %s", resp.Error)
	}
	return resp.Detections, nil
}

type transcribeRequest struct {
	Audio string `json:"audio"`
}

type transcribeResponse struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Error    string `json:"error,omitempty"`
}

func (c *ModelClient) Transcribe(ctx context.Context, wavPath string) (Transcription, error) {
	audio, err := os.ReadFile(wavPath)
	if err != nil {
		return Transcription{}, fmt.Errorf("reading audio file: %w", err)
	}

	var resp transcribeResponse
	if err := c.post(ctx, "/v1/transcribe", transcribeRequest{Audio: base64.StdEncoding.EncodeToString(audio)}, &resp); err != nil {
		return Transcription{}, err
	}
	if resp.Error != "" {
		return Transcription{}, fmt.Errorf("transcriber error: %s", resp.Error)
	}
	return Transcription{Text: resp.Text, Language: resp.Language}, nil
}

type textSentimentRequest struct {
	Text string `json:"text"`
}

type textSentimentResponse struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Error      string  `json:"error,omitempty"`
}

func (c *ModelClient) ClassifyText(ctx context.Context, text string) (TextSentiment, error) {
	var resp textSentimentResponse
	if err := c.post(ctx, "/v1/sentiment/text", textSentimentRequest{Text: text}, &resp); err != nil {
		return TextSentiment{}, err
	}
	if resp.Error != "" {
		return TextSentiment{}, fmt.Errorf("text sentiment error: %s", resp.Error)
	}
	return TextSentiment{Label: resp.Label, Confidence: resp.Confidence}, nil
}

type imageRequest struct {
	Image string `json:"image"`
}

type faceEmotionResponse struct {
	FaceDetected bool               `json:"faceDetected"`
	Dominant     string             `json:"dominant"`
	Confidences  map[string]float64 `json:"confidences"`
	Error        string             `json:"error,omitempty"`
}

func (c *ModelClient) ClassifyFace(ctx context.Context, image []byte) (*FaceEmotion, error) {
	var resp faceEmotionResponse
	if err := c.post(ctx, "/v1/emotion/face", imageRequest{Image: base64.StdEncoding.EncodeToString(image)}, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("facial emotion error: %s", resp.Error)
	}
	if !resp.FaceDetected {
		return nil, nil
	}
	return &FaceEmotion{Dominant: resp.Dominant, Confidences: resp.Confidences}, nil
}

type poseResponse struct {
	PoseDetected bool   `json:"poseDetected"`
	Pose         *Pose  `json:"pose"`
	Error        string `json:"error,omitempty"`
}

func (c *ModelClient) EstimatePose(ctx context.Context, image []byte) (*Pose, error) {
	var resp poseResponse
	if err := c.post(ctx, "/v1/pose", imageRequest{Image: base64.StdEncoding.EncodeToString(image)}, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("pose estimation error: %s", resp.Error)
	}
	if !resp.PoseDetected {
		return nil, nil
	}
	return resp.Pose, nil
}

type voiceEmotionResponse struct {
	Label string `json:"label"`
	Error string `json:"error,omitempty"`
}

func (c *ModelClient) ClassifyVoice(ctx context.Context, wavPath string) (string, error) {
	audio, err := os.ReadFile(wavPath)
	if err != nil {
		return "", fmt.Errorf("reading audio file: %w", err)
	}

	var resp voiceEmotionResponse
	if err := c.post(ctx, "/v1/emotion/voice", transcribeRequest{Audio: base64.StdEncoding.EncodeToString(audio)}, &resp); err != nil {
		return "", err
	}
	if resp.Error != "" {
		return "", fmt.Errorf("vocal emotion error: %s", resp.Error)
	}
	return resp.Label, nil
}

func (c *ModelClient) post(ctx context.Context, path string, reqBody, respBody any) error {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("model server returned %d: %.200s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, respBody); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}
