package ai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func modelServer(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	for path, h := range handlers {
		mux.HandleFunc(path, h)
	}
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func writeWAV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audio.wav")
	if err := os.WriteFile(path, []byte("RIFF fake"), 0o644); err != nil {
		t.Fatalf("Failed to write wav: %v", err)
	}
	return path
}

func TestModelClientDetectObjects(t *testing.T) {
	server := modelServer(t, map[string]http.HandlerFunc{
		"/v1/detect": func(w http.ResponseWriter, r *http.Request) {
			var req detectRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("Bad request body: %v", err)
			}
			if req.ConfThreshold != 0.5 || req.IoUThreshold != 0.5 {
				t.Errorf("Thresholds not forwarded: %+v", req)
			}
			if _, err := base64.StdEncoding.DecodeString(req.Image); err != nil {
				t.Errorf("Image not base64: %v", err)
			}

			json.NewEncoder(w).Encode(detectResponse{Detections: []Detection{
				{Box: Box{X1: 10, Y1: 20, X2: 110, Y2: 220}, Label: "bottle", Confidence: 0.92},
			}})
		},
	})

	client := NewModelClient(server.URL)
	detections, err := client.DetectObjects(context.Background(), []byte("jpeg"), 0.5, 0.5)
	if err != nil {
		t.Fatalf("DetectObjects failed: %v", err)
	}
	if len(detections) != 1 || detections[0].Label != "bottle" {
		t.Errorf("Unexpected detections: %+v", detections)
	}
	if detections[0].Box.Area() != 100*200 {
		t.Errorf("Unexpected box area: %v", detections[0].Box.Area())
	}
}

func TestModelClientTranscribe(t *testing.T) {
	server := modelServer(t, map[string]http.HandlerFunc{
		"/v1/transcribe": func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(transcribeResponse{Text: "hello there", Language: "en"})
		},
	})

	client := NewModelClient(server.URL)
	got, err := client.Transcribe(context.Background(), writeWAV(t))
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if got.Text != "hello there" || got.Language != "en" {
		t.Errorf("Unexpected transcription: %+v", got)
	}

	t.Run("MissingFile", func(t *testing.T) {
		if _, err := client.Transcribe(context.Background(), "no-such.wav"); err == nil {
			t.Error("Expected error for missing audio file")
		}
	})
}

func TestModelClientClassifyFace(t *testing.T) {
	t.Run("FaceDetected", func(t *testing.T) {
		server := modelServer(t, map[string]http.HandlerFunc{
			"/v1/emotion/face": func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(faceEmotionResponse{
					FaceDetected: true,
					Dominant:     "happy",
					Confidences:  map[string]float64{"happy": 0.8, "neutral": 0.2},
				})
			},
		})

		got, err := NewModelClient(server.URL).ClassifyFace(context.Background(), []byte("jpeg"))
		if err != nil {
			t.Fatalf("ClassifyFace failed: %v", err)
		}
		if got == nil || got.Dominant != "happy" {
			t.Errorf("Unexpected emotion: %+v", got)
		}
	})

	t.Run("NoFace", func(t *testing.T) {
		server := modelServer(t, map[string]http.HandlerFunc{
			"/v1/emotion/face": func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(faceEmotionResponse{FaceDetected: false})
			},
		})

		got, err := NewModelClient(server.URL).ClassifyFace(context.Background(), []byte("jpeg"))
		if err != nil {
			t.Fatalf("ClassifyFace failed: %v", err)
		}
		// nil result with nil error means no detectable face.
		if got != nil {
			t.Errorf("Expected nil emotion, got %+v", got)
		}
	})
}

func TestModelClientEstimatePose(t *testing.T) {
	server := modelServer(t, map[string]http.HandlerFunc{
		"/v1/pose": func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(poseResponse{
				PoseDetected: true,
				Pose: &Pose{
					LeftShoulder: Landmark{X: 0.4, Y: 0.3},
					LeftWrist:    Landmark{X: 0.1, Y: 0.6},
				},
			})
		},
	})

	got, err := NewModelClient(server.URL).EstimatePose(context.Background(), []byte("jpeg"))
	if err != nil {
		t.Fatalf("EstimatePose failed: %v", err)
	}
	if got == nil || got.LeftShoulder.Y != 0.3 {
		t.Errorf("Unexpected pose: %+v", got)
	}
}

func TestModelClientErrorHandling(t *testing.T) {
	t.Run("ApplicationError", func(t *testing.T) {
		server := modelServer(t, map[string]http.HandlerFunc{
			"/v1/sentiment/text": func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(textSentimentResponse{Error: "model not loaded"})
			},
		})

		_, err := NewModelClient(server.URL).ClassifyText(context.Background(), "great")
		if err == nil || !strings.Contains(err.Error(), "model not loaded") {
			t.Errorf("Expected application error surfaced, got %v", err)
		}
	})

	t.Run("HTTPError", func(t *testing.T) {
		server := modelServer(t, map[string]http.HandlerFunc{
			"/v1/sentiment/text": func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
		})

		_, err := NewModelClient(server.URL).ClassifyText(context.Background(), "great")
		if err == nil || !strings.Contains(err.Error(), "500") {
			t.Errorf("Expected status error, got %v", err)
		}
	})

	t.Run("ServerUnreachable", func(t *testing.T) {
		client := NewModelClient("http://127.0.0.1:1")
		if _, err := client.ClassifyText(context.Background(), "great"); err == nil {
			t.Error("Expected connection error")
		}
	})
}

func TestBoxIoU(t *testing.T) {
	a := Box{X1: 0, Y1: 0, X2: 100, Y2: 100}

	t.Run("Identical", func(t *testing.T) {
		if got := a.IoU(a); got != 1 {
			t.Errorf("Expected IoU 1, got %v", got)
		}
	})

	t.Run("Disjoint", func(t *testing.T) {
		b := Box{X1: 200, Y1: 200, X2: 300, Y2: 300}
		if got := a.IoU(b); got != 0 {
			t.Errorf("Expected IoU 0, got %v", got)
		}
	})

	t.Run("HalfOverlap", func(t *testing.T) {
		b := Box{X1: 50, Y1: 0, X2: 150, Y2: 100}
		// intersection 5000, union 15000
		want := 5000.0 / 15000.0
		if got := a.IoU(b); got < want-1e-9 || got > want+1e-9 {
			t.Errorf("Expected %v, got %v", want, got)
		}
	})
}
