package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/promoscope/promoscope/internal/analysis"
	"github.com/promoscope/promoscope/internal/database"
	"github.com/promoscope/promoscope/internal/job"
	"github.com/promoscope/promoscope/internal/storage"
)

var analysisResultFixture = analysis.Result{
	Transcription: "a short promo transcript",
	Language:      "en",
	Sentiment:     analysis.SentimentScore{Label: "Good", Score: 75},
	Metrics:       analysis.Metrics{OverallEffectivenessScore: 70, TotalFrames: 5},
}

// recordingProcessor captures Process calls instead of running a pipeline.
type recordingProcessor struct {
	mu    sync.Mutex
	calls []string
	done  chan struct{}
}

func newRecordingProcessor() *recordingProcessor {
	return &recordingProcessor{done: make(chan struct{}, 8)}
}

func (p *recordingProcessor) Process(ctx context.Context, jobID, videoPath string) {
	p.mu.Lock()
	p.calls = append(p.calls, jobID)
	p.mu.Unlock()
	p.done <- struct{}{}
}

func testApp(t *testing.T) (*App, *recordingProcessor) {
	t.Helper()

	store, err := storage.NewManager(t.TempDir(), zerolog.Nop())
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	processor := newRecordingProcessor()
	app := &App{
		Jobs:          job.NewStore(),
		Pipeline:      processor,
		Store:         store,
		Catalog:       database.NewAnalysisRepo(db),
		MaxUploadSize: 10 << 20,
		Logger:        zerolog.Nop(),
	}
	return app, processor
}

func multipartVideo(t *testing.T, fieldName, filename, contentType string) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := make(map[string][]string)
	header["Content-Disposition"] = []string{`form-data; name="` + fieldName + `"; filename="` + filename + `"`}
	header["Content-Type"] = []string{contentType}
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("Failed to create part: %v", err)
	}
	part.Write([]byte("fake video bytes"))
	writer.Close()

	return &body, writer.FormDataContentType()
}

func TestPingHandler(t *testing.T) {
	app, _ := testApp(t)
	router := NewRouter(app)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "pong" {
		t.Errorf("Expected pong, got %q", rec.Body.String())
	}
}

func TestAnalyzeVideoHandler(t *testing.T) {
	t.Run("AcceptsVideoUpload", func(t *testing.T) {
		app, processor := testApp(t)
		router := NewRouter(app)

		body, contentType := multipartVideo(t, "video", "promo.mp4", "video/mp4")
		req := httptest.NewRequest(http.MethodPost, "/analyze-video", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusAccepted {
			t.Fatalf("Expected 202, got %d: %s", rec.Code, rec.Body.String())
		}

		var resp map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("Failed to parse response: %v", err)
		}
		taskID := resp["taskId"]
		if taskID == "" {
			t.Fatal("Expected taskId in response")
		}

		if _, err := app.Jobs.Get(taskID); err != nil {
			t.Errorf("Expected job registered, got %v", err)
		}

		<-processor.done
		processor.mu.Lock()
		defer processor.mu.Unlock()
		if len(processor.calls) != 1 || processor.calls[0] != taskID {
			t.Errorf("Expected pipeline called with %q, got %v", taskID, processor.calls)
		}
	})

	t.Run("RejectsNonVideoUpload", func(t *testing.T) {
		app, _ := testApp(t)
		router := NewRouter(app)

		body, contentType := multipartVideo(t, "video", "notes.txt", "text/plain")
		req := httptest.NewRequest(http.MethodPost, "/analyze-video", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", rec.Code)
		}
	})

	t.Run("OctetStreamWithVideoExtension", func(t *testing.T) {
		app, processor := testApp(t)
		router := NewRouter(app)

		body, contentType := multipartVideo(t, "video", "promo.mov", "application/octet-stream")
		req := httptest.NewRequest(http.MethodPost, "/analyze-video", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusAccepted {
			t.Errorf("Expected 202 for octet-stream .mov, got %d", rec.Code)
		}
		<-processor.done
	})

	t.Run("MissingFileField", func(t *testing.T) {
		app, _ := testApp(t)
		router := NewRouter(app)

		body, contentType := multipartVideo(t, "clip", "promo.mp4", "video/mp4")
		req := httptest.NewRequest(http.MethodPost, "/analyze-video", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("Expected 400 for missing field, got %d", rec.Code)
		}
	})
}

func TestAnalysisStatusHandler(t *testing.T) {
	app, _ := testApp(t)
	router := NewRouter(app)

	t.Run("UnknownTask", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/analysis-status/nope", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", rec.Code)
		}
	})

	t.Run("ProcessingSnapshot", func(t *testing.T) {
		taskID := app.Jobs.Create()
		app.Jobs.SetProgress(taskID, 42)

		req := httptest.NewRequest(http.MethodGet, "/analysis-status/"+taskID, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rec.Code)
		}

		var j job.Job
		if err := json.Unmarshal(rec.Body.Bytes(), &j); err != nil {
			t.Fatalf("Failed to parse response: %v", err)
		}
		if j.ID != taskID || j.Status != job.StatusProcessing || j.Progress != 42 {
			t.Errorf("Unexpected snapshot: %+v", j)
		}
	})
}

func TestListAndGetAnalyses(t *testing.T) {
	app, _ := testApp(t)
	router := NewRouter(app)

	t.Run("EmptyList", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/analyses", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rec.Code)
		}
		var resp struct {
			Analyses []storage.Summary `json:"analyses"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("Failed to parse response: %v", err)
		}
		if len(resp.Analyses) != 0 {
			t.Errorf("Expected empty list, got %d", len(resp.Analyses))
		}
	})

	t.Run("UnknownAnalysis", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/analyses/analysis_missing", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", rec.Code)
		}
	})

	t.Run("StoredAnalysisRoundTrip", func(t *testing.T) {
		videoPath := filepath.Join(t.TempDir(), "promo.mp4")
		if err := os.WriteFile(videoPath, []byte("fake"), 0o644); err != nil {
			t.Fatalf("Failed to write video: %v", err)
		}
		info := app.Store.Store(videoPath, &analysisResultFixture)
		if !info.Success {
			t.Fatalf("Store failed: %q", info.Error)
		}

		req := httptest.NewRequest(http.MethodGet, "/analyses/"+info.AnalysisID, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rec.Code)
		}
		var doc storage.Document
		if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
			t.Fatalf("Failed to parse document: %v", err)
		}
		if doc.AnalysisID != info.AnalysisID {
			t.Errorf("Expected id %q, got %q", info.AnalysisID, doc.AnalysisID)
		}
	})
}

func TestStorageUsageHandler(t *testing.T) {
	app, _ := testApp(t)
	router := NewRouter(app)

	req := httptest.NewRequest(http.MethodGet, "/storage/usage", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var usage storage.Usage
	if err := json.Unmarshal(rec.Body.Bytes(), &usage); err != nil {
		t.Fatalf("Failed to parse usage: %v", err)
	}
	if usage.Videos.Files != 0 {
		t.Errorf("Expected empty storage, got %+v", usage)
	}
}

func TestHistoryHandler(t *testing.T) {
	app, _ := testApp(t)
	router := NewRouter(app)

	t.Run("InvalidLimit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/history?limit=zero", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", rec.Code)
		}
	})

	t.Run("EmptyHistory", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/history", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rec.Code)
		}
		var resp struct {
			History []database.CatalogEntry `json:"history"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("Failed to parse response: %v", err)
		}
		if len(resp.History) != 0 {
			t.Errorf("Expected empty history, got %d", len(resp.History))
		}
	})
}
