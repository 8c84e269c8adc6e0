package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/promoscope/promoscope/internal/database"
	"github.com/promoscope/promoscope/internal/job"
	"github.com/promoscope/promoscope/internal/storage"
)

// Processor starts one analysis run. Satisfied by processing.Pipeline;
// handler tests substitute a fake.
type Processor interface {
	Process(ctx context.Context, jobID, videoPath string)
}

// App holds the handler dependencies.
type App struct {
	Jobs          *job.Store
	Pipeline      Processor
	Store         *storage.Manager
	Catalog       *database.AnalysisRepo
	MaxUploadSize int64
	Logger        zerolog.Logger
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}

// AnalyzeVideoHandler accepts a multipart video upload, registers a job and
// fires the pipeline in the background. Responds 202 with the task id before
// any analysis work happens.
func (app *App) AnalyzeVideoHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, app.MaxUploadSize)

	if err := r.ParseMultipartForm(app.MaxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "File too large")
		return
	}

	file, header, err := r.FormFile("video")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing video file")
		return
	}
	defer file.Close()

	if !isVideoUpload(header.Header.Get("Content-Type"), header.Filename) {
		writeError(w, http.StatusBadRequest, "Only video files are allowed")
		return
	}

	uploadPath, err := app.saveUpload(file, header.Filename)
	if err != nil {
		app.Logger.Error().Err(err).Msg("saving upload failed")
		writeError(w, http.StatusInternalServerError, "Failed to save upload")
		return
	}

	taskID := app.Jobs.Create()
	go func() {
		app.Pipeline.Process(context.Background(), taskID, uploadPath)
		if err := os.Remove(uploadPath); err != nil {
			app.Logger.Warn().Err(err).Str("path", uploadPath).Msg("upload cleanup failed")
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"taskId": taskID})
}

var videoExtensions = map[string]bool{
	".mp4": true, ".avi": true, ".mov": true, ".mkv": true, ".webm": true,
}

func isVideoUpload(contentType, filename string) bool {
	if strings.HasPrefix(contentType, "video/") {
		return true
	}
	// Some clients send octet-stream; fall back to the extension.
	return videoExtensions[strings.ToLower(filepath.Ext(filename))]
}

func (app *App) saveUpload(file io.Reader, filename string) (string, error) {
	ext := filepath.Ext(filename)
	if ext == "" {
		ext = ".mp4"
	}

	tmp, err := os.CreateTemp("", "upload-*"+ext)
	if err != nil {
		return "", err
	}
	defer tmp.Close()

	if _, err := io.Copy(tmp, file); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

// AnalysisStatusHandler returns the job record as-is: progress while
// processing, full results once completed.
func (app *App) AnalysisStatusHandler(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")

	j, err := app.Jobs.Get(taskID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	writeJSON(w, http.StatusOK, j)
}

// ListAnalysesHandler lists all persisted analyses, newest first.
func (app *App) ListAnalysesHandler(w http.ResponseWriter, r *http.Request) {
	summaries, err := app.Store.ListAll()
	if err != nil {
		app.Logger.Error().Err(err).Msg("listing analyses failed")
		writeError(w, http.StatusInternalServerError, "Failed to list analyses")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"analyses": summaries})
}

// GetAnalysisHandler returns one persisted analysis document.
func (app *App) GetAnalysisHandler(w http.ResponseWriter, r *http.Request) {
	analysisID := chi.URLParam(r, "analysisID")

	doc, err := app.Store.GetByID(analysisID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Analysis not found")
			return
		}
		app.Logger.Error().Err(err).Str("analysis_id", analysisID).Msg("reading analysis failed")
		writeError(w, http.StatusInternalServerError, "Failed to read analysis")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// StorageUsageHandler reports per-category file counts and byte totals.
func (app *App) StorageUsageHandler(w http.ResponseWriter, r *http.Request) {
	usage, err := app.Store.GetUsage()
	if err != nil {
		app.Logger.Error().Err(err).Msg("computing storage usage failed")
		writeError(w, http.StatusInternalServerError, "Failed to compute storage usage")
		return
	}
	writeJSON(w, http.StatusOK, usage)
}

// HistoryHandler returns recent analyses from the relational catalog.
func (app *App) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	entries, err := app.Catalog.Recent(r.Context(), limit)
	if err != nil {
		app.Logger.Error().Err(err).Msg("reading history failed")
		writeError(w, http.StatusInternalServerError, "Failed to read history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": entries})
}
