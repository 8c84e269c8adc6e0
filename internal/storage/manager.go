package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/promoscope/promoscope/internal/analysis"
)

// ErrNotFound is returned when no analysis document exists for an id.
var ErrNotFound = errors.New("analysis not found")

// DocumentVersion is written into every persisted results document.
const DocumentVersion = "1.0"

const (
	videosDir  = "videos"
	resultsDir = "analysis_results"
	reportsDir = "reports"
)

// Document is the persisted JSON shape of one analysis run.
type Document struct {
	AnalysisID string           `json:"analysis_id"`
	Timestamp  string           `json:"timestamp"` // RFC3339
	Version    string           `json:"version"`
	Data       *analysis.Result `json:"data"`
}

// Summary is one row of ListAll.
type Summary struct {
	AnalysisID   string  `json:"analysis_id"`
	Timestamp    string  `json:"timestamp"`
	OverallScore float64 `json:"overall_score"`
}

// CategoryUsage reports file count and total bytes of one storage area.
type CategoryUsage struct {
	Files int   `json:"files"`
	Bytes int64 `json:"bytes"`
}

// Usage summarizes the whole storage tree.
type Usage struct {
	Videos  CategoryUsage `json:"videos"`
	Results CategoryUsage `json:"results"`
	Reports CategoryUsage `json:"reports"`
}

// Manager persists completed analyses: the source video, the structured
// results document and a human-readable report, each under its own area.
// Ids are unique per job, so concurrent jobs never contend for a key.
type Manager struct {
	basePath string
	logger   zerolog.Logger
}

func NewManager(basePath string, logger zerolog.Logger) (*Manager, error) {
	for _, dir := range []string{basePath, filepath.Join(basePath, videosDir), filepath.Join(basePath, resultsDir), filepath.Join(basePath, reportsDir)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
	}
	return &Manager{
		basePath: basePath,
		logger:   logger.With().Str("component", "storage").Logger(),
	}, nil
}

// NewAnalysisID allocates a timestamped unique analysis id.
func NewAnalysisID() string {
	return fmt.Sprintf("analysis_%s_%s", time.Now().Format("20060102_150405"), uuid.New().String()[:8])
}

// Store persists the video, the results document and the summary report.
// Failures are captured in the returned StorageInfo (Success=false) rather
// than raised: storage is an enrichment, not a gate, and the job still
// completes with its in-memory results.
func (m *Manager) Store(videoPath string, result *analysis.Result) analysis.StorageInfo {
	analysisID := NewAnalysisID()

	storedVideo, err := m.storeVideo(videoPath, analysisID)
	if err != nil {
		m.logger.Error().Err(err).Str("analysis_id", analysisID).Msg("failed to store video")
		return analysis.StorageInfo{Success: false, Error: err.Error()}
	}

	jsonPath, err := m.storeResults(analysisID, result)
	if err != nil {
		m.logger.Error().Err(err).Str("analysis_id", analysisID).Msg("failed to store results")
		return analysis.StorageInfo{Success: false, Error: err.Error()}
	}

	reportPath, err := m.writeReport(analysisID, result)
	if err != nil {
		m.logger.Error().Err(err).Str("analysis_id", analysisID).Msg("failed to write report")
		return analysis.StorageInfo{Success: false, Error: err.Error()}
	}

	m.logger.Info().Str("analysis_id", analysisID).Msg("analysis persisted")
	return analysis.StorageInfo{
		AnalysisID:      analysisID,
		VideoPath:       storedVideo,
		ResultsJSONPath: jsonPath,
		ReportPath:      reportPath,
		Success:         true,
	}
}

func (m *Manager) storeVideo(videoPath, analysisID string) (string, error) {
	ext := filepath.Ext(videoPath)
	dst := filepath.Join(m.basePath, videosDir, analysisID+ext)

	src, err := os.Open(videoPath)
	if err != nil {
		return "", fmt.Errorf("opening source video: %w", err)
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("creating stored video: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("copying video: %w", err)
	}
	return dst, nil
}

func (m *Manager) storeResults(analysisID string, result *analysis.Result) (string, error) {
	doc := Document{
		AnalysisID: analysisID,
		Timestamp:  time.Now().Format(time.RFC3339),
		Version:    DocumentVersion,
		Data:       result,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling results: %w", err)
	}

	jsonPath := filepath.Join(m.basePath, resultsDir, analysisID+".json")
	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		return "", fmt.Errorf("writing results document: %w", err)
	}
	return jsonPath, nil
}

func (m *Manager) writeReport(analysisID string, result *analysis.Result) (string, error) {
	reportPath := filepath.Join(m.basePath, reportsDir, analysisID+"_summary.txt")

	var b strings.Builder
	b.WriteString("VIDEO ANALYSIS REPORT\n")
	b.WriteString("=====================\n\n")
	fmt.Fprintf(&b, "Analysis ID: %s\n", analysisID)
	fmt.Fprintf(&b, "Timestamp: %s\n\n", time.Now().Format("2006-01-02 15:04:05"))

	fmt.Fprintf(&b, "OVERALL EFFECTIVENESS SCORE: %.1f%%\n\n", result.Metrics.OverallEffectivenessScore)

	transcript := result.Transcription
	b.WriteString("TRANSCRIPTION SUMMARY:\n")
	if len(transcript) > 500 {
		fmt.Fprintf(&b, "%s...\n\n", transcript[:500])
	} else {
		fmt.Fprintf(&b, "%s\n\n", transcript)
	}

	fmt.Fprintf(&b, "TEXT SENTIMENT: %s (%.0f%%)\n\n", result.Sentiment.Label, result.Sentiment.Score)

	b.WriteString("HUMAN SENTIMENT ANALYSIS:\n")
	fmt.Fprintf(&b, "  - Facial Score: %.1f%%\n", result.HumanSentiment.FacialScore)
	fmt.Fprintf(&b, "  - Body Language Score: %.1f%%\n", result.HumanSentiment.BodyScore)
	fmt.Fprintf(&b, "  - Combined Score: %.1f%%\n", result.HumanSentiment.CombinedScore)
	fmt.Fprintf(&b, "  - Dominant Emotion: %s\n\n", result.HumanSentiment.DominantEmotion)

	b.WriteString("DETECTED PRODUCTS:\n")
	if len(result.DetectedProducts) == 0 {
		b.WriteString("  No products detected\n")
	}
	for _, product := range result.DetectedProducts {
		fmt.Fprintf(&b, "  - %s: %d detections\n", product.Name, product.Count)
	}

	fmt.Fprintf(&b, "\nFor detailed analysis, check the JSON file: %s.json\n", analysisID)

	if err := os.WriteFile(reportPath, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	return reportPath, nil
}

// GetByID reads back a stored document. Unknown ids return ErrNotFound.
func (m *Manager) GetByID(analysisID string) (*Document, error) {
	cleaned := filepath.Clean(analysisID)
	if strings.Contains(cleaned, "..") || strings.ContainsRune(cleaned, filepath.Separator) {
		return nil, ErrNotFound
	}

	data, err := os.ReadFile(filepath.Join(m.basePath, resultsDir, cleaned+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading analysis document: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing analysis document: %w", err)
	}
	return &doc, nil
}

// ListAll enumerates every stored result document, newest first.
func (m *Manager) ListAll() ([]Summary, error) {
	entries, err := os.ReadDir(filepath.Join(m.basePath, resultsDir))
	if err != nil {
		return nil, fmt.Errorf("listing results: %w", err)
	}

	summaries := []Summary{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".json")

		doc, err := m.GetByID(id)
		if err != nil {
			m.logger.Warn().Err(err).Str("analysis_id", id).Msg("skipping unreadable analysis document")
			continue
		}

		summary := Summary{AnalysisID: doc.AnalysisID, Timestamp: doc.Timestamp}
		if doc.Data != nil {
			summary.OverallScore = doc.Data.Metrics.OverallEffectivenessScore
		}
		summaries = append(summaries, summary)
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Timestamp > summaries[j].Timestamp
	})
	return summaries, nil
}

// GetUsage walks the storage areas and reports per-category counts and sizes.
func (m *Manager) GetUsage() (Usage, error) {
	var usage Usage
	for dir, target := range map[string]*CategoryUsage{
		videosDir:  &usage.Videos,
		resultsDir: &usage.Results,
		reportsDir: &usage.Reports,
	} {
		entries, err := os.ReadDir(filepath.Join(m.basePath, dir))
		if err != nil {
			return Usage{}, fmt.Errorf("reading %s area: %w", dir, err)
		}
		for _, entry := range entries {
			info, err := entry.Info()
			if err != nil {
				continue
			}
			target.Files++
			target.Bytes += info.Size()
		}
	}
	return usage, nil
}
