package database

import (
	"context"
	"fmt"
	"time"
)

// CatalogEntry is one catalog row of a persisted analysis.
type CatalogEntry struct {
	AnalysisID   string    `json:"analysis_id"`
	CreatedAt    time.Time `json:"created_at"`
	OverallScore float64   `json:"overall_score"`
	VideoPath    string    `json:"video_path"`
	JSONPath     string    `json:"json_path"`
	ReportPath   string    `json:"report_path"`
}

type AnalysisRepo struct {
	db *DB
}

func NewAnalysisRepo(db *DB) *AnalysisRepo {
	return &AnalysisRepo{db: db}
}

func (r *AnalysisRepo) Insert(ctx context.Context, entry CatalogEntry) error {
	query := `
		INSERT INTO analyses (id, created_at, overall_score, video_path, json_path, report_path)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err := r.db.conn.ExecContext(ctx, query,
		entry.AnalysisID,
		entry.CreatedAt,
		entry.OverallScore,
		entry.VideoPath,
		entry.JSONPath,
		entry.ReportPath,
	)
	if err != nil {
		return fmt.Errorf("failed to insert analysis: %w", err)
	}
	return nil
}

// Recent returns the newest entries first, at most limit rows.
func (r *AnalysisRepo) Recent(ctx context.Context, limit int) ([]CatalogEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, created_at, overall_score, video_path, json_path, report_path
		FROM analyses
		ORDER BY created_at DESC
		LIMIT ?`

	rows, err := r.db.conn.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	defer rows.Close()

	var entries []CatalogEntry
	for rows.Next() {
		var entry CatalogEntry
		if err := rows.Scan(
			&entry.AnalysisID,
			&entry.CreatedAt,
			&entry.OverallScore,
			&entry.VideoPath,
			&entry.JSONPath,
			&entry.ReportPath,
		); err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
