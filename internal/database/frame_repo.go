package database

import (
	"context"
	"fmt"

	"github.com/promoscope/promoscope/internal/analysis"
)

// FrameMetricsRepo stores the per-frame sample series of each analysis so
// the visualization data survives beyond the in-memory job record.
type FrameMetricsRepo struct {
	db *DB
}

func NewFrameMetricsRepo(db *DB) *FrameMetricsRepo {
	return &FrameMetricsRepo{db: db}
}

// InsertSamples writes the whole series in one transaction.
func (r *FrameMetricsRepo) InsertSamples(ctx context.Context, analysisID string, samples []analysis.FrameSample) error {
	if len(samples) == 0 {
		return nil
	}

	tx, err := r.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO frame_metrics (analysis_id, frame_number, proximity, blurriness, objects_count)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range samples {
		if _, err := stmt.ExecContext(ctx, analysisID, s.FrameNumber, s.Proximity, s.Blurriness, s.ObjectsCount); err != nil {
			return fmt.Errorf("failed to insert frame %d: %w", s.FrameNumber, err)
		}
	}
	return tx.Commit()
}

// GetByAnalysisID returns the sample series in frame order.
func (r *FrameMetricsRepo) GetByAnalysisID(ctx context.Context, analysisID string) ([]analysis.FrameSample, error) {
	query := `
		SELECT frame_number, proximity, blurriness, objects_count
		FROM frame_metrics
		WHERE analysis_id = ?
		ORDER BY frame_number`

	rows, err := r.db.conn.QueryContext(ctx, query, analysisID)
	if err != nil {
		return nil, fmt.Errorf("failed to query frame metrics: %w", err)
	}
	defer rows.Close()

	var samples []analysis.FrameSample
	for rows.Next() {
		var s analysis.FrameSample
		if err := rows.Scan(&s.FrameNumber, &s.Proximity, &s.Blurriness, &s.ObjectsCount); err != nil {
			return nil, fmt.Errorf("failed to scan frame metric: %w", err)
		}
		samples = append(samples, s)
	}
	return samples, rows.Err()
}
