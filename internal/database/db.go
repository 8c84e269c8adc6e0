package database

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite catalog of completed analyses. The JSON documents on
// disk stay the source of truth; the catalog serves fast history queries and
// the durable per-frame metric series.
type DB struct {
	conn *sql.DB
}

func NewDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return db, nil
}

func (db *DB) createTables() error {
	query := `
	CREATE TABLE IF NOT EXISTS analyses (
		id TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL,
		overall_score REAL NOT NULL,
		video_path TEXT NOT NULL,
		json_path TEXT NOT NULL,
		report_path TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS frame_metrics (
		analysis_id TEXT NOT NULL,
		frame_number INTEGER NOT NULL,
		proximity REAL NOT NULL,
		blurriness REAL NOT NULL,
		objects_count INTEGER NOT NULL,
		PRIMARY KEY (analysis_id, frame_number)
	);
	`

	_, err := db.conn.Exec(query)
	return err
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) Conn() *sql.DB {
	return db.conn
}
