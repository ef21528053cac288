// Package diag provides an optional SQLite recorder for per-frame tracking
// diagnostics. It is a side artifact: the tracking core never depends on it,
// and a nil *Recorder is safe to use as a disabled recorder.
package diag

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Recorder stores one session row per pipeline run and one frames row per
// processed frame.
type Recorder struct {
	db        *sql.DB
	sessionID string
}

// FrameStats summarizes one processed frame.
type FrameStats struct {
	Timestamp    float64
	Tracks       int
	Created      int
	Lost         int
	MeanAge      float64
	StereoCount  int
	ProcessingMs float64
}

// Open creates a Recorder backed by the SQLite database at path, running
// migrations and inserting the session row.
func Open(path string, cameras int) (*Recorder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open diagnostics database: %w", err)
	}

	// Enable foreign key constraints
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	r := &Recorder{
		db:        db,
		sessionID: uuid.New().String(),
	}

	if err := r.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	_, err = db.Exec(
		`INSERT INTO sessions (id, cameras, started_at) VALUES (?, ?, ?)`,
		r.sessionID, cameras, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to insert session: %w", err)
	}
	return r, nil
}

// SessionID returns the id of the current session row.
func (r *Recorder) SessionID() string {
	if r == nil {
		return ""
	}
	return r.sessionID
}

// RecordFrame inserts one frames row. A nil Recorder discards the stats.
func (r *Recorder) RecordFrame(s FrameStats) error {
	if r == nil {
		return nil
	}
	_, err := r.db.Exec(
		`INSERT INTO frames
			(session_id, timestamp, tracks, created, lost, mean_age, stereo_count, processing_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.sessionID, s.Timestamp, s.Tracks, s.Created, s.Lost, s.MeanAge, s.StereoCount, s.ProcessingMs,
	)
	if err != nil {
		return fmt.Errorf("failed to record frame: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *Recorder) Close() error {
	if r == nil {
		return nil
	}
	return r.db.Close()
}

// runMigrations executes all database migrations.
func (r *Recorder) runMigrations() error {
	migrations := []string{
		// Sessions table - one row per pipeline run
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			cameras INTEGER NOT NULL,
			started_at DATETIME NOT NULL
		)`,

		// Frames table - per-frame tracking summary
		`CREATE TABLE IF NOT EXISTS frames (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			timestamp REAL NOT NULL,
			tracks INTEGER NOT NULL,
			created INTEGER NOT NULL,
			lost INTEGER NOT NULL,
			mean_age REAL NOT NULL,
			stereo_count INTEGER NOT NULL,
			processing_ms REAL NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_frames_session ON frames(session_id)`,
	}

	for i, m := range migrations {
		if _, err := r.db.Exec(m); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}
	return nil
}
