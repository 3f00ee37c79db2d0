// Package record keeps a per frame diagnostics log of the skeletonization
// sessions in a sqlite database.
package record

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// schema.sql defines the sessions table and the per frame statistics table.
//
//go:embed schema.sql
var schemaSQL string

// Store wraps the sqlite database holding the records.
type Store struct {
	*sql.DB
}

// SessionConfig describes the processor setup a session was recorded with.
type SessionConfig struct {
	Source       string
	Mode         string
	Threshold    int
	WindowSize   int
	IterationCap int
}

// Session is a single run over a frame source.
type Session struct {
	ID      string
	Started time.Time
	SessionConfig

	store *Store
}

// FrameRecord holds the thinning statistics of one frame.
type FrameRecord struct {
	Index      int
	Iterations int
	Removed    int
	Converged  bool
	// Foreground is the number of skeleton pixels.
	Foreground int
	HasRegion  bool
	Region     image.Rectangle
	Duration   time.Duration
}

// Summary aggregates the frames of a session.
type Summary struct {
	Frames       int
	Removed      int
	NonConverged int
}

// Open opens (or creates) the database at path and makes sure the schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// A single connection keeps in-memory databases consistent across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Store{db}, nil
}

// NewSession registers a new session and returns it.
func (s *Store) NewSession(cfg SessionConfig) (*Session, error) {
	sess := &Session{
		ID:            uuid.NewString(),
		Started:       time.Now(),
		SessionConfig: cfg,
		store:         s,
	}
	query := `
		INSERT INTO sessions (id, source, mode, threshold, window_size, iteration_cap, started_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.Exec(query, sess.ID, cfg.Source, cfg.Mode, cfg.Threshold, cfg.WindowSize,
		cfg.IterationCap, sess.Started.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	return sess, nil
}

// Add stores the statistics of one frame.
func (sess *Session) Add(fr FrameRecord) error {
	if sess.store == nil {
		return errors.New("session is not attached to a store")
	}
	query := `
		INSERT INTO frames (session_id, frame_index, iterations, removed, converged, foreground,
			has_region, region_x0, region_y0, region_x1, region_y1, duration_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	r := fr.Region
	_, err := sess.store.Exec(query, sess.ID, fr.Index, fr.Iterations, fr.Removed,
		btoi(fr.Converged), fr.Foreground, btoi(fr.HasRegion),
		r.Min.X, r.Min.Y, r.Max.X, r.Max.Y, int64(fr.Duration))
	if err != nil {
		return fmt.Errorf("failed to insert frame %d: %w", fr.Index, err)
	}
	return nil
}

// Frames returns the frames of a session ordered by their index.
func (s *Store) Frames(sessionID string) ([]FrameRecord, error) {
	query := `
		SELECT frame_index, iterations, removed, converged, foreground,
			has_region, region_x0, region_y0, region_x1, region_y1, duration_ns
		FROM frames
		WHERE session_id = ?
		ORDER BY frame_index
	`
	rows, err := s.Query(query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query frames: %w", err)
	}
	defer rows.Close()

	var frames []FrameRecord
	for rows.Next() {
		var (
			fr                   FrameRecord
			converged, hasRegion int
			duration             int64
		)
		err := rows.Scan(&fr.Index, &fr.Iterations, &fr.Removed, &converged, &fr.Foreground,
			&hasRegion, &fr.Region.Min.X, &fr.Region.Min.Y, &fr.Region.Max.X, &fr.Region.Max.Y, &duration)
		if err != nil {
			return nil, fmt.Errorf("failed to scan frame: %w", err)
		}
		fr.Converged = converged != 0
		fr.HasRegion = hasRegion != 0
		fr.Duration = time.Duration(duration)
		frames = append(frames, fr)
	}
	return frames, rows.Err()
}

// Summary aggregates the frames recorded for a session.
func (s *Store) Summary(sessionID string) (Summary, error) {
	var sum Summary
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(removed), 0),
			COALESCE(SUM(CASE WHEN converged = 0 THEN 1 ELSE 0 END), 0)
		FROM frames
		WHERE session_id = ?
	`
	err := s.QueryRow(query, sessionID).Scan(&sum.Frames, &sum.Removed, &sum.NonConverged)
	if err != nil {
		return sum, fmt.Errorf("failed to summarize session: %w", err)
	}
	return sum, nil
}

func btoi(b bool) int {
	if b {
		return 1
	}
	return 0
}
