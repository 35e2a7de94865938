// Package store persists sessions, attempts, and program snapshots in
// SQLite, and computes diffs between snapshot disassemblies.
package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/uorlab/primeseek/internal/interfaces"
	_ "modernc.org/sqlite" // SQLite driver
)

var ErrNotFound = errors.New("store: not found")

//go:embed schema.sql
var schemaFS embed.FS

// Store wraps the SQLite database.
type Store struct {
	db     *sql.DB
	logger interfaces.Logger
}

// SessionRecord is one stored session.
type SessionRecord struct {
	ID         string    `json:"id"`
	Strategy   string    `json:"strategy"`
	Difficulty string    `json:"difficulty"`
	CreatedAt  time.Time `json:"created_at"`
}

// AttemptRecord is one stored attempt.
type AttemptRecord struct {
	ID         int64     `json:"id"`
	SessionID  string    `json:"session_id"`
	GoalTarget int       `json:"goal_target"`
	GoalKind   string    `json:"goal_kind"`
	AttemptNo  int       `json:"attempt_no"`
	Value      int       `json:"value"`
	Success    bool      `json:"success"`
	Stuck      bool      `json:"stuck"`
	CreatedAt  time.Time `json:"created_at"`
}

// SnapshotRecord is one stored program snapshot.
type SnapshotRecord struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Hash      string    `json:"hash"`
	Listing   string    `json:"listing"`
	CreatedAt time.Time `json:"created_at"`
}

// Open opens (creating if needed) the database at path and applies the
// schema and pragmas.
func Open(path string, logger interfaces.Logger) (*Store, error) {
	if logger == nil {
		return nil, errors.New("store: nil logger provided")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("store: create directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	logger.Info("store opened", interfaces.Field{Key: "path", Value: path})
	return &Store{db: db, logger: logger}, nil
}

// applySchema sets pragmas and executes the embedded schema.
func applySchema(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}
	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema.sql: %w", err)
	}
	if _, err := db.Exec(string(schemaSQL)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// CreateSession inserts a session row.
func (s *Store) CreateSession(ctx context.Context, id, strategy, difficulty string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, strategy, difficulty, created_at) VALUES (?, ?, ?, ?)`,
		id, strategy, difficulty, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("store: create session: %w", err)
	}
	return nil
}

// GetSession fetches one session row.
func (s *Store) GetSession(ctx context.Context, id string) (*SessionRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, strategy, difficulty, created_at FROM sessions WHERE id = ?`, id)
	var rec SessionRecord
	var created string
	if err := row.Scan(&rec.ID, &rec.Strategy, &rec.Difficulty, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	return &rec, nil
}

// ListSessions returns all sessions, newest first.
func (s *Store) ListSessions(ctx context.Context) ([]SessionRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, strategy, difficulty, created_at FROM sessions ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SessionRecord
	for rows.Next() {
		var rec SessionRecord
		var created string
		if err := rows.Scan(&rec.ID, &rec.Strategy, &rec.Difficulty, &created); err != nil {
			return nil, err
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// RecordAttempt inserts an attempt row.
func (s *Store) RecordAttempt(ctx context.Context, rec AttemptRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO attempts (session_id, goal_target, goal_kind, attempt_no, value, success, stuck, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.SessionID, rec.GoalTarget, rec.GoalKind, rec.AttemptNo, rec.Value,
		boolInt(rec.Success), boolInt(rec.Stuck),
		time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("store: record attempt: %w", err)
	}
	return nil
}

// ListAttempts returns a session's attempts in insertion order.
func (s *Store) ListAttempts(ctx context.Context, sessionID string) ([]AttemptRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, goal_target, goal_kind, attempt_no, value, success, stuck, created_at
		 FROM attempts WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AttemptRecord
	for rows.Next() {
		var rec AttemptRecord
		var success, stuck int
		var created string
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.GoalTarget, &rec.GoalKind,
			&rec.AttemptNo, &rec.Value, &success, &stuck, &created); err != nil {
			return nil, err
		}
		rec.Success = success != 0
		rec.Stuck = stuck != 0
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// SaveSnapshot stores a program disassembly listing under a content hash
// and returns the snapshot record.
func (s *Store) SaveSnapshot(ctx context.Context, sessionID, listing string) (*SnapshotRecord, error) {
	rec := &SnapshotRecord{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Hash:      HashListing(listing),
		Listing:   listing,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots (id, session_id, hash, listing, created_at) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.SessionID, rec.Hash, rec.Listing, rec.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("store: save snapshot: %w", err)
	}
	return rec, nil
}

// GetSnapshot fetches one snapshot.
func (s *Store) GetSnapshot(ctx context.Context, id string) (*SnapshotRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, session_id, hash, listing, created_at FROM snapshots WHERE id = ?`, id)
	var rec SnapshotRecord
	var created string
	if err := row.Scan(&rec.ID, &rec.SessionID, &rec.Hash, &rec.Listing, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	return &rec, nil
}

// ListSnapshots returns a session's snapshots, oldest first, without the
// listing bodies.
func (s *Store) ListSnapshots(ctx context.Context, sessionID string) ([]SnapshotRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, hash, created_at FROM snapshots WHERE session_id = ? ORDER BY created_at`,
		sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SnapshotRecord
	for rows.Next() {
		var rec SnapshotRecord
		var created string
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.Hash, &created); err != nil {
			return nil, err
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// HashListing returns the truncated content hash used to identify program
// states.
func HashListing(listing string) string {
	sum := sha256.Sum256([]byte(listing))
	return hex.EncodeToString(sum[:])[:16]
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
