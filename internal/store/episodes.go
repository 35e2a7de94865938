package store

import (
	"context"
	"fmt"
	"time"
)

// EpisodeRecord is one stored batch-run episode outcome.
type EpisodeRecord struct {
	ID             int64     `json:"id"`
	SessionID      string    `json:"session_id"`
	Strategy       string    `json:"strategy"`
	Difficulty     string    `json:"difficulty"`
	GoalsCompleted int       `json:"goals_completed"`
	TotalAttempts  int       `json:"total_attempts"`
	Error          string    `json:"error,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// RecordEpisodes inserts a batch of episode rows in one transaction.
func (s *Store) RecordEpisodes(ctx context.Context, recs []EpisodeRecord) error {
	if len(recs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: record episodes: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO episodes (session_id, strategy, difficulty, goals_completed, total_attempts, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store: record episodes: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, rec := range recs {
		if _, err := stmt.ExecContext(ctx, rec.SessionID, rec.Strategy, rec.Difficulty,
			rec.GoalsCompleted, rec.TotalAttempts, rec.Error, now); err != nil {
			return fmt.Errorf("store: record episodes: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: record episodes: %w", err)
	}
	return nil
}

// ListEpisodes returns stored episodes in insertion order, optionally
// filtered by strategy. An empty strategy returns everything.
func (s *Store) ListEpisodes(ctx context.Context, strategy string) ([]EpisodeRecord, error) {
	query := `SELECT id, session_id, strategy, difficulty, goals_completed, total_attempts, error, created_at
	          FROM episodes`
	args := []any{}
	if strategy != "" {
		query += ` WHERE strategy = ?`
		args = append(args, strategy)
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []EpisodeRecord
	for rows.Next() {
		var rec EpisodeRecord
		var created string
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.Strategy, &rec.Difficulty,
			&rec.GoalsCompleted, &rec.TotalAttempts, &rec.Error, &created); err != nil {
			return nil, err
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, rec)
	}
	return out, rows.Err()
}
