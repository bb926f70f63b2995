package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/vovakirdan/strangerchat-server/internal/store"
)

//go:embed schema.sql
var schema string

// SQLiteStore implements store.SessionStore for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

var _ store.SessionStore = (*SQLiteStore)(nil)

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, Migrate)
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to apply a custom schema.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection; it also keeps :memory: alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Migrate creates the history tables if they do not exist.
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// RecordSession stores an ended session and its shared interests atomically.
func (s *SQLiteStore) RecordSession(ctx context.Context, sess *store.Session) error {
	if sess == nil || sess.EndedAt.Before(sess.StartedAt) {
		return store.ErrInvalidSession
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO sessions (reason, shared_count, duration_ms, started_at, ended_at)
		VALUES (?, ?, ?, ?, ?)
	`, sess.Reason, len(sess.SharedInterests), sess.Duration().Milliseconds(), sess.StartedAt.UTC(), sess.EndedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}

	for _, interest := range sess.SharedInterests {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO session_interests (session_id, interest) VALUES (?, ?)`,
			id, interest,
		); err != nil {
			return fmt.Errorf("insert session interest: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	sess.ID = id
	return nil
}

// Summary aggregates all stored sessions. topN limits the interest ranking.
func (s *SQLiteStore) Summary(ctx context.Context, topN int) (store.Summary, error) {
	var sum store.Summary
	var avgMs sql.NullFloat64

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN shared_count > 0 THEN 1 ELSE 0 END), 0),
		       AVG(duration_ms)
		FROM sessions
	`).Scan(&sum.TotalSessions, &sum.WithSharedInterests, &avgMs)
	if err != nil {
		return store.Summary{}, fmt.Errorf("query totals: %w", err)
	}
	if avgMs.Valid {
		sum.AverageDurationSeconds = avgMs.Float64 / 1000
	}

	sum.TopInterests = []store.InterestCount{}
	if topN <= 0 {
		return sum, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT interest, COUNT(*) AS n
		FROM session_interests
		GROUP BY interest
		ORDER BY n DESC, interest ASC
		LIMIT ?
	`, topN)
	if err != nil {
		return store.Summary{}, fmt.Errorf("query interests: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ic store.InterestCount
		if err := rows.Scan(&ic.Interest, &ic.Count); err != nil {
			return store.Summary{}, fmt.Errorf("scan interest: %w", err)
		}
		sum.TopInterests = append(sum.TopInterests, ic)
	}
	if err := rows.Err(); err != nil {
		return store.Summary{}, fmt.Errorf("iterate interests: %w", err)
	}
	return sum, nil
}
