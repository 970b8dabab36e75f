package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"deployhub/internal/deployment"

	_ "modernc.org/sqlite"
)

// DefaultLimit is the number of records Load returns when Limit is unset
const DefaultLimit = 10

// timeLayout keeps deployed_at fixed-width so text ordering is chronological
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// History stores deployment records in SQLite and serves them as a record source
type History struct {
	db *sql.DB

	// Limit caps the number of records returned by Load
	Limit int
}

// NewHistory opens (creating if needed) the database at dbPath
func NewHistory(dbPath string) (*History, error) {
	// Open database connection
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool for SQLite (single writer)
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	h := &History{db: db, Limit: DefaultLimit}

	if err := h.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return h, nil
}

// Close closes the database connection
func (h *History) Close() error {
	return h.db.Close()
}

// initSchema creates the database tables and indexes
func (h *History) initSchema() error {
	_, err := h.db.Exec(`
		CREATE TABLE IF NOT EXISTS deployments (
			id INTEGER PRIMARY KEY,
			username TEXT NOT NULL,
			project_name TEXT NOT NULL,
			deployed_at TEXT NOT NULL,
			status TEXT NOT NULL,
			environment TEXT NOT NULL,
			duration TEXT NOT NULL,
			avatar TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	_, err = h.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_deployed_at
		ON deployments(deployed_at DESC)
	`)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	return nil
}

// Record stores a deployment record
func (h *History) Record(ctx context.Context, r deployment.Record) error {
	_, err := h.db.ExecContext(ctx, `
		INSERT INTO deployments
		(id, username, project_name, deployed_at, status, environment, duration, avatar)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.ID,
		r.Username,
		r.ProjectName,
		r.DeployedAt.UTC().Format(timeLayout),
		string(r.Status),
		string(r.Environment),
		r.Duration,
		r.Avatar,
	)
	if err != nil {
		return fmt.Errorf("failed to insert deployment record %d: %w", r.ID, err)
	}
	return nil
}

// RecordAll stores records in a single transaction
func (h *History) RecordAll(ctx context.Context, records []deployment.Record) error {
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO deployments
		(id, username, project_name, deployed_at, status, environment, duration, avatar)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx,
			r.ID, r.Username, r.ProjectName,
			r.DeployedAt.UTC().Format(timeLayout),
			string(r.Status), string(r.Environment), r.Duration, r.Avatar,
		); err != nil {
			return fmt.Errorf("failed to insert deployment record %d: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first
func (h *History) Recent(ctx context.Context, limit int) ([]deployment.Record, error) {
	rows, err := h.db.QueryContext(ctx, `
		SELECT id, username, project_name, deployed_at, status, environment, duration, avatar
		FROM deployments
		ORDER BY deployed_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query deployment history: %w", err)
	}
	defer rows.Close()

	records := []deployment.Record{}
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deployment record: %w", err)
		}
		records = append(records, *record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return records, nil
}

// Get returns a single record by id, or nil if it does not exist
func (h *History) Get(ctx context.Context, id int64) (*deployment.Record, error) {
	row := h.db.QueryRowContext(ctx, `
		SELECT id, username, project_name, deployed_at, status, environment, duration, avatar
		FROM deployments
		WHERE id = ?
	`, id)

	record, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query deployment %d: %w", id, err)
	}
	return record, nil
}

// Count returns the number of stored records
func (h *History) Count(ctx context.Context) (int, error) {
	var n int
	if err := h.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM deployments`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count deployments: %w", err)
	}
	return n, nil
}

// Load implements source.Source: the most recent Limit records, newest first
func (h *History) Load(ctx context.Context) ([]deployment.Record, error) {
	limit := h.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	return h.Recent(ctx, limit)
}

// scanner is an interface that both *sql.Row and *sql.Rows implement
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanRecord scans a database row into a deployment record.
// Unrecognized status or environment values degrade to unknown.
func scanRecord(s scanner) (*deployment.Record, error) {
	var record deployment.Record
	var deployedAt, status, environment string

	err := s.Scan(
		&record.ID,
		&record.Username,
		&record.ProjectName,
		&deployedAt,
		&status,
		&environment,
		&record.Duration,
		&record.Avatar,
	)
	if err != nil {
		return nil, err
	}

	t, err := time.Parse(time.RFC3339Nano, deployedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse deployed_at timestamp: %w", err)
	}
	record.DeployedAt = t
	record.Status = deployment.ParseStatus(status)
	record.Environment = deployment.ParseEnvironment(environment)

	return &record, nil
}
