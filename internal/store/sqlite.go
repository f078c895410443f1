package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/kiranshivaraju/fieldops/pkg/models"
)

// SQLiteStore keeps each job as a JSON document in a single-file database.
// The pool is capped at one connection, so every transaction is serialized.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and ensures the schema.
// Use ":memory:" for a throwaway database.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS jobs (
  id TEXT PRIMARY KEY,
  status TEXT NOT NULL,
  technician_id TEXT,
  created_at INTEGER NOT NULL,
  doc TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs (status);
CREATE INDEX IF NOT EXISTS idx_jobs_technician ON jobs (technician_id);
CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs (created_at DESC, id);
`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create sqlite schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) CreateJob(ctx context.Context, job *models.Job) error {
	doc, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create job: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM jobs WHERE id = ?`, job.ID).Scan(&exists)
	if err == nil {
		return ErrDuplicateKey
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("check job id: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO jobs (id, status, technician_id, created_at, doc) VALUES (?, ?, ?, ?, ?)`,
		job.ID, string(job.Status), job.AssignedTechnicianID, job.CreatedAt.UnixNano(), string(doc),
	); err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create job: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetJob(ctx context.Context, id string) (*models.Job, error) {
	job, err := getDoc(s.db.QueryRowContext(ctx, `SELECT doc FROM jobs WHERE id = ?`, id))
	if err != nil {
		return nil, err
	}
	return job, nil
}

func (s *SQLiteStore) ListJobs(ctx context.Context, filter JobFilter) ([]*models.Job, int, error) {
	conditions := []string{"1 = 1"}
	args := []any{}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.TechnicianID != "" {
		conditions = append(conditions, "technician_id = ?")
		args = append(args, filter.TechnicianID)
	}
	where := strings.Join(conditions, " AND ")

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM jobs WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count jobs: %w", err)
	}

	limit, offset := filter.normalize()
	rows, err := s.db.QueryContext(ctx,
		"SELECT doc FROM jobs WHERE "+where+" ORDER BY created_at DESC, id ASC LIMIT ? OFFSET ?",
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	jobs := []*models.Job{}
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, 0, fmt.Errorf("scan job: %w", err)
		}
		var j models.Job
		if err := json.Unmarshal([]byte(doc), &j); err != nil {
			return nil, 0, fmt.Errorf("decode job: %w", err)
		}
		jobs = append(jobs, &j)
	}
	return jobs, total, rows.Err()
}

func (s *SQLiteStore) UpdateJob(ctx context.Context, id string, fn Mutation) (*models.Job, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update job: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	current, err := getDoc(tx.QueryRowContext(ctx, `SELECT doc FROM jobs WHERE id = ?`, id))
	if err != nil {
		return nil, err
	}

	working := current.Clone()
	if err := fn(working); err != nil {
		if errors.Is(err, ErrNoChange) {
			return current, nil
		}
		return nil, err
	}

	doc, err := json.Marshal(working)
	if err != nil {
		return nil, fmt.Errorf("encode job: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE jobs SET status = ?, technician_id = ?, doc = ? WHERE id = ?`,
		string(working.Status), working.AssignedTechnicianID, string(doc), id,
	); err != nil {
		return nil, fmt.Errorf("update job: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update job: %w", err)
	}
	return working, nil
}

func getDoc(row *sql.Row) (*models.Job, error) {
	var doc string
	if err := row.Scan(&doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	var j models.Job
	if err := json.Unmarshal([]byte(doc), &j); err != nil {
		return nil, fmt.Errorf("decode job: %w", err)
	}
	if j.ToolsChecked == nil {
		j.ToolsChecked = map[string]bool{}
	}
	if j.WorkSessions == nil {
		j.WorkSessions = []models.WorkSession{}
	}
	return &j, nil
}

var _ Store = (*SQLiteStore)(nil)
