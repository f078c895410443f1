package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kiranshivaraju/fieldops/pkg/models"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const jobColumns = `id, service_category, status, vehicle_make, vehicle_model, vehicle_year, vehicle_vin,
	description, assigned_technician_id, required_tools, tools_checked, tools_check_completed_at,
	signature_artifact, signature_captured_at, signature_captured_by,
	quoted_at, claimed_at, completed_at, completed_by, created_at, updated_at`

// --- Jobs ---

func (s *PostgresStore) CreateJob(ctx context.Context, job *models.Job) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create job: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	args, err := jobArgs(job)
	if err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO jobs (`+jobColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`,
		args...)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create job: %w", err)
	}

	if err := syncSessions(ctx, tx, job.ID, nil, job.WorkSessions); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit create job: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetJob(ctx context.Context, id string) (*models.Job, error) {
	job, err := scanJob(s.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	if err := loadSessions(ctx, s.pool, []*models.Job{job}); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *PostgresStore) ListJobs(ctx context.Context, filter JobFilter) ([]*models.Job, int, error) {
	conditions := []string{"TRUE"}
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.TechnicianID != "" {
		conditions = append(conditions, fmt.Sprintf("assigned_technician_id = $%d", argIdx))
		args = append(args, filter.TechnicianID)
		argIdx++
	}

	where := strings.Join(conditions, " AND ")

	var total int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM jobs WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count jobs: %w", err)
	}

	limit, offset := filter.normalize()
	dataQuery := fmt.Sprintf(
		`SELECT %s FROM jobs WHERE %s ORDER BY created_at DESC, id ASC LIMIT $%d OFFSET $%d`,
		jobColumns, where, argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := s.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	jobs := []*models.Job{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list jobs: %w", err)
	}
	rows.Close()

	if err := loadSessions(ctx, s.pool, jobs); err != nil {
		return nil, 0, err
	}
	return jobs, total, nil
}

// UpdateJob locks the job row with SELECT ... FOR UPDATE, applies fn and
// writes the result in the same transaction.
func (s *PostgresStore) UpdateJob(ctx context.Context, id string, fn Mutation) (*models.Job, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin update job: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	current, err := scanJob(tx.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock job: %w", err)
	}
	if err := loadSessions(ctx, tx, []*models.Job{current}); err != nil {
		return nil, err
	}

	working := current.Clone()
	if err := fn(working); err != nil {
		if errors.Is(err, ErrNoChange) {
			return current, nil
		}
		return nil, err
	}

	args, err := jobArgs(working)
	if err != nil {
		return nil, fmt.Errorf("update job: %w", err)
	}
	_, err = tx.Exec(ctx,
		`UPDATE jobs SET service_category = $2, status = $3, vehicle_make = $4, vehicle_model = $5,
		   vehicle_year = $6, vehicle_vin = $7, description = $8, assigned_technician_id = $9,
		   required_tools = $10, tools_checked = $11, tools_check_completed_at = $12,
		   signature_artifact = $13, signature_captured_at = $14, signature_captured_by = $15,
		   quoted_at = $16, claimed_at = $17, completed_at = $18, completed_by = $19,
		   created_at = $20, updated_at = $21
		 WHERE id = $1`, args...)
	if err != nil {
		return nil, fmt.Errorf("update job: %w", err)
	}

	if err := syncSessions(ctx, tx, id, current.WorkSessions, working.WorkSessions); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit update job: %w", err)
	}
	return working, nil
}

// syncSessions writes the difference between two session ledgers. Sessions
// are append-only, so only new rows and newly closed rows are written.
func syncSessions(ctx context.Context, q querier, jobID string, before, after []models.WorkSession) error {
	if len(after) < len(before) {
		return fmt.Errorf("work sessions for job %s cannot be removed", jobID)
	}
	for i, ws := range after {
		if i < len(before) {
			if before[i].End == nil && ws.End != nil {
				if _, err := q.Exec(ctx,
					`UPDATE work_sessions SET ended_at = $3 WHERE job_id = $1 AND seq = $2`,
					jobID, i, *ws.End); err != nil {
					return fmt.Errorf("close work session: %w", err)
				}
			}
			continue
		}
		if _, err := q.Exec(ctx,
			`INSERT INTO work_sessions (job_id, seq, started_at, ended_at) VALUES ($1, $2, $3, $4)`,
			jobID, i, ws.Start, ws.End); err != nil {
			return fmt.Errorf("insert work session: %w", err)
		}
	}
	return nil
}

func loadSessions(ctx context.Context, q querier, jobs []*models.Job) error {
	if len(jobs) == 0 {
		return nil
	}
	byID := make(map[string]*models.Job, len(jobs))
	ids := make([]string, 0, len(jobs))
	for _, j := range jobs {
		j.WorkSessions = []models.WorkSession{}
		byID[j.ID] = j
		ids = append(ids, j.ID)
	}

	rows, err := q.Query(ctx,
		`SELECT job_id, started_at, ended_at FROM work_sessions WHERE job_id = ANY($1) ORDER BY job_id, seq`, ids)
	if err != nil {
		return fmt.Errorf("load work sessions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			jobID string
			ws    models.WorkSession
		)
		if err := rows.Scan(&jobID, &ws.Start, &ws.End); err != nil {
			return fmt.Errorf("scan work session: %w", err)
		}
		ws.Start = ws.Start.UTC()
		ws.End = utcPtr(ws.End)
		if j, ok := byID[jobID]; ok {
			j.WorkSessions = append(j.WorkSessions, ws)
		}
	}
	return rows.Err()
}

func scanJob(row pgx.Row) (*models.Job, error) {
	var (
		j            models.Job
		tools, check []byte
		sigArtifact  *string
		sigAt        *time.Time
		sigBy        *string
	)
	err := row.Scan(&j.ID, &j.ServiceCategory, &j.Status, &j.Vehicle.Make, &j.Vehicle.Model,
		&j.Vehicle.Year, &j.Vehicle.VIN, &j.Description, &j.AssignedTechnicianID, &tools, &check,
		&j.ToolsCheckCompletedAt, &sigArtifact, &sigAt, &sigBy,
		&j.QuotedAt, &j.ClaimedAt, &j.CompletedAt, &j.CompletedBy, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(tools, &j.RequiredTools); err != nil {
		return nil, fmt.Errorf("decode required tools: %w", err)
	}
	if len(j.RequiredTools) == 0 {
		j.RequiredTools = nil
	}
	if err := json.Unmarshal(check, &j.ToolsChecked); err != nil {
		return nil, fmt.Errorf("decode tools checked: %w", err)
	}
	if j.ToolsChecked == nil {
		j.ToolsChecked = map[string]bool{}
	}
	if sigArtifact != nil && sigAt != nil {
		j.Signature = &models.Signature{Artifact: *sigArtifact, CapturedAt: sigAt.UTC()}
		if sigBy != nil {
			j.Signature.CapturedBy = *sigBy
		}
	}

	j.ToolsCheckCompletedAt = utcPtr(j.ToolsCheckCompletedAt)
	j.QuotedAt = utcPtr(j.QuotedAt)
	j.ClaimedAt = utcPtr(j.ClaimedAt)
	j.CompletedAt = utcPtr(j.CompletedAt)
	j.CreatedAt = j.CreatedAt.UTC()
	j.UpdatedAt = j.UpdatedAt.UTC()
	return &j, nil
}

// jobArgs returns the column values in jobColumns order.
func jobArgs(j *models.Job) ([]any, error) {
	tools := j.RequiredTools
	if tools == nil {
		tools = []models.ToolRequirement{}
	}
	toolsJSON, err := json.Marshal(tools)
	if err != nil {
		return nil, fmt.Errorf("encode required tools: %w", err)
	}
	checked := j.ToolsChecked
	if checked == nil {
		checked = map[string]bool{}
	}
	checkedJSON, err := json.Marshal(checked)
	if err != nil {
		return nil, fmt.Errorf("encode tools checked: %w", err)
	}

	var (
		sigArtifact *string
		sigAt       *time.Time
		sigBy       *string
	)
	if j.Signature != nil {
		sigArtifact = &j.Signature.Artifact
		sigAt = &j.Signature.CapturedAt
		sigBy = &j.Signature.CapturedBy
	}

	return []any{
		j.ID, string(j.ServiceCategory), string(j.Status), j.Vehicle.Make, j.Vehicle.Model,
		j.Vehicle.Year, j.Vehicle.VIN, j.Description, j.AssignedTechnicianID, toolsJSON, checkedJSON,
		j.ToolsCheckCompletedAt, sigArtifact, sigAt, sigBy,
		j.QuotedAt, j.ClaimedAt, j.CompletedAt, j.CompletedBy, j.CreatedAt, j.UpdatedAt,
	}, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}

var _ Store = (*PostgresStore)(nil)
