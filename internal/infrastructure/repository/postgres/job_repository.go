package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/planlens/roomscan/internal/core/domain"
)

type JobRepository struct {
	db *sql.DB
}

func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *JobRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083001)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS detection_jobs (
	id TEXT PRIMARY KEY,
	source_ref TEXT NOT NULL,
	params JSONB NOT NULL DEFAULT '{}'::jsonb,
	status TEXT NOT NULL,
	rooms JSONB,
	error_code TEXT,
	error_message TEXT,
	attempt INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_detection_jobs_status ON detection_jobs(status);
CREATE INDEX IF NOT EXISTS idx_detection_jobs_created_at ON detection_jobs(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *JobRepository) CreateJob(ctx context.Context, job *domain.DetectionJob) error {
	paramsJSON, err := json.Marshal(job.Params)
	if err != nil {
		return fmt.Errorf("marshal params: %w", err)
	}

	var errCode, errMessage sql.NullString
	if job.Error != nil {
		errCode = sql.NullString{String: job.Error.Code, Valid: true}
		errMessage = sql.NullString{String: job.Error.Message, Valid: true}
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO detection_jobs (
	id, source_ref, params, status, rooms, error_code, error_message, attempt, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`,
		job.ID, job.SourceRef, paramsJSON, string(job.Status), roomsJSON(job.Rooms),
		errCode, errMessage, job.Attempt, job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

func (r *JobRepository) GetJob(ctx context.Context, id string) (*domain.DetectionJob, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, source_ref, params, status, rooms, error_code, error_message, attempt, created_at, updated_at
FROM detection_jobs
WHERE id = $1
`, id)

	var job domain.DetectionJob
	var paramsRaw []byte
	var roomsRaw []byte
	var status string
	var errCode, errMessage sql.NullString

	err := row.Scan(
		&job.ID, &job.SourceRef, &paramsRaw, &status, &roomsRaw,
		&errCode, &errMessage, &job.Attempt, &job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrJobNotFound, "get job", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("scan job: %w", err)
	}

	if err := json.Unmarshal(paramsRaw, &job.Params); err != nil {
		return nil, fmt.Errorf("unmarshal params: %w", err)
	}
	if roomsRaw != nil {
		if err := json.Unmarshal(roomsRaw, &job.Rooms); err != nil {
			return nil, fmt.Errorf("unmarshal rooms: %w", err)
		}
	}
	if errCode.Valid {
		job.Error = &domain.JobError{Code: errCode.String, Message: errMessage.String}
	}
	job.Status = domain.JobStatus(status)
	return &job, nil
}

// CompareAndUpdateJob writes the update only while the stored status still
// equals expected. The status predicate in the WHERE clause makes the
// read-compare-write a single atomic statement, so concurrent workers racing
// on one job resolve inside Postgres rather than in application code.
func (r *JobRepository) CompareAndUpdateJob(ctx context.Context, id string, expected domain.JobStatus, update *domain.DetectionJob) error {
	paramsJSON, err := json.Marshal(update.Params)
	if err != nil {
		return fmt.Errorf("marshal params: %w", err)
	}

	var errCode, errMessage sql.NullString
	if update.Error != nil {
		errCode = sql.NullString{String: update.Error.Code, Valid: true}
		errMessage = sql.NullString{String: update.Error.Message, Valid: true}
	}

	result, err := r.db.ExecContext(ctx, `
UPDATE detection_jobs
SET params = $3, status = $4, rooms = $5, error_code = $6, error_message = $7, attempt = $8, updated_at = $9
WHERE id = $1 AND status = $2
`,
		id, string(expected), paramsJSON, string(update.Status), roomsJSON(update.Rooms),
		errCode, errMessage, update.Attempt, update.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("conditional job update: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("conditional job update rows affected: %w", err)
	}
	if rows == 0 {
		return r.classifyConflict(ctx, id, expected)
	}
	return nil
}

// classifyConflict distinguishes a lost status race from a missing row.
func (r *JobRepository) classifyConflict(ctx context.Context, id string, expected domain.JobStatus) error {
	var current string
	err := r.db.QueryRowContext(ctx, `SELECT status FROM detection_jobs WHERE id = $1`, id).Scan(&current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.WrapError(domain.ErrJobNotFound, "conditional job update", fmt.Errorf("id=%s", id))
		}
		return fmt.Errorf("read job status: %w", err)
	}
	return domain.WrapError(domain.ErrStatusConflict, "conditional job update",
		fmt.Errorf("id=%s expected=%s actual=%s", id, expected, current))
}

// roomsJSON keeps the rooms column NULL until a result exists; a completed
// job with zero rooms still stores an explicit empty array.
func roomsJSON(rooms []domain.Room) any {
	if rooms == nil {
		return nil
	}
	buf, err := json.Marshal(rooms)
	if err != nil {
		return nil
	}
	return buf
}
