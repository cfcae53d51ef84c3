// Package store persists jobs, resumes and match results in PostgreSQL.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	_ "embed"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hrmatcher/hr-matcher/internal/ai"
	"github.com/hrmatcher/hr-matcher/internal/requirement"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrInvalidStatus = errors.New("invalid review status")
)

//go:embed schema.sql
var schema string

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// Migrate creates missing tables.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// CreateJob stores a job and fills in its ID and creation time.
func (db *DB) CreateJob(ctx context.Context, job *Job) error {
	if err := job.Requirement.Validate(); err != nil {
		return err
	}

	content, err := json.Marshal(job.Requirement)
	if err != nil {
		return fmt.Errorf("failed to marshal requirement: %w", err)
	}

	job.ID = uuid.New()
	job.Title = strings.TrimSpace(job.Requirement.Title)

	err = db.pool.QueryRow(ctx,
		`INSERT INTO jobs (id, title, requirement, file_path)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at`,
		job.ID, job.Title, content, job.FilePath,
	).Scan(&job.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

// GetJob retrieves a job by ID
func (db *DB) GetJob(ctx context.Context, id uuid.UUID) (*Job, error) {
	var job Job
	var content []byte
	err := db.pool.QueryRow(ctx,
		`SELECT id, title, requirement, file_path, created_at FROM jobs WHERE id = $1`,
		id,
	).Scan(&job.ID, &job.Title, &content, &job.FilePath, &job.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("job %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	if err := json.Unmarshal(content, &job.Requirement); err != nil {
		return nil, fmt.Errorf("failed to unmarshal requirement: %w", err)
	}
	return &job, nil
}

// EnsureJob returns the job saved for filePath, creating it from req when missing.
func (db *DB) EnsureJob(ctx context.Context, req *requirement.Requirement, filePath string) (*Job, error) {
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`SELECT id FROM jobs WHERE file_path = $1 ORDER BY created_at LIMIT 1`,
		filePath,
	).Scan(&id)
	switch {
	case err == nil:
		return db.GetJob(ctx, id)
	case !errors.Is(err, pgx.ErrNoRows):
		return nil, fmt.Errorf("failed to look up job: %w", err)
	}

	job := &Job{Requirement: req, FilePath: filePath}
	if err := db.CreateJob(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// CreateResume stores a resume and fills in its ID and creation time.
func (db *DB) CreateResume(ctx context.Context, resume *Resume) error {
	resume.ID = uuid.New()

	err := db.pool.QueryRow(ctx,
		`INSERT INTO resumes (id, file_name, name, email, parsed)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at`,
		resume.ID, resume.FileName, resume.Name, resume.Email, []byte(resume.Parsed),
	).Scan(&resume.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create resume: %w", err)
	}
	return nil
}

// CreateMatchResult stores a pending match result and fills in its ID and timestamps.
func (db *DB) CreateMatchResult(ctx context.Context, match *MatchResult) error {
	match.ID = uuid.New()
	if match.Status == "" {
		match.Status = StatusPending
	}

	err := db.pool.QueryRow(ctx,
		`INSERT INTO match_results (id, job_id, resume_id, verdict, passed, accuracy_score, linkedin_verified, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING created_at, updated_at`,
		match.ID, match.JobID, match.ResumeID, []byte(match.Verdict),
		match.Passed, match.AccuracyScore, match.LinkedInVerified, match.Status,
	).Scan(&match.CreatedAt, &match.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create match result: %w", err)
	}
	return nil
}

// GetMatchResult retrieves a match result by ID
func (db *DB) GetMatchResult(ctx context.Context, id uuid.UUID) (*MatchResult, error) {
	var match MatchResult
	var verdict []byte
	err := db.pool.QueryRow(ctx,
		`SELECT id, job_id, resume_id, verdict, passed, accuracy_score, linkedin_verified, status, created_at, updated_at
		 FROM match_results WHERE id = $1`,
		id,
	).Scan(&match.ID, &match.JobID, &match.ResumeID, &verdict, &match.Passed,
		&match.AccuracyScore, &match.LinkedInVerified, &match.Status, &match.CreatedAt, &match.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("match result %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get match result: %w", err)
	}
	match.Verdict = verdict
	return &match, nil
}

// UpdateMatchStatus records the HR decision for a match result.
func (db *DB) UpdateMatchStatus(ctx context.Context, id uuid.UUID, status string) error {
	if err := ValidateStatus(status); err != nil {
		return err
	}

	tag, err := db.pool.Exec(ctx,
		`UPDATE match_results SET status = $1, updated_at = NOW() WHERE id = $2`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update match status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("match result %s: %w", id, ErrNotFound)
	}
	return nil
}

const candidateColumns = `SELECT m.id, m.job_id, j.title, r.name, r.email, r.file_name,
		m.passed, m.accuracy_score, m.linkedin_verified, m.status, m.created_at
	FROM match_results m
	JOIN jobs j ON j.id = m.job_id
	JOIN resumes r ON r.id = m.resume_id`

// GetCandidate retrieves the dashboard row of a match result.
func (db *DB) GetCandidate(ctx context.Context, matchID uuid.UUID) (*Candidate, error) {
	rows, err := db.pool.Query(ctx, candidateColumns+` WHERE m.id = $1`, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get candidate: %w", err)
	}

	candidates, err := scanCandidates(rows)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("match result %s: %w", matchID, ErrNotFound)
	}
	return &candidates[0], nil
}

// ListCandidates returns the dashboard rows matching filter, ordered by SortCandidates.
func (db *DB) ListCandidates(ctx context.Context, filter CandidateFilter) ([]Candidate, error) {
	query := candidateColumns
	args := []any{}
	if filter.JobID != nil {
		query += ` WHERE m.job_id = $1`
		args = append(args, *filter.JobID)
	}
	query += ` ORDER BY m.created_at`

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}

	candidates, err := scanCandidates(rows)
	if err != nil {
		return nil, err
	}

	candidates = FilterCandidates(candidates, filter)
	SortCandidates(candidates)
	return candidates, nil
}

// ListJobs returns every saved job, newest first.
func (db *DB) ListJobs(ctx context.Context) ([]Job, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, title, requirement, file_path, created_at FROM jobs ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]Job, 0)
	for rows.Next() {
		var job Job
		var content []byte
		if err := rows.Scan(&job.ID, &job.Title, &content, &job.FilePath, &job.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		if err := json.Unmarshal(content, &job.Requirement); err != nil {
			return nil, fmt.Errorf("failed to unmarshal requirement: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating jobs: %w", err)
	}
	return jobs, nil
}

func scanCandidates(rows pgx.Rows) ([]Candidate, error) {
	defer rows.Close()

	candidates := make([]Candidate, 0)
	for rows.Next() {
		var c Candidate
		if err := rows.Scan(&c.MatchID, &c.JobID, &c.JobTitle, &c.Name, &c.Email, &c.FileName,
			&c.Passed, &c.AccuracyScore, &c.LinkedInVerified, &c.Status, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating candidates: %w", err)
	}
	return candidates, nil
}

// SaveMatch stores a scored resume and its pending match result for jobID.
func (db *DB) SaveMatch(ctx context.Context, jobID uuid.UUID, fileName string, resume ai.ResumeResult, verdict ai.VerdictResult) (*MatchResult, error) {
	record, err := NewResume(fileName, resume)
	if err != nil {
		return nil, err
	}
	if err := db.CreateResume(ctx, record); err != nil {
		return nil, err
	}

	match, err := NewMatchResult(jobID, record.ID, resume, verdict)
	if err != nil {
		return nil, err
	}
	if err := db.CreateMatchResult(ctx, match); err != nil {
		return nil, err
	}
	return match, nil
}
