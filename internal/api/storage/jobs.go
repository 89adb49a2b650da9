package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/adityawrm/voiceguard/internal/api/model"
	"github.com/adityawrm/voiceguard/shared/postgres"
)

// ErrJobNotFound is returned when no job matches the ownership-scoped lookup.
var ErrJobNotFound = errors.New("analysis job not found")

// JobStore persists analysis job tickets.
type JobStore struct {
	pg *postgres.Client
	db *sqlx.DB
}

// NewJobStore creates a JobStore backed by pg.
func NewJobStore(pg *postgres.Client) *JobStore {
	return &JobStore{pg: pg, db: pg.GetDB()}
}

// Insert creates a PENDING ticket inside its own transaction and returns it
// with the store-assigned id and timestamps.
func (s *JobStore) Insert(ctx context.Context, job *model.AnalysisJob) (*model.AnalysisJob, error) {
	job.AnalysisID = uuid.New().String()

	query := `
		INSERT INTO analysis_jobs (
			analysis_id, user_id, status, analysis_type,
			original_filename, storage_key
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	err := s.pg.WithTx(ctx, func(tx *sqlx.Tx) error {
		return tx.QueryRowxContext(ctx, query,
			job.AnalysisID,
			job.UserID,
			job.Status,
			job.AnalysisType,
			job.OriginalFilename,
			job.StorageKey,
		).Scan(&job.CreatedAt, &job.UpdatedAt)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to insert analysis job: %w", err)
	}

	return job, nil
}

// Delete removes a ticket. Used only as a saga compensation, before any
// worker has observed the row.
func (s *JobStore) Delete(ctx context.Context, analysisID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM analysis_jobs WHERE analysis_id = $1`, analysisID)
	if err != nil {
		return fmt.Errorf("failed to delete analysis job: %w", err)
	}
	return nil
}

// FindByIDAndUser returns the job only when both id and owner match, so a
// foreign job is indistinguishable from a missing one.
func (s *JobStore) FindByIDAndUser(ctx context.Context, analysisID, userID string) (*model.AnalysisJob, error) {
	var job model.AnalysisJob
	query := `
		SELECT analysis_id, user_id, status, analysis_type,
		       original_filename, storage_key, result, error_message,
		       created_at, updated_at
		FROM analysis_jobs
		WHERE analysis_id = $1 AND user_id = $2
	`

	err := s.db.GetContext(ctx, &job, query, analysisID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get analysis job: %w", err)
	}

	return &job, nil
}

// FindByUserOrderedDesc returns all jobs of one user, newest first.
func (s *JobStore) FindByUserOrderedDesc(ctx context.Context, userID string) ([]model.AnalysisJob, error) {
	var jobs []model.AnalysisJob
	query := `
		SELECT analysis_id, user_id, status, analysis_type,
		       original_filename, storage_key, result, error_message,
		       created_at, updated_at
		FROM analysis_jobs
		WHERE user_id = $1
		ORDER BY created_at DESC, analysis_id DESC
	`

	err := s.db.SelectContext(ctx, &jobs, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list analysis jobs: %w", err)
	}

	return jobs, nil
}

// CountSince counts a user's jobs created at or after since.
func (s *JobStore) CountSince(ctx context.Context, userID string, since time.Time) (int, error) {
	var count int
	query := `
		SELECT COUNT(*)
		FROM analysis_jobs
		WHERE user_id = $1 AND created_at >= $2
	`

	err := s.db.GetContext(ctx, &count, query, userID, since)
	if err != nil {
		return 0, fmt.Errorf("failed to count analysis jobs: %w", err)
	}

	return count, nil
}
