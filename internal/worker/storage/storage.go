package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/adityawrm/voiceguard/internal/worker/domain"
)

// Storage handles the worker's job-row transitions. Transitions are
// guarded so terminal rows are immutable: a duplicate delivery of an
// already-settled job becomes a no-op instead of a second run.
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStorage creates a Storage instance.
func NewStorage(db *sqlx.DB, logger *slog.Logger) *Storage {
	return &Storage{db: db, logger: logger}
}

// GetJobByID retrieves the worker's view of a job.
func (s *Storage) GetJobByID(ctx context.Context, analysisID string) (*domain.Job, error) {
	query := `
		SELECT analysis_id, user_id, status, analysis_type, storage_key
		FROM analysis_jobs
		WHERE analysis_id = $1
	`

	var job domain.Job
	err := s.db.QueryRowxContext(ctx, query, analysisID).Scan(
		&job.AnalysisID,
		&job.UserID,
		&job.Status,
		&job.AnalysisType,
		&job.StorageKey,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get analysis job: %w", err)
	}

	return &job, nil
}

// GetStatusByStorageKey returns the status of the job owning a storage key.
// Used by the orphan sweep.
func (s *Storage) GetStatusByStorageKey(ctx context.Context, storageKey string) (string, error) {
	var status string
	err := s.db.GetContext(ctx, &status,
		`SELECT status FROM analysis_jobs WHERE storage_key = $1`, storageKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.ErrJobNotFound
		}
		return "", fmt.Errorf("failed to get analysis job by storage key: %w", err)
	}
	return status, nil
}

// MarkProcessing claims the job by committing PROCESSING before any work,
// so pollers observe progress. The claim only succeeds on a non-terminal
// row: it returns false when the job was already settled by an earlier
// delivery, and the caller must skip it. A PROCESSING row can be
// re-claimed, since an unacked redelivery means the previous worker died
// mid-run.
func (s *Storage) MarkProcessing(ctx context.Context, analysisID string) (bool, error) {
	query := `
		UPDATE analysis_jobs
		SET status = $1,
		    updated_at = NOW()
		WHERE analysis_id = $2
		  AND status IN ($3, $1)
	`

	res, err := s.db.ExecContext(ctx, query, domain.StatusProcessing, analysisID, domain.StatusPending)
	if err != nil {
		return false, fmt.Errorf("failed to mark analysis job processing: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to mark analysis job processing: %w", err)
	}
	if rows == 0 {
		return false, nil
	}

	s.logger.Info("Analysis job processing",
		slog.String("analysis_id", analysisID),
	)

	return true, nil
}

// Complete commits the terminal COMPLETED transition with the result
// payload. error_message stays NULL. Only a PROCESSING row transitions, so
// a concurrent duplicate that already settled the job wins and stays.
func (s *Storage) Complete(ctx context.Context, analysisID string, result []byte) error {
	query := `
		UPDATE analysis_jobs
		SET status = $1,
		    result = $2,
		    error_message = NULL,
		    updated_at = NOW()
		WHERE analysis_id = $3
		  AND status = $4
	`

	if _, err := s.db.ExecContext(ctx, query, domain.StatusCompleted, result, analysisID, domain.StatusProcessing); err != nil {
		return fmt.Errorf("failed to complete analysis job: %w", err)
	}

	s.logger.Info("Analysis job completed",
		slog.String("analysis_id", analysisID),
	)

	return nil
}

// Fail commits the terminal FAILED transition with a human-readable cause.
// result stays NULL. Like Complete, it never overwrites a settled row.
func (s *Storage) Fail(ctx context.Context, analysisID, errorMessage string) error {
	query := `
		UPDATE analysis_jobs
		SET status = $1,
		    error_message = $2,
		    result = NULL,
		    updated_at = NOW()
		WHERE analysis_id = $3
		  AND status = $4
	`

	if _, err := s.db.ExecContext(ctx, query, domain.StatusFailed, errorMessage, analysisID, domain.StatusProcessing); err != nil {
		return fmt.Errorf("failed to fail analysis job: %w", err)
	}

	s.logger.Info("Analysis job failed",
		slog.String("analysis_id", analysisID),
		slog.String("error_message", errorMessage),
	)

	return nil
}
