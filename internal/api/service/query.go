package service

import (
	"context"
	"errors"

	"github.com/adityawrm/voiceguard/internal/api/domain"
	"github.com/adityawrm/voiceguard/internal/api/model"
	"github.com/adityawrm/voiceguard/internal/api/storage"
)

// History returns the user's jobs, newest first. Ownership is enforced by
// the store query, never by post-filtering.
func (s *Service) History(ctx context.Context, userID string) ([]model.AnalysisJob, error) {
	jobs, err := s.jobs.FindByUserOrderedDesc(ctx, userID)
	if err != nil {
		return nil, domain.WrapError(domain.KindPersistenceFailure, "failed to load history", err)
	}
	return jobs, nil
}

// Status returns one job detail. A job owned by another user yields
// NotFound, not a permission error, so existence does not leak.
func (s *Service) Status(ctx context.Context, userID, analysisID string) (*model.AnalysisJob, error) {
	job, err := s.jobs.FindByIDAndUser(ctx, analysisID, userID)
	if err != nil {
		if errors.Is(err, storage.ErrJobNotFound) {
			return nil, domain.NewError(domain.KindNotFound, "analysis not found")
		}
		return nil, domain.WrapError(domain.KindPersistenceFailure, "failed to load analysis", err)
	}
	return job, nil
}
