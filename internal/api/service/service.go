package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/adityawrm/voiceguard/internal/api/domain"
	"github.com/adityawrm/voiceguard/internal/api/model"
	"github.com/adityawrm/voiceguard/internal/api/storage"
)

// JobStore is the ticket-store surface the service depends on.
type JobStore interface {
	Insert(ctx context.Context, job *model.AnalysisJob) (*model.AnalysisJob, error)
	Delete(ctx context.Context, analysisID string) error
	FindByIDAndUser(ctx context.Context, analysisID, userID string) (*model.AnalysisJob, error)
	FindByUserOrderedDesc(ctx context.Context, userID string) ([]model.AnalysisJob, error)
	CountSince(ctx context.Context, userID string, since time.Time) (int, error)
}

// UserStore resolves the submitting user's plan.
type UserStore interface {
	GetByID(ctx context.Context, userID string) (*model.User, error)
}

// ObjectStore is the blob-storage surface the service depends on.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
}

// TaskQueue dispatches analysis ids to the worker subsystem with
// at-least-once delivery.
type TaskQueue interface {
	Publish(ctx context.Context, body []byte, contentType string) error
}

// Dependencies holds everything the analysis service needs.
type Dependencies struct {
	Logger  *slog.Logger
	Users   UserStore
	Jobs    JobStore
	Objects ObjectStore
	Queue   TaskQueue
	Quota   *QuotaGate
}

// Service implements submission, history, and status for analysis jobs.
// The submission path is a three-step saga over the object store, the
// ticket store, and the task queue; none of them share a transaction, so
// consistency is kept by strict step ordering plus compensating deletes.
type Service struct {
	logger        *slog.Logger
	users         UserStore
	jobs          JobStore
	objects       ObjectStore
	queue         TaskQueue
	quota         *QuotaGate
	dispatchReady bool
}

// New builds the service. The task queue is a startup capability: when it is
// not wired, every submission fails fast with ServiceUnavailable instead of
// probing the queue per request.
func New(deps *Dependencies) *Service {
	return &Service{
		logger:        deps.Logger,
		users:         deps.Users,
		jobs:          deps.Jobs,
		objects:       deps.Objects,
		queue:         deps.Queue,
		quota:         deps.Quota,
		dispatchReady: deps.Queue != nil,
	}
}

// DispatchReady reports whether the worker subsystem is wired.
func (s *Service) DispatchReady() bool {
	return s.dispatchReady
}

type queueMessage struct {
	AnalysisID string `json:"analysis_id"`
}

// Submit runs the submission saga and returns the PENDING ticket.
//
// Step order matters: nothing durable is written before validation and the
// quota check pass, and a failure at step n rolls back the committed effects
// of all earlier steps in reverse order. No step is retried here.
func (s *Service) Submit(ctx context.Context, userID string, file io.Reader, size int64, filename string) (*model.AnalysisJob, error) {
	if !s.dispatchReady {
		return nil, domain.NewError(domain.KindServiceUnavailable, "analysis worker subsystem is not configured")
	}

	// Step 1: validate. No side effects yet.
	sanitized, ext, err := validateFilename(filename)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, domain.WrapError(domain.KindNotFound, "user not found", err)
		}
		return nil, domain.WrapError(domain.KindPersistenceFailure, "failed to load user", err)
	}

	// Step 2: quota. Still no side effects.
	if err := s.quota.Check(ctx, user); err != nil {
		return nil, err
	}

	// Step 3: store the object under a user-scoped unique key.
	storageKey := fmt.Sprintf("audio/%s/%s.%s", user.UserID, uuid.New().String(), ext)
	if err := s.objects.Put(ctx, storageKey, file, size, contentTypeForExt(ext)); err != nil {
		return nil, domain.WrapError(domain.KindStorageFailure, "failed to store audio file", err)
	}

	// Step 4: create the ticket. On failure the object from step 3 is the
	// only committed effect, so it is compensated away.
	job, err := s.jobs.Insert(ctx, &model.AnalysisJob{
		UserID:           user.UserID,
		Status:           domain.StatusPending,
		AnalysisType:     domain.TypeAudio,
		OriginalFilename: sanitized,
		StorageKey:       storageKey,
	})
	if err != nil {
		s.compensateObject(ctx, storageKey)
		return nil, domain.WrapError(domain.KindPersistenceFailure, "failed to record analysis ticket", err)
	}

	// Step 5: dispatch. On failure both the ticket and the object are
	// rolled back, newest first.
	body, err := json.Marshal(queueMessage{AnalysisID: job.AnalysisID})
	if err != nil {
		s.compensateTicket(ctx, job.AnalysisID)
		s.compensateObject(ctx, storageKey)
		return nil, domain.WrapError(domain.KindDispatchFailure, "failed to encode task message", err)
	}
	if err := s.queue.Publish(ctx, body, "application/json"); err != nil {
		s.compensateTicket(ctx, job.AnalysisID)
		s.compensateObject(ctx, storageKey)
		return nil, domain.WrapError(domain.KindDispatchFailure, "failed to dispatch analysis task", err)
	}

	s.logger.Info("Analysis submission accepted",
		slog.String("analysis_id", job.AnalysisID),
		slog.String("user_id", user.UserID),
		slog.String("storage_key", storageKey),
	)

	return job, nil
}

// compensateObject deletes an orphaned object. Best-effort: a secondary
// failure is logged, never escalated.
func (s *Service) compensateObject(ctx context.Context, storageKey string) {
	if err := s.objects.Delete(ctx, storageKey); err != nil {
		s.logger.Error("Compensation failed: orphaned object left behind",
			slog.String("storage_key", storageKey),
			slog.Any("error", err),
		)
	}
}

// compensateTicket deletes a ticket no worker has seen yet. Best-effort.
func (s *Service) compensateTicket(ctx context.Context, analysisID string) {
	if err := s.jobs.Delete(ctx, analysisID); err != nil {
		s.logger.Error("Compensation failed: orphaned ticket left behind",
			slog.String("analysis_id", analysisID),
			slog.Any("error", err),
		)
	}
}
