package worker

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/adityawrm/voiceguard/internal/worker/domain"
	"github.com/adityawrm/voiceguard/internal/worker/inference"
	"github.com/adityawrm/voiceguard/shared/rabbitmq"
)

// JobStore is the ticket-store surface the worker depends on.
type JobStore interface {
	GetJobByID(ctx context.Context, analysisID string) (*domain.Job, error)
	MarkProcessing(ctx context.Context, analysisID string) (bool, error)
	Complete(ctx context.Context, analysisID string, result []byte) error
	Fail(ctx context.Context, analysisID, errorMessage string) error
}

// ObjectStore is the blob-storage surface the worker depends on.
type ObjectStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// InferenceEngine classifies fetched audio content.
type InferenceEngine interface {
	Infer(ctx context.Context, content []byte, contentType string) (*inference.Result, []byte, error)
}

// Config holds worker configuration.
type Config struct {
	Logger        *slog.Logger
	Store         JobStore
	Objects       ObjectStore
	Engine        InferenceEngine
	RabbitClient  *rabbitmq.Client
	Concurrency   int
	PrefetchCount int
	WorkerID      string
}

// Worker consumes analysis tasks and drives each job through its state
// machine on a pool of goroutines.
type Worker struct {
	logger        *slog.Logger
	store         JobStore
	objects       ObjectStore
	engine        InferenceEngine
	rabbitClient  *rabbitmq.Client
	concurrency   int
	prefetchCount int
	workerID      string
	jobsChan      chan *domain.TaskMessage
}

// NewWorker creates a worker instance.
func NewWorker(cfg *Config) *Worker {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	prefetch := cfg.PrefetchCount
	if prefetch <= 0 {
		prefetch = concurrency
	}

	return &Worker{
		logger:        cfg.Logger,
		store:         cfg.Store,
		objects:       cfg.Objects,
		engine:        cfg.Engine,
		rabbitClient:  cfg.RabbitClient,
		concurrency:   concurrency,
		prefetchCount: prefetch,
		workerID:      cfg.WorkerID,
		jobsChan:      make(chan *domain.TaskMessage),
	}
}

// Start consumes from the queue until ctx is canceled or the delivery
// channel closes. It blocks until the dispatcher and every pool goroutine
// have drained.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting worker",
		slog.String("worker_id", w.workerID),
		slog.Int("concurrency", w.concurrency),
		slog.Int("prefetch_count", w.prefetchCount),
	)

	deliveries, err := w.setupConsumer()
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(w.jobsChan)
		w.dispatch(ctx, deliveries)
		return nil
	})

	for i := 0; i < w.concurrency; i++ {
		workerNum := i
		g.Go(func() error {
			w.workerLoop(ctx, workerNum)
			return nil
		})
	}

	err = g.Wait()
	w.logger.Info("Worker stopped",
		slog.String("worker_id", w.workerID),
	)
	return err
}
