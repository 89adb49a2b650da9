package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/adityawrm/voiceguard/internal/worker/domain"
	"github.com/adityawrm/voiceguard/shared/objectstore"
)

// sweepPrefix is the object-store prefix holding uploaded audio files.
const sweepPrefix = "audio/"

// defaultSweepGracePeriod keeps the sweep away from uploads whose
// submission saga may still be between the object put and the ticket
// insert.
const defaultSweepGracePeriod = time.Hour

// SweepStore is the ticket lookup the sweeper needs.
type SweepStore interface {
	GetStatusByStorageKey(ctx context.Context, storageKey string) (string, error)
}

// SweepObjectStore is the blob-storage surface the sweeper needs.
type SweepObjectStore interface {
	List(ctx context.Context, prefix string) ([]objectstore.ObjectInfo, error)
	Delete(ctx context.Context, key string) error
}

// Sweeper reconciles the object store against the ticket table. Objects
// whose ticket is missing (a half-rolled-back submission) or already
// terminal (a completed run whose cleanup delete failed) are removed.
// Objects younger than the grace period are never touched: a missing
// ticket for a fresh object usually means its submission saga has not
// reached the insert step yet. Every deletion is best effort and logged,
// never retried in-cycle.
type Sweeper struct {
	logger   *slog.Logger
	store    SweepStore
	objects  SweepObjectStore
	schedule string
	grace    time.Duration
	cron     *cron.Cron
}

// NewSweeper creates a sweeper with a cron schedule such as "*/30 * * * *".
// grace <= 0 falls back to the default.
func NewSweeper(logger *slog.Logger, store SweepStore, objects SweepObjectStore, schedule string, grace time.Duration) *Sweeper {
	if grace <= 0 {
		grace = defaultSweepGracePeriod
	}
	return &Sweeper{
		logger:   logger,
		store:    store,
		objects:  objects,
		schedule: schedule,
		grace:    grace,
	}
}

// Start registers the sweep job and starts the cron scheduler.
func (s *Sweeper) Start(ctx context.Context) error {
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.schedule, func() {
		s.Sweep(ctx)
	}); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("Orphan sweeper started",
		slog.String("schedule", s.schedule),
		slog.Duration("grace_period", s.grace),
	)
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}

// Sweep runs a single reconciliation cycle.
func (s *Sweeper) Sweep(ctx context.Context) {
	objects, err := s.objects.List(ctx, sweepPrefix)
	if err != nil {
		s.logger.Error("Orphan sweep failed to list objects", slog.Any("error", err))
		return
	}

	cutoff := time.Now().Add(-s.grace)

	var removed int
	for _, obj := range objects {
		// an in-flight saga may not have inserted this object's ticket yet
		if obj.LastModified.After(cutoff) {
			continue
		}

		status, err := s.store.GetStatusByStorageKey(ctx, obj.Key)
		switch {
		case errors.Is(err, domain.ErrJobNotFound):
			// upload survived a rolled-back submission
		case err != nil:
			s.logger.Error("Orphan sweep ticket lookup failed",
				slog.String("storage_key", obj.Key),
				slog.Any("error", err),
			)
			continue
		case !domain.IsTerminal(status):
			continue
		}

		if err := s.objects.Delete(ctx, obj.Key); err != nil {
			s.logger.Warn("Orphan sweep failed to delete object",
				slog.String("storage_key", obj.Key),
				slog.Any("error", err),
			)
			continue
		}
		removed++
	}

	s.logger.Info("Orphan sweep finished",
		slog.Int("scanned", len(objects)),
		slog.Int("removed", removed),
	)
}
