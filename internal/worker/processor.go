package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/adityawrm/voiceguard/internal/worker/domain"
)

// handleJob drives one job through the state machine:
//
//	PENDING -> PROCESSING -> COMPLETED | FAILED
//
// Everything after the PROCESSING commit is one best-effort unit: any
// failure in fetch, inference, or result handling ends in a FAILED commit
// with a human-readable cause.
//
// The return value is the delivery verdict, not the job verdict. nil means
// the message is spent (the job reached a terminal state, was settled by an
// earlier delivery, or has no ticket at all); an error means the job is
// still live but the store was unreachable, so the caller must requeue the
// delivery for the at-least-once contract to recover it.
func (w *Worker) handleJob(ctx context.Context, analysisID string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("Panic while processing analysis job",
				slog.String("analysis_id", analysisID),
				slog.Any("panic", r),
			)
			err = w.fail(ctx, analysisID, fmt.Sprintf("internal worker error: %v", r))
		}
	}()

	job, err := w.store.GetJobByID(ctx, analysisID)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			// no row to update and never will be; the message is spent
			w.logger.Warn("Dequeued analysis id has no ticket",
				slog.String("analysis_id", analysisID),
			)
			return nil
		}
		w.logger.Error("Failed to load analysis job, delivery will be requeued",
			slog.String("analysis_id", analysisID),
			slog.Any("error", err),
		)
		return err
	}

	// commit progress before doing any work so pollers observe it
	claimed, err := w.store.MarkProcessing(ctx, job.AnalysisID)
	if err != nil {
		w.logger.Error("Failed to mark analysis job processing, delivery will be requeued",
			slog.String("analysis_id", job.AnalysisID),
			slog.Any("error", err),
		)
		return err
	}
	if !claimed {
		// duplicate delivery of a settled job
		w.logger.Warn("Skipping already-settled analysis job",
			slog.String("analysis_id", job.AnalysisID),
		)
		return nil
	}

	content, err := w.objects.Get(ctx, job.StorageKey)
	if err != nil {
		return w.fail(ctx, job.AnalysisID, fmt.Sprintf("failed to fetch audio file: %v", err))
	}

	result, raw, err := w.engine.Infer(ctx, content, contentTypeForKey(job.StorageKey))
	if err != nil {
		return w.fail(ctx, job.AnalysisID, fmt.Sprintf("inference failed: %v", err))
	}

	if err := w.store.Complete(ctx, job.AnalysisID, raw); err != nil {
		return w.fail(ctx, job.AnalysisID, fmt.Sprintf("failed to store result: %v", err))
	}

	w.logger.Info("Analysis job completed",
		slog.String("analysis_id", job.AnalysisID),
		slog.String("prediction", result.Prediction),
		slog.String("model_used", result.ModelUsed),
	)

	// best-effort cleanup; a failure here never changes the job status
	if err := w.objects.Delete(ctx, job.StorageKey); err != nil {
		w.logger.Warn("Failed to delete processed audio object",
			slog.String("storage_key", job.StorageKey),
			slog.Any("error", err),
		)
	}

	return nil
}

// fail commits the FAILED terminal transition. A secondary failure is
// returned so the caller requeues the delivery; the job is still claimed
// PROCESSING and nothing here settled it.
func (w *Worker) fail(ctx context.Context, analysisID, cause string) error {
	if err := w.store.Fail(ctx, analysisID, cause); err != nil {
		w.logger.Error("Failed to mark analysis job failed, delivery will be requeued",
			slog.String("analysis_id", analysisID),
			slog.String("cause", cause),
			slog.Any("error", err),
		)
		return err
	}
	return nil
}

// contentTypeForKey derives the upload MIME type from the storage key.
func contentTypeForKey(key string) string {
	switch strings.TrimPrefix(path.Ext(key), ".") {
	case "mp3":
		return "audio/mpeg"
	case "wav":
		return "audio/wav"
	case "m4a":
		return "audio/mp4"
	case "flac":
		return "audio/flac"
	case "ogg":
		return "audio/ogg"
	default:
		return "application/octet-stream"
	}
}
