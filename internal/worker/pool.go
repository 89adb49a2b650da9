package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/adityawrm/voiceguard/internal/worker/domain"
)

// workerLoop is the processing loop of one pool goroutine. The delivery
// verdict comes from handleJob: a spent message is acked, while a job the
// store could not settle is nacked with requeue so at-least-once delivery
// retries it instead of stranding the row in PENDING.
func (w *Worker) workerLoop(ctx context.Context, workerNum int) {
	workerName := fmt.Sprintf("%s-%d", w.workerID, workerNum)
	w.logger.Info("Worker goroutine started",
		slog.String("worker_name", workerName),
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Worker goroutine stopping - context canceled",
				slog.String("worker_name", workerName),
			)
			return

		case task, ok := <-w.jobsChan:
			if !ok {
				w.logger.Info("Worker goroutine stopping - jobs channel closed",
					slog.String("worker_name", workerName),
				)
				return
			}

			w.logger.Info("Worker received task",
				slog.String("worker_name", workerName),
				slog.String("analysis_id", task.AnalysisID),
				slog.Uint64("delivery_tag", task.DeliveryTag),
			)

			if err := w.handleJob(ctx, task.AnalysisID); err != nil {
				w.nackRequeue(task, workerName)
			} else {
				w.ack(task, workerName)
			}
		}
	}
}

// ack acknowledges one delivery.
func (w *Worker) ack(task *domain.TaskMessage, workerName string) {
	channel := w.rabbitClient.GetChannel()
	if channel == nil {
		w.logger.Error("Failed to get RabbitMQ channel for ACK",
			slog.String("worker_name", workerName),
			slog.String("analysis_id", task.AnalysisID),
		)
		return
	}

	if err := channel.Ack(task.DeliveryTag, false); err != nil {
		w.logger.Error("Failed to ACK message",
			slog.String("worker_name", workerName),
			slog.String("analysis_id", task.AnalysisID),
			slog.Any("error", err),
		)
	}
}

// nackRequeue returns one delivery to the queue for another attempt.
func (w *Worker) nackRequeue(task *domain.TaskMessage, workerName string) {
	channel := w.rabbitClient.GetChannel()
	if channel == nil {
		w.logger.Error("Failed to get RabbitMQ channel for NACK",
			slog.String("worker_name", workerName),
			slog.String("analysis_id", task.AnalysisID),
		)
		return
	}

	if err := channel.Nack(task.DeliveryTag, false, true); err != nil {
		w.logger.Error("Failed to NACK message",
			slog.String("worker_name", workerName),
			slog.String("analysis_id", task.AnalysisID),
			slog.Any("error", err),
		)
	}
}
