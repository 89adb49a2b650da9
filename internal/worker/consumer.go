package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/adityawrm/voiceguard/internal/worker/domain"
)

// setupConsumer configures QoS and opens the delivery stream.
func (w *Worker) setupConsumer() (<-chan amqp.Delivery, error) {
	if err := w.rabbitClient.Qos(w.prefetchCount); err != nil {
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	deliveries, err := w.rabbitClient.Consume(w.workerID)
	if err != nil {
		return nil, fmt.Errorf("failed to start consuming: %w", err)
	}

	return deliveries, nil
}

// dispatch reads broker deliveries, parses them, and hands valid tasks to
// the pool. Malformed messages are rejected without requeue so they cannot
// loop forever.
func (w *Worker) dispatch(ctx context.Context, deliveries <-chan amqp.Delivery) {
	w.logger.Info("Message dispatcher started",
		slog.String("worker_id", w.workerID),
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Message dispatcher stopped - context canceled")
			return

		case delivery, ok := <-deliveries:
			if !ok {
				w.logger.Warn("RabbitMQ delivery channel closed")
				return
			}

			var msg struct {
				AnalysisID string `json:"analysis_id"`
			}
			if err := json.Unmarshal(delivery.Body, &msg); err != nil || msg.AnalysisID == "" {
				w.logger.Error("Rejecting malformed task message",
					slog.String("body", string(delivery.Body)),
					slog.Any("error", err),
				)
				if nackErr := delivery.Nack(false, false); nackErr != nil {
					w.logger.Error("Failed to NACK malformed message",
						slog.Any("error", nackErr),
					)
				}
				continue
			}

			task := &domain.TaskMessage{
				AnalysisID:  msg.AnalysisID,
				DeliveryTag: delivery.DeliveryTag,
			}

			select {
			case w.jobsChan <- task:
				w.logger.Debug("Task dispatched to worker pool",
					slog.String("analysis_id", task.AnalysisID),
					slog.Uint64("delivery_tag", task.DeliveryTag),
				)
			case <-ctx.Done():
				// requeue so another consumer picks it up after shutdown
				if nackErr := delivery.Nack(false, true); nackErr != nil {
					w.logger.Error("Failed to NACK message on shutdown",
						slog.Any("error", nackErr),
					)
				}
				return
			}
		}
	}
}
