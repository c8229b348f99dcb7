package workers

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"fittrack/internal/apperrors"
	"fittrack/internal/config"
	"fittrack/internal/services"
	"fittrack/pkg/logger"
	"fittrack/pkg/queue"
)

const consumeRetryInterval = 5 * time.Second

// EffortWorker consumes activity-completed events and runs segment
// matching for each. Delivery is at-least-once: transient failures are
// requeued, everything else is acked because the matcher itself is
// idempotent.
type EffortWorker struct {
	queue   *queue.RabbitMQ
	matcher services.SegmentMatcherService
	cfg     *config.MatcherConfig
	log     *logger.Logger
}

func NewEffortWorker(q *queue.RabbitMQ, matcher services.SegmentMatcherService, cfg *config.MatcherConfig, log *logger.Logger) *EffortWorker {
	return &EffortWorker{
		queue:   q,
		matcher: matcher,
		cfg:     cfg,
		log:     log,
	}
}

// Run blocks until the context is cancelled. A closed delivery stream
// (broker restart) is reopened after a short backoff.
func (w *EffortWorker) Run(ctx context.Context) {
	for {
		deliveries, err := w.queue.ConsumeActivityCompleted(ctx, w.cfg.ConsumerName)
		if err != nil {
			w.log.WithError(err).Error("failed to open segment matching consumer, retrying")
			select {
			case <-ctx.Done():
				return
			case <-time.After(consumeRetryInterval):
				continue
			}
		}

		w.log.Info("segment matching worker started")

		if !w.consume(ctx, deliveries) {
			return
		}

		w.log.Warn("segment matching delivery stream closed, reconnecting")
		select {
		case <-ctx.Done():
			return
		case <-time.After(consumeRetryInterval):
		}
	}
}

// consume drains the delivery stream. It returns false when the context
// was cancelled and true when the stream closed and should be reopened.
func (w *EffortWorker) consume(ctx context.Context, deliveries <-chan amqp.Delivery) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case delivery, ok := <-deliveries:
			if !ok {
				return true
			}
			w.handle(ctx, delivery)
		}
	}
}

func (w *EffortWorker) handle(ctx context.Context, delivery amqp.Delivery) {
	var msg queue.ActivityCompletedMessage
	if err := json.Unmarshal(delivery.Body, &msg); err != nil {
		w.log.WithError(err).Error("discarding malformed activity completed message")
		if err := delivery.Nack(false, false); err != nil {
			w.log.WithError(err).Error("failed to nack malformed message")
		}
		return
	}

	log := w.log.WithActivityID(msg.ActivityID)

	if _, err := w.matcher.ProcessActivity(ctx, msg.ActivityID); err != nil {
		if apperrors.IsTransient(err) {
			log.WithError(err).Warn("transient matching failure, requeueing")
			if err := delivery.Nack(false, true); err != nil {
				log.WithError(err).Error("failed to requeue delivery")
			}
			return
		}

		log.WithError(err).Error("segment matching failed permanently, dropping message")
	}

	if err := delivery.Ack(false); err != nil {
		log.WithError(err).Error("failed to ack delivery")
	}
}
