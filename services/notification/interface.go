package notification

import (
	"context"
	"encoding/json"
	"time"

	"therapia/models"
	"therapia/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const TypeDomainEvent = "event:dispatch"

// Service publishes domain events for asynchronous delivery. Publishing is
// best-effort: a failed enqueue is logged but never blocks the operation
// that produced the event.
type Service interface {
	Publish(ctx context.Context, event models.Event)
}

// Notifier delivers a single event to its recipients. Implementations wrap
// the actual channels (push, email, sms); the worker drains the queue into
// whichever notifier is wired in.
type Notifier interface {
	Deliver(ctx context.Context, event models.Event) error
}

// NewDomainEventTask wraps an event as an asynq task payload.
func NewDomainEventTask(event models.Event) (*asynq.Task, error) {
	b, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeDomainEvent, b), nil
}

// AsynqPublisher enqueues events onto the redis-backed task queue.
type AsynqPublisher struct {
	Client *asynq.Client
}

func NewAsynqPublisher(client *asynq.Client) *AsynqPublisher {
	return &AsynqPublisher{Client: client}
}

func (p *AsynqPublisher) Publish(ctx context.Context, event models.Event) {
	logger := utils.GetLogger()

	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	task, err := NewDomainEventTask(event)
	if err != nil {
		logger.Error("notification: marshal event failed",
			zap.String("type", string(event.Type)), zap.Error(err))
		return
	}
	if _, err := p.Client.EnqueueContext(ctx, task, asynq.MaxRetry(5)); err != nil {
		logger.Error("notification: enqueue event failed",
			zap.String("type", string(event.Type)),
			zap.String("bookingID", event.BookingID),
			zap.Error(err))
		return
	}
	logger.Debug("notification: event enqueued",
		zap.String("type", string(event.Type)),
		zap.String("bookingID", event.BookingID))
}

// LogNotifier writes events to the structured log. It stands in for the
// external delivery channels in development and in tests.
type LogNotifier struct {
	Logger *zap.Logger
}

func (n *LogNotifier) Deliver(_ context.Context, event models.Event) error {
	n.Logger.Info("domain event",
		zap.String("type", string(event.Type)),
		zap.String("bookingID", event.BookingID),
		zap.String("patientID", event.PatientID),
		zap.String("therapistID", event.TherapistID),
		zap.Any("data", event.Data))
	return nil
}
