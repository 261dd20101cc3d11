package channel

import (
	"context"
	"time"

	"github.com/freshstock/freshstock-backend/pkg/logger"
	"github.com/freshstock/freshstock-backend/pkg/messaging"
)

// QueueChannel delivers notifications by publishing them to the notify
// exchange, where downstream workers pick them up
type QueueChannel struct {
	publisher *messaging.Publisher
}

// NewQueueChannel creates a queue-backed delivery channel
func NewQueueChannel(rmq *messaging.RabbitMQ, log *logger.Logger) (*QueueChannel, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeNotifyEvents, "stock-service", log)
	if err != nil {
		return nil, err
	}
	return &QueueChannel{publisher: publisher}, nil
}

// Name implements Channel
func (c *QueueChannel) Name() string {
	return "queue"
}

// Send implements Channel
func (c *QueueChannel) Send(ctx context.Context, msg Message) Result {
	event := messaging.NotificationEvent{
		NotificationID: msg.NotificationID,
		HotelID:        msg.HotelID,
		DepartmentID:   msg.DepartmentID,
		BatchID:        msg.BatchID,
		Type:           msg.Type,
		Message:        msg.Body,
	}

	if err := c.publisher.Publish(ctx, "notify."+msg.Type, event); err != nil {
		return Result{Channel: c.Name(), Success: false, Detail: err.Error(), SentAt: time.Now().UTC()}
	}

	return Result{Channel: c.Name(), Success: true, SentAt: time.Now().UTC()}
}
