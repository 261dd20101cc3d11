package events

import (
	"context"

	"github.com/freshstock/freshstock-backend/internal/stock/repository"
	"github.com/freshstock/freshstock-backend/pkg/logger"
	"github.com/freshstock/freshstock-backend/pkg/messaging"
)

// StockEventPublisher publishes stock lifecycle events
type StockEventPublisher struct {
	publisher *messaging.Publisher
	logger    *logger.Logger
}

// NewStockEventPublisher creates a new stock event publisher
func NewStockEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*StockEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeStockEvents, "stock-service", log)
	if err != nil {
		return nil, err
	}

	return &StockEventPublisher{
		publisher: publisher,
		logger:    log,
	}, nil
}

// PublishBatchReceived publishes a batch received event
func (p *StockEventPublisher) PublishBatchReceived(ctx context.Context, batch *repository.Batch) {
	if p == nil {
		return
	}

	data := messaging.BatchReceivedEvent{
		BatchID:      batch.ID,
		HotelID:      batch.HotelID,
		DepartmentID: batch.DepartmentID,
		ProductID:    batch.ProductID,
		Quantity:     batch.Quantity,
		ExpiryDate:   batch.ExpiryDate.Format("2006-01-02"),
		AddedBy:      batch.AddedBy,
	}

	if err := p.publisher.Publish(ctx, messaging.EventBatchReceived, data); err != nil {
		p.logger.Error().Err(err).Str("batch_id", batch.ID).Msg("failed to publish batch received event")
	}
}

// PublishBatchCollected publishes a batch collected event
func (p *StockEventPublisher) PublishBatchCollected(ctx context.Context, batch *repository.Batch, collectedBy string) {
	if p == nil {
		return
	}

	data := messaging.BatchCollectedEvent{
		BatchID:      batch.ID,
		HotelID:      batch.HotelID,
		DepartmentID: batch.DepartmentID,
		ProductID:    batch.ProductID,
		CollectedBy:  collectedBy,
	}

	if err := p.publisher.Publish(ctx, messaging.EventBatchCollected, data); err != nil {
		p.logger.Error().Err(err).Str("batch_id", batch.ID).Msg("failed to publish batch collected event")
	}
}

// PublishWrittenOff publishes a stock written off event
func (p *StockEventPublisher) PublishWrittenOff(ctx context.Context, wo *repository.WriteOff) {
	if p == nil {
		return
	}

	data := messaging.StockWrittenOffEvent{
		HotelID:      wo.HotelID,
		DepartmentID: wo.DepartmentID,
		ProductID:    wo.ProductID,
		BatchID:      wo.BatchID,
		Quantity:     wo.Quantity,
		Reason:       wo.Reason,
		PerformedBy:  wo.PerformedBy,
	}

	if err := p.publisher.Publish(ctx, messaging.EventStockWrittenOff, data); err != nil {
		p.logger.Error().Err(err).Str("batch_id", wo.BatchID).Msg("failed to publish stock written off event")
	}
}
