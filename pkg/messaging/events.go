package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	// Stock events
	EventBatchReceived  = "stock.batch.received"
	EventBatchCollected = "stock.batch.collected"
	EventStockWrittenOff = "stock.written_off"

	// Notification events, consumed by downstream delivery workers
	EventExpirySoon    = "notify.expiring_soon"
	EventExpiryToday   = "notify.expiring_today"
	EventExpired       = "notify.expired"
	EventDailyReport   = "notify.daily_report"
)

// Exchange names
const (
	ExchangeStockEvents  = "stock.events"
	ExchangeNotifyEvents = "notify.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            uuid.New().String(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// BatchReceivedEvent is published when a new batch enters stock
type BatchReceivedEvent struct {
	BatchID      string  `json:"batch_id"`
	HotelID      string  `json:"hotel_id"`
	DepartmentID string  `json:"department_id"`
	ProductID    string  `json:"product_id"`
	Quantity     *int    `json:"quantity,omitempty"`
	ExpiryDate   string  `json:"expiry_date"`
	AddedBy      string  `json:"added_by"`
}

// BatchCollectedEvent is published when a batch is fully depleted or
// collected whole
type BatchCollectedEvent struct {
	BatchID      string `json:"batch_id"`
	HotelID      string `json:"hotel_id"`
	DepartmentID string `json:"department_id"`
	ProductID    string `json:"product_id"`
	CollectedBy  string `json:"collected_by"`
}

// StockWrittenOffEvent is published after a successful collect
type StockWrittenOffEvent struct {
	HotelID      string `json:"hotel_id"`
	DepartmentID string `json:"department_id"`
	ProductID    string `json:"product_id"`
	BatchID      string `json:"batch_id"`
	Quantity     int    `json:"quantity"`
	Reason       string `json:"reason"`
	PerformedBy  string `json:"performed_by"`
}

// NotificationEvent carries a rendered notification message to delivery workers
type NotificationEvent struct {
	NotificationID string  `json:"notification_id"`
	HotelID        string  `json:"hotel_id"`
	DepartmentID   *string `json:"department_id,omitempty"`
	BatchID        *string `json:"batch_id,omitempty"`
	Type           string  `json:"type"`
	Message        string  `json:"message"`
}
