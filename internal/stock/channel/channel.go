package channel

import (
	"context"
	"time"

	"github.com/freshstock/freshstock-backend/pkg/logger"
)

// Message is a rendered notification handed to delivery channels
type Message struct {
	NotificationID string
	HotelID        string
	DepartmentID   *string
	BatchID        *string
	Type           string
	Body           string
}

// Result is the outcome of one channel's delivery attempt
type Result struct {
	Channel string    `json:"channel"`
	Success bool      `json:"success"`
	Detail  string    `json:"detail,omitempty"`
	SentAt  time.Time `json:"sent_at"`
}

// Channel delivers notification messages over one transport
type Channel interface {
	Name() string
	Send(ctx context.Context, msg Message) Result
}

// EnabledFunc decides whether a named channel is enabled for a hotel
type EnabledFunc func(ctx context.Context, hotelID, channelName string) bool

// Dispatcher fans one message out to every enabled channel. A failing
// channel never blocks the others; each attempt gets its own timeout and
// its outcome is recorded in the returned results.
type Dispatcher struct {
	channels []Channel
	enabled  EnabledFunc
	timeout  time.Duration
	logger   *logger.Logger
}

// NewDispatcher creates a dispatcher over the given channels
func NewDispatcher(channels []Channel, enabled EnabledFunc, timeout time.Duration, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		channels: channels,
		enabled:  enabled,
		timeout:  timeout,
		logger:   log,
	}
}

// Dispatch sends the message over every channel enabled for its hotel
func (d *Dispatcher) Dispatch(ctx context.Context, msg Message) []Result {
	var results []Result

	for _, ch := range d.channels {
		if !d.enabled(ctx, msg.HotelID, ch.Name()) {
			continue
		}

		sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
		result := ch.Send(sendCtx, msg)
		cancel()

		if !result.Success {
			d.logger.Error().
				Str("channel", ch.Name()).
				Str("notification_id", msg.NotificationID).
				Str("detail", result.Detail).
				Msg("notification delivery failed")
		}

		results = append(results, result)
	}

	return results
}
