package channel_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/freshstock/freshstock-backend/internal/stock/channel"
	"github.com/freshstock/freshstock-backend/pkg/logger"
)

type stubChannel struct {
	name  string
	fail  bool
	calls int
}

func (c *stubChannel) Name() string { return c.name }

func (c *stubChannel) Send(_ context.Context, _ channel.Message) channel.Result {
	c.calls++
	return channel.Result{Channel: c.name, Success: !c.fail, SentAt: time.Now().UTC()}
}

func TestDispatcher_OnlyEnabledChannels(t *testing.T) {
	queue := &stubChannel{name: "queue"}
	webhook := &stubChannel{name: "webhook"}

	enabled := func(_ context.Context, _ string, name string) bool {
		return name == "queue"
	}

	d := channel.NewDispatcher([]channel.Channel{queue, webhook}, enabled, time.Second, logger.New("test", "test"))

	results := d.Dispatch(context.Background(), channel.Message{HotelID: "h1", Type: "expiring_soon"})

	assert.Len(t, results, 1)
	assert.Equal(t, "queue", results[0].Channel)
	assert.Equal(t, 1, queue.calls)
	assert.Zero(t, webhook.calls)
}

func TestDispatcher_FailureDoesNotBlockOthers(t *testing.T) {
	failing := &stubChannel{name: "queue", fail: true}
	healthy := &stubChannel{name: "webhook"}

	enabled := func(_ context.Context, _ string, _ string) bool { return true }

	d := channel.NewDispatcher([]channel.Channel{failing, healthy}, enabled, time.Second, logger.New("test", "test"))

	results := d.Dispatch(context.Background(), channel.Message{HotelID: "h1", Type: "expired"})

	assert.Len(t, results, 2)
	assert.False(t, results[0].Success)
	assert.True(t, results[1].Success)
	assert.Equal(t, 1, healthy.calls)
}

func TestDispatcher_NoChannelsEnabled(t *testing.T) {
	queue := &stubChannel{name: "queue"}

	enabled := func(_ context.Context, _ string, _ string) bool { return false }

	d := channel.NewDispatcher([]channel.Channel{queue}, enabled, time.Second, logger.New("test", "test"))

	results := d.Dispatch(context.Background(), channel.Message{HotelID: "h1", Type: "expired"})
	assert.Empty(t, results)
	assert.Zero(t, queue.calls)
}
