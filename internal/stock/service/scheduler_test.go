package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/freshstock/freshstock-backend/pkg/logger"
)

func TestNextRunAfter(t *testing.T) {
	berlin := time.FixedZone("CET", 3600)

	tests := []struct {
		name   string
		now    time.Time
		hour   int
		minute int
		loc    *time.Location
		want   time.Time
	}{
		{
			name: "send time still ahead today",
			now:  time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC),
			hour: 9, minute: 0, loc: time.UTC,
			want: time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC),
		},
		{
			name: "send time already past, lands tomorrow",
			now:  time.Date(2025, 6, 10, 10, 0, 0, 0, time.UTC),
			hour: 9, minute: 0, loc: time.UTC,
			want: time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC),
		},
		{
			name: "exactly at send time, lands tomorrow",
			now:  time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC),
			hour: 9, minute: 0, loc: time.UTC,
			want: time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC),
		},
		{
			name: "moved later the same day",
			now:  time.Date(2025, 6, 10, 8, 30, 0, 0, time.UTC),
			hour: 14, minute: 0, loc: time.UTC,
			want: time.Date(2025, 6, 10, 14, 0, 0, 0, time.UTC),
		},
		{
			name: "send time interpreted in configured zone",
			now:  time.Date(2025, 6, 10, 7, 30, 0, 0, time.UTC),
			hour: 9, minute: 0, loc: berlin,
			want: time.Date(2025, 6, 10, 9, 0, 0, 0, berlin),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := nextRunAfter(tt.now, tt.hour, tt.minute, tt.loc)
			assert.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
		})
	}
}

func TestScheduler_RescheduleCoalesces(t *testing.T) {
	s := &Scheduler{reschedule: make(chan struct{}, 1)}

	// Repeated pokes before the loop wakes must not block or pile up
	s.Reschedule()
	s.Reschedule()
	s.Reschedule()

	assert.Len(t, s.reschedule, 1)

	<-s.reschedule
	assert.Len(t, s.reschedule, 0)
}

func TestScheduler_OnSettingChanged(t *testing.T) {
	s := &Scheduler{reschedule: make(chan struct{}, 1), logger: logger.New("test", "test")}

	s.onSettingChanged(SettingWarningDays)
	assert.Len(t, s.reschedule, 0, "unrelated keys must not reschedule")

	s.onSettingChanged(SettingReportSendTime)
	assert.Len(t, s.reschedule, 1)

	<-s.reschedule
	s.onSettingChanged(SettingTimezone)
	assert.Len(t, s.reschedule, 1)
}
