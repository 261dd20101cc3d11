package service

import (
	"time"

	"github.com/freshstock/freshstock-backend/internal/stock/repository"
)

// ExpiryStatus classifies how close a batch is to its expiry date
type ExpiryStatus string

// Expiry statuses, from least to most urgent
const (
	StatusGood     ExpiryStatus = "good"
	StatusWarning  ExpiryStatus = "warning"
	StatusCritical ExpiryStatus = "critical"
	StatusToday    ExpiryStatus = "today"
	StatusExpired  ExpiryStatus = "expired"
)

// DaysLeft returns the number of whole calendar days between now and the
// expiry date, in now's location. Time-of-day is ignored on both sides: a
// batch expiring later today has zero days left regardless of the hour.
func DaysLeft(expiry, now time.Time) int {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	ey, em, ed := expiry.Date()
	expiryDay := time.Date(ey, em, ed, 0, 0, 0, 0, time.UTC)

	return int(expiryDay.Sub(today).Hours() / 24)
}

// ClassifyExpiry maps days-left onto an expiry status using the resolved
// warning and critical thresholds. Callers guarantee warningDays > criticalDays.
func ClassifyExpiry(daysLeft, warningDays, criticalDays int) ExpiryStatus {
	switch {
	case daysLeft < 0:
		return StatusExpired
	case daysLeft == 0:
		return StatusToday
	case daysLeft <= criticalDays:
		return StatusCritical
	case daysLeft <= warningDays:
		return StatusWarning
	default:
		return StatusGood
	}
}

// NotificationTypeFor returns the notification type generated for a status,
// and false for statuses that do not notify
func NotificationTypeFor(status ExpiryStatus) (string, bool) {
	switch status {
	case StatusWarning, StatusCritical:
		return repository.NotificationExpiringSoon, true
	case StatusToday:
		return repository.NotificationExpiringToday, true
	case StatusExpired:
		return repository.NotificationExpired, true
	}
	return "", false
}
