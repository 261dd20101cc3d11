package service

import (
	"context"
	"time"

	"github.com/freshstock/freshstock-backend/pkg/logger"
)

// Scheduler owns the two background tasks: the periodic expiry scan and
// the once-a-day report send. The report timer is recomputed from settings
// whenever the send time or timezone changes, so updates take effect
// without a restart.
type Scheduler struct {
	scanner  *ExpiryScanner
	reports  *ReportService
	settings *SettingsService
	interval time.Duration
	logger   *logger.Logger

	stopScan   context.CancelFunc
	stopReport context.CancelFunc
	reschedule chan struct{}
	now        func() time.Time
}

// NewScheduler creates a new scheduler
func NewScheduler(
	scanner *ExpiryScanner,
	reports *ReportService,
	settings *SettingsService,
	interval time.Duration,
	log *logger.Logger,
) *Scheduler {
	s := &Scheduler{
		scanner:    scanner,
		reports:    reports,
		settings:   settings,
		interval:   interval,
		logger:     log,
		reschedule: make(chan struct{}, 1),
		now:        time.Now,
	}

	settings.Subscribe(s.onSettingChanged)
	return s
}

// Start starts both loops in background goroutines. Each loop gets its own
// cancel so one task can be stopped without touching the other's schedule.
func (s *Scheduler) Start(ctx context.Context) {
	scanCtx, scanCancel := context.WithCancel(ctx)
	reportCtx, reportCancel := context.WithCancel(ctx)
	s.stopScan = scanCancel
	s.stopReport = reportCancel

	go s.runScanLoop(scanCtx)
	go s.runReportLoop(reportCtx)
}

// StopScan stops the expiry scan loop; the report loop keeps running
func (s *Scheduler) StopScan() {
	if s.stopScan != nil {
		s.stopScan()
	}
}

// StopReport stops the daily report loop; the scan loop keeps running
func (s *Scheduler) StopReport() {
	if s.stopReport != nil {
		s.stopReport()
	}
}

// Stop stops both loops
func (s *Scheduler) Stop() {
	s.StopScan()
	s.StopReport()
}

// Reschedule makes the report loop recompute its next fire time. Safe to
// call from any goroutine; repeated calls before the loop wakes coalesce.
func (s *Scheduler) Reschedule() {
	select {
	case s.reschedule <- struct{}{}:
	default:
	}
}

// RunScanNow triggers one expiry scan cycle outside the schedule
func (s *Scheduler) RunScanNow(ctx context.Context) error {
	return s.scanner.ScanAll(ctx)
}

// RunReportNow triggers one report cycle outside the schedule
func (s *Scheduler) RunReportNow(ctx context.Context) error {
	return s.reports.SendAll(ctx)
}

// onSettingChanged reschedules the report timer when the keys it depends
// on change
func (s *Scheduler) onSettingChanged(key string) {
	if key == SettingReportSendTime || key == SettingTimezone {
		s.logger.Info().Str("key", key).Msg("report schedule setting changed, rescheduling")
		s.Reschedule()
	}
}

func (s *Scheduler) runScanLoop(ctx context.Context) {
	s.logger.Info().Dur("interval", s.interval).Msg("expiry scan scheduler started")

	// Run an initial scan immediately
	if err := s.scanner.ScanAll(ctx); err != nil {
		s.logger.Error().Err(err).Msg("initial expiry scan failed")
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("expiry scan scheduler stopped")
			return
		case <-ticker.C:
			if err := s.scanner.ScanAll(ctx); err != nil {
				s.logger.Error().Err(err).Msg("scheduled expiry scan failed")
			}
		}
	}
}

func (s *Scheduler) runReportLoop(ctx context.Context) {
	s.logger.Info().Msg("daily report scheduler started")

	for {
		next, err := s.nextReportTime(ctx, s.now())
		if err != nil {
			s.logger.Error().Err(err).Msg("failed to compute next report time, retrying in a minute")
			next = s.now().Add(time.Minute)
		} else {
			s.logger.Info().Time("next_run", next).Msg("daily report scheduled")
		}

		timer := time.NewTimer(next.Sub(s.now()))

		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info().Msg("daily report scheduler stopped")
			return

		case <-s.reschedule:
			timer.Stop()
			continue

		case <-timer.C:
			if err == nil {
				if rerr := s.reports.SendAll(ctx); rerr != nil {
					s.logger.Error().Err(rerr).Msg("scheduled daily report failed")
				}
			}
		}
	}
}

// nextReportTime resolves the system-scope send time and timezone and
// returns the next wall-clock occurrence after now
func (s *Scheduler) nextReportTime(ctx context.Context, now time.Time) (time.Time, error) {
	hour, minute, err := s.settings.SendTime(ctx, SystemScope())
	if err != nil {
		return time.Time{}, err
	}

	loc, err := s.settings.Location(ctx, SystemScope())
	if err != nil {
		return time.Time{}, err
	}

	return nextRunAfter(now, hour, minute, loc), nil
}

// nextRunAfter returns the next occurrence of hour:minute in loc strictly
// after now. A send time already past today lands on tomorrow.
func nextRunAfter(now time.Time, hour, minute int, loc *time.Location) time.Time {
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
