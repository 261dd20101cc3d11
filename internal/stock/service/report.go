package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/freshstock/freshstock-backend/internal/stock/channel"
	"github.com/freshstock/freshstock-backend/internal/stock/repository"
	"github.com/freshstock/freshstock-backend/pkg/logger"
)

// ReportService builds and delivers the per-hotel daily stock report: a
// department-by-department summary of how much stock sits in each expiry
// state
type ReportService struct {
	hotelRepo        *repository.HotelRepository
	departmentRepo   *repository.DepartmentRepository
	batchRepo        *repository.BatchRepository
	notificationRepo *repository.NotificationRepository
	settings         *SettingsService
	dispatcher       *channel.Dispatcher
	logger           *logger.Logger
}

// NewReportService creates a new report service
func NewReportService(
	hotelRepo *repository.HotelRepository,
	departmentRepo *repository.DepartmentRepository,
	batchRepo *repository.BatchRepository,
	notificationRepo *repository.NotificationRepository,
	settings *SettingsService,
	dispatcher *channel.Dispatcher,
	log *logger.Logger,
) *ReportService {
	return &ReportService{
		hotelRepo:        hotelRepo,
		departmentRepo:   departmentRepo,
		batchRepo:        batchRepo,
		notificationRepo: notificationRepo,
		settings:         settings,
		dispatcher:       dispatcher,
		logger:           log,
	}
}

// SendAll builds and sends the daily report for every active hotel. A
// failing hotel is logged and skipped.
func (s *ReportService) SendAll(ctx context.Context) error {
	start := time.Now()

	hotels, err := s.hotelRepo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("daily report: list hotels: %w", err)
	}

	var lastErr error
	for _, hotel := range hotels {
		if err := s.SendHotel(ctx, hotel.ID); err != nil {
			s.logger.Error().Err(err).Str("hotel_id", hotel.ID).Msg("daily report failed for hotel")
			lastErr = err
		}
	}

	s.logger.Info().
		Dur("duration", time.Since(start)).
		Int("hotel_count", len(hotels)).
		Msg("daily report cycle completed")

	return lastErr
}

// departmentSummary counts a department's active batches per expiry status
type departmentSummary struct {
	name   string
	counts map[ExpiryStatus]int
}

// SendHotel builds and delivers one hotel's report
func (s *ReportService) SendHotel(ctx context.Context, hotelID string) error {
	hotel, err := s.hotelRepo.GetByID(ctx, hotelID)
	if err != nil {
		return err
	}

	loc, err := s.settings.Location(ctx, HotelScope(hotelID))
	if err != nil {
		return fmt.Errorf("resolve timezone: %w", err)
	}

	now := time.Now().In(loc)
	localDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	summaries, err := s.buildSummaries(ctx, hotelID, now)
	if err != nil {
		return err
	}

	template, err := s.settings.Template(ctx, SettingReportTemplate, HotelScope(hotelID))
	if err != nil {
		return err
	}

	message := renderTemplate(template, map[string]string{
		"hotel":   hotel.Name,
		"date":    now.Format("2006-01-02"),
		"summary": formatSummaries(summaries),
	})

	notification := &repository.Notification{
		HotelID:  hotelID,
		Type:     repository.NotificationDailyReport,
		Message:  message,
		LocalDay: localDay,
	}
	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		return fmt.Errorf("create report notification: %w", err)
	}

	results := s.dispatcher.Dispatch(ctx, channel.Message{
		NotificationID: notification.ID,
		HotelID:        hotelID,
		Type:           notification.Type,
		Body:           message,
	})
	if len(results) > 0 {
		stored := make(repository.DeliveryResults, 0, len(results))
		for _, r := range results {
			stored = append(stored, repository.DeliveryResult{
				Channel: r.Channel,
				Success: r.Success,
				Detail:  r.Detail,
				SentAt:  r.SentAt,
			})
		}
		if err := s.notificationRepo.SetDeliveryResults(ctx, notification.ID, stored); err != nil {
			s.logger.Error().Err(err).Str("notification_id", notification.ID).Msg("failed to record delivery results")
		}
	}

	s.logger.Info().Str("hotel_id", hotelID).Msg("daily report sent")
	return nil
}

// buildSummaries classifies each department's active batches under that
// department's resolved thresholds
func (s *ReportService) buildSummaries(ctx context.Context, hotelID string, now time.Time) ([]departmentSummary, error) {
	departments, err := s.departmentRepo.ListByHotel(ctx, hotelID)
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}

	batches, err := s.batchRepo.ListActiveByHotel(ctx, hotelID)
	if err != nil {
		return nil, fmt.Errorf("list active batches: %w", err)
	}

	byDept := map[string][]*repository.Batch{}
	for _, b := range batches {
		byDept[b.DepartmentID] = append(byDept[b.DepartmentID], b)
	}

	var summaries []departmentSummary
	for _, dept := range departments {
		deptBatches := byDept[dept.ID]
		if len(deptBatches) == 0 {
			continue
		}

		deptID := dept.ID
		warning, critical, err := s.settings.Thresholds(ctx, ResolveScope{HotelID: &hotelID, DepartmentID: &deptID})
		if err != nil {
			return nil, fmt.Errorf("resolve thresholds for department %s: %w", dept.ID, err)
		}

		counts := map[ExpiryStatus]int{}
		for _, b := range deptBatches {
			counts[ClassifyExpiry(DaysLeft(b.ExpiryDate, now), warning, critical)]++
		}

		summaries = append(summaries, departmentSummary{name: dept.Name, counts: counts})
	}

	sort.Slice(summaries, func(i, j int) bool { return summaries[i].name < summaries[j].name })
	return summaries, nil
}

// formatSummaries renders one line per department, statuses in urgency order
func formatSummaries(summaries []departmentSummary) string {
	if len(summaries) == 0 {
		return "no active stock"
	}

	order := []ExpiryStatus{StatusExpired, StatusToday, StatusCritical, StatusWarning, StatusGood}

	var lines []string
	for _, summary := range summaries {
		var parts []string
		for _, status := range order {
			if n := summary.counts[status]; n > 0 {
				parts = append(parts, fmt.Sprintf("%d %s", n, status))
			}
		}
		lines = append(lines, fmt.Sprintf("%s: %s", summary.name, strings.Join(parts, ", ")))
	}
	return strings.Join(lines, "\n")
}
