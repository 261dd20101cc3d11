package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/freshstock/freshstock-backend/internal/stock/channel"
	"github.com/freshstock/freshstock-backend/internal/stock/repository"
	"github.com/freshstock/freshstock-backend/pkg/logger"
)

// ExpiryScanner walks every hotel's active batches, classifies them against
// the hotel's resolved thresholds and generates notifications for the ones
// approaching or past expiry. Deduplication happens in the repository, so a
// scan can run any number of times per day without repeating alerts.
type ExpiryScanner struct {
	hotelRepo        *repository.HotelRepository
	departmentRepo   *repository.DepartmentRepository
	productRepo      *repository.ProductRepository
	batchRepo        *repository.BatchRepository
	notificationRepo *repository.NotificationRepository
	settings         *SettingsService
	dispatcher       *channel.Dispatcher
	logger           *logger.Logger
}

// NewExpiryScanner creates a new expiry scanner
func NewExpiryScanner(
	hotelRepo *repository.HotelRepository,
	departmentRepo *repository.DepartmentRepository,
	productRepo *repository.ProductRepository,
	batchRepo *repository.BatchRepository,
	notificationRepo *repository.NotificationRepository,
	settings *SettingsService,
	dispatcher *channel.Dispatcher,
	log *logger.Logger,
) *ExpiryScanner {
	return &ExpiryScanner{
		hotelRepo:        hotelRepo,
		departmentRepo:   departmentRepo,
		productRepo:      productRepo,
		batchRepo:        batchRepo,
		notificationRepo: notificationRepo,
		settings:         settings,
		dispatcher:       dispatcher,
		logger:           log,
	}
}

// ScanAll runs the expiry scan for every active hotel. A failing hotel is
// logged and skipped; the others still get scanned.
func (s *ExpiryScanner) ScanAll(ctx context.Context) error {
	start := time.Now()

	hotels, err := s.hotelRepo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("expiry scan: list hotels: %w", err)
	}

	var lastErr error
	created := 0
	for _, hotel := range hotels {
		n, err := s.ScanHotel(ctx, hotel.ID)
		if err != nil {
			s.logger.Error().Err(err).Str("hotel_id", hotel.ID).Msg("expiry scan failed for hotel")
			lastErr = err
			continue
		}
		created += n
	}

	s.logger.Info().
		Dur("duration", time.Since(start)).
		Int("hotel_count", len(hotels)).
		Int("notifications_created", created).
		Msg("expiry scan cycle completed")

	return lastErr
}

// ScanHotel scans one hotel's active batches and returns how many
// notifications were created
func (s *ExpiryScanner) ScanHotel(ctx context.Context, hotelID string) (int, error) {
	loc, err := s.settings.Location(ctx, HotelScope(hotelID))
	if err != nil {
		return 0, fmt.Errorf("resolve timezone: %w", err)
	}

	now := time.Now().In(loc)
	localDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	batches, err := s.batchRepo.ListActiveByHotel(ctx, hotelID)
	if err != nil {
		return 0, fmt.Errorf("list active batches: %w", err)
	}
	if len(batches) == 0 {
		return 0, nil
	}

	departments, err := s.departmentNames(ctx, hotelID)
	if err != nil {
		return 0, err
	}
	products, err := s.productNames(ctx, hotelID)
	if err != nil {
		return 0, err
	}

	template, err := s.settings.Template(ctx, SettingExpiryTemplate, HotelScope(hotelID))
	if err != nil {
		return 0, err
	}

	// Thresholds can differ per department, so resolve once per department
	// rather than once per batch
	type thresholds struct{ warning, critical int }
	resolved := map[string]thresholds{}

	created := 0
	for _, batch := range batches {
		th, ok := resolved[batch.DepartmentID]
		if !ok {
			deptID := batch.DepartmentID
			w, c, err := s.settings.Thresholds(ctx, ResolveScope{HotelID: &hotelID, DepartmentID: &deptID})
			if err != nil {
				s.logger.Error().Err(err).Str("department_id", deptID).Msg("failed to resolve thresholds")
				continue
			}
			th = thresholds{warning: w, critical: c}
			resolved[batch.DepartmentID] = th
		}

		daysLeft := DaysLeft(batch.ExpiryDate, now)
		status := ClassifyExpiry(daysLeft, th.warning, th.critical)
		notificationType, notify := NotificationTypeFor(status)
		if !notify {
			continue
		}

		message := renderTemplate(template, map[string]string{
			"product":     products[batch.ProductID],
			"department":  departments[batch.DepartmentID],
			"quantity":    quantityLabel(batch),
			"expiry_date": batch.ExpiryDate.Format("2006-01-02"),
			"days_left":   strconv.Itoa(daysLeft),
		})

		deptID := batch.DepartmentID
		batchID := batch.ID
		notification := &repository.Notification{
			HotelID:      hotelID,
			DepartmentID: &deptID,
			BatchID:      &batchID,
			Type:         notificationType,
			Message:      message,
			LocalDay:     localDay,
		}

		wasCreated, err := s.notificationRepo.CreateIfAbsent(ctx, notification)
		if err != nil {
			s.logger.Error().Err(err).Str("batch_id", batch.ID).Msg("failed to create notification")
			continue
		}
		if !wasCreated {
			continue
		}
		created++

		s.deliver(ctx, notification)
	}

	return created, nil
}

// deliver dispatches a freshly created notification and records the
// per-channel outcomes
func (s *ExpiryScanner) deliver(ctx context.Context, n *repository.Notification) {
	results := s.dispatcher.Dispatch(ctx, channel.Message{
		NotificationID: n.ID,
		HotelID:        n.HotelID,
		DepartmentID:   n.DepartmentID,
		BatchID:        n.BatchID,
		Type:           n.Type,
		Body:           n.Message,
	})
	if len(results) == 0 {
		return
	}

	stored := make(repository.DeliveryResults, 0, len(results))
	for _, r := range results {
		stored = append(stored, repository.DeliveryResult{
			Channel: r.Channel,
			Success: r.Success,
			Detail:  r.Detail,
			SentAt:  r.SentAt,
		})
	}

	if err := s.notificationRepo.SetDeliveryResults(ctx, n.ID, stored); err != nil {
		s.logger.Error().Err(err).Str("notification_id", n.ID).Msg("failed to record delivery results")
	}
}

func (s *ExpiryScanner) departmentNames(ctx context.Context, hotelID string) (map[string]string, error) {
	departments, err := s.departmentRepo.ListByHotel(ctx, hotelID)
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	names := make(map[string]string, len(departments))
	for _, d := range departments {
		names[d.ID] = d.Name
	}
	return names, nil
}

func (s *ExpiryScanner) productNames(ctx context.Context, hotelID string) (map[string]string, error) {
	products, err := s.productRepo.ListByHotel(ctx, hotelID)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	names := make(map[string]string, len(products))
	for _, p := range products {
		names[p.ID] = p.Name
	}
	return names, nil
}

// quantityLabel renders a batch quantity for messages, untracked batches
// have no counted amount
func quantityLabel(b *repository.Batch) string {
	if !b.Tracked() {
		return "untracked"
	}
	return strconv.Itoa(*b.Quantity)
}

// renderTemplate substitutes {name} placeholders. Unknown placeholders are
// left in place so template mistakes are visible in the output.
func renderTemplate(template string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
