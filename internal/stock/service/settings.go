package service

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/freshstock/freshstock-backend/internal/stock/repository"
	"github.com/freshstock/freshstock-backend/pkg/errors"
	"github.com/freshstock/freshstock-backend/pkg/logger"
)

// Setting keys
const (
	SettingWarningDays    = "expiry.warning_days"
	SettingCriticalDays   = "expiry.critical_days"
	SettingReportSendTime = "report.send_time"
	SettingTimezone       = "timezone"
	SettingReportTemplate = "report.template"
	SettingExpiryTemplate = "expiry.template"
	SettingQueueEnabled   = "channels.queue.enabled"
	SettingWebhookEnabled = "channels.webhook.enabled"
	SettingWebhookURL     = "channels.webhook.url"
)

// defaultValues backs the final step of resolution. Every known key has a
// default, so resolution never fails on a missing key.
var defaultValues = map[string]string{
	SettingWarningDays:    "7",
	SettingCriticalDays:   "3",
	SettingReportSendTime: "09:00",
	SettingTimezone:       "UTC",
	SettingReportTemplate: "Daily stock report for {hotel} on {date}:\n{summary}",
	SettingExpiryTemplate: "{product} in {department}: {quantity} expires {expiry_date} ({days_left} days left)",
	SettingQueueEnabled:   "true",
	SettingWebhookEnabled: "false",
	SettingWebhookURL:     "",
}

var sendTimePattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// scopeRank orders scopes from most specific (lowest) to least
var scopeRank = map[string]int{
	repository.ScopeUser:       0,
	repository.ScopeDepartment: 1,
	repository.ScopeHotel:      2,
	repository.ScopeSystem:     3,
}

// ResolveScope names the context a setting lookup happens in. Any of the
// IDs may be nil; resolution simply skips those scopes.
type ResolveScope struct {
	HotelID      *string
	DepartmentID *string
	UserID       *string
}

// HotelScope is the common case of resolving in a hotel's context
func HotelScope(hotelID string) ResolveScope {
	return ResolveScope{HotelID: &hotelID}
}

// SystemScope resolves against system rows and defaults only
func SystemScope() ResolveScope {
	return ResolveScope{}
}

// ResolvedSetting is a setting value plus where it came from. Scope is
// "default" when no stored row matched.
type ResolvedSetting struct {
	Key     string  `json:"key"`
	Value   string  `json:"value"`
	Scope   string  `json:"scope"`
	ScopeID *string `json:"scope_id,omitempty"`
}

// SettingsService resolves scoped settings and validates writes
type SettingsService struct {
	repo   *repository.SettingRepository
	logger *logger.Logger

	mu        sync.RWMutex
	listeners []func(key string)
}

// NewSettingsService creates a new settings service
func NewSettingsService(repo *repository.SettingRepository, log *logger.Logger) *SettingsService {
	return &SettingsService{
		repo:   repo,
		logger: log,
	}
}

// Subscribe registers a callback invoked after any successful setting write
// or delete, with the affected key
func (s *SettingsService) Subscribe(fn func(key string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *SettingsService) notify(key string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, fn := range s.listeners {
		fn(key)
	}
}

// KnownKey reports whether the key is one the system understands
func KnownKey(key string) bool {
	_, ok := defaultValues[key]
	return ok
}

// Resolve returns the effective value of a key in the given context, along
// with the scope that supplied it. Precedence is user, department, hotel,
// system, then the built-in default.
func (s *SettingsService) Resolve(ctx context.Context, key string, scope ResolveScope) (*ResolvedSetting, error) {
	if !KnownKey(key) {
		return nil, errors.BadRequest(fmt.Sprintf("unknown setting key: %s", key))
	}

	candidates, err := s.repo.GetCandidates(ctx, key, scope.HotelID, scope.DepartmentID, scope.UserID)
	if err != nil {
		return nil, err
	}

	var best *repository.Setting
	for _, c := range candidates {
		if best == nil || scopeRank[c.Scope] < scopeRank[best.Scope] {
			best = c
		}
	}

	if best == nil {
		return &ResolvedSetting{Key: key, Value: defaultValues[key], Scope: "default"}, nil
	}

	return &ResolvedSetting{Key: key, Value: best.Value, Scope: best.Scope, ScopeID: best.ScopeID}, nil
}

// Set validates and stores a setting at one scope target
func (s *SettingsService) Set(ctx context.Context, setting *repository.Setting) error {
	if !KnownKey(setting.Key) {
		return errors.BadRequest(fmt.Sprintf("unknown setting key: %s", setting.Key))
	}
	if !repository.ValidScope(setting.Scope) {
		return errors.BadRequest(fmt.Sprintf("invalid scope: %s", setting.Scope))
	}
	if setting.Scope == repository.ScopeSystem && setting.ScopeID != nil {
		return errors.BadRequest("system scope settings must not carry a scope_id")
	}
	if setting.Scope != repository.ScopeSystem && (setting.ScopeID == nil || *setting.ScopeID == "") {
		return errors.BadRequest(fmt.Sprintf("%s scope settings require a scope_id", setting.Scope))
	}

	if err := s.validateValue(ctx, setting); err != nil {
		return err
	}

	if err := s.repo.Upsert(ctx, setting); err != nil {
		return err
	}

	s.logger.Info().
		Str("key", setting.Key).
		Str("scope", setting.Scope).
		Str("updated_by", setting.UpdatedBy).
		Msg("setting updated")

	s.notify(setting.Key)
	return nil
}

// Delete removes a stored setting so resolution falls through to the next
// scope or the default
func (s *SettingsService) Delete(ctx context.Context, key, scope string, scopeID *string) error {
	if !KnownKey(key) {
		return errors.BadRequest(fmt.Sprintf("unknown setting key: %s", key))
	}
	if !repository.ValidScope(scope) {
		return errors.BadRequest(fmt.Sprintf("invalid scope: %s", scope))
	}

	if err := s.repo.Delete(ctx, key, scope, scopeID); err != nil {
		return err
	}

	s.notify(key)
	return nil
}

// ListForScope lists the settings stored at one scope target
func (s *SettingsService) ListForScope(ctx context.Context, scope string, scopeID *string) ([]*repository.Setting, error) {
	if !repository.ValidScope(scope) {
		return nil, errors.BadRequest(fmt.Sprintf("invalid scope: %s", scope))
	}
	return s.repo.ListByScope(ctx, scope, scopeID)
}

// validateValue checks per-key value formats, plus the cross-field rule
// that the warning threshold stays strictly above the critical one in the
// scope being written to.
func (s *SettingsService) validateValue(ctx context.Context, setting *repository.Setting) error {
	switch setting.Key {
	case SettingWarningDays, SettingCriticalDays:
		n, err := strconv.Atoi(setting.Value)
		if err != nil || n < 0 {
			return errors.BadRequest(fmt.Sprintf("%s must be a non-negative integer", setting.Key))
		}
		return s.validateThresholdPair(ctx, setting, n)

	case SettingReportSendTime:
		if !sendTimePattern.MatchString(setting.Value) {
			return errors.BadRequest("report.send_time must be HH:MM in 24-hour form")
		}

	case SettingTimezone:
		if _, err := time.LoadLocation(setting.Value); err != nil {
			return errors.BadRequest(fmt.Sprintf("unknown timezone: %s", setting.Value))
		}

	case SettingQueueEnabled, SettingWebhookEnabled:
		if _, err := strconv.ParseBool(setting.Value); err != nil {
			return errors.BadRequest(fmt.Sprintf("%s must be a boolean", setting.Key))
		}
	}

	return nil
}

// validateThresholdPair resolves the sibling threshold in the same context
// and rejects writes that would leave warning <= critical
func (s *SettingsService) validateThresholdPair(ctx context.Context, setting *repository.Setting, value int) error {
	sibling := SettingCriticalDays
	if setting.Key == SettingCriticalDays {
		sibling = SettingWarningDays
	}

	scope := ResolveScope{}
	switch setting.Scope {
	case repository.ScopeHotel:
		scope.HotelID = setting.ScopeID
	case repository.ScopeDepartment:
		scope.DepartmentID = setting.ScopeID
	case repository.ScopeUser:
		scope.UserID = setting.ScopeID
	}

	resolved, err := s.Resolve(ctx, sibling, scope)
	if err != nil {
		return err
	}

	other, err := strconv.Atoi(resolved.Value)
	if err != nil {
		return errors.Internal(fmt.Sprintf("stored %s is not an integer: %q", sibling, resolved.Value))
	}

	warning, critical := value, other
	if setting.Key == SettingCriticalDays {
		warning, critical = other, value
	}

	if warning <= critical {
		return errors.BadRequest(fmt.Sprintf(
			"expiry.warning_days (%d) must be greater than expiry.critical_days (%d)", warning, critical))
	}

	return nil
}

// Typed accessors used by the scanner, report builder and scheduler. Each
// falls back to the built-in default if a stored value fails to parse, so a
// row written before validation existed cannot stall the schedulers.

// Thresholds returns the effective warning and critical day thresholds
func (s *SettingsService) Thresholds(ctx context.Context, scope ResolveScope) (warning, critical int, err error) {
	warning, err = s.intSetting(ctx, SettingWarningDays, scope)
	if err != nil {
		return 0, 0, err
	}
	critical, err = s.intSetting(ctx, SettingCriticalDays, scope)
	if err != nil {
		return 0, 0, err
	}
	if warning <= critical {
		s.logger.Warn().
			Int("warning_days", warning).
			Int("critical_days", critical).
			Msg("inconsistent thresholds resolved, using defaults")
		return mustAtoi(defaultValues[SettingWarningDays]), mustAtoi(defaultValues[SettingCriticalDays]), nil
	}
	return warning, critical, nil
}

// SendTime returns the effective daily report send time as hour and minute
func (s *SettingsService) SendTime(ctx context.Context, scope ResolveScope) (hour, minute int, err error) {
	resolved, err := s.Resolve(ctx, SettingReportSendTime, scope)
	if err != nil {
		return 0, 0, err
	}
	value := resolved.Value
	if !sendTimePattern.MatchString(value) {
		value = defaultValues[SettingReportSendTime]
	}
	hour = mustAtoi(value[:2])
	minute = mustAtoi(value[3:])
	return hour, minute, nil
}

// Location returns the effective timezone as a loaded location
func (s *SettingsService) Location(ctx context.Context, scope ResolveScope) (*time.Location, error) {
	resolved, err := s.Resolve(ctx, SettingTimezone, scope)
	if err != nil {
		return nil, err
	}
	loc, lerr := time.LoadLocation(resolved.Value)
	if lerr != nil {
		s.logger.Warn().Str("timezone", resolved.Value).Msg("stored timezone failed to load, using UTC")
		return time.UTC, nil
	}
	return loc, nil
}

// ChannelEnabled reports whether a delivery channel is enabled for a hotel
func (s *SettingsService) ChannelEnabled(ctx context.Context, hotelID, channelName string) bool {
	key := ""
	switch channelName {
	case "queue":
		key = SettingQueueEnabled
	case "webhook":
		key = SettingWebhookEnabled
	default:
		return false
	}

	resolved, err := s.Resolve(ctx, key, HotelScope(hotelID))
	if err != nil {
		s.logger.Error().Err(err).Str("hotel_id", hotelID).Str("key", key).Msg("failed to resolve channel flag")
		return false
	}

	enabled, perr := strconv.ParseBool(resolved.Value)
	if perr != nil {
		enabled, _ = strconv.ParseBool(defaultValues[key])
	}
	return enabled
}

// WebhookURL returns the webhook endpoint configured for a hotel, empty
// when none is set
func (s *SettingsService) WebhookURL(ctx context.Context, hotelID string) string {
	resolved, err := s.Resolve(ctx, SettingWebhookURL, HotelScope(hotelID))
	if err != nil {
		s.logger.Error().Err(err).Str("hotel_id", hotelID).Msg("failed to resolve webhook url")
		return ""
	}
	return resolved.Value
}

// Template returns the effective message template for a key
func (s *SettingsService) Template(ctx context.Context, key string, scope ResolveScope) (string, error) {
	resolved, err := s.Resolve(ctx, key, scope)
	if err != nil {
		return "", err
	}
	if resolved.Value == "" {
		return defaultValues[key], nil
	}
	return resolved.Value, nil
}

func (s *SettingsService) intSetting(ctx context.Context, key string, scope ResolveScope) (int, error) {
	resolved, err := s.Resolve(ctx, key, scope)
	if err != nil {
		return 0, err
	}
	n, perr := strconv.Atoi(resolved.Value)
	if perr != nil {
		return mustAtoi(defaultValues[key]), nil
	}
	return n, nil
}

func mustAtoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
