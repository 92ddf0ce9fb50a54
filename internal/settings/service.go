// Package settings implements the service layer of the recurring-report
// configuration API: validated creation (with the duplicate-active guard and
// initial schedule computation), typed partial updates, soft deletion, and
// reads. HTTP routing and tenant-context extraction live outside this
// repository; the service receives the authenticated client and employee ids
// as plain arguments.
package settings

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/RikitoMorikawa/IPPON-Backend-test-sub001/internal/types"
)

// SettingStore abstracts the persistence operations the service needs.
type SettingStore interface {
	Create(ctx context.Context, s *types.BatchReportSetting) error
	GetByTenant(ctx context.Context, clientID string) ([]types.BatchReportSetting, error)
	GetByProperty(ctx context.Context, clientID, propertyID string) (*types.BatchReportSetting, error)
	Update(ctx context.Context, clientID string, createdAt time.Time, patch types.SettingPatch) (*types.BatchReportSetting, error)
	SoftDelete(ctx context.Context, clientID string, createdAt time.Time) error
}

// Service is the settings service. It owns the configuration fields of
// BatchReportSetting; scheduling state belongs to the batch orchestrator.
type Service struct {
	store    SettingStore
	validate *validator.Validate
	loc      *time.Location
	now      func() time.Time
	logger   *slog.Logger
}

// NewService creates a settings Service anchored to the operational timezone.
func NewService(store SettingStore, loc *time.Location, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		store:    store,
		validate: validator.New(),
		loc:      loc,
		now:      time.Now,
		logger:   logger,
	}
}

// Create validates the request, enforces the one-active-setting-per-property
// guard, computes the initial next_execution_date, and persists the setting.
//
// The guard is deliberately a read-then-insert check rather than a database
// uniqueness constraint: a soft-deleted prior setting for the same property
// must not block creation.
func (s *Service) Create(ctx context.Context, clientID, employeeID string, req types.CreateSettingRequest) (*types.BatchReportSetting, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, types.NewAppError(types.ErrCodeValidationInvalidField, "invalid batch setting request", err)
	}
	if !req.Cadence.Valid() {
		return nil, types.NewAppError(types.ErrCodeValidationInvalidCadence,
			fmt.Sprintf("auto_create_period must be %q or %q", types.CadenceWeekly, types.CadenceBiweekly), nil)
	}

	execTime := req.ExecutionTime
	if execTime == "" {
		execTime = types.DefaultExecutionTime
	}
	hour, minute, err := parseTimeOfDay(execTime)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeValidationInvalidTime, "invalid execution_time", err)
	}

	existing, err := s.store.GetByProperty(ctx, clientID, req.PropertyID)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Status == types.SettingActive {
		return nil, types.NewAppError(types.ErrCodeConflictSettingExists,
			"an active batch setting already exists for this property", nil)
	}

	nextExecution, err := InitialNextExecution(req.StartDate, hour, minute, req.Weekday, s.loc)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeValidationInvalidField, "invalid start_date", err)
	}

	now := s.now().UTC()
	setting := &types.BatchReportSetting{
		ID:                uuid.New().String(),
		ClientID:          clientID,
		PropertyID:        req.PropertyID,
		PropertyName:      req.PropertyName,
		Weekday:           req.Weekday,
		StartDate:         req.StartDate,
		Cadence:           req.Cadence,
		AutoGenerate:      req.AutoGenerate,
		ExecutionTime:     execTime,
		NextExecutionDate: nextExecution,
		Status:            types.SettingActive,
		ExecutionCount:    0,
		EmployeeID:        employeeID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.store.Create(ctx, setting); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "batch setting created",
		"setting_id", setting.ID,
		"client_id", clientID,
		"property_id", req.PropertyID,
		"next_execution_date", nextExecution.Format(time.RFC3339),
	)

	return setting, nil
}

// Update applies a typed partial patch to a setting identified by
// (clientID, createdAt). Changing the weekday or cadence takes effect at the
// next reschedule; next_execution_date is not recomputed here.
func (s *Service) Update(ctx context.Context, clientID string, createdAt time.Time, patch types.SettingPatch) (*types.BatchReportSetting, error) {
	if err := s.validate.Struct(patch); err != nil {
		return nil, types.NewAppError(types.ErrCodeValidationInvalidField, "invalid batch setting patch", err)
	}
	if patch.Cadence != nil && !patch.Cadence.Valid() {
		return nil, types.NewAppError(types.ErrCodeValidationInvalidCadence,
			fmt.Sprintf("auto_create_period must be %q or %q", types.CadenceWeekly, types.CadenceBiweekly), nil)
	}
	if patch.ExecutionTime != nil {
		if _, _, err := parseTimeOfDay(*patch.ExecutionTime); err != nil {
			return nil, types.NewAppError(types.ErrCodeValidationInvalidTime, "invalid execution_time", err)
		}
	}
	if patch.Status != nil {
		switch *patch.Status {
		case types.SettingActive, types.SettingPaused, types.SettingCompleted:
		default:
			return nil, types.NewAppError(types.ErrCodeValidationInvalidField,
				fmt.Sprintf("invalid status %q", *patch.Status), nil)
		}
	}

	return s.store.Update(ctx, clientID, createdAt, patch)
}

// Delete soft-deletes a setting. The record stays in storage but disappears
// from all reads and from due-selection immediately and permanently.
func (s *Service) Delete(ctx context.Context, clientID string, createdAt time.Time) error {
	if err := s.store.SoftDelete(ctx, clientID, createdAt); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "batch setting soft deleted",
		"client_id", clientID,
		"created_at", createdAt.Format(time.RFC3339),
	)
	return nil
}

// ListByTenant returns all non-deleted settings for a tenant.
func (s *Service) ListByTenant(ctx context.Context, clientID string) ([]types.BatchReportSetting, error) {
	return s.store.GetByTenant(ctx, clientID)
}

// GetByProperty returns the newest non-deleted setting for a property, or
// nil when none exists.
func (s *Service) GetByProperty(ctx context.Context, clientID, propertyID string) (*types.BatchReportSetting, error) {
	return s.store.GetByProperty(ctx, clientID, propertyID)
}

// InitialNextExecution computes the first firing instant for a new setting:
// the configured start date at the execution time of day in the operational
// timezone, rolled forward to the first date whose day of week matches the
// anchor weekday. The result is always at or after the start date.
func InitialNextExecution(startDate string, hour, minute, weekday int, loc *time.Location) (time.Time, error) {
	start, err := time.ParseInLocation("2006-01-02", startDate, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing start_date %q: %w", startDate, err)
	}

	candidate := time.Date(start.Year(), start.Month(), start.Day(), hour, minute, 0, 0, loc)
	shift := (weekday - int(candidate.Weekday()) + 7) % 7
	return candidate.AddDate(0, 0, shift), nil
}

// parseTimeOfDay parses a "HH:mm" string into hour and minute components.
// The input must be exactly five characters; trailing content is rejected.
func parseTimeOfDay(s string) (int, int, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, 0, fmt.Errorf("expected format HH:mm, got %q", s)
	}
	var hour, minute int
	n, err := fmt.Sscanf(s, "%d:%d", &hour, &minute)
	if err != nil || n != 2 {
		return 0, 0, fmt.Errorf("expected format HH:mm, got %q", s)
	}
	if hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("hour %d out of range [0,23]", hour)
	}
	if minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("minute %d out of range [0,59]", minute)
	}
	return hour, minute, nil
}
