package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tutorlane/service-scheduling/internal/domain/schedule"
	"go.uber.org/zap"
)

// AddRecurringWindowRequest holds the data for a new weekly availability
// window.
type AddRecurringWindowRequest struct {
	DayOfWeek int    `json:"day_of_week" binding:"min=0,max=6"`
	StartTime string `json:"start_time" binding:"required"`
	EndTime   string `json:"end_time" binding:"required"`
	IsActive  *bool  `json:"is_active"`
}

// AddOverrideRequest holds the data for a new date-specific override.
type AddOverrideRequest struct {
	Start       time.Time `json:"start" binding:"required"`
	End         time.Time `json:"end" binding:"required"`
	IsAvailable bool      `json:"is_available"`
}

// ScheduleService manages a provider's recurring windows, overrides and the
// externally synced busy blocks.
type ScheduleService struct {
	repo   schedule.ScheduleRepository
	logger *zap.Logger
}

// NewScheduleService creates a new ScheduleService.
func NewScheduleService(repo schedule.ScheduleRepository, logger *zap.Logger) *ScheduleService {
	return &ScheduleService{repo: repo, logger: logger}
}

// AddRecurringWindow validates and persists a new weekly window for the
// provider.
func (s *ScheduleService) AddRecurringWindow(ctx context.Context, providerID uuid.UUID, req AddRecurringWindowRequest) (*schedule.RecurringWindow, error) {
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	window := schedule.RecurringWindow{
		ID:         uuid.New(),
		ProviderID: providerID,
		DayOfWeek:  time.Weekday(req.DayOfWeek),
		StartClock: req.StartTime,
		EndClock:   req.EndTime,
		IsActive:   active,
	}
	if err := window.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.SaveRecurringWindow(ctx, window); err != nil {
		return nil, fmt.Errorf("failed to save recurring window: %w", err)
	}
	return &window, nil
}

// UpdateRecurringWindow validates and persists changes to an existing window.
func (s *ScheduleService) UpdateRecurringWindow(ctx context.Context, providerID, windowID uuid.UUID, req AddRecurringWindowRequest) (*schedule.RecurringWindow, error) {
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	window := schedule.RecurringWindow{
		ID:         windowID,
		ProviderID: providerID,
		DayOfWeek:  time.Weekday(req.DayOfWeek),
		StartClock: req.StartTime,
		EndClock:   req.EndTime,
		IsActive:   active,
	}
	if err := window.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateRecurringWindow(ctx, window); err != nil {
		return nil, err
	}
	return &window, nil
}

// DeleteRecurringWindow removes a provider's weekly window.
func (s *ScheduleService) DeleteRecurringWindow(ctx context.Context, providerID, windowID uuid.UUID) error {
	return s.repo.DeleteRecurringWindow(ctx, providerID, windowID)
}

// ListRecurringWindows returns all of a provider's weekly windows.
func (s *ScheduleService) ListRecurringWindows(ctx context.Context, providerID uuid.UUID) ([]schedule.RecurringWindow, error) {
	windows, err := s.repo.FindRecurringWindows(ctx, providerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list recurring windows: %w", err)
	}
	return windows, nil
}

// AddOverride validates and persists a new date-specific override.
func (s *ScheduleService) AddOverride(ctx context.Context, providerID uuid.UUID, req AddOverrideRequest) (*schedule.Override, error) {
	override := schedule.Override{
		ID:          uuid.New(),
		ProviderID:  providerID,
		Start:       req.Start.UTC(),
		End:         req.End.UTC(),
		IsAvailable: req.IsAvailable,
	}
	if err := override.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.SaveOverride(ctx, override); err != nil {
		return nil, fmt.Errorf("failed to save override: %w", err)
	}
	return &override, nil
}

// DeleteOverride removes a provider's override.
func (s *ScheduleService) DeleteOverride(ctx context.Context, providerID, overrideID uuid.UUID) error {
	return s.repo.DeleteOverride(ctx, providerID, overrideID)
}

// ListOverrides returns a provider's overrides intersecting [from, to).
func (s *ScheduleService) ListOverrides(ctx context.Context, providerID uuid.UUID, from, to time.Time) ([]schedule.Override, error) {
	overrides, err := s.repo.FindOverridesInRange(ctx, providerID, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to list overrides: %w", err)
	}
	return overrides, nil
}

// SyncBusyBlocks replaces the provider's busy blocks from the given external
// calendar source. Zero-width blocks are dropped rather than stored.
func (s *ScheduleService) SyncBusyBlocks(ctx context.Context, providerID uuid.UUID, source string, blocks []schedule.ExternalBusyBlock) error {
	kept := make([]schedule.ExternalBusyBlock, 0, len(blocks))
	for _, b := range blocks {
		if b.Range().IsZero() {
			continue
		}
		kept = append(kept, b)
	}

	if err := s.repo.ReplaceBusyBlocks(ctx, providerID, source, kept); err != nil {
		return fmt.Errorf("failed to replace busy blocks: %w", err)
	}

	s.logger.Info("busy blocks replaced",
		zap.String("provider_id", providerID.String()),
		zap.String("source", source),
		zap.Int("count", len(kept)),
	)
	return nil
}
