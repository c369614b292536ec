package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tutorlane/service-scheduling/internal/domain/schedule"
	"github.com/tutorlane/service-scheduling/internal/pkg/domain"
	"gorm.io/gorm"
)

// RecurringWindowModel is the GORM model for the recurring_windows table.
type RecurringWindowModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProviderID uuid.UUID `gorm:"type:uuid;index;not null"`
	DayOfWeek  int       `gorm:"not null"`
	StartClock string    `gorm:"not null;size:5"`
	EndClock   string    `gorm:"not null;size:5"`
	IsActive   bool      `gorm:"not null;default:true"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (RecurringWindowModel) TableName() string {
	return "recurring_windows"
}

// OverrideModel is the GORM model for the availability_overrides table.
type OverrideModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProviderID  uuid.UUID `gorm:"type:uuid;index;not null"`
	StartTime   time.Time `gorm:"not null;index"`
	EndTime     time.Time `gorm:"not null"`
	IsAvailable bool      `gorm:"not null"`
	CreatedAt   time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (OverrideModel) TableName() string {
	return "availability_overrides"
}

// BusyBlockModel is the GORM model for the external_busy_blocks table.
type BusyBlockModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProviderID uuid.UUID `gorm:"type:uuid;index;not null"`
	StartTime  time.Time `gorm:"not null;index"`
	EndTime    time.Time `gorm:"not null"`
	Source     string    `gorm:"not null;size:50;index"`
	CreatedAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BusyBlockModel) TableName() string {
	return "external_busy_blocks"
}

// GormScheduleRepository is the GORM-based implementation of
// ScheduleRepository.
type GormScheduleRepository struct {
	db *gorm.DB
}

// NewGormScheduleRepository creates a new GormScheduleRepository.
func NewGormScheduleRepository(db *gorm.DB) *GormScheduleRepository {
	return &GormScheduleRepository{db: db}
}

// SaveRecurringWindow persists a new recurring window.
func (r *GormScheduleRepository) SaveRecurringWindow(ctx context.Context, window schedule.RecurringWindow) error {
	now := time.Now().UTC()
	model := RecurringWindowModel{
		ID:         window.ID,
		ProviderID: window.ProviderID,
		DayOfWeek:  int(window.DayOfWeek),
		StartClock: window.StartClock,
		EndClock:   window.EndClock,
		IsActive:   window.IsActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("failed to save recurring window: %w", err)
	}
	return nil
}

// UpdateRecurringWindow persists changes to an existing recurring window.
func (r *GormScheduleRepository) UpdateRecurringWindow(ctx context.Context, window schedule.RecurringWindow) error {
	result := r.db.WithContext(ctx).
		Model(&RecurringWindowModel{}).
		Where("id = ? AND provider_id = ?", window.ID, window.ProviderID).
		Updates(map[string]interface{}{
			"day_of_week": int(window.DayOfWeek),
			"start_clock": window.StartClock,
			"end_clock":   window.EndClock,
			"is_active":   window.IsActive,
			"updated_at":  time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update recurring window: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("RecurringWindow", window.ID.String())
	}
	return nil
}

// DeleteRecurringWindow removes a recurring window.
func (r *GormScheduleRepository) DeleteRecurringWindow(ctx context.Context, providerID, windowID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND provider_id = ?", windowID, providerID).
		Delete(&RecurringWindowModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete recurring window: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("RecurringWindow", windowID.String())
	}
	return nil
}

// FindRecurringWindows retrieves all recurring windows for a provider.
func (r *GormScheduleRepository) FindRecurringWindows(ctx context.Context, providerID uuid.UUID) ([]schedule.RecurringWindow, error) {
	var models []RecurringWindowModel
	if err := r.db.WithContext(ctx).
		Where("provider_id = ?", providerID).
		Order("day_of_week ASC, start_clock ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find recurring windows: %w", err)
	}

	windows := make([]schedule.RecurringWindow, len(models))
	for i, m := range models {
		windows[i] = schedule.RecurringWindow{
			ID:         m.ID,
			ProviderID: m.ProviderID,
			DayOfWeek:  time.Weekday(m.DayOfWeek),
			StartClock: m.StartClock,
			EndClock:   m.EndClock,
			IsActive:   m.IsActive,
		}
	}
	return windows, nil
}

// SaveOverride persists a new date-specific override.
func (r *GormScheduleRepository) SaveOverride(ctx context.Context, override schedule.Override) error {
	model := OverrideModel{
		ID:          override.ID,
		ProviderID:  override.ProviderID,
		StartTime:   override.Start,
		EndTime:     override.End,
		IsAvailable: override.IsAvailable,
		CreatedAt:   time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("failed to save override: %w", err)
	}
	return nil
}

// DeleteOverride removes an override.
func (r *GormScheduleRepository) DeleteOverride(ctx context.Context, providerID, overrideID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND provider_id = ?", overrideID, providerID).
		Delete(&OverrideModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete override: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Override", overrideID.String())
	}
	return nil
}

// FindOverridesInRange retrieves a provider's overrides intersecting [from, to).
func (r *GormScheduleRepository) FindOverridesInRange(ctx context.Context, providerID uuid.UUID, from, to time.Time) ([]schedule.Override, error) {
	var models []OverrideModel
	if err := r.db.WithContext(ctx).
		Where("provider_id = ?", providerID).
		Where("start_time < ? AND end_time > ?", to, from).
		Order("start_time ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find overrides: %w", err)
	}

	overrides := make([]schedule.Override, len(models))
	for i, m := range models {
		overrides[i] = schedule.Override{
			ID:          m.ID,
			ProviderID:  m.ProviderID,
			Start:       m.StartTime,
			End:         m.EndTime,
			IsAvailable: m.IsAvailable,
		}
	}
	return overrides, nil
}

// ReplaceBusyBlocks atomically replaces a provider's busy blocks from the
// given sync source with the supplied set.
func (r *GormScheduleRepository) ReplaceBusyBlocks(ctx context.Context, providerID uuid.UUID, source string, blocks []schedule.ExternalBusyBlock) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("provider_id = ? AND source = ?", providerID, source).
			Delete(&BusyBlockModel{}).Error; err != nil {
			return fmt.Errorf("failed to clear busy blocks: %w", err)
		}

		if len(blocks) == 0 {
			return nil
		}

		now := time.Now().UTC()
		models := make([]BusyBlockModel, len(blocks))
		for i, b := range blocks {
			models[i] = BusyBlockModel{
				ID:         b.ID,
				ProviderID: b.ProviderID,
				StartTime:  b.Start,
				EndTime:    b.End,
				Source:     b.Source,
				CreatedAt:  now,
			}
		}
		if err := tx.Create(&models).Error; err != nil {
			return fmt.Errorf("failed to insert busy blocks: %w", err)
		}
		return nil
	})
}

// FindBusyBlocksInRange retrieves a provider's external busy blocks
// intersecting [from, to).
func (r *GormScheduleRepository) FindBusyBlocksInRange(ctx context.Context, providerID uuid.UUID, from, to time.Time) ([]schedule.ExternalBusyBlock, error) {
	var models []BusyBlockModel
	if err := r.db.WithContext(ctx).
		Where("provider_id = ?", providerID).
		Where("start_time < ? AND end_time > ?", to, from).
		Order("start_time ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find busy blocks: %w", err)
	}

	blocks := make([]schedule.ExternalBusyBlock, len(models))
	for i, m := range models {
		blocks[i] = schedule.ExternalBusyBlock{
			ID:         m.ID,
			ProviderID: m.ProviderID,
			Start:      m.StartTime,
			End:        m.EndTime,
			Source:     m.Source,
		}
	}
	return blocks, nil
}
