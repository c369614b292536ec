package schedule

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ScheduleRepository defines the persistence contract for a provider's
// recurring windows, overrides and external busy blocks.
type ScheduleRepository interface {
	// SaveRecurringWindow persists a new recurring window.
	SaveRecurringWindow(ctx context.Context, window RecurringWindow) error

	// UpdateRecurringWindow persists changes to an existing recurring window.
	UpdateRecurringWindow(ctx context.Context, window RecurringWindow) error

	// DeleteRecurringWindow removes a recurring window.
	DeleteRecurringWindow(ctx context.Context, providerID, windowID uuid.UUID) error

	// FindRecurringWindows retrieves all recurring windows for a provider,
	// active and inactive.
	FindRecurringWindows(ctx context.Context, providerID uuid.UUID) ([]RecurringWindow, error)

	// SaveOverride persists a new date-specific override.
	SaveOverride(ctx context.Context, override Override) error

	// DeleteOverride removes an override.
	DeleteOverride(ctx context.Context, providerID, overrideID uuid.UUID) error

	// FindOverridesInRange retrieves a provider's overrides intersecting
	// [from, to).
	FindOverridesInRange(ctx context.Context, providerID uuid.UUID, from, to time.Time) ([]Override, error)

	// ReplaceBusyBlocks atomically replaces a provider's busy blocks from the
	// given sync source with the supplied set.
	ReplaceBusyBlocks(ctx context.Context, providerID uuid.UUID, source string, blocks []ExternalBusyBlock) error

	// FindBusyBlocksInRange retrieves a provider's external busy blocks
	// intersecting [from, to).
	FindBusyBlocksInRange(ctx context.Context, providerID uuid.UUID, from, to time.Time) ([]ExternalBusyBlock, error)
}
