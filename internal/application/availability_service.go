package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	bookingDomain "github.com/tutorlane/service-scheduling/internal/domain/booking"
	"github.com/tutorlane/service-scheduling/internal/domain/schedule"
	"go.uber.org/zap"
)

// SellableSlotDTO is the response representation of one sellable time range.
type SellableSlotDTO struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ExclusionDTO is the response representation of one excluded time range and
// the reason it is not sellable.
type ExclusionDTO struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Reason string    `json:"reason"`
}

// AvailabilityService computes a provider's sellable slots from fresh
// snapshots of the four availability sources. Results are never cached: a
// slot computed before a conflicting booking commits is stale the instant
// that booking commits.
type AvailabilityService struct {
	scheduleRepo schedule.ScheduleRepository
	bookingRepo  bookingDomain.BookingRepository
	logger       *zap.Logger
}

// NewAvailabilityService creates a new AvailabilityService.
func NewAvailabilityService(
	scheduleRepo schedule.ScheduleRepository,
	bookingRepo bookingDomain.BookingRepository,
	logger *zap.Logger,
) *AvailabilityService {
	return &AvailabilityService{
		scheduleRepo: scheduleRepo,
		bookingRepo:  bookingRepo,
		logger:       logger,
	}
}

// GetSellableSlots compiles the provider's sellable slots inside [from, to).
func (s *AvailabilityService) GetSellableSlots(ctx context.Context, providerID uuid.UUID, from, to time.Time) ([]SellableSlotDTO, error) {
	window, recurring, overrides, occupying, busy, err := s.loadInputs(ctx, providerID, from, to)
	if err != nil {
		return nil, err
	}

	slots := schedule.ComputeSellableSlots(window, time.UTC, recurring, overrides, occupying, busy)
	return toSlotDTOs(slots), nil
}

// GetSellableSlotsDebug is GetSellableSlots plus the excluded ranges tagged
// with the reason each was removed.
func (s *AvailabilityService) GetSellableSlotsDebug(ctx context.Context, providerID uuid.UUID, from, to time.Time) ([]SellableSlotDTO, []ExclusionDTO, error) {
	window, recurring, overrides, occupying, busy, err := s.loadInputs(ctx, providerID, from, to)
	if err != nil {
		return nil, nil, err
	}

	slots, exclusions := schedule.ComputeSellableSlotsDebug(window, time.UTC, recurring, overrides, occupying, busy)

	exclusionDTOs := make([]ExclusionDTO, len(exclusions))
	for i, e := range exclusions {
		exclusionDTOs[i] = ExclusionDTO{
			Start:  e.Range.Start,
			End:    e.Range.End,
			Reason: string(e.Reason),
		}
	}
	return toSlotDTOs(slots), exclusionDTOs, nil
}

// loadInputs fetches a fresh snapshot of the four availability sources.
// Bookings are filtered to occupying states by the repository query.
func (s *AvailabilityService) loadInputs(ctx context.Context, providerID uuid.UUID, from, to time.Time) (
	schedule.TimeRange,
	[]schedule.RecurringWindow,
	[]schedule.Override,
	[]schedule.TimeRange,
	[]schedule.TimeRange,
	error,
) {
	window := schedule.TimeRange{Start: from.UTC(), End: to.UTC()}

	recurring, err := s.scheduleRepo.FindRecurringWindows(ctx, providerID)
	if err != nil {
		return window, nil, nil, nil, nil, fmt.Errorf("failed to load recurring windows: %w", err)
	}

	overrides, err := s.scheduleRepo.FindOverridesInRange(ctx, providerID, window.Start, window.End)
	if err != nil {
		return window, nil, nil, nil, nil, fmt.Errorf("failed to load overrides: %w", err)
	}

	occupyingBookings, err := s.bookingRepo.FindOccupying(ctx, providerID, window.Start, window.End)
	if err != nil {
		return window, nil, nil, nil, nil, fmt.Errorf("failed to load occupying bookings: %w", err)
	}
	occupying := make([]schedule.TimeRange, 0, len(occupyingBookings))
	for _, bk := range occupyingBookings {
		occupying = append(occupying, schedule.TimeRange{Start: bk.StartTime(), End: bk.EndTime()})
	}

	busyBlocks, err := s.scheduleRepo.FindBusyBlocksInRange(ctx, providerID, window.Start, window.End)
	if err != nil {
		return window, nil, nil, nil, nil, fmt.Errorf("failed to load busy blocks: %w", err)
	}
	busy := make([]schedule.TimeRange, 0, len(busyBlocks))
	for _, b := range busyBlocks {
		busy = append(busy, b.Range())
	}

	return window, recurring, overrides, occupying, busy, nil
}

func toSlotDTOs(slots []schedule.TimeRange) []SellableSlotDTO {
	out := make([]SellableSlotDTO, len(slots))
	for i, r := range slots {
		out[i] = SellableSlotDTO{Start: r.Start, End: r.End}
	}
	return out
}
