package schedule

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tutorlane/service-scheduling/internal/pkg/domain"
)

// TimeRange is a pair of UTC instants. Ranges whose end does not lie strictly
// after their start contribute nothing anywhere in this package.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// IsZero reports whether the range has no width (or negative width).
func (r TimeRange) IsZero() bool {
	return !r.End.After(r.Start)
}

// Intersects reports whether the two ranges share any instant.
func (r TimeRange) Intersects(o TimeRange) bool {
	return r.Start.Before(o.End) && o.Start.Before(r.End)
}

// Clip returns the portion of r that lies inside bounds.
func (r TimeRange) Clip(bounds TimeRange) TimeRange {
	out := r
	if out.Start.Before(bounds.Start) {
		out.Start = bounds.Start
	}
	if out.End.After(bounds.End) {
		out.End = bounds.End
	}
	return out
}

// RecurringWindow is a weekly-repeating availability offer: a day of week and
// a wall-clock start/end ("HH:MM", 24h) on that day. Inactive windows are
// ignored entirely when compiling sellable slots.
type RecurringWindow struct {
	ID         uuid.UUID    `json:"id"`
	ProviderID uuid.UUID    `json:"provider_id"`
	DayOfWeek  time.Weekday `json:"day_of_week"`
	StartClock string       `json:"start_time"`
	EndClock   string       `json:"end_time"`
	IsActive   bool         `json:"is_active"`
}

// Validate checks that the window's clocks parse and that the end lies
// strictly after the start within the same day.
func (w RecurringWindow) Validate() error {
	if w.DayOfWeek < time.Sunday || w.DayOfWeek > time.Saturday {
		return domain.NewValidationError(fmt.Sprintf("invalid day of week: %d", w.DayOfWeek))
	}
	start, ok := parseClock(w.StartClock)
	if !ok {
		return domain.NewValidationError(fmt.Sprintf("invalid start time %q, expected HH:MM", w.StartClock))
	}
	end, ok := parseClock(w.EndClock)
	if !ok {
		return domain.NewValidationError(fmt.Sprintf("invalid end time %q, expected HH:MM", w.EndClock))
	}
	if end <= start {
		return domain.NewValidationError("window end time must be after start time")
	}
	return nil
}

// Override is a date-specific exception scoped to an absolute UTC range.
// IsAvailable=true adds extra sellable time, even outside any recurring
// window; IsAvailable=false removes time regardless of what produced it.
type Override struct {
	ID          uuid.UUID `json:"id"`
	ProviderID  uuid.UUID `json:"provider_id"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	IsAvailable bool      `json:"is_available"`
}

// Validate checks that the override covers a non-empty range.
func (o Override) Validate() error {
	if !o.End.After(o.Start) {
		return domain.NewValidationError("override end must be after start")
	}
	return nil
}

// Range returns the override's time range.
func (o Override) Range() TimeRange {
	return TimeRange{Start: o.Start, End: o.End}
}

// ExternalBusyBlock is a read-only obligation synced from a provider's
// external calendar. Always subtracted, never sellable.
type ExternalBusyBlock struct {
	ID         uuid.UUID `json:"id"`
	ProviderID uuid.UUID `json:"provider_id"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Source     string    `json:"source"`
}

// Range returns the block's time range.
func (b ExternalBusyBlock) Range() TimeRange {
	return TimeRange{Start: b.Start, End: b.End}
}

// parseClock parses a strict "HH:MM" 24h wall-clock value into minutes since
// midnight. Anything malformed returns ok=false; callers drop the range
// rather than erroring, so bad upstream data can never oversell.
func parseClock(clock string) (int, bool) {
	if len(clock) != 5 || clock[2] != ':' {
		return 0, false
	}
	h, ok := twoDigits(clock[0], clock[1])
	if !ok || h > 23 {
		return 0, false
	}
	m, ok := twoDigits(clock[3], clock[4])
	if !ok || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

func twoDigits(a, b byte) (int, bool) {
	if a < '0' || a > '9' || b < '0' || b > '9' {
		return 0, false
	}
	return int(a-'0')*10 + int(b-'0'), true
}
