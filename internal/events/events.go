package events

import (
	"time"

	"github.com/google/uuid"
)

// Topics used by the scheduling service.
const (
	TopicBookingEvents  = "booking.events"
	TopicCalendarEvents = "calendar.events"
)

// Event types published on booking.events.
const (
	BookingSubmitted = "booking.submitted"
	BookingConfirmed = "booking.confirmed"
	BookingDeclined  = "booking.declined"
	BookingModified  = "booking.modified"
	BookingCancelled = "booking.cancelled"
	BookingExpired   = "booking.expired"
)

// Event types consumed from calendar.events.
const (
	CalendarBusySynced = "calendar.busy_synced"
)

// BookingSubmittedEvent is published when a draft booking request is
// submitted to the provider.
type BookingSubmittedEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	ProviderID    uuid.UUID `json:"provider_id"`
	CustomerID    uuid.UUID `json:"customer_id"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// BookingConfirmedEvent is published when a provider confirms a pending
// booking, reserving the slot.
type BookingConfirmedEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	ProviderID    uuid.UUID `json:"provider_id"`
	CustomerID    uuid.UUID `json:"customer_id"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// BookingDeclinedEvent is published when a pending booking is declined by
// the provider.
type BookingDeclinedEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	ProviderID    uuid.UUID `json:"provider_id"`
	CustomerID    uuid.UUID `json:"customer_id"`
	Reason        string    `json:"reason"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// BookingModifiedEvent is published when a confirmed booking's appointment
// time is changed.
type BookingModifiedEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	ProviderID    uuid.UUID `json:"provider_id"`
	CustomerID    uuid.UUID `json:"customer_id"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// BookingCancelledEvent is published when a confirmed or modified booking is
// cancelled.
type BookingCancelledEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	ProviderID    uuid.UUID `json:"provider_id"`
	CustomerID    uuid.UUID `json:"customer_id"`
	CancelledBy   uuid.UUID `json:"cancelled_by"`
	Reason        string    `json:"reason"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// BookingExpiredEvent is published when the lazy expiry rule forces a stale
// pending booking to declined. The actor is always the system, never a user.
type BookingExpiredEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	ProviderID    uuid.UUID `json:"provider_id"`
	CustomerID    uuid.UUID `json:"customer_id"`
	Actor         string    `json:"actor"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// BusyBlockPayload is one busy range in a calendar sync event.
type BusyBlockPayload struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// CalendarBusySyncedEvent carries a provider's full set of busy blocks from
// an external calendar source. Consumers replace the provider's stored
// blocks for that source with this set.
type CalendarBusySyncedEvent struct {
	ProviderID uuid.UUID          `json:"provider_id"`
	Source     string             `json:"source"`
	Blocks     []BusyBlockPayload `json:"blocks"`
	SyncedAt   time.Time          `json:"synced_at"`
}
