//go:build integration

package main_test

import (
	"context"
	"testing"
	"time"

	schedulingEvents "github.com/tutorlane/service-scheduling/internal/events"
	"github.com/tutorlane/service-scheduling/internal/pkg/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// nextMonday returns the UTC midnight of a Monday at least a week away, so
// seeded appointments are always in the future.
func nextMonday() time.Time {
	day := time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, 7)
	for day.Weekday() != time.Monday {
		day = day.AddDate(0, 0, 1)
	}
	return day
}

// TestCalendarBusySynced_ShrinksAvailability verifies that when a
// CalendarBusySyncedEvent is published to calendar.events, the consumer
// replaces the provider's busy blocks and the compiled availability reflects
// the hole.
func TestCalendarBusySynced_ShrinksAvailability(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupSchedulingStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()
	defer func() { _ = stack.Consumer.Close() }()

	providerID := uuid.New()
	monday := nextMonday()
	seedRecurringWindow(t, infra.DB, providerID, time.Monday, "09:00", "17:00")

	// Start the consumer.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = stack.Consumer.Start(ctx) }()
	time.Sleep(3 * time.Second) // Wait for consumer group join.

	// Publish a busy sync with one block over the lunch hour.
	evt := schedulingEvents.CalendarBusySyncedEvent{
		ProviderID: providerID,
		Source:     "google",
		Blocks: []schedulingEvents.BusyBlockPayload{
			{Start: monday.Add(12 * time.Hour), End: monday.Add(13 * time.Hour)},
		},
		SyncedAt: time.Now().UTC(),
	}
	publishTestEvent(t, infra.KafkaBrokers, schedulingEvents.TopicCalendarEvents,
		"service-calendar", schedulingEvents.CalendarBusySynced, evt)

	waitForBusyBlocks(t, infra.DB, providerID, "google", 1, 15*time.Second)

	// Availability for that Monday must now have a hole at 12:00-13:00.
	slots, err := stack.Availability.GetSellableSlots(ctx, providerID,
		monday, monday.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, monday.Add(9*time.Hour), slots[0].Start)
	assert.Equal(t, monday.Add(12*time.Hour), slots[0].End)
	assert.Equal(t, monday.Add(13*time.Hour), slots[1].Start)
	assert.Equal(t, monday.Add(17*time.Hour), slots[1].End)
}

// TestConfirmBooking_ReservesSlotAndPublishesEvent verifies the submit/confirm
// flow: confirmation re-checks availability, reserves the slot and publishes a
// booking.confirmed event; a second overlapping request can no longer be
// confirmed.
func TestConfirmBooking_ReservesSlotAndPublishesEvent(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupSchedulingStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()
	defer func() { _ = stack.Consumer.Close() }()

	providerID := uuid.New()
	customerID := uuid.New()
	monday := nextMonday()
	seedRecurringWindow(t, infra.DB, providerID, time.Monday, "09:00", "17:00")

	ctx := context.Background()

	// Customer books 10:00-11:00 and submits.
	firstID := uuid.New()
	seedBookingInState(t, infra.DB, firstID, providerID, customerID, "pending",
		monday.Add(10*time.Hour), monday.Add(11*time.Hour))

	confirmed, err := stack.Bookings.ConfirmBooking(ctx, providerID, firstID)
	require.NoError(t, err)
	assert.Equal(t, "confirmed", confirmed.State)
	assert.NotNil(t, confirmed.ConfirmedAt)

	waitForBookingState(t, infra.DB, firstID, "confirmed", 10*time.Second)

	// Assert: booking.confirmed on booking.events.
	ce := consumeOneEvent(t, infra.KafkaBrokers, schedulingEvents.TopicBookingEvents,
		schedulingEvents.BookingConfirmed, 15*time.Second)

	var confirmedEvt schedulingEvents.BookingConfirmedEvent
	require.NoError(t, ce.ParseData(&confirmedEvt))
	assert.Equal(t, firstID, confirmedEvt.BookingID)
	assert.Equal(t, providerID, confirmedEvt.ProviderID)

	// A second pending request for an overlapping range is rejected with a
	// conflict on confirmation.
	secondID := uuid.New()
	seedBookingInState(t, infra.DB, secondID, providerID, uuid.New(), "pending",
		monday.Add(10*time.Hour+30*time.Minute), monday.Add(11*time.Hour+30*time.Minute))

	_, err = stack.Bookings.ConfirmBooking(ctx, providerID, secondID)
	require.Error(t, err)
	var conflict *domain.ConflictError
	assert.ErrorAs(t, err, &conflict)

	// The audit trail records the confirmation with the provider as actor.
	entries, err := stack.Bookings.GetAuditTrail(ctx, firstID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "provider", entries[0].Actor)
	assert.Equal(t, "pending", string(entries[0].FromState))
	assert.Equal(t, "confirmed", string(entries[0].ToState))
}

// TestPendingExpiry_AppliedOnRead verifies that a pending booking older than
// the expiry window is forced to declined the next time it is read, with the
// correction persisted and attributed to the system.
func TestPendingExpiry_AppliedOnRead(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupSchedulingStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()
	defer func() { _ = stack.Consumer.Close() }()

	providerID := uuid.New()
	customerID := uuid.New()
	monday := nextMonday()

	// Seed a pending booking created 25 hours ago.
	bookingID := uuid.New()
	seedBookingInState(t, infra.DB, bookingID, providerID, customerID, "pending",
		monday.Add(10*time.Hour), monday.Add(11*time.Hour))
	stale := time.Now().UTC().Add(-25 * time.Hour)
	require.NoError(t, infra.DB.Exec(
		"UPDATE bookings SET created_at = ? WHERE id = ?", stale, bookingID).Error)

	ctx := context.Background()
	dto, err := stack.Bookings.GetBooking(ctx, bookingID)
	require.NoError(t, err)
	assert.Equal(t, "declined", dto.State)
	assert.Equal(t, "booking request expired", dto.DeclineNote)

	// The correction is persisted, not just returned.
	model := waitForBookingState(t, infra.DB, bookingID, "declined", 5*time.Second)
	assert.Equal(t, int64(2), model.Version)

	// And attributed to the system in the audit trail.
	entries, err := stack.Bookings.GetAuditTrail(ctx, bookingID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "system", entries[0].Actor)

	// A booking.expired event lands on booking.events.
	ce := consumeOneEvent(t, infra.KafkaBrokers, schedulingEvents.TopicBookingEvents,
		schedulingEvents.BookingExpired, 15*time.Second)
	var expired schedulingEvents.BookingExpiredEvent
	require.NoError(t, ce.ParseData(&expired))
	assert.Equal(t, bookingID, expired.BookingID)
	assert.Equal(t, "system", expired.Actor)
}
