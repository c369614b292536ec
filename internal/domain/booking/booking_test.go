package booking

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBooking(t *testing.T) *Booking {
	t.Helper()
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	bk, err := NewBooking(uuid.New(), uuid.New(), start, start.Add(time.Hour), "first session")
	require.NoError(t, err)
	return bk
}

func TestNewBooking(t *testing.T) {
	bk := newTestBooking(t)

	assert.Equal(t, StateDraft, bk.State())
	assert.Equal(t, int64(1), bk.Version())
	assert.NotEqual(t, uuid.Nil, bk.ID())
	assert.False(t, bk.Occupies())

	assert.True(t, strings.HasPrefix(bk.BookingNumber(), "SB-"))
	assert.Len(t, bk.BookingNumber(), 9)
}

func TestNewBooking_Validation(t *testing.T) {
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	_, err := NewBooking(uuid.Nil, uuid.New(), start, start.Add(time.Hour), "")
	assert.Error(t, err)

	_, err = NewBooking(uuid.New(), uuid.Nil, start, start.Add(time.Hour), "")
	assert.Error(t, err)

	_, err = NewBooking(uuid.New(), uuid.New(), start, start, "")
	assert.Error(t, err, "zero-width appointment must be rejected")

	_, err = NewBooking(uuid.New(), uuid.New(), start.Add(time.Hour), start, "")
	assert.Error(t, err, "inverted appointment must be rejected")
}

func TestBooking_HappyPathLifecycle(t *testing.T) {
	bk := newTestBooking(t)

	require.NoError(t, bk.Submit())
	assert.Equal(t, StatePending, bk.State())
	assert.False(t, bk.Occupies())

	require.NoError(t, bk.Confirm())
	assert.Equal(t, StateConfirmed, bk.State())
	assert.True(t, bk.Occupies())
	assert.NotNil(t, bk.ConfirmedAt())

	newStart := bk.StartTime().Add(2 * time.Hour)
	require.NoError(t, bk.Modify(newStart, newStart.Add(time.Hour)))
	assert.Equal(t, StateModified, bk.State())
	assert.Equal(t, newStart, bk.StartTime())
	assert.True(t, bk.Occupies())

	// The modified self-loop allows further edits.
	again := newStart.Add(time.Hour)
	require.NoError(t, bk.Modify(again, again.Add(time.Hour)))
	assert.Equal(t, StateModified, bk.State())

	require.NoError(t, bk.Cancel("schedule conflict"))
	assert.Equal(t, StateCancelled, bk.State())
	assert.Equal(t, "schedule conflict", bk.CancelNote())
	assert.NotNil(t, bk.CancelledAt())
	assert.False(t, bk.Occupies())
}

func TestBooking_Decline(t *testing.T) {
	bk := newTestBooking(t)
	require.NoError(t, bk.Submit())

	require.NoError(t, bk.Decline("fully booked that week"))
	assert.Equal(t, StateDeclined, bk.State())
	assert.Equal(t, "fully booked that week", bk.DeclineNote())
	assert.NotNil(t, bk.DeclinedAt())

	// Terminal: nothing moves a declined booking.
	assert.Error(t, bk.Submit())
	assert.Error(t, bk.Confirm())
	assert.Error(t, bk.Cancel(""))
}

func TestBooking_IllegalEdges(t *testing.T) {
	bk := newTestBooking(t)

	// Draft cannot jump ahead.
	assert.Error(t, bk.Confirm())
	assert.Error(t, bk.Decline(""))
	assert.Error(t, bk.Cancel(""))
	assert.Error(t, bk.Modify(bk.StartTime(), bk.EndTime().Add(time.Hour)))

	require.NoError(t, bk.Submit())
	// Pending cannot be modified or cancelled before confirmation.
	assert.Error(t, bk.Modify(bk.StartTime(), bk.EndTime().Add(time.Hour)))
	assert.Error(t, bk.Cancel(""))
}

func TestBooking_Expire(t *testing.T) {
	bk := newTestBooking(t)
	require.NoError(t, bk.Submit())

	fresh := bk.CreatedAt().Add(PendingExpiry)
	assert.False(t, bk.Expire(fresh))
	assert.Equal(t, StatePending, bk.State())

	stale := bk.CreatedAt().Add(PendingExpiry + time.Second)
	assert.True(t, bk.Expire(stale))
	assert.Equal(t, StateDeclined, bk.State())
	assert.Equal(t, "booking request expired", bk.DeclineNote())
	assert.NotNil(t, bk.DeclinedAt())

	// Idempotent on a second read.
	assert.False(t, bk.Expire(stale.Add(time.Hour)))
	assert.Equal(t, StateDeclined, bk.State())
}

func TestBooking_Expire_LeavesDraftAlone(t *testing.T) {
	bk := newTestBooking(t)
	assert.False(t, bk.Expire(bk.CreatedAt().Add(100*24*time.Hour)))
	assert.Equal(t, StateDraft, bk.State())
}

func TestBooking_CompleteElapsed(t *testing.T) {
	bk := newTestBooking(t)
	require.NoError(t, bk.Submit())
	require.NoError(t, bk.Confirm())

	// Not yet over.
	assert.Error(t, bk.CompleteElapsed(bk.EndTime().Add(-time.Minute)))
	assert.Equal(t, StateConfirmed, bk.State())

	require.NoError(t, bk.CompleteElapsed(bk.EndTime()))
	assert.Equal(t, StateCompleted, bk.State())
	assert.NotNil(t, bk.CompletedAt())
	assert.True(t, bk.Occupies(), "completed bookings keep occupying their historical slot")

	// Terminal.
	assert.Error(t, bk.Cancel(""))
	assert.Error(t, bk.CompleteElapsed(bk.EndTime().Add(time.Hour)))
}

func TestBooking_CompleteElapsed_RequiresOccupyingState(t *testing.T) {
	bk := newTestBooking(t)
	past := bk.EndTime().Add(time.Hour)

	assert.Error(t, bk.CompleteElapsed(past), "draft cannot complete")

	require.NoError(t, bk.Submit())
	assert.Error(t, bk.CompleteElapsed(past), "pending cannot complete")
}

func TestReconstructBooking_RoundTrip(t *testing.T) {
	bk := newTestBooking(t)
	require.NoError(t, bk.Submit())
	require.NoError(t, bk.Confirm())
	bk.IncrementVersion()

	rebuilt := ReconstructBooking(
		bk.ID(), bk.BookingNumber(), bk.ProviderID(), bk.CustomerID(),
		bk.State(), bk.StartTime(), bk.EndTime(),
		bk.Notes(), bk.DeclineNote(), bk.CancelNote(),
		bk.ConfirmedAt(), bk.DeclinedAt(), bk.CancelledAt(), bk.CompletedAt(),
		bk.Version(), bk.CreatedAt(), bk.UpdatedAt(),
	)

	assert.Equal(t, bk.ID(), rebuilt.ID())
	assert.Equal(t, StateConfirmed, rebuilt.State())
	assert.Equal(t, bk.Version(), rebuilt.Version())
	assert.Equal(t, bk.StartTime(), rebuilt.StartTime())

	// Behavior still works on the rebuilt aggregate.
	require.NoError(t, rebuilt.Cancel("moved away"))
	assert.Equal(t, StateCancelled, rebuilt.State())
}

func TestGenerateBookingNumber_Charset(t *testing.T) {
	for i := 0; i < 50; i++ {
		n, err := generateBookingNumber()
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(n, "SB-"))
		for _, c := range n[3:] {
			assert.Contains(t, bookingNumberChars, string(c))
		}
	}
}
