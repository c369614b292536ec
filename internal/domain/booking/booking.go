package booking

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/tutorlane/service-scheduling/internal/pkg/domain"
)

const bookingNumberChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Booking is the aggregate root for the booking domain. All timestamps are
// UTC instants.
type Booking struct {
	id            uuid.UUID
	bookingNumber string
	providerID    uuid.UUID
	customerID    uuid.UUID
	state         BookingState
	startTime     time.Time
	endTime       time.Time
	notes         string
	declineNote   string
	cancelNote    string

	confirmedAt *time.Time
	declinedAt  *time.Time
	cancelledAt *time.Time
	completedAt *time.Time

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// generateBookingNumber creates a booking number in the format "SB-XXXXXX".
func generateBookingNumber() (string, error) {
	result := make([]byte, 6)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(bookingNumberChars))))
		if err != nil {
			return "", fmt.Errorf("failed to generate booking number: %w", err)
		}
		result[i] = bookingNumberChars[n.Int64()]
	}
	return "SB-" + string(result), nil
}

// NewBooking creates a new Booking aggregate with state=draft.
func NewBooking(
	providerID uuid.UUID,
	customerID uuid.UUID,
	startTime time.Time,
	endTime time.Time,
	notes string,
) (*Booking, error) {
	if providerID == uuid.Nil {
		return nil, domain.NewValidationError("provider ID is required")
	}
	if customerID == uuid.Nil {
		return nil, domain.NewValidationError("customer ID is required")
	}
	if startTime.IsZero() || endTime.IsZero() {
		return nil, domain.NewValidationError("booking start and end times are required")
	}
	if !endTime.After(startTime) {
		return nil, domain.NewValidationError("booking end time must be after start time")
	}

	bookingNumber, err := generateBookingNumber()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Booking{
		id:            uuid.New(),
		bookingNumber: bookingNumber,
		providerID:    providerID,
		customerID:    customerID,
		state:         StateDraft,
		startTime:     startTime.UTC(),
		endTime:       endTime.UTC(),
		notes:         notes,
		version:       1,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id uuid.UUID,
	bookingNumber string,
	providerID uuid.UUID,
	customerID uuid.UUID,
	state BookingState,
	startTime time.Time,
	endTime time.Time,
	notes string,
	declineNote string,
	cancelNote string,
	confirmedAt *time.Time,
	declinedAt *time.Time,
	cancelledAt *time.Time,
	completedAt *time.Time,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
) *Booking {
	return &Booking{
		id:            id,
		bookingNumber: bookingNumber,
		providerID:    providerID,
		customerID:    customerID,
		state:         state,
		startTime:     startTime,
		endTime:       endTime,
		notes:         notes,
		declineNote:   declineNote,
		cancelNote:    cancelNote,
		confirmedAt:   confirmedAt,
		declinedAt:    declinedAt,
		cancelledAt:   cancelledAt,
		completedAt:   completedAt,
		version:       version,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// BookingNumber returns the human-readable booking number.
func (b *Booking) BookingNumber() string { return b.bookingNumber }

// ProviderID returns the provider's user ID.
func (b *Booking) ProviderID() uuid.UUID { return b.providerID }

// CustomerID returns the customer's user ID.
func (b *Booking) CustomerID() uuid.UUID { return b.customerID }

// State returns the current lifecycle state.
func (b *Booking) State() BookingState { return b.state }

// StartTime returns the appointment start instant.
func (b *Booking) StartTime() time.Time { return b.startTime }

// EndTime returns the appointment end instant.
func (b *Booking) EndTime() time.Time { return b.endTime }

// Notes returns any additional notes for the booking.
func (b *Booking) Notes() string { return b.notes }

// DeclineNote returns the decline reason, if any.
func (b *Booking) DeclineNote() string { return b.declineNote }

// CancelNote returns the cancellation reason, if any.
func (b *Booking) CancelNote() string { return b.cancelNote }

// ConfirmedAt returns the time the booking was confirmed.
func (b *Booking) ConfirmedAt() *time.Time { return b.confirmedAt }

// DeclinedAt returns the time the booking was declined.
func (b *Booking) DeclinedAt() *time.Time { return b.declinedAt }

// CancelledAt returns the time the booking was cancelled.
func (b *Booking) CancelledAt() *time.Time { return b.cancelledAt }

// CompletedAt returns the time the booking was marked completed.
func (b *Booking) CompletedAt() *time.Time { return b.completedAt }

// Version returns the entity version for optimistic locking.
func (b *Booking) Version() int64 { return b.version }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// Occupies returns true if the booking reserves calendar time against the
// provider in its current state.
func (b *Booking) Occupies() bool { return b.state.IsActive() }

// --- Behavior ---

// Submit transitions the booking from draft to pending.
func (b *Booking) Submit() error {
	next, err := Transition(b.state, StatePending)
	if err != nil {
		return err
	}
	b.state = next
	b.updatedAt = time.Now().UTC()
	return nil
}

// Confirm transitions the booking from pending to confirmed, reserving the
// slot.
func (b *Booking) Confirm() error {
	next, err := Transition(b.state, StateConfirmed)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	b.state = next
	b.confirmedAt = &now
	b.updatedAt = now
	return nil
}

// Decline transitions the booking from pending to declined.
func (b *Booking) Decline(note string) error {
	next, err := Transition(b.state, StateDeclined)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	b.state = next
	b.declineNote = note
	b.declinedAt = &now
	b.updatedAt = now
	return nil
}

// Modify moves a confirmed booking to modified (or re-edits an already
// modified one via the self-loop) with a new appointment time.
func (b *Booking) Modify(newStart, newEnd time.Time) error {
	if !newEnd.After(newStart) {
		return domain.NewValidationError("booking end time must be after start time")
	}
	next, err := Transition(b.state, StateModified)
	if err != nil {
		return err
	}
	b.state = next
	b.startTime = newStart.UTC()
	b.endTime = newEnd.UTC()
	b.updatedAt = time.Now().UTC()
	return nil
}

// Cancel transitions a confirmed or modified booking to cancelled.
func (b *Booking) Cancel(note string) error {
	next, err := Transition(b.state, StateCancelled)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	b.state = next
	b.cancelNote = note
	b.cancelledAt = &now
	b.updatedAt = now
	return nil
}

// Expire applies the lazy expiry rule to this booking. It returns true when
// the booking was forced from pending to declined because it outlived
// PendingExpiry; the caller must persist the change with an audit entry
// attributed to AuditActorSystem. Non-pending and still-fresh bookings are
// left untouched.
func (b *Booking) Expire(now time.Time) bool {
	decision := CheckExpiry(b.state, b.createdAt, now)
	if !decision.Expired {
		return false
	}
	at := now.UTC()
	b.state = decision.NewState
	b.declineNote = "booking request expired"
	b.declinedAt = &at
	b.updatedAt = at
	return true
}

// CompleteElapsed marks a confirmed or modified booking whose appointment
// time has fully passed as completed. Completed is a further terminal state
// set outside the transition graph, so this does not go through Transition.
func (b *Booking) CompleteElapsed(now time.Time) error {
	if b.state != StateConfirmed && b.state != StateModified {
		return domain.NewInvalidStateError(string(b.state), string(StateCompleted))
	}
	if b.endTime.After(now) {
		return domain.NewValidationError("booking has not ended yet")
	}
	at := now.UTC()
	b.state = StateCompleted
	b.completedAt = &at
	b.updatedAt = at
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
	b.updatedAt = time.Now().UTC()
}
