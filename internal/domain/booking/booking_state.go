package booking

import (
	"fmt"

	"github.com/tutorlane/service-scheduling/internal/pkg/domain"
)

// BookingState represents the current state of a booking in its lifecycle.
type BookingState string

const (
	StateDraft     BookingState = "draft"
	StatePending   BookingState = "pending"
	StateConfirmed BookingState = "confirmed"
	StateModified  BookingState = "modified"
	StateDeclined  BookingState = "declined"
	StateCancelled BookingState = "cancelled"

	// StateCompleted is reached once a confirmed or modified booking's time
	// has passed. It is set through CompleteElapsed, never through Transition,
	// so it has no inbound edge in the transition table.
	StateCompleted BookingState = "completed"
)

// validTransitions defines the state machine for booking lifecycle
// transitions. Every edge not listed here is forbidden. The modified
// self-loop covers re-editing booking details without changing lifecycle
// stage.
var validTransitions = map[BookingState][]BookingState{
	StateDraft:     {StatePending},
	StatePending:   {StateConfirmed, StateDeclined},
	StateConfirmed: {StateModified, StateCancelled},
	StateModified:  {StateModified, StateCancelled},
	StateDeclined:  {},
	StateCancelled: {},
	StateCompleted: {},
}

// Transition returns target if the edge current->target exists in the
// transition graph, and an InvalidStateError naming both states otherwise.
// There is no silent coercion: an illegal edge always fails.
func Transition(current, target BookingState) (BookingState, error) {
	if !current.CanTransitionTo(target) {
		return "", domain.NewInvalidStateError(string(current), string(target))
	}
	return target, nil
}

// IsValid returns true if the state is a recognized booking state.
func (s BookingState) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// CanTransitionTo returns true if a transition from this state to the target
// is allowed.
func (s BookingState) CanTransitionTo(target BookingState) bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further transitions are possible from this
// state.
func (s BookingState) IsTerminal() bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return true
	}
	return len(allowed) == 0
}

// IsActive returns true if the state occupies real calendar time against the
// provider. Draft and pending requests do not reserve a slot yet; declined
// and cancelled bookings never do.
func (s BookingState) IsActive() bool {
	switch s {
	case StateConfirmed, StateModified, StateCompleted:
		return true
	}
	return false
}

// String returns the string representation of the state.
func (s BookingState) String() string {
	return string(s)
}

// ParseBookingState converts a string to a BookingState, returning an error
// if invalid.
func ParseBookingState(s string) (BookingState, error) {
	state := BookingState(s)
	if !state.IsValid() {
		return "", fmt.Errorf("invalid booking state: %s", s)
	}
	return state, nil
}
