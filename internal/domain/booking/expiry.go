package booking

import "time"

// PendingExpiry is how long a pending booking request stays valid before it
// is forced to declined on read.
const PendingExpiry = 24 * time.Hour

// AuditActorSystem is the audit actor recorded for automated state
// corrections, as opposed to a customer- or provider-initiated change.
const AuditActorSystem = "system"

// ExpiryDecision is the outcome of an expiry check. It never carries an
// error: a booking is either unchanged or transitioned.
type ExpiryDecision struct {
	Expired  bool
	NewState BookingState
}

// CheckExpiry applies the lazy expiry rule: a pending booking older than
// PendingExpiry is forced to declined through the regular transition graph.
// Anything not pending, or pending but still inside the window, is returned
// unchanged. There is no background sweep; callers apply this on every read
// and persist the corrected state (with an audit entry attributed to
// AuditActorSystem) before using the booking.
func CheckExpiry(state BookingState, createdAt, now time.Time) ExpiryDecision {
	if state != StatePending {
		return ExpiryDecision{NewState: state}
	}
	if now.Sub(createdAt) <= PendingExpiry {
		return ExpiryDecision{NewState: state}
	}
	next, err := Transition(StatePending, StateDeclined)
	if err != nil {
		// The pending->declined edge is part of the graph; this cannot fail.
		return ExpiryDecision{NewState: state}
	}
	return ExpiryDecision{Expired: true, NewState: next}
}
