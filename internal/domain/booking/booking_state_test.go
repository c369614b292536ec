package booking

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tutorlane/service-scheduling/internal/pkg/domain"
)

func allStates() []BookingState {
	return []BookingState{
		StateDraft, StatePending, StateConfirmed, StateModified,
		StateDeclined, StateCancelled, StateCompleted,
	}
}

func TestTransition_AllowedEdges(t *testing.T) {
	allowed := []struct {
		from, to BookingState
	}{
		{StateDraft, StatePending},
		{StatePending, StateConfirmed},
		{StatePending, StateDeclined},
		{StateConfirmed, StateModified},
		{StateConfirmed, StateCancelled},
		{StateModified, StateModified},
		{StateModified, StateCancelled},
	}

	for _, edge := range allowed {
		next, err := Transition(edge.from, edge.to)
		require.NoError(t, err, "%s -> %s should be allowed", edge.from, edge.to)
		assert.Equal(t, edge.to, next)
	}
}

func TestTransition_EveryOtherPairIsRejected(t *testing.T) {
	allowed := map[BookingState]map[BookingState]bool{
		StateDraft:     {StatePending: true},
		StatePending:   {StateConfirmed: true, StateDeclined: true},
		StateConfirmed: {StateModified: true, StateCancelled: true},
		StateModified:  {StateModified: true, StateCancelled: true},
	}

	for _, from := range allStates() {
		for _, to := range allStates() {
			if allowed[from][to] {
				continue
			}
			_, err := Transition(from, to)
			require.Error(t, err, "%s -> %s must be rejected", from, to)

			var stateErr *domain.InvalidStateError
			require.True(t, errors.As(err, &stateErr))
			assert.Equal(t, string(from), stateErr.From)
			assert.Equal(t, string(to), stateErr.To)
		}
	}
}

func TestTransition_UnknownStateIsRejected(t *testing.T) {
	_, err := Transition(BookingState("shipped"), StateConfirmed)
	assert.Error(t, err)

	_, err = Transition(StatePending, BookingState("shipped"))
	assert.Error(t, err)
}

func TestBookingState_IsTerminal(t *testing.T) {
	assert.True(t, StateDeclined.IsTerminal())
	assert.True(t, StateCancelled.IsTerminal())
	assert.True(t, StateCompleted.IsTerminal())

	assert.False(t, StateDraft.IsTerminal())
	assert.False(t, StatePending.IsTerminal())
	assert.False(t, StateConfirmed.IsTerminal())
	assert.False(t, StateModified.IsTerminal())
}

func TestBookingState_IsActive(t *testing.T) {
	assert.True(t, StateConfirmed.IsActive())
	assert.True(t, StateModified.IsActive())
	assert.True(t, StateCompleted.IsActive())

	assert.False(t, StateDraft.IsActive())
	assert.False(t, StatePending.IsActive())
	assert.False(t, StateDeclined.IsActive())
	assert.False(t, StateCancelled.IsActive())
}

func TestParseBookingState(t *testing.T) {
	for _, s := range allStates() {
		parsed, err := ParseBookingState(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}

	_, err := ParseBookingState("delivered")
	assert.Error(t, err)

	_, err = ParseBookingState("")
	assert.Error(t, err)
}
