package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestParseBookingStatus(t *testing.T) {
	for _, s := range []string{"pending", "in-progress", "completed", "dispute", "cancelled"} {
		got, err := ParseBookingStatus(s)
		require.NoError(t, err)
		assert.Equal(t, BookingStatus(s), got)
	}

	_, err := ParseBookingStatus("archived")
	assert.Error(t, err)

	_, err = ParseBookingStatus("Pending")
	assert.Error(t, err, "statuses are case sensitive")
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to BookingStatus
		want     bool
	}{
		{BookingPending, BookingInProgress, true},
		{BookingPending, BookingCompleted, true},
		{BookingPending, BookingDispute, true},
		{BookingPending, BookingCancelled, true},

		{BookingInProgress, BookingCompleted, true},
		{BookingInProgress, BookingDispute, true},
		{BookingInProgress, BookingCancelled, true},
		{BookingInProgress, BookingPending, false},

		{BookingDispute, BookingCompleted, true},
		{BookingDispute, BookingCancelled, true},
		{BookingDispute, BookingInProgress, false},
		{BookingDispute, BookingPending, false},

		{BookingCompleted, BookingPending, false},
		{BookingCompleted, BookingCancelled, false},
		{BookingCancelled, BookingPending, false},
		{BookingCancelled, BookingCompleted, false},

		{BookingPending, BookingPending, false},
		{BookingCompleted, BookingCompleted, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(tt.from, tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

var allStatuses = []BookingStatus{
	BookingPending,
	BookingInProgress,
	BookingCompleted,
	BookingDispute,
	BookingCancelled,
}

// Once a booking reaches completed or cancelled, no sequence of
// transitions can move it anywhere else.
func TestTerminalStatesAbsorbing(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		from := rapid.SampledFrom(allStatuses).Draw(t, "from")
		to := rapid.SampledFrom(allStatuses).Draw(t, "to")

		if from.Terminal() {
			assert.False(t, CanTransition(from, to))
		}
		if CanTransition(from, to) {
			assert.False(t, from.Terminal())
		}
	})
}

// Every allowed path eventually ends in a terminal state: walking the
// transition table never cycles.
func TestTransitionTableIsAcyclic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cur := rapid.SampledFrom(allStatuses).Draw(t, "start")

		seen := map[BookingStatus]bool{cur: true}
		for i := 0; i < len(allStatuses)+1; i++ {
			var next []BookingStatus
			for _, s := range allStatuses {
				if CanTransition(cur, s) {
					next = append(next, s)
				}
			}
			if len(next) == 0 {
				return
			}
			cur = rapid.SampledFrom(next).Draw(t, "step")
			require.False(t, seen[cur], "revisited %s", cur)
			seen[cur] = true
		}
	})
}
