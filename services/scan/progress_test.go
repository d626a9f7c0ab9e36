package scan

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTrackerUpdate(t *testing.T) {
	tracker := Tracker{SecondsPerUnit: 12}

	p := tracker.Update(0, 9)
	require.Equal(t, 0.0, p.Percentage)
	require.Equal(t, 108, p.EstimatedSecondsRemaining)

	p = tracker.Update(3, 9)
	require.InDelta(t, 33.33, p.Percentage, 0.01)
	require.Equal(t, 72, p.EstimatedSecondsRemaining)

	p = tracker.Update(9, 9)
	require.Equal(t, 100.0, p.Percentage)
	require.Equal(t, 0, p.EstimatedSecondsRemaining)
}

func TestTrackerClampsOverrun(t *testing.T) {
	tracker := Tracker{}
	// the total is an estimate, completed can run past it
	p := tracker.Update(12, 9)
	require.Equal(t, 100.0, p.Percentage)
	require.Equal(t, 0, p.EstimatedSecondsRemaining)
}

func TestTrackerZeroTotal(t *testing.T) {
	tracker := Tracker{}
	p := tracker.Update(5, 0)
	require.Equal(t, 0.0, p.Percentage)
	require.Equal(t, 0, p.EstimatedSecondsRemaining)
}

func TestTrackerMonotone(t *testing.T) {
	tracker := Tracker{}
	last := -1.0
	for completed := 0; completed <= 20; completed++ {
		p := tracker.Update(completed, 15)
		require.GreaterOrEqual(t, p.Percentage, last)
		last = p.Percentage
	}
}
