package telemetry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistance_KnownPairs(t *testing.T) {
	// One degree of latitude along a meridian
	d := Distance(Fix{Latitude: 0, Longitude: 0}, Fix{Latitude: 1, Longitude: 0})
	assert.InDelta(t, 111195, d, 1)

	assert.Equal(t, 0.0, Distance(Fix{Latitude: 51.5, Longitude: -0.12}, Fix{Latitude: 51.5, Longitude: -0.12}))

	// Result is whole meters
	d = Distance(Fix{Latitude: 40.0, Longitude: -75.0}, Fix{Latitude: 40.0001, Longitude: -75.0001})
	assert.Equal(t, math.Round(d), d)
}

func TestLocationTracker_FirstFixOnlyAnchors(t *testing.T) {
	var tracker LocationTracker
	a := Fix{Latitude: 40, Longitude: -75}
	b := Fix{Latitude: 40.001, Longitude: -75}

	_, ok := tracker.Observe(a)
	assert.False(t, ok)
	assert.True(t, tracker.Anchored())

	delta, ok := tracker.Observe(b)
	require.True(t, ok)
	assert.Equal(t, Distance(a, b), delta)
}

func TestLocationTracker_InvalidateDropsAnchor(t *testing.T) {
	var tracker LocationTracker
	tracker.Observe(Fix{Latitude: 40, Longitude: -75})
	tracker.Invalidate()
	assert.False(t, tracker.Anchored())

	_, ok := tracker.Observe(Fix{Latitude: 41, Longitude: -75})
	assert.False(t, ok)
}

func TestLocationTracker_IgnoresInvalidFix(t *testing.T) {
	var tracker LocationTracker
	tracker.Observe(Fix{Latitude: 40, Longitude: -75})

	_, ok := tracker.Observe(Fix{Latitude: 95, Longitude: 0})
	assert.False(t, ok)
	_, ok = tracker.Observe(Fix{Latitude: math.NaN(), Longitude: 0})
	assert.False(t, ok)

	// The anchor survives bad fixes
	_, ok = tracker.Observe(Fix{Latitude: 40.001, Longitude: -75})
	assert.True(t, ok)
}
