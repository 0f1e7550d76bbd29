package telemetry

import "math"

// earthRadiusMeters is the mean Earth radius
const earthRadiusMeters = 6371008.8

// Fix is one position sample from a location source
type Fix struct {
	Latitude  float64
	Longitude float64
}

// Valid reports whether the fix holds a usable coordinate
func (f Fix) Valid() bool {
	return !math.IsNaN(f.Latitude) && !math.IsNaN(f.Longitude) &&
		f.Latitude >= -90 && f.Latitude <= 90 &&
		f.Longitude >= -180 && f.Longitude <= 180
}

// Distance returns the great-circle distance between two fixes in meters,
// rounded to the nearest whole meter.
func Distance(a, b Fix) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := lat2 - lat1
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return math.Round(earthRadiusMeters * c)
}

// LocationTracker turns a stream of fixes into distance deltas. The first
// fix after construction or Invalidate only sets the anchor.
type LocationTracker struct {
	previous *Fix
}

// Observe records fix and returns the distance from the previous one.
// ok is false when there was no anchor or the fix is invalid.
func (t *LocationTracker) Observe(fix Fix) (deltaMeters float64, ok bool) {
	if !fix.Valid() {
		return 0, false
	}
	prev := t.previous
	t.previous = &fix
	if prev == nil {
		return 0, false
	}
	return Distance(*prev, fix), true
}

// Invalidate forgets the anchor. Called on every phase transition so that
// distance covered before the transition is not booked to the new phase.
func (t *LocationTracker) Invalidate() {
	t.previous = nil
}

// Anchored reports whether a previous fix is held
func (t *LocationTracker) Anchored() bool {
	return t.previous != nil
}
