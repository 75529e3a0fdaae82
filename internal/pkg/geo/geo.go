package geo

import "math"

// HaversineDistance returns the great-circle distance between two
// coordinates in meters.
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadius = 6371000 // meters

	dLat := (lat2 - lat1) * (math.Pi / 180.0)
	dLon := (lon2 - lon1) * (math.Pi / 180.0)

	lat1Rad := lat1 * (math.Pi / 180.0)
	lat2Rad := lat2 * (math.Pi / 180.0)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1Rad)*math.Cos(lat2Rad)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadius * c
}

// Fence is a permitted circular area: a branch's registered location or the
// bounds of an approved free-roaming window.
type Fence struct {
	Latitude     float64
	Longitude    float64
	RadiusMeters float64
}

// Sample is one reported device location.
type Sample struct {
	Latitude  float64
	Longitude float64
	// AccuracyMeters is the device-reported horizontal accuracy.
	// Zero means the device did not report accuracy.
	AccuracyMeters float64
}

// Health is the evaluation outcome for a single sample.
type Health struct {
	InsideArea   bool
	SignalUsable bool
}

// Evaluate classifies a sample against a fence. A sample whose reported
// accuracy exceeds maxAccuracyMeters is not trusted: the signal is flagged
// unusable and the inside/outside question is left answered optimistically,
// so a degraded fix alone never counts as leaving the fence.
func Evaluate(sample Sample, fence Fence, maxAccuracyMeters float64) Health {
	usable := maxAccuracyMeters <= 0 || sample.AccuracyMeters <= maxAccuracyMeters
	if !usable {
		return Health{InsideArea: true, SignalUsable: false}
	}

	distance := HaversineDistance(sample.Latitude, sample.Longitude, fence.Latitude, fence.Longitude)
	return Health{
		InsideArea:   distance <= fence.RadiusMeters,
		SignalUsable: true,
	}
}
