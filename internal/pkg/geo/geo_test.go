package geo

import (
	"math"
	"testing"
)

func TestHaversineDistance(t *testing.T) {
	cases := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64 // meters
		tolerance              float64
	}{
		{"same point", -6.2, 106.8, -6.2, 106.8, 0, 0.001},
		// Jakarta Monas to Istiqlal Mosque, roughly 700m
		{"short hop", -6.1754, 106.8272, -6.1702, 106.8310, 700, 60},
		// Jakarta to Surabaya, roughly 663km
		{"long haul", -6.2088, 106.8456, -7.2575, 112.7521, 663000, 5000},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := HaversineDistance(c.lat1, c.lon1, c.lat2, c.lon2)
			if math.Abs(got-c.want) > c.tolerance {
				t.Errorf("HaversineDistance() = %.1f, want %.1f ± %.1f", got, c.want, c.tolerance)
			}
		})
	}
}

func TestEvaluate(t *testing.T) {
	fence := Fence{Latitude: -6.2088, Longitude: 106.8456, RadiusMeters: 100}

	t.Run("inside fence", func(t *testing.T) {
		h := Evaluate(Sample{Latitude: -6.2088, Longitude: 106.8456, AccuracyMeters: 10}, fence, 50)
		if !h.InsideArea || !h.SignalUsable {
			t.Errorf("Evaluate() = %+v, want inside and usable", h)
		}
	})

	t.Run("outside fence", func(t *testing.T) {
		// ~1.1km north of the fence center
		h := Evaluate(Sample{Latitude: -6.1988, Longitude: 106.8456, AccuracyMeters: 10}, fence, 50)
		if h.InsideArea {
			t.Errorf("Evaluate() = %+v, want outside", h)
		}
		if !h.SignalUsable {
			t.Errorf("Evaluate() = %+v, want usable signal", h)
		}
	})

	t.Run("degraded accuracy is unusable, not outside", func(t *testing.T) {
		h := Evaluate(Sample{Latitude: -6.1988, Longitude: 106.8456, AccuracyMeters: 500}, fence, 50)
		if h.SignalUsable {
			t.Errorf("Evaluate() = %+v, want unusable signal", h)
		}
		if !h.InsideArea {
			t.Errorf("Evaluate() = %+v, degraded fix must not count as leaving the fence", h)
		}
	})

	t.Run("zero ceiling trusts any accuracy", func(t *testing.T) {
		h := Evaluate(Sample{Latitude: -6.2088, Longitude: 106.8456, AccuracyMeters: 9999}, fence, 0)
		if !h.SignalUsable {
			t.Errorf("Evaluate() = %+v, want usable when no ceiling configured", h)
		}
	})
}
