package geo

import (
	"math"
	"testing"
)

func TestDistanceSymmetry(t *testing.T) {
	pairs := [][4]float64{
		{0, 0, 0, 0.0017},
		{12.9716, 77.5946, 12.9352, 77.6245},
		{-33.8688, 151.2093, 51.5074, -0.1278},
	}
	for _, p := range pairs {
		ab := Distance(p[0], p[1], p[2], p[3])
		ba := Distance(p[2], p[3], p[0], p[1])
		if math.Abs(ab-ba) > 1e-6 {
			t.Errorf("Distance not symmetric: %v vs %v for %v", ab, ba, p)
		}
	}
}

func TestDistanceZero(t *testing.T) {
	if d := Distance(12.9716, 77.5946, 12.9716, 77.5946); d != 0 {
		t.Errorf("Distance(a,a) = %v, want 0", d)
	}
}

func TestDistanceKnownFixtures(t *testing.T) {
	tests := []struct {
		name             string
		lat, lon         float64
		want             float64
		tolerance        float64
		insideRadius200  bool
	}{
		{"189m east of origin", 0, 0.0017, 189, 1, true},
		{"334m east of origin", 0, 0.003, 334, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Distance(0, 0, tt.lat, tt.lon)
			if math.Abs(d-tt.want) > tt.tolerance {
				t.Errorf("Distance = %v, want %v ± %v", d, tt.want, tt.tolerance)
			}
			if inside := d <= 200; inside != tt.insideRadius200 {
				t.Errorf("inside radius 200 = %v, want %v", inside, tt.insideRadius200)
			}
		})
	}
}

func TestDistanceNaNPropagates(t *testing.T) {
	if d := Distance(math.NaN(), 0, 0, 0); !math.IsNaN(d) {
		t.Errorf("Distance with NaN input = %v, want NaN", d)
	}
	// NaN must classify as outside under the caller's d <= radius check.
	if math.NaN() <= 200 {
		t.Error("NaN compared inside a radius")
	}
}
