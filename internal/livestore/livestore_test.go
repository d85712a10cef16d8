package livestore

import (
	"math"
	"testing"
)

func TestFormatParsePosition(t *testing.T) {
	tests := []struct {
		lat, lon float64
	}{
		{0, 0},
		{12.9716, 77.5946},
		{-33.8688, 151.2093},
		{0.000001, -0.000001},
	}
	for _, tt := range tests {
		raw := formatPosition(tt.lat, tt.lon)
		lat, lon, err := parsePosition(raw)
		if err != nil {
			t.Fatalf("parsePosition(%q): %v", raw, err)
		}
		if math.Abs(lat-tt.lat) > 1e-12 || math.Abs(lon-tt.lon) > 1e-12 {
			t.Errorf("round trip (%v,%v) -> (%v,%v)", tt.lat, tt.lon, lat, lon)
		}
	}
}

func TestParsePositionRejectsMalformed(t *testing.T) {
	for _, raw := range []string{"", "12.5", "a,b", "12.5,", ",77.6", "12.5;77.6"} {
		if _, _, err := parsePosition(raw); err == nil {
			t.Errorf("parsePosition(%q) succeeded, want error", raw)
		}
	}
}

func TestKeyPrefixesDistinct(t *testing.T) {
	// Position and marker keys share the store; a clash would make marker
	// reads see coordinates.
	if posPrefix == oobPrefix {
		t.Fatal("position and marker prefixes collide")
	}
}
