package projection

import (
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func TestWGS84IdentityRoundTrip(t *testing.T) {
	h, err := ForFamily(FamilyWGS84Identity, [15]float64{})
	if err != nil {
		t.Fatalf("ForFamily: %v", err)
	}
	lon, lat := 0.3, -0.2
	x, y, err := h.Forward(lon, lat)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if x != lon || y != lat {
		t.Errorf("Forward() = (%v, %v), want (%v, %v)", x, y, lon, lat)
	}
	gotLon, gotLat, err := h.Inverse(x, y)
	if err != nil {
		t.Fatalf("Inverse: %v", err)
	}
	if gotLon != lon || gotLat != lat {
		t.Errorf("Inverse() = (%v, %v), want (%v, %v)", gotLon, gotLat, lon, lat)
	}
}

func TestWebMercatorRoundTrip(t *testing.T) {
	h, err := ForFamily(FamilyWebMercator, [15]float64{})
	if err != nil {
		t.Fatalf("ForFamily: %v", err)
	}
	lonRad := 8.5 * degToRad
	latRad := 47.3 * degToRad

	x, y, err := h.Forward(lonRad, latRad)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	gotLon, gotLat, err := h.Inverse(x, y)
	if err != nil {
		t.Fatalf("Inverse: %v", err)
	}
	if !almostEqual(gotLon, lonRad, 1e-9) || !almostEqual(gotLat, latRad, 1e-9) {
		t.Errorf("round trip = (%v, %v), want (%v, %v)", gotLon, gotLat, lonRad, latRad)
	}
}

func TestSwissLV95RoundTrip(t *testing.T) {
	h, err := ForFamily(FamilySwissLV95, [15]float64{})
	if err != nil {
		t.Fatalf("ForFamily: %v", err)
	}
	lonRad := 7.45 * degToRad
	latRad := 46.95 * degToRad

	x, y, err := h.Forward(lonRad, latRad)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	gotLon, gotLat, err := h.Inverse(x, y)
	if err != nil {
		t.Fatalf("Inverse: %v", err)
	}
	if !almostEqual(gotLon*radToDeg, lonRad*radToDeg, 1e-4) || !almostEqual(gotLat*radToDeg, latRad*radToDeg, 1e-4) {
		t.Errorf("round trip = (%v, %v) deg, want (%v, %v) deg", gotLon*radToDeg, gotLat*radToDeg, lonRad*radToDeg, latRad*radToDeg)
	}
}

func TestSinusoidalRoundTrip(t *testing.T) {
	h, err := ForFamily(FamilySinusoidal, [15]float64{})
	if err != nil {
		t.Fatalf("ForFamily: %v", err)
	}
	lonRad := -1.0
	latRad := 0.5

	x, y, err := h.Forward(lonRad, latRad)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	gotLon, gotLat, err := h.Inverse(x, y)
	if err != nil {
		t.Fatalf("Inverse: %v", err)
	}
	if !almostEqual(gotLon, lonRad, 1e-9) || !almostEqual(gotLat, latRad, 1e-9) {
		t.Errorf("round trip = (%v, %v), want (%v, %v)", gotLon, gotLat, lonRad, latRad)
	}
}

func TestMollweideRoundTrip(t *testing.T) {
	h, err := ForFamily(FamilyMollweide, [15]float64{})
	if err != nil {
		t.Fatalf("ForFamily: %v", err)
	}
	for _, pt := range [][2]float64{{0.2, 0.4}, {-1.5, -0.9}, {2.8, 0.1}} {
		x, y, err := h.Forward(pt[0], pt[1])
		if err != nil {
			t.Fatalf("Forward(%v): %v", pt, err)
		}
		gotLon, gotLat, err := h.Inverse(x, y)
		if err != nil {
			t.Fatalf("Inverse: %v", err)
		}
		if !almostEqual(gotLon, pt[0], 1e-6) || !almostEqual(gotLat, pt[1], 1e-6) {
			t.Errorf("round trip %v = (%v, %v), want %v", pt, gotLon, gotLat, pt)
		}
	}
}

func TestHammerRoundTrip(t *testing.T) {
	h, err := ForFamily(FamilyHammer, [15]float64{})
	if err != nil {
		t.Fatalf("ForFamily: %v", err)
	}
	for _, pt := range [][2]float64{{0, 0}, {math.Pi / 2, 0}, {0.6, 0.7}, {-2.0, -0.5}} {
		x, y, err := h.Forward(pt[0], pt[1])
		if err != nil {
			t.Fatalf("Forward(%v): %v", pt, err)
		}
		gotLon, gotLat, err := h.Inverse(x, y)
		if err != nil {
			t.Fatalf("Inverse: %v", err)
		}
		if !almostEqual(gotLon, pt[0], 1e-6) || !almostEqual(gotLat, pt[1], 1e-6) {
			t.Errorf("round trip %v = (%v, %v), want %v", pt, gotLon, gotLat, pt)
		}
	}
}

func TestHammerOutOfDomain(t *testing.T) {
	h, _ := ForFamily(FamilyHammer, [15]float64{})
	if _, _, err := h.Inverse(1e9, 1e9); err != ErrOutOfDomain {
		t.Errorf("Inverse() err = %v, want ErrOutOfDomain", err)
	}
}

func TestMollweidePoleOutOfDomain(t *testing.T) {
	h, _ := ForFamily(FamilyMollweide, [15]float64{})
	x, y, err := h.Forward(0, math.Pi/2)
	if err != nil {
		t.Fatalf("Forward at pole: %v", err)
	}
	if _, _, err := h.Inverse(x, y+1e6); err != ErrOutOfDomain {
		t.Errorf("Inverse() err = %v, want ErrOutOfDomain", err)
	}
}

func TestEquals(t *testing.T) {
	a, _ := ForFamily(FamilyWebMercator, [15]float64{})
	b, _ := ForFamily(FamilyWebMercator, [15]float64{})
	c, _ := ForFamily(FamilySinusoidal, [15]float64{1.0})

	if !a.Equals(b) {
		t.Error("same-family same-params handles should be equal")
	}
	if a.Equals(c) {
		t.Error("different families should not be equal")
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		spec    string
		family  Family
		wantErr bool
	}{
		{"wgs84", FamilyWGS84Identity, false},
		{"EPSG:3857", FamilyWebMercator, false},
		{"swisslv95", FamilySwissLV95, false},
		{"+proj=sinu +R=6371000", FamilySinusoidal, false},
		{"+proj=moll", FamilyMollweide, false},
		{"hammer", FamilyHammer, false},
		{"sinosoidal", FamilySinusoidal, false},
		{"nonsense", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			h, err := Parse(tt.spec)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Parse(%q) should fail", tt.spec)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.spec, err)
			}
			if h.Family() != tt.family {
				t.Errorf("Parse(%q).Family() = %v, want %v", tt.spec, h.Family(), tt.family)
			}
		})
	}
}

func TestParseRadiusOverride(t *testing.T) {
	h, err := Parse("+proj=sinu +R=1000")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if h.Params()[0] != 1000 {
		t.Errorf("Params()[0] = %v, want 1000", h.Params()[0])
	}
}
