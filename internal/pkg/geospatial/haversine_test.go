package geospatial

import (
	"math"
	"testing"
)

func TestHaversine_KnownDistance(t *testing.T) {
	// St. Louis Arch grounds to Monks Mound, roughly 12.55 km.
	d := Haversine(38.627, -90.199, 38.655, -90.059)
	if math.Abs(d-12551) > 10 {
		t.Errorf("expected about 12551 m, got %f", d)
	}
}

func TestHaversine_ZeroDistance(t *testing.T) {
	if d := Haversine(38.65, -90.06, 38.65, -90.06); d != 0 {
		t.Errorf("expected 0, got %f", d)
	}
}

func TestPlanarDistance_AgreesWithHaversineAtShortRange(t *testing.T) {
	// A 45 m latitude offset, well inside the deduplication radius regime.
	hav := Haversine(38.655, -90.059, 38.6554, -90.059)
	pla := PlanarDistance(38.655, -90.059, 38.6554, -90.059)
	if math.Abs(hav-pla) > 1 {
		t.Errorf("planar %f and haversine %f diverge beyond 1 m", pla, hav)
	}
}

func TestBoundingBox_ContainsRadius(t *testing.T) {
	lat, lng := 38.65, -90.06
	minLat, minLng, maxLat, maxLng := BoundingBox(lat, lng, 100)

	if minLat >= lat || maxLat <= lat || minLng >= lng || maxLng <= lng {
		t.Fatalf("box does not surround the center: %f %f %f %f", minLat, minLng, maxLat, maxLng)
	}

	// The planar approximation puts each edge within a meter of the radius.
	if d := Haversine(lat, lng, maxLat, lng); math.Abs(d-100) > 1 {
		t.Errorf("north edge %f m from center, expected about 100", d)
	}
	if d := Haversine(lat, lng, lat, maxLng); math.Abs(d-100) > 1 {
		t.Errorf("east edge %f m from center, expected about 100", d)
	}
}
