package geo

import (
	"math"
	"testing"
)

func TestHaversineZeroDistance(t *testing.T) {
	d := HaversineKm(48.78, 9.18, 48.78, 9.18)
	if d != 0 {
		t.Errorf("Expected 0 distance for identical points, got %f", d)
	}
}

func TestHaversineSymmetry(t *testing.T) {
	d1 := HaversineKm(48.78, 9.18, 52.52, 13.40)
	d2 := HaversineKm(52.52, 13.40, 48.78, 9.18)
	if math.Abs(d1-d2) > 1e-9 {
		t.Errorf("Expected symmetric distances, got %f and %f", d1, d2)
	}
}

func TestHaversineKnownDistance(t *testing.T) {
	// Stuttgart to Berlin is roughly 510 km.
	d := HaversineKm(48.78, 9.18, 52.52, 13.40)
	if d < 480 || d > 540 {
		t.Errorf("Expected Stuttgart-Berlin around 510 km, got %f", d)
	}
}

func TestHaversineMonotonic(t *testing.T) {
	near := HaversineKm(48.78, 9.18, 48.80, 9.20)
	far := HaversineKm(48.78, 9.18, 49.50, 10.00)
	if near >= far {
		t.Errorf("Expected nearer point to have smaller distance: near=%f far=%f", near, far)
	}
}

func TestBoundingBox(t *testing.T) {
	box := BoundingBox(48.0, 9.0, 111.0)

	if math.Abs(box.FromLat-47.0) > 1e-9 || math.Abs(box.ToLat-49.0) > 1e-9 {
		t.Errorf("Expected latitude range [47, 49], got [%f, %f]", box.FromLat, box.ToLat)
	}
	if math.Abs(box.FromLon-8.0) > 1e-9 || math.Abs(box.ToLon-10.0) > 1e-9 {
		t.Errorf("Expected longitude range [8, 10], got [%f, %f]", box.FromLon, box.ToLon)
	}
}

func TestBoundingBoxContainsCenter(t *testing.T) {
	box := BoundingBox(48.78, 9.18, 5)
	if box.FromLat >= 48.78 || box.ToLat <= 48.78 {
		t.Error("Bounding box must contain the center latitude")
	}
	if box.FromLon >= 9.18 || box.ToLon <= 9.18 {
		t.Error("Bounding box must contain the center longitude")
	}
}
