package metrics

import (
	"errors"
	"math"
	"testing"

	"cryotrack/internal/models"
)

// TestEuclideanErrorIdentity verifies that a point has zero error against itself
func TestEuclideanErrorIdentity(t *testing.T) {
	points := []models.Point{
		{},
		{X: 1.5, Y: -2, Z: 3},
		{X: -120.25, Y: 48.5, Z: 1012},
	}
	for _, p := range points {
		if got := EuclideanError(p, p); got != 0 {
			t.Errorf("EuclideanError(%v, %v) = %f, expected 0", p, p, got)
		}
	}
}

// TestEuclideanErrorSymmetry verifies the error does not depend on argument order
func TestEuclideanErrorSymmetry(t *testing.T) {
	a := models.Point{X: 1, Y: 2, Z: 3}
	b := models.Point{X: 4, Y: 6, Z: 3}

	ab := EuclideanError(a, b)
	ba := EuclideanError(b, a)
	if ab != ba {
		t.Errorf("Expected symmetric error, got %f and %f", ab, ba)
	}
	if math.Abs(ab-5) > 1e-12 {
		t.Errorf("Expected distance 5, got %f", ab)
	}
}

// TestEuclideanErrorPropagatesNaN verifies non-finite input is not masked
func TestEuclideanErrorPropagatesNaN(t *testing.T) {
	got := EuclideanError(models.Point{X: math.NaN()}, models.Point{})
	if !math.IsNaN(got) {
		t.Errorf("Expected NaN, got %f", got)
	}
}

// TestLateralErrorOnPath verifies the target itself has no lateral deviation
func TestLateralErrorOnPath(t *testing.T) {
	target := models.Point{X: 12.3, Y: -4.7, Z: 88.1}
	entry := models.Point{X: 60.2, Y: 15.9, Z: 40.4}

	got, err := LateralError(target, entry, target)
	if err != nil {
		t.Fatalf("LateralError returned error: %v", err)
	}
	if got != 0 {
		t.Errorf("Expected zero lateral error for the target itself, got %g", got)
	}
}

// TestLateralErrorOrthogonal checks the reference right-angle configuration
func TestLateralErrorOrthogonal(t *testing.T) {
	target := models.Point{X: 0, Y: 0, Z: 0}
	entry := models.Point{X: 1, Y: 0, Z: 0}
	achieved := models.Point{X: 1, Y: 1, Z: 0}

	got, err := LateralError(target, entry, achieved)
	if err != nil {
		t.Fatalf("LateralError returned error: %v", err)
	}
	if math.Abs(got-1.0) > 1e-12 {
		t.Errorf("Expected lateral error 1.0, got %f", got)
	}
}

// TestLateralErrorScalesWithPlannedDepth verifies the result is scaled by
// |target-entry| rather than by the achieved depth
func TestLateralErrorScalesWithPlannedDepth(t *testing.T) {
	target := models.Point{X: 0, Y: 0, Z: 0}
	entry := models.Point{X: 10, Y: 0, Z: 0}

	// 45 degrees off the path, achieved depth much shorter than planned
	achieved := models.Point{X: 9, Y: 1, Z: 0}

	got, err := LateralError(target, entry, achieved)
	if err != nil {
		t.Fatalf("LateralError returned error: %v", err)
	}
	expected := 10 * math.Sin(math.Pi/4)
	if math.Abs(got-expected) > 1e-9 {
		t.Errorf("Expected %f, got %f", expected, got)
	}

	if got < 0 {
		t.Errorf("Lateral error must be non-negative, got %f", got)
	}
}

// TestLateralErrorDegenerate verifies zero-length vectors are reported
func TestLateralErrorDegenerate(t *testing.T) {
	p := models.Point{X: 3, Y: 4, Z: 5}
	q := models.Point{X: 1, Y: 1, Z: 1}

	cases := []struct {
		name                    string
		target, entry, achieved models.Point
	}{
		{"entry equals target", p, p, q},
		{"entry equals achieved", q, p, p},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LateralError(tc.target, tc.entry, tc.achieved)
			if err == nil {
				t.Fatal("Expected an error for degenerate geometry")
			}
			if !errors.Is(err, ErrDegenerateGeometry) {
				t.Errorf("Expected ErrDegenerateGeometry, got %v", err)
			}
			var dge *DegenerateGeometryError
			if !errors.As(err, &dge) {
				t.Fatalf("Expected *DegenerateGeometryError, got %T", err)
			}
			if dge.Entry != tc.entry {
				t.Errorf("Error should carry the entry point, got %v", dge.Entry)
			}
		})
	}
}

// TestDepth verifies the needle path length
func TestDepth(t *testing.T) {
	got := Depth(models.Point{X: 1, Y: 1, Z: 1}, models.Point{X: 1, Y: 1, Z: 11})
	if got != 10 {
		t.Errorf("Expected depth 10, got %f", got)
	}
}

// BenchmarkLateralError benchmarks the lateral error computation
func BenchmarkLateralError(b *testing.B) {
	target := models.Point{X: 12.3, Y: -4.7, Z: 88.1}
	entry := models.Point{X: 60.2, Y: 15.9, Z: 40.4}
	achieved := models.Point{X: 14.1, Y: -2.2, Z: 85.0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = LateralError(target, entry, achieved)
	}
}
