// Package metrics computes the scalar accuracy measures of a needle insertion
// from raw 3D point observations.
package metrics

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"cryotrack/internal/models"
)

// ErrDegenerateGeometry is matched by every DegenerateGeometryError
var ErrDegenerateGeometry = errors.New("degenerate geometry")

// DegenerateGeometryError reports a zero-length reference vector in the
// lateral error computation
type DegenerateGeometryError struct {
	Target, Entry, Achieved models.Point
}

func (e *DegenerateGeometryError) Error() string {
	return fmt.Sprintf("lateral error undefined: entry %v coincides with target %v or achieved point %v",
		e.Entry, e.Target, e.Achieved)
}

// Is makes errors.Is(err, ErrDegenerateGeometry) hold
func (e *DegenerateGeometryError) Is(target error) bool {
	return target == ErrDegenerateGeometry
}

// EuclideanError returns the straight-line distance between the achieved
// point and the reference point. Non-finite inputs propagate.
func EuclideanError(achieved, reference models.Point) float64 {
	return r3.Norm(r3.Sub(achieved, reference))
}

// LateralError returns the deviation of the achieved point from the planned
// path entry->target. With ba = target-entry and bc = achieved-entry the
// result is |ba|*sin(angle(ba, bc)): the entry is the pivot and the planned
// depth is the reference length.
func LateralError(target, entry, achieved models.Point) (float64, error) {
	ba := r3.Sub(target, entry)
	bc := r3.Sub(achieved, entry)
	nba := r3.Norm(ba)
	nbc := r3.Norm(bc)
	if nba == 0 || nbc == 0 {
		return 0, &DegenerateGeometryError{Target: target, Entry: entry, Achieved: achieved}
	}

	// sin(angle) from the cross product is exact for collinear inputs,
	// where acos of a rounded cosine is not.
	sine := r3.Norm(r3.Cross(ba, bc)) / (nba * nbc)
	return nba * sine, nil
}

// Depth is the length of the needle path from entry to final point
func Depth(entry, final models.Point) float64 {
	return r3.Norm(r3.Sub(final, entry))
}
