package analysis

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"cryotrack/internal/models"
	"cryotrack/pkg/markups"
	"cryotrack/pkg/metrics"
)

// Line is a needle path from skin entry to the final tip position
type Line struct {
	Entry models.Point
	Final models.Point
}

// Depth is the length of the needle path
func (l Line) Depth() float64 {
	return metrics.Depth(l.Entry, l.Final)
}

// NormalizeLine orients a two point line markup. The first control point is
// taken as the final tip position and the second as the entry point, unless
// the entry is closer to reference (the tumour) than the final point: some
// markups were placed in reverse order, in which case the two are swapped and
// swapped is true.
func NormalizeLine(first, second, reference models.Point) (line Line, swapped bool) {
	line = Line{Final: first, Entry: second}
	if r3.Norm(r3.Sub(reference, line.Entry)) < r3.Norm(r3.Sub(reference, line.Final)) {
		return Line{Final: second, Entry: first}, true
	}
	return line, false
}

// lineFromMarkups reads the first two control points of a line markup
func lineFromMarkups(f *markups.File, reference models.Point) (Line, bool, error) {
	points := f.Ordered()
	if len(points) < 2 {
		return Line{}, false, fmt.Errorf("%s: line markup has %d control points, expected 2", f.Path, len(points))
	}
	line, swapped := NormalizeLine(points[0], points[1], reference)
	return line, swapped, nil
}
