// Package mesh holds triangulated surfaces and answers closest-point queries
// against them.
package mesh

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"

	"cryotrack/internal/models"
)

// ErrEmptySurface is returned when a surface has no triangles
var ErrEmptySurface = errors.New("surface has no triangles")

// Triangle indexes three vertices of a Surface
type Triangle [3]int

// Surface is an immutable triangle mesh
type Surface struct {
	Name      string
	Vertices  []models.Point
	Triangles []Triangle

	boxes []box
	tree  *kdtree.Tree

	// vertex -> incident triangles
	incident [][]int
}

type box struct {
	min, max r3.Vec
}

// distanceSq is the squared distance from p to the box (0 inside)
func (b box) distanceSq(p r3.Vec) float64 {
	d := 0.0
	for _, c := range [][3]float64{
		{p.X, b.min.X, b.max.X},
		{p.Y, b.min.Y, b.max.Y},
		{p.Z, b.min.Z, b.max.Z},
	} {
		if c[0] < c[1] {
			d += (c[1] - c[0]) * (c[1] - c[0])
		} else if c[0] > c[2] {
			d += (c[0] - c[2]) * (c[0] - c[2])
		}
	}
	return d
}

// NewSurface validates the triangle indices and builds the search structures
func NewSurface(name string, vertices []models.Point, triangles []Triangle) (*Surface, error) {
	if len(triangles) == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrEmptySurface)
	}
	for i, t := range triangles {
		for _, v := range t {
			if v < 0 || v >= len(vertices) {
				return nil, fmt.Errorf("%s: triangle %d references vertex %d of %d", name, i, v, len(vertices))
			}
		}
	}

	s := &Surface{
		Name:      name,
		Vertices:  vertices,
		Triangles: triangles,
		boxes:     make([]box, len(triangles)),
		incident:  make([][]int, len(vertices)),
	}

	for i, t := range triangles {
		a, b, c := vertices[t[0]], vertices[t[1]], vertices[t[2]]
		s.boxes[i] = box{
			min: r3.Vec{X: min(a.X, b.X, c.X), Y: min(a.Y, b.Y, c.Y), Z: min(a.Z, b.Z, c.Z)},
			max: r3.Vec{X: max(a.X, b.X, c.X), Y: max(a.Y, b.Y, c.Y), Z: max(a.Z, b.Z, c.Z)},
		}
		for _, v := range t {
			s.incident[v] = append(s.incident[v], i)
		}
	}

	// Only vertices used by a triangle go into the tree
	var pts vertexPoints
	for i, v := range vertices {
		if len(s.incident[i]) > 0 {
			pts = append(pts, vertexPoint{Vec: v, index: i})
		}
	}
	s.tree = kdtree.New(pts, false)

	return s, nil
}

// ClosestPoint returns the nearest point on the surface to p and the
// unsigned distance to it. The nearest vertex bounds the search; every
// triangle whose bounding box lies within that bound is then tested exactly,
// so the result does not depend on the vertex density.
func (s *Surface) ClosestPoint(p models.Point) (models.Point, float64) {
	closest, distSq := s.closest(p)
	return closest, math.Sqrt(distSq)
}

// closest breaks ties between equally near triangles by the lower index
func (s *Surface) closest(p models.Point) (models.Point, float64) {
	nearest, boundSq := s.tree.Nearest(vertexPoint{Vec: p})
	seed := nearest.(vertexPoint).index

	best := s.Vertices[seed]
	bestTri := s.incident[seed][0]
	bestSq := boundSq

	for i, t := range s.Triangles {
		if s.boxes[i].distanceSq(p) > bestSq {
			continue
		}
		q := closestOnTriangle(p, s.Vertices[t[0]], s.Vertices[t[1]], s.Vertices[t[2]])
		if d := r3.Norm2(r3.Sub(p, q)); d < bestSq || (d == bestSq && i < bestTri) {
			best, bestSq, bestTri = q, d, i
		}
	}
	return best, bestSq
}

// closestOnTriangle is the Voronoi-region test from Ericson, Real-Time
// Collision Detection, 5.1.5
func closestOnTriangle(p, a, b, c r3.Vec) r3.Vec {
	ab := r3.Sub(b, a)
	ac := r3.Sub(c, a)
	ap := r3.Sub(p, a)

	d1 := r3.Dot(ab, ap)
	d2 := r3.Dot(ac, ap)
	if d1 <= 0 && d2 <= 0 {
		return a
	}

	bp := r3.Sub(p, b)
	d3 := r3.Dot(ab, bp)
	d4 := r3.Dot(ac, bp)
	if d3 >= 0 && d4 <= d3 {
		return b
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		v := d1 / (d1 - d3)
		return r3.Add(a, r3.Scale(v, ab))
	}

	cp := r3.Sub(p, c)
	d5 := r3.Dot(ab, cp)
	d6 := r3.Dot(ac, cp)
	if d6 >= 0 && d5 <= d6 {
		return c
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		w := d2 / (d2 - d6)
		return r3.Add(a, r3.Scale(w, ac))
	}

	va := d3*d6 - d5*d4
	if va <= 0 && (d4-d3) >= 0 && (d5-d6) >= 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		return r3.Add(b, r3.Scale(w, r3.Sub(c, b)))
	}

	denom := va + vb + vc
	if denom == 0 {
		// Degenerate (zero area) triangle: nearest point on its edges
		return closestOnEdges(p, a, b, c)
	}
	v := vb / denom
	w := vc / denom
	return r3.Add(a, r3.Add(r3.Scale(v, ab), r3.Scale(w, ac)))
}

func closestOnEdges(p, a, b, c r3.Vec) r3.Vec {
	best := closestOnSegment(p, a, b)
	bestSq := r3.Norm2(r3.Sub(p, best))
	for _, q := range []r3.Vec{closestOnSegment(p, b, c), closestOnSegment(p, c, a)} {
		if d := r3.Norm2(r3.Sub(p, q)); d < bestSq {
			best, bestSq = q, d
		}
	}
	return best
}

func closestOnSegment(p, a, b r3.Vec) r3.Vec {
	ab := r3.Sub(b, a)
	l := r3.Norm2(ab)
	if l == 0 {
		return a
	}
	t := r3.Dot(r3.Sub(p, a), ab) / l
	t = math.Max(0, math.Min(1, t))
	return r3.Add(a, r3.Scale(t, ab))
}
