package mesh

import (
	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"
)

// vertexPoint is a mesh vertex that satisfies kdtree.Comparable
type vertexPoint struct {
	r3.Vec
	index int
}

// Compare implements the kdtree.Comparable interface
func (p vertexPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(vertexPoint)
	switch d {
	case 0:
		return p.X - q.X
	case 1:
		return p.Y - q.Y
	case 2:
		return p.Z - q.Z
	default:
		panic("illegal dimension")
	}
}

// Dims returns the number of dimensions for the KD-tree
func (p vertexPoint) Dims() int { return 3 }

// Distance returns the squared Euclidean distance between two points
func (p vertexPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(vertexPoint)
	return r3.Norm2(r3.Sub(p.Vec, q.Vec))
}

// vertexPoints satisfies kdtree.Interface
type vertexPoints []vertexPoint

func (p vertexPoints) Index(i int) kdtree.Comparable         { return p[i] }
func (p vertexPoints) Len() int                              { return len(p) }
func (p vertexPoints) Slice(start, end int) kdtree.Interface { return p[start:end] }

// Pivot uses median of medians so the tree, and therefore tie-breaking
// between equidistant vertices, is the same on every run
func (p vertexPoints) Pivot(d kdtree.Dim) int {
	return kdtree.Partition(vertexPlane{vertexPoints: p, Dim: d}, kdtree.MedianOfMedians(vertexPlane{vertexPoints: p, Dim: d}))
}

// vertexPlane implements kdtree.SortSlicer for vertexPoints
type vertexPlane struct {
	vertexPoints
	kdtree.Dim
}

func (p vertexPlane) Less(i, j int) bool {
	switch p.Dim {
	case 0:
		return p.vertexPoints[i].X < p.vertexPoints[j].X
	case 1:
		return p.vertexPoints[i].Y < p.vertexPoints[j].Y
	case 2:
		return p.vertexPoints[i].Z < p.vertexPoints[j].Z
	default:
		panic("illegal dimension")
	}
}

func (p vertexPlane) Slice(start, end int) kdtree.SortSlicer {
	return vertexPlane{vertexPoints: p.vertexPoints[start:end], Dim: p.Dim}
}

func (p vertexPlane) Swap(i, j int) {
	p.vertexPoints[i], p.vertexPoints[j] = p.vertexPoints[j], p.vertexPoints[i]
}
