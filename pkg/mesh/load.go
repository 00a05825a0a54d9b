package mesh

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cryotrack/internal/models"
	"cryotrack/pkg/stl"
)

// Load reads a surface from a legacy VTK polydata (.vtk) or STL (.stl) file
func Load(path string) (*Surface, error) {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	switch strings.ToLower(filepath.Ext(path)) {
	case ".vtk":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		vertices, triangles, err := ReadVTK(bufio.NewReader(f))
		if err != nil {
			return nil, fmt.Errorf("error reading %s: %w", path, err)
		}
		return NewSurface(name, vertices, triangles)
	case ".stl":
		facets, err := stl.Load(path)
		if err != nil {
			return nil, err
		}
		vertices, triangles := FromSTL(facets)
		return NewSurface(name, vertices, triangles)
	}
	return nil, fmt.Errorf("%s: unsupported mesh format", path)
}

// FromSTL welds identical facet corners into shared vertices
func FromSTL(facets []stl.Triangle) ([]models.Point, []Triangle) {
	index := make(map[[3]float32]int)
	var vertices []models.Point
	vertexOf := func(v [3]float32) int {
		if i, ok := index[v]; ok {
			return i
		}
		index[v] = len(vertices)
		vertices = append(vertices, models.Point{X: float64(v[0]), Y: float64(v[1]), Z: float64(v[2])})
		return index[v]
	}

	triangles := make([]Triangle, len(facets))
	for i, f := range facets {
		triangles[i] = Triangle{vertexOf(f.Vertex1), vertexOf(f.Vertex2), vertexOf(f.Vertex3)}
	}
	return vertices, triangles
}
