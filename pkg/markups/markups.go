// Package markups loads point lists from 3D Slicer markup files (*.mrk.json).
package markups

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"cryotrack/internal/models"
)

// ControlPoint is a single markup point
type ControlPoint struct {
	ID       string
	Label    string
	Position models.Point
}

// File is a decoded markups file. Only the first markup node is used.
type File struct {
	Path   string
	Points []ControlPoint
}

type rawFile struct {
	Markups []struct {
		Type          string `json:"type"`
		ControlPoints []struct {
			ID       json.RawMessage `json:"id"`
			Label    string          `json:"label"`
			Position []float64       `json:"position"`
		} `json:"controlPoints"`
	} `json:"markups"`
}

// Load reads a Slicer markups JSON file
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(path, data)
}

// Parse decodes markups JSON; path is only used for error context
func Parse(path string, data []byte) (*File, error) {
	var raw rawFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("error parsing markups %s: %w", path, err)
	}
	if len(raw.Markups) == 0 {
		return nil, fmt.Errorf("%s: no markups", path)
	}

	f := &File{Path: path}
	for i, cp := range raw.Markups[0].ControlPoints {
		if len(cp.Position) != 3 {
			return nil, fmt.Errorf("%s: control point %d has %d coordinates, expected 3", path, i, len(cp.Position))
		}
		// Slicer writes ids as strings; older files use numbers
		id := strings.Trim(string(cp.ID), `"`)
		f.Points = append(f.Points, ControlPoint{
			ID:       id,
			Label:    cp.Label,
			Position: models.Point{X: cp.Position[0], Y: cp.Position[1], Z: cp.Position[2]},
		})
	}
	return f, nil
}

// Ordered returns the control point positions in file order
func (f *File) Ordered() []models.Point {
	out := make([]models.Point, len(f.Points))
	for i, cp := range f.Points {
		out[i] = cp.Position
	}
	return out
}

// Positions maps integer control point ids, shifted by offset, to positions
func (f *File) Positions(offset int) (map[int]models.Point, error) {
	out := make(map[int]models.Point, len(f.Points))
	for _, cp := range f.Points {
		id, err := strconv.Atoi(cp.ID)
		if err != nil {
			return nil, fmt.Errorf("%s: control point id %q is not an integer", f.Path, cp.ID)
		}
		key := id + offset
		if _, dup := out[key]; dup {
			return nil, fmt.Errorf("%s: duplicate control point id %q", f.Path, cp.ID)
		}
		out[key] = cp.Position
	}
	return out, nil
}
