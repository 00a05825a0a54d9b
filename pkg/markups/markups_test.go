package markups

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryotrack/internal/models"
)

const fiducials = `{
  "@schema": "https://raw.githubusercontent.com/slicer/slicer/master/Modules/Loadable/Markups/Resources/Schema/markups-schema-v1.0.3.json#",
  "markups": [
    {
      "type": "Fiducial",
      "coordinateSystem": "LPS",
      "controlPoints": [
        {"id": "1", "label": "F-1", "position": [1.0, 2.0, 3.0]},
        {"id": "2", "label": "F-2", "position": [-4.5, 0.25, 10.0]},
        {"id": 3, "label": "F-3", "position": [7, 8, 9]}
      ]
    }
  ]
}`

func TestParsePositions(t *testing.T) {
	f, err := Parse("fiducials.mrk.json", []byte(fiducials))
	require.NoError(t, err)
	require.Len(t, f.Points, 3)

	byID, err := f.Positions(0)
	require.NoError(t, err)
	assert.Equal(t, models.Point{X: -4.5, Y: 0.25, Z: 10}, byID[2])
	assert.Equal(t, models.Point{X: 7, Y: 8, Z: 9}, byID[3])

	shifted, err := f.Positions(-1)
	require.NoError(t, err)
	assert.Equal(t, models.Point{X: 1, Y: 2, Z: 3}, shifted[0])
	_, ok := shifted[3]
	assert.False(t, ok)
}

func TestOrdered(t *testing.T) {
	f, err := Parse("line.mrk.json", []byte(fiducials))
	require.NoError(t, err)
	pts := f.Ordered()
	require.Len(t, pts, 3)
	assert.Equal(t, models.Point{X: 1, Y: 2, Z: 3}, pts[0])
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"not json":       `{`,
		"no markups":     `{"markups": []}`,
		"short position": `{"markups": [{"controlPoints": [{"id": "1", "position": [1, 2]}]}]}`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse("bad.mrk.json", []byte(content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "bad.mrk.json")
		})
	}
}

func TestPositionsRejectsDuplicates(t *testing.T) {
	f, err := Parse("dup.mrk.json", []byte(`{"markups": [{"controlPoints": [
		{"id": "1", "position": [0, 0, 0]}, {"id": "1", "position": [1, 1, 1]}]}]}`))
	require.NoError(t, err)
	_, err = f.Positions(0)
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tip.mrk.json")
	require.NoError(t, os.WriteFile(path, []byte(fiducials), 0644))

	f, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, f.Path)

	_, err = Load(filepath.Join(t.TempDir(), "missing.mrk.json"))
	assert.Error(t, err)
}
