package analysis

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"cryotrack/internal/models"
	"cryotrack/pkg/metrics"
)

// pointSurface is a surface collapsed to a single point
type pointSurface struct{ at models.Point }

func (s pointSurface) ClosestPoint(p models.Point) (models.Point, float64) {
	return s.at, r3.Norm(r3.Sub(p, s.at))
}

// planeSurface is the infinite plane z = height
type planeSurface struct{ height float64 }

func (s planeSurface) ClosestPoint(p models.Point) (models.Point, float64) {
	q := models.Point{X: p.X, Y: p.Y, Z: s.height}
	return q, math.Abs(p.Z - s.height)
}

func TestParseAcquisition(t *testing.T) {
	acq, err := ParseAcquisition("12 13 --t3-cryo-JV-ip2")
	require.NoError(t, err)
	assert.Equal(t, Acquisition{
		Name:        "t3-cryo-JV-ip2",
		Target:      "t3",
		TargetIndex: 3,
		Operator:    "JV",
		Plane:       models.InPlane,
		Indices:     []int{12, 13, 2, 2},
	}, acq)

	acq, err = ParseAcquisition("  5 t1-cryo-HK-oop ")
	require.NoError(t, err)
	assert.Equal(t, models.OutOfPlane, acq.Plane)
	assert.Equal(t, []int{5, 0}, acq.Indices)
	assert.Equal(t, "HK", acq.Operator)
}

func TestParseAcquisitionMalformed(t *testing.T) {
	for _, line := range []string{
		"",
		"5 t1-cryo-JV",
		"5 x1-cryo-JV-ip",
		"5t1-cryo-JV-ip",
		"5 t1-cryo-JV-diagonal",
	} {
		_, err := ParseAcquisition(line)
		require.Error(t, err, line)
		assert.True(t, errors.Is(err, ErrMalformedDescriptor), line)
	}
}

func TestParseMarkupNames(t *testing.T) {
	target, err := ParseTargetMarkupName("t2-OoP")
	require.NoError(t, err)
	assert.Equal(t, TargetMarkupName{Target: "t2", TargetIndex: 2, Plane: models.OutOfPlane}, target)

	_, err = ParseTargetMarkupName("tumor")
	assert.ErrorIs(t, err, ErrMalformedDescriptor)

	ins, err := ParseInsertionMarkupName("17 T4-IP-ss-2")
	require.NoError(t, err)
	assert.Equal(t, InsertionMarkupName{
		Index:       17,
		Target:      "t4",
		TargetIndex: 4,
		Plane:       models.InPlane,
		Strokes:     models.SingleStroke,
		Attempt:     2,
	}, ins)

	for _, stem := range []string{"17 T4-IP-xx-2", "117 T4-IP-ss-2", "t4-IP", "17 T4-diag-sw-1"} {
		_, err := ParseInsertionMarkupName(stem)
		assert.ErrorIs(t, err, ErrMalformedDescriptor, stem)
	}
}

func TestNormalizeLine(t *testing.T) {
	tumor := models.Point{}
	deep := models.Point{X: 1}
	skin := models.Point{Z: 60}

	line, swapped := NormalizeLine(deep, skin, tumor)
	assert.False(t, swapped)
	assert.Equal(t, Line{Entry: skin, Final: deep}, line)

	line, swapped = NormalizeLine(skin, deep, tumor)
	assert.True(t, swapped)
	assert.Equal(t, Line{Entry: skin, Final: deep}, line)
	assert.InDelta(t, math.Sqrt(3601), line.Depth(), 1e-12)
}

func cryotrackFixture() (*ReferenceData, CryotrackInputs) {
	ref := &ReferenceData{
		Targets:        map[int]models.Point{0: {}},
		TumorMeshes:    map[int]Surface{0: pointSurface{at: models.Point{X: 1}}},
		RiskStructures: []string{"Airway", "Portal"},
		RiskMeshes: map[string]Surface{
			"Airway": planeSurface{height: -10},
			"Portal": planeSurface{height: 30},
		},
	}
	acq, _ := ParseAcquisition("5 t1-cryo-JV-ip")
	in := CryotrackInputs{
		Acquisitions: []Acquisition{acq},
		Tips:         map[int]models.Point{5: {X: 3, Y: 4}},
		Entries:      map[int]models.Point{5: {Z: 50}},
	}
	return ref, in
}

func TestRunCryotrack(t *testing.T) {
	ref, in := cryotrackFixture()

	rows, err := RunCryotrack(ref, in)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, "t1-cryo-JV-ip", row.Name)
	assert.Equal(t, 1, row.TargetIndex)
	assert.InDelta(t, 5, row.EuclideanError, 1e-12)
	assert.InDelta(t, 250/math.Sqrt(2525), row.LateralError, 1e-9)
	assert.InDelta(t, math.Sqrt(20), row.TipToTumor, 1e-12)
	assert.Equal(t, []models.RiskDistance{
		{Structure: "Airway", Distance: 10},
		{Structure: "Portal", Distance: 30},
	}, row.RiskDistances)
	assert.Equal(t, 10.0, row.RiskMin)
}

func TestRunCryotrackLookupErrors(t *testing.T) {
	ref, in := cryotrackFixture()
	delete(ref.Targets, 0)
	_, err := RunCryotrack(ref, in)
	require.Error(t, err)
	var lookup *LookupError
	require.True(t, errors.As(err, &lookup))
	assert.Equal(t, "target", lookup.Kind)
	assert.Contains(t, err.Error(), "t1-cryo-JV-ip")

	ref, in = cryotrackFixture()
	delete(in.Tips, 5)
	_, err = RunCryotrack(ref, in)
	assert.ErrorIs(t, err, ErrLookup)

	ref, in = cryotrackFixture()
	delete(ref.RiskMeshes, "Portal")
	_, err = RunCryotrack(ref, in)
	assert.ErrorIs(t, err, ErrLookup)
	assert.Contains(t, err.Error(), "Portal")
}

func TestRunCryotrackDegenerate(t *testing.T) {
	ref, in := cryotrackFixture()
	in.Entries[5] = models.Point{}
	_, err := RunCryotrack(ref, in)
	assert.ErrorIs(t, err, metrics.ErrDegenerateGeometry)
}

func TestRunCryotrackWithoutRisks(t *testing.T) {
	ref, in := cryotrackFixture()
	ref.RiskStructures = nil
	rows, err := RunCryotrack(ref, in)
	require.NoError(t, err)
	assert.Empty(t, rows[0].RiskDistances)
	assert.True(t, math.IsNaN(rows[0].RiskMin))
}

func baselineFixture() (*ReferenceData, BaselineInputs) {
	ref := &ReferenceData{
		TumorPoints:    map[int]models.Point{0: {}},
		TumorMeshes:    map[int]Surface{0: planeSurface{height: 0}},
		RiskStructures: []string{"Hepatic"},
		RiskMeshes:     map[string]Surface{"Hepatic": planeSurface{height: -10}},
	}
	name, _ := ParseInsertionMarkupName("1 T1-IP-sw-1")
	in := BaselineInputs{
		Targets: map[PlanKey]PlannedTarget{
			{TargetIndex: 1, Plane: models.InPlane}: {
				Line: Line{Entry: models.Point{Z: 50}, Final: models.Point{}},
			},
		},
		Insertions: []Insertion{{
			Stem: "1 T1-IP-sw-1",
			Name: name,
			Line: Line{Entry: models.Point{Y: 1, Z: 50}, Final: models.Point{X: 2, Z: 1}},
		}},
	}
	return ref, in
}

func TestRunCTBaseline(t *testing.T) {
	ref, in := baselineFixture()

	rows, err := RunCTBaseline(ref, in, "JV")
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, "1 T1-IP-sw-1", row.Name)
	assert.Equal(t, "JV", row.Operator)
	assert.Equal(t, models.MultiStroke, row.Strokes)
	assert.InDelta(t, math.Sqrt(5), row.EuclideanError, 1e-12)
	assert.InDelta(t, 1, row.EntryPointError, 1e-12)
	assert.InDelta(t, 1, row.TipToTumor, 1e-12)
	assert.InDelta(t, 50, row.TargetDepth, 1e-12)
	assert.Equal(t, 11.0, row.RiskMin)

	want, err := metrics.LateralError(models.Point{}, models.Point{Y: 1, Z: 50}, models.Point{X: 2, Z: 1})
	require.NoError(t, err)
	assert.Equal(t, want, row.LateralError)
}

func TestRunCTBaselineMissingPlan(t *testing.T) {
	ref, in := baselineFixture()
	in.Insertions[0].Name.Plane = models.OutOfPlane

	_, err := RunCTBaseline(ref, in, "JV")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLookup)
	assert.Contains(t, err.Error(), "t1/op")
	assert.Contains(t, err.Error(), "1 T1-IP-sw-1")
}
