package analysis

import (
	"errors"
	"fmt"

	"cryotrack/internal/models"
)

// ErrLookup matches every LookupError
var ErrLookup = errors.New("reference data lookup failed")

// LookupError reports an id that is referenced by a record but absent from
// the loaded reference data
type LookupError struct {
	Kind string
	Key  string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("no %s for key %s", e.Kind, e.Key)
}

// Is reports whether target is ErrLookup
func (e *LookupError) Is(target error) bool { return target == ErrLookup }

// Surface is the closest-point query the pipelines need from a mesh
type Surface interface {
	ClosestPoint(p models.Point) (models.Point, float64)
}

// ReferenceData is the ground truth a pipeline measures against. It is built
// once per run and passed explicitly to each pipeline. All int keys are
// 0-based target indices (target "t3" has index 2).
type ReferenceData struct {
	// Targets are the intended needle tip positions
	Targets map[int]models.Point

	// TumorPoints are the tumour reference positions used to orient line
	// markups whose control points were placed in the wrong order
	TumorPoints map[int]models.Point

	TumorMeshes map[int]Surface

	// RiskStructures fixes the order of the per-risk distance columns
	RiskStructures []string
	RiskMeshes     map[string]Surface
}

func (r *ReferenceData) target(index int) (models.Point, error) {
	p, ok := r.Targets[index]
	if !ok {
		return models.Point{}, &LookupError{Kind: "target", Key: fmt.Sprint(index)}
	}
	return p, nil
}

func (r *ReferenceData) tumorPoint(index int) (models.Point, error) {
	p, ok := r.TumorPoints[index]
	if !ok {
		return models.Point{}, &LookupError{Kind: "tumor point", Key: fmt.Sprint(index)}
	}
	return p, nil
}

func (r *ReferenceData) tumorMesh(index int) (Surface, error) {
	m, ok := r.TumorMeshes[index]
	if !ok || m == nil {
		return nil, &LookupError{Kind: "tumor mesh", Key: fmt.Sprint(index)}
	}
	return m, nil
}

// riskDistances measures tip against every risk structure, in order
func (r *ReferenceData) riskDistances(tip models.Point) ([]models.RiskDistance, float64, error) {
	out := make([]models.RiskDistance, 0, len(r.RiskStructures))
	for _, name := range r.RiskStructures {
		m, ok := r.RiskMeshes[name]
		if !ok || m == nil {
			return nil, 0, &LookupError{Kind: "risk mesh", Key: name}
		}
		_, d := m.ClosestPoint(tip)
		out = append(out, models.RiskDistance{Structure: name, Distance: d})
	}
	return out, riskMin(out), nil
}
