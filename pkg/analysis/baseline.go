package analysis

import (
	"fmt"

	"cryotrack/internal/models"
	"cryotrack/pkg/metrics"
)

// PlannedTarget is the planned needle path to one target in one plane
type PlannedTarget struct {
	Name TargetMarkupName
	Line Line
}

// Insertion is one achieved CT-baseline needle path
type Insertion struct {
	// Stem is the markup file name without ".mrk.json"
	Stem string
	Name InsertionMarkupName
	Line Line
}

// PlanKey addresses a planned target by target index (1-based) and plane
type PlanKey struct {
	TargetIndex int
	Plane       models.Plane
}

func (k PlanKey) String() string {
	return fmt.Sprintf("t%d/%s", k.TargetIndex, k.Plane)
}

// BaselineInputs are the line markups of the CT-baseline study
type BaselineInputs struct {
	Targets    map[PlanKey]PlannedTarget
	Insertions []Insertion
}

// RunCTBaseline computes one accuracy row per insertion, in insertion order.
// Every row is attributed to operator.
func RunCTBaseline(ref *ReferenceData, in BaselineInputs, operator string) ([]models.BaselineRow, error) {
	rows := make([]models.BaselineRow, 0, len(in.Insertions))
	for _, ins := range in.Insertions {
		row, err := baselineRow(ref, in, ins, operator)
		if err != nil {
			return nil, fmt.Errorf("insertion %s: %w", ins.Stem, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func baselineRow(ref *ReferenceData, in BaselineInputs, ins Insertion, operator string) (models.BaselineRow, error) {
	key := PlanKey{TargetIndex: ins.Name.TargetIndex, Plane: ins.Name.Plane}
	plan, ok := in.Targets[key]
	if !ok {
		return models.BaselineRow{}, &LookupError{Kind: "planned target", Key: key.String()}
	}
	tumor, err := ref.tumorMesh(ins.Name.TargetIndex - 1)
	if err != nil {
		return models.BaselineRow{}, err
	}

	lateral, err := metrics.LateralError(plan.Line.Final, ins.Line.Entry, ins.Line.Final)
	if err != nil {
		return models.BaselineRow{}, err
	}
	risks, riskMin, err := ref.riskDistances(ins.Line.Final)
	if err != nil {
		return models.BaselineRow{}, err
	}
	_, toTumor := tumor.ClosestPoint(ins.Line.Final)

	return models.BaselineRow{
		Name:            ins.Stem,
		Target:          ins.Name.Target,
		TargetIndex:     ins.Name.TargetIndex,
		Plane:           ins.Name.Plane,
		Strokes:         ins.Name.Strokes,
		Operator:        operator,
		RiskDistances:   risks,
		EuclideanError:  metrics.EuclideanError(plan.Line.Final, ins.Line.Final),
		EntryPointError: metrics.EuclideanError(plan.Line.Entry, ins.Line.Entry),
		TipToTumor:      toTumor,
		LateralError:    lateral,
		TargetDepth:     plan.Line.Depth(),
		RiskMin:         riskMin,
	}, nil
}
