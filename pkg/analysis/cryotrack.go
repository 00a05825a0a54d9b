package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"cryotrack/internal/models"
	"cryotrack/pkg/metrics"
)

// CryotrackInputs are the per-trial records of the Cryotrack validation
type CryotrackInputs struct {
	Acquisitions []Acquisition

	// Tips and Entries are keyed by markup control point id
	Tips    map[int]models.Point
	Entries map[int]models.Point
}

// RunCryotrack computes one accuracy row per acquisition, in acquisition order
func RunCryotrack(ref *ReferenceData, in CryotrackInputs) ([]models.CryotrackRow, error) {
	rows := make([]models.CryotrackRow, 0, len(in.Acquisitions))
	for _, acq := range in.Acquisitions {
		row, err := cryotrackRow(ref, in, acq)
		if err != nil {
			return nil, fmt.Errorf("acquisition %s: %w", acq.Name, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func cryotrackRow(ref *ReferenceData, in CryotrackInputs, acq Acquisition) (models.CryotrackRow, error) {
	idx := acq.Indices[0]
	tip, ok := in.Tips[idx]
	if !ok {
		return models.CryotrackRow{}, &LookupError{Kind: "tip position", Key: fmt.Sprint(idx)}
	}
	entry, ok := in.Entries[idx]
	if !ok {
		return models.CryotrackRow{}, &LookupError{Kind: "entry point", Key: fmt.Sprint(idx)}
	}
	target, err := ref.target(acq.TargetIndex - 1)
	if err != nil {
		return models.CryotrackRow{}, err
	}
	tumor, err := ref.tumorMesh(acq.TargetIndex - 1)
	if err != nil {
		return models.CryotrackRow{}, err
	}

	lateral, err := metrics.LateralError(target, entry, tip)
	if err != nil {
		return models.CryotrackRow{}, err
	}
	risks, riskMin, err := ref.riskDistances(tip)
	if err != nil {
		return models.CryotrackRow{}, err
	}
	_, toTumor := tumor.ClosestPoint(tip)

	return models.CryotrackRow{
		Name:           acq.Name,
		Target:         acq.Target,
		TargetIndex:    acq.TargetIndex,
		Operator:       acq.Operator,
		Plane:          acq.Plane,
		RiskDistances:  risks,
		EuclideanError: metrics.EuclideanError(tip, target),
		LateralError:   lateral,
		TipToTumor:     toTumor,
		RiskMin:        riskMin,
	}, nil
}

// riskMin is NaN when no risk structures are configured
func riskMin(risks []models.RiskDistance) float64 {
	if len(risks) == 0 {
		return math.NaN()
	}
	d := make([]float64, len(risks))
	for i, r := range risks {
		d[i] = r.Distance
	}
	return floats.Min(d)
}
