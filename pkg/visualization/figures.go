package visualization

import (
	"image/color"

	"cryotrack/internal/models"
	"cryotrack/pkg/report"
)

const (
	withCryotrack    = "With Cryotrack"
	withoutCryotrack = "Without Cryotrack"
	targetID         = "Target ID"
)

var planeGroups = []string{models.InPlane.String(), models.OutOfPlane.String()}

var strokeGroups = []string{string(models.SingleStroke), string(models.MultiStroke)}

// metric extracts one value and its hue from a row
type metric[T any] struct {
	name   string
	title  string
	ylabel string
	ymax   float64
	hide   bool

	// noXLabel is set on figures stacked above another one
	noXLabel bool

	value   func(T) float64
	group   func(T) string
	groups  []string
	palette []color.Color
}

func build[T any](m metric[T], rows []T, target func(T) int, width, height float64) BoxFigure {
	f := BoxFigure{
		Name:       m.name,
		Title:      m.title,
		XLabel:     targetID,
		YLabel:     m.ylabel,
		YMin:       0,
		YMax:       m.ymax,
		Width:      width,
		Height:     height,
		Groups:     m.groups,
		Palette:    m.palette,
		HideXTicks: m.hide,
	}
	if m.noXLabel {
		f.XLabel = ""
	}
	for _, r := range rows {
		f.Samples = append(f.Samples, Sample{Target: target(r), Group: m.group(r), Value: m.value(r)})
	}
	return f
}

// AccuracyFigures are the per-target accuracy box plots of both pipelines.
// Cryotrack operators are aliased, excluded operators dropped and the hue
// ordered by ops.
func AccuracyFigures(cryotrack []models.CryotrackRow, baseline []models.BaselineRow, ops report.Operators) []BoxFigure {
	var kept []models.CryotrackRow
	present := make(map[string]bool)
	for _, r := range cryotrack {
		if ops.IsExcluded(r.Operator) {
			continue
		}
		r.Operator = ops.Alias(r.Operator)
		present[r.Operator] = true
		kept = append(kept, r)
	}
	operators := make([]string, 0, len(present))
	for op := range present {
		operators = append(operators, op)
	}
	ops.Sort(operators)

	baseOps := make([]string, 0, 1)
	seen := make(map[string]bool)
	aliased := make([]models.BaselineRow, len(baseline))
	for i, r := range baseline {
		r.Operator = ops.Alias(r.Operator)
		if !seen[r.Operator] {
			seen[r.Operator] = true
			baseOps = append(baseOps, r.Operator)
		}
		aliased[i] = r
	}
	ops.Sort(baseOps)

	byOp := func(r models.CryotrackRow) string { return r.Operator }
	byPlane := func(r models.CryotrackRow) string { return r.Plane.String() }
	euclid := func(r models.CryotrackRow) float64 { return r.EuclideanError }
	lateral := func(r models.CryotrackRow) float64 { return r.LateralError }
	cryoTarget := func(r models.CryotrackRow) int { return r.TargetIndex }

	cryo := []metric[models.CryotrackRow]{
		{name: "cryotrack_euclidean_per_target", title: withCryotrack, ylabel: "Euclidean Error [mm]", ymax: 50, hide: true,
			value: euclid, group: byOp, groups: operators, palette: Set3},
		{name: "cryotrack_riskdistance_per_target", ylabel: "Distance to Risk [mm]", ymax: 75,
			value: func(r models.CryotrackRow) float64 { return r.RiskMin }, group: byOp, groups: operators, palette: Set3},
		{name: "cryotrack_lateral_per_target", ylabel: "Lateral Error [mm]", ymax: 50, hide: true,
			value: lateral, group: byOp, groups: operators, palette: Set3},
		{name: "cryotrack_tumor_per_target", title: withCryotrack, ylabel: "Distance to Tumor [mm]", ymax: 40, hide: true, noXLabel: true,
			value: func(r models.CryotrackRow) float64 { return r.TipToTumor }, group: byOp, groups: operators, palette: Set3},
		{name: "cryotrack_euclidean_per_target_by_plane", title: withCryotrack, ylabel: "Euclidean Error [mm]", ymax: 50, hide: true,
			value: euclid, group: byPlane, groups: planeGroups, palette: Set3},
		{name: "cryotrack_lateral_per_target_by_plane", ylabel: "Lateral Error [mm]", ymax: 50,
			value: lateral, group: byPlane, groups: planeGroups, palette: Set3},
	}

	bOp := func(r models.BaselineRow) string { return r.Operator }
	bPlane := func(r models.BaselineRow) string { return r.Plane.String() }
	bStrokes := func(r models.BaselineRow) string { return string(r.Strokes) }
	bEuclid := func(r models.BaselineRow) float64 { return r.EuclideanError }
	bLateral := func(r models.BaselineRow) float64 { return r.LateralError }
	baseTarget := func(r models.BaselineRow) int { return r.TargetIndex }

	base := []metric[models.BaselineRow]{
		{name: "ctbaseline_euclidean_per_target", title: withoutCryotrack, ymax: 50,
			value: bEuclid, group: bOp, groups: baseOps, palette: Set3},
		{name: "ctbaseline_riskdistance_per_target", ymax: 75,
			value: func(r models.BaselineRow) float64 { return r.RiskMin }, group: bOp, groups: baseOps, palette: Set3},
		{name: "ctbaseline_lateral_per_target", ymax: 50,
			value: bLateral, group: bOp, groups: baseOps, palette: Set3},
		{name: "ctbaseline_tumor_per_target", title: withoutCryotrack, ymax: 40, hide: true, noXLabel: true,
			value: func(r models.BaselineRow) float64 { return r.TipToTumor }, group: bOp, groups: baseOps, palette: Set3},
		{name: "ctbaseline_euclidean_per_target_by_plane", title: withoutCryotrack, ymax: 50,
			value: bEuclid, group: bPlane, groups: planeGroups, palette: Set1},
		{name: "ctbaseline_lateral_per_target_by_plane", ymax: 50,
			value: bLateral, group: bPlane, groups: planeGroups, palette: Set1},
		{name: "ctbaseline_euclidean_per_target_by_strokes", title: withoutCryotrack, ymax: 50,
			value: bEuclid, group: bStrokes, groups: strokeGroups, palette: Set1},
		{name: "ctbaseline_lateral_per_target_by_strokes", ymax: 50,
			value: bLateral, group: bStrokes, groups: strokeGroups, palette: Set1},
	}

	var out []BoxFigure
	for _, m := range cryo {
		out = append(out, build(m, kept, cryoTarget, 4.5, 2.6))
	}
	for _, m := range base {
		out = append(out, build(m, aliased, baseTarget, 3.0, 2.6))
	}
	return out
}

// TimingFigures are the per-target duration box plots
func TimingFigures(durations []models.InsertionDuration, timings []models.BaselineTiming) []BoxFigure {
	single := []string{"all"}
	all := func(models.InsertionDuration) string { return "all" }
	target := func(d models.InsertionDuration) int { return d.TargetIndex }

	cryo := []metric[models.InsertionDuration]{
		{name: "cryotrack_planning_time_per_target", ylabel: "Planning time [s]", ymax: 750,
			value: func(d models.InsertionDuration) float64 { return d.PlanningTime }, group: all, groups: single, palette: Blues},
		{name: "cryotrack_insertion_time_per_target", ylabel: "Insertion time [s]", ymax: 750,
			value: func(d models.InsertionDuration) float64 { return d.InsertionTime }, group: all, groups: single, palette: Blues},
		{name: "cryotrack_duration_per_target", title: withCryotrack, ylabel: "Total time [s]", ymax: 750,
			value: func(d models.InsertionDuration) float64 { return d.TotalTime }, group: all, groups: single, palette: Blues},
	}

	var out []BoxFigure
	for _, m := range cryo {
		out = append(out, build(m, durations, target, 3.5, 2.7))
	}

	baseline := metric[models.BaselineTiming]{
		name: "ctbaseline_duration_per_target", title: withoutCryotrack, ymax: 750,
		value:  func(t models.BaselineTiming) float64 { return t.Duration },
		group:  func(models.BaselineTiming) string { return "all" },
		groups: single, palette: Blues,
	}
	out = append(out, build(baseline, timings, func(t models.BaselineTiming) int { return t.TargetIndex }, 3.5, 2.7))
	return out
}
