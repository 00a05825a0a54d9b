package report

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"cryotrack/internal/models"
)

// SummaryRow is one line of a publication table
type SummaryRow struct {
	Operator      string
	Plane         string
	Strokes       int
	TumorDistance float64
	RiskDistance  float64
	TotalTime     float64
}

var summaryPlanes = []models.Plane{models.InPlane, models.OutOfPlane}

// planeLabel is the plane as printed in summary tables
func planeLabel(p models.Plane) string {
	if p == models.OutOfPlane {
		return "OOP"
	}
	return "IP"
}

// mean is NaN for an empty group
func mean(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	return stat.Mean(x, nil)
}

// CryotrackSummary groups the Cryotrack results by aliased operator and plane.
// Timing planes that cannot be decoded are left out of every group. Rows are
// sorted by operator name.
func CryotrackSummary(times []models.InsertionDuration, rows []models.CryotrackRow, ops Operators) []SummaryRow {
	var out []SummaryRow
	for _, op := range ops.Order {
		for _, plane := range summaryPlanes {
			var total, tumor, risk []float64
			for _, d := range times {
				p, err := models.ParsePlane(d.Plane)
				if err != nil || p != plane || ops.Alias(d.Operator) != op {
					continue
				}
				total = append(total, d.TotalTime)
			}
			for _, r := range rows {
				if r.Plane != plane || ops.Alias(r.Operator) != op {
					continue
				}
				tumor = append(tumor, r.TipToTumor)
				risk = append(risk, r.RiskMin)
			}
			out = append(out, SummaryRow{
				Operator:      op,
				Plane:         planeLabel(plane),
				Strokes:       1,
				TumorDistance: mean(tumor),
				RiskDistance:  mean(risk),
				TotalTime:     mean(total),
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Operator < out[j].Operator })
	return out
}

// BaselineSummary groups the CT-baseline results by stroke mode and plane.
// Every row is attributed to operator. Rows are sorted by stroke count.
func BaselineSummary(times []models.BaselineTiming, rows []models.BaselineRow, operator string) []SummaryRow {
	seen := make(map[models.Strokes]bool)
	var strokes []models.Strokes
	for _, r := range rows {
		if !seen[r.Strokes] {
			seen[r.Strokes] = true
			strokes = append(strokes, r.Strokes)
		}
	}
	sort.Slice(strokes, func(i, j int) bool { return strokes[i] < strokes[j] })

	var out []SummaryRow
	for _, s := range strokes {
		for _, plane := range summaryPlanes {
			var total, tumor, risk []float64
			for _, t := range times {
				p, err := models.ParsePlane(t.Plane)
				if err != nil || p != plane || t.Strokes != s {
					continue
				}
				total = append(total, t.Duration)
			}
			for _, r := range rows {
				if r.Plane != plane || r.Strokes != s {
					continue
				}
				tumor = append(tumor, r.TipToTumor)
				risk = append(risk, r.RiskMin)
			}
			out = append(out, SummaryRow{
				Operator:      operator,
				Plane:         planeLabel(plane),
				Strokes:       s.Count(),
				TumorDistance: mean(tumor),
				RiskDistance:  mean(risk),
				TotalTime:     mean(total),
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Strokes < out[j].Strokes })
	return out
}

// Describe returns the mean and sample standard deviation of each numeric
// summary column, ignoring NaN groups
func Describe(rows []SummaryRow) (avg, std SummaryRow) {
	col := func(get func(SummaryRow) float64) (float64, float64) {
		var x []float64
		for _, r := range rows {
			if v := get(r); !math.IsNaN(v) {
				x = append(x, v)
			}
		}
		switch len(x) {
		case 0:
			return math.NaN(), math.NaN()
		case 1:
			return x[0], math.NaN()
		}
		m, s := stat.MeanStdDev(x, nil)
		return m, s
	}
	avg.TumorDistance, std.TumorDistance = col(func(r SummaryRow) float64 { return r.TumorDistance })
	avg.RiskDistance, std.RiskDistance = col(func(r SummaryRow) float64 { return r.RiskDistance })
	avg.TotalTime, std.TotalTime = col(func(r SummaryRow) float64 { return r.TotalTime })
	return avg, std
}

// SummaryTable converts summary rows into a table named name
func SummaryTable(name string, rows []SummaryRow) Table {
	t := Table{
		Name:    name,
		Columns: []string{"Operator", "Plane", "Strokes", "Tumor distance [mm]", "Risk distance [mm]", "Total time [s]"},
	}
	for _, r := range rows {
		t.AddRow(r.Operator, r.Plane, r.Strokes, r.TumorDistance, r.RiskDistance, r.TotalTime)
	}
	return t
}
