// Package report turns analysis results into tables and writes them as
// spreadsheets, LaTeX, SQLite and Parquet.
package report

import (
	"fmt"
	"math"
	"strconv"

	"cryotrack/internal/models"
)

// Table is an ordered set of columns. Cells hold string, int or float64.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]interface{}
}

// AddRow appends a row; it panics when the arity does not match the columns
func (t *Table) AddRow(cells ...interface{}) {
	if len(cells) != len(t.Columns) {
		panic(fmt.Sprintf("table %s: row has %d cells, expected %d", t.Name, len(cells), len(t.Columns)))
	}
	t.Rows = append(t.Rows, cells)
}

// formatCell renders a cell for text outputs. Floats use the shortest
// representation that round trips.
func formatCell(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case float64:
		if math.IsNaN(x) {
			return "nan"
		}
		return strconv.FormatFloat(x, 'g', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}

func riskColumns(risks []string) []string {
	cols := make([]string, len(risks))
	for i, r := range risks {
		cols[i] = "D_" + r
	}
	return cols
}

// riskCells looks distances up by structure so a row computed with a
// different risk order still lands in the right column
func riskCells(risks []string, distances []models.RiskDistance) []interface{} {
	cells := make([]interface{}, len(risks))
	for i, r := range risks {
		cells[i] = math.NaN()
		for _, d := range distances {
			if d.Structure == r {
				cells[i] = d.Distance
				break
			}
		}
	}
	return cells
}

// DurationTable lists Cryotrack insertion durations
func DurationTable(durations []models.InsertionDuration) Table {
	t := Table{
		Name: "cryotrack_time",
		Columns: []string{"recording", "name", "target", "target_index", "Operator", "Plane", "attempt",
			"planning time [s]", "insertion time [s]", "total time [s]"},
	}
	for _, d := range durations {
		t.AddRow(d.Recording, d.Name, d.Target, d.TargetIndex, d.Operator, d.Plane, d.Attempt,
			d.PlanningTime, d.InsertionTime, d.TotalTime)
	}
	return t
}

// TimingTable lists CT-baseline recording spans
func TimingTable(timings []models.BaselineTiming) Table {
	t := Table{
		Name: "ctbaseline_time",
		Columns: []string{"name", "target", "target_index", "Plane", "Strokes", "operator",
			"start_timestamp", "end_timestamp", "duration"},
	}
	for _, b := range timings {
		t.AddRow(b.Name, b.Target, b.TargetIndex, b.Plane, string(b.Strokes), b.Operator, b.Start, b.End, b.Duration)
	}
	return t
}

// CryotrackTable lists the accuracy of Cryotrack insertions
func CryotrackTable(rows []models.CryotrackRow, risks []string) Table {
	cols := []string{"name", "target", "Operator", "Plane", "target_index"}
	cols = append(cols, riskColumns(risks)...)
	cols = append(cols, "Euclidean Error (final)", "Lateral Error (final)", "Euclidean (tip to tumor)", "D_risk_min")

	t := Table{Name: "cryotrack", Columns: cols}
	for _, r := range rows {
		cells := []interface{}{r.Name, r.Target, r.Operator, r.Plane.String(), r.TargetIndex}
		cells = append(cells, riskCells(risks, r.RiskDistances)...)
		cells = append(cells, r.EuclideanError, r.LateralError, r.TipToTumor, r.RiskMin)
		t.AddRow(cells...)
	}
	return t
}

// BaselineTable lists the accuracy of CT-only insertions
func BaselineTable(rows []models.BaselineRow, risks []string) Table {
	cols := []string{"name", "Plane", "target", "Strokes", "target_index"}
	cols = append(cols, riskColumns(risks)...)
	cols = append(cols, "Operator", "Euclidean Error (final)", "Entry Point Error", "Euclidean (tip to tumor)",
		"Lateral Error", "Target Depth", "D_risk_min")

	t := Table{Name: "ctbaseline", Columns: cols}
	for _, r := range rows {
		cells := []interface{}{r.Name, r.Plane.String(), r.Target, string(r.Strokes), r.TargetIndex}
		cells = append(cells, riskCells(risks, r.RiskDistances)...)
		cells = append(cells, r.Operator, r.EuclideanError, r.EntryPointError, r.TipToTumor,
			r.LateralError, r.TargetDepth, r.RiskMin)
		t.AddRow(cells...)
	}
	return t
}
