package report

import (
	"math"

	"cryotrack/internal/models"
)

// DurationRecord is the Parquet row of an insertion duration
type DurationRecord struct {
	Recording     string  `parquet:"recording"`
	Name          string  `parquet:"name"`
	Target        string  `parquet:"target"`
	TargetIndex   int32   `parquet:"target_index"`
	Operator      string  `parquet:"operator"`
	Plane         string  `parquet:"plane"`
	Attempt       int32   `parquet:"attempt"`
	PlanningTime  float64 `parquet:"planning_time_s"`
	InsertionTime float64 `parquet:"insertion_time_s"`
	TotalTime     float64 `parquet:"total_time_s"`
}

// TimingRecord is the Parquet row of a CT-baseline recording span
type TimingRecord struct {
	Name        string  `parquet:"name"`
	Target      string  `parquet:"target"`
	TargetIndex int32   `parquet:"target_index"`
	Plane       string  `parquet:"plane"`
	Strokes     string  `parquet:"strokes"`
	Operator    string  `parquet:"operator"`
	Start       float64 `parquet:"start_timestamp"`
	End         float64 `parquet:"end_timestamp"`
	Duration    float64 `parquet:"duration"`
}

// RiskRecord is one risk structure distance
type RiskRecord struct {
	Structure string  `parquet:"structure"`
	Distance  float64 `parquet:"distance"`
}

// AccuracyRecord is the Parquet row of either pipeline. Fields that a
// pipeline does not measure are NaN.
type AccuracyRecord struct {
	Study           string       `parquet:"study"`
	Name            string       `parquet:"name"`
	Target          string       `parquet:"target"`
	TargetIndex     int32        `parquet:"target_index"`
	Operator        string       `parquet:"operator"`
	Plane           string       `parquet:"plane"`
	Strokes         string       `parquet:"strokes"`
	Risks           []RiskRecord `parquet:"risks"`
	EuclideanError  float64      `parquet:"euclidean_error"`
	EntryPointError float64      `parquet:"entry_point_error"`
	LateralError    float64      `parquet:"lateral_error"`
	TipToTumor      float64      `parquet:"tip_to_tumor"`
	TargetDepth     float64      `parquet:"target_depth"`
	RiskMin         float64      `parquet:"risk_min"`
}

// DurationRecords converts durations for WriteParquet
func DurationRecords(durations []models.InsertionDuration) []DurationRecord {
	out := make([]DurationRecord, len(durations))
	for i, d := range durations {
		out[i] = DurationRecord{
			Recording:     d.Recording,
			Name:          d.Name,
			Target:        d.Target,
			TargetIndex:   int32(d.TargetIndex),
			Operator:      d.Operator,
			Plane:         d.Plane,
			Attempt:       int32(d.Attempt),
			PlanningTime:  d.PlanningTime,
			InsertionTime: d.InsertionTime,
			TotalTime:     d.TotalTime,
		}
	}
	return out
}

// TimingRecords converts recording spans for WriteParquet
func TimingRecords(timings []models.BaselineTiming) []TimingRecord {
	out := make([]TimingRecord, len(timings))
	for i, t := range timings {
		out[i] = TimingRecord{
			Name:        t.Name,
			Target:      t.Target,
			TargetIndex: int32(t.TargetIndex),
			Plane:       t.Plane,
			Strokes:     string(t.Strokes),
			Operator:    t.Operator,
			Start:       t.Start,
			End:         t.End,
			Duration:    t.Duration,
		}
	}
	return out
}

func riskRecords(risks []models.RiskDistance) []RiskRecord {
	out := make([]RiskRecord, len(risks))
	for i, r := range risks {
		out[i] = RiskRecord{Structure: r.Structure, Distance: r.Distance}
	}
	return out
}

// AccuracyRecords merges both pipelines into one dataset, Cryotrack rows first
func AccuracyRecords(cryotrack []models.CryotrackRow, baseline []models.BaselineRow) []AccuracyRecord {
	out := make([]AccuracyRecord, 0, len(cryotrack)+len(baseline))
	for _, r := range cryotrack {
		out = append(out, AccuracyRecord{
			Study:           "cryotrack",
			Name:            r.Name,
			Target:          r.Target,
			TargetIndex:     int32(r.TargetIndex),
			Operator:        r.Operator,
			Plane:           r.Plane.String(),
			Risks:           riskRecords(r.RiskDistances),
			EuclideanError:  r.EuclideanError,
			EntryPointError: math.NaN(),
			LateralError:    r.LateralError,
			TipToTumor:      r.TipToTumor,
			TargetDepth:     math.NaN(),
			RiskMin:         r.RiskMin,
		})
	}
	for _, r := range baseline {
		out = append(out, AccuracyRecord{
			Study:           "ctbaseline",
			Name:            r.Name,
			Target:          r.Target,
			TargetIndex:     int32(r.TargetIndex),
			Operator:        r.Operator,
			Plane:           r.Plane.String(),
			Strokes:         string(r.Strokes),
			Risks:           riskRecords(r.RiskDistances),
			EuclideanError:  r.EuclideanError,
			EntryPointError: r.EntryPointError,
			LateralError:    r.LateralError,
			TipToTumor:      r.TipToTumor,
			TargetDepth:     r.TargetDepth,
			RiskMin:         r.RiskMin,
		})
	}
	return out
}
