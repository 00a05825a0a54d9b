package analysis

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"cryotrack/internal/models"
	"cryotrack/pkg/bookmarks"
	"cryotrack/pkg/report"
	"cryotrack/pkg/sequence"
	"cryotrack/pkg/visualization"
)

const bookmarksDir = "video_bookmarks"

// Params holds the batch analysis parameters
type Params struct {
	// DataDir contains the cryotrack_validation and CT_baseline studies
	DataDir string

	// SequenceDir holds the CT-baseline .mha recordings. When set the
	// timestamps file is regenerated before it is read.
	SequenceDir    string
	SequencePrefix string
	TimestampsFile string

	PlotDir        string
	TableDir       string
	SpreadsheetDir string

	// NumWorkers bounds the goroutines used for per-file extraction
	NumWorkers int

	Bookmarks bookmarks.Options

	RiskStructures   []string
	Operators        report.Operators
	BaselineOperator string

	WriteSQLite  bool
	WriteParquet bool
	WritePlots   bool
	WriteHTML    bool
}

// Results are the datasets produced by one run
type Results struct {
	Durations []models.InsertionDuration
	Timings   []models.BaselineTiming

	Cryotrack []models.CryotrackRow
	Baseline  []models.BaselineRow

	CryotrackSummary []report.SummaryRow
	BaselineSummary  []report.SummaryRow
}

// Analyzer runs the whole study analysis:
// 1. Loading the reference data of both studies
// 2. Extracting Cryotrack timing from the video bookmarks
// 3. Reading CT-baseline timing
// 4. Running both accuracy pipelines
// 5. Exporting spreadsheets
// 6. Exporting summary tables
// 7. Rendering plots
type Analyzer struct {
	params *Params
	logger *zap.Logger

	cryoRef *ReferenceData
	cryoIn  CryotrackInputs
	baseRef *ReferenceData
	baseIn  BaselineInputs

	results Results
}

// NewAnalyzer creates an analyzer. A nil logger discards all output.
func NewAnalyzer(params *Params, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{params: params, logger: logger}
}

// Results returns the datasets of the last Process call
func (a *Analyzer) Results() Results {
	return a.results
}

func (a *Analyzer) cryotrackDir() string { return filepath.Join(a.params.DataDir, CryotrackDir) }
func (a *Analyzer) baselineDir() string  { return filepath.Join(a.params.DataDir, BaselineDir) }

// Process runs the complete analysis
func (a *Analyzer) Process() error {
	a.results = Results{}

	a.logger.Info("Step 1: Loading reference data", zap.String("data_dir", a.params.DataDir))
	if err := a.loadReference(); err != nil {
		return fmt.Errorf("failed to load reference data: %w", err)
	}

	a.logger.Info("Step 2: Extracting Cryotrack timing")
	if err := a.extractCryotrackTiming(); err != nil {
		return fmt.Errorf("failed to extract Cryotrack timing: %w", err)
	}

	a.logger.Info("Step 3: Reading CT-baseline timing")
	if err := a.readBaselineTiming(); err != nil {
		return fmt.Errorf("failed to read CT-baseline timing: %w", err)
	}

	a.logger.Info("Step 4: Running accuracy pipelines")
	if err := a.runPipelines(); err != nil {
		return err
	}

	a.logger.Info("Step 5: Exporting spreadsheets", zap.String("dir", a.params.SpreadsheetDir))
	if err := a.exportSpreadsheets(); err != nil {
		return fmt.Errorf("failed to export spreadsheets: %w", err)
	}

	a.logger.Info("Step 6: Exporting tables", zap.String("dir", a.params.TableDir))
	if err := a.exportTables(); err != nil {
		return fmt.Errorf("failed to export tables: %w", err)
	}

	if a.params.WritePlots || a.params.WriteHTML {
		a.logger.Info("Step 7: Rendering plots", zap.String("dir", a.params.PlotDir))
		if err := a.renderPlots(); err != nil {
			return fmt.Errorf("failed to render plots: %w", err)
		}
	}

	return nil
}

func (a *Analyzer) loadReference() error {
	var err error
	a.cryoRef, a.cryoIn, err = LoadCryotrack(a.cryotrackDir(), a.params.RiskStructures)
	if err != nil {
		return err
	}
	a.logger.Debug("loaded Cryotrack study",
		zap.Int("acquisitions", len(a.cryoIn.Acquisitions)),
		zap.Int("targets", len(a.cryoRef.Targets)),
		zap.Int("tumor_meshes", len(a.cryoRef.TumorMeshes)))

	a.baseRef, a.baseIn, err = LoadBaseline(a.baselineDir(), a.params.RiskStructures, a.logger)
	if err != nil {
		return err
	}
	a.logger.Debug("loaded CT-baseline study",
		zap.Int("planned_targets", len(a.baseIn.Targets)),
		zap.Int("insertions", len(a.baseIn.Insertions)))
	return nil
}

func (a *Analyzer) extractCryotrackTiming() error {
	dir := filepath.Join(a.cryotrackDir(), bookmarksDir)
	durations, err := bookmarks.ExtractDirectory(dir, a.params.Bookmarks, a.params.NumWorkers)
	if err != nil {
		return err
	}
	a.results.Durations = durations
	a.logger.Info("extracted insertion durations", zap.Int("count", len(durations)))
	return nil
}

func (a *Analyzer) timestampsPath() string {
	name := a.params.TimestampsFile
	if name == "" {
		name = "timestamps.json"
	}
	return filepath.Join(a.baselineDir(), name)
}

func (a *Analyzer) readBaselineTiming() error {
	path := a.timestampsPath()

	if a.params.SequenceDir != "" {
		prefix := a.params.SequencePrefix
		if prefix == "" {
			prefix = sequence.DefaultPrefix
		}
		spans, err := sequence.ExtractDirectory(a.params.SequenceDir, prefix, a.params.NumWorkers)
		if err != nil {
			return err
		}
		if err := sequence.WriteTimestampsFile(path, spans); err != nil {
			return err
		}
		a.logger.Info("regenerated timestamps", zap.String("file", path), zap.Int("recordings", len(spans)))
	}

	timings, err := sequence.ReadTimestampsFile(path, a.params.BaselineOperator)
	if err != nil {
		return err
	}
	a.results.Timings = timings
	return nil
}

func (a *Analyzer) runPipelines() error {
	cryo, err := RunCryotrack(a.cryoRef, a.cryoIn)
	if err != nil {
		return fmt.Errorf("Cryotrack pipeline: %w", err)
	}
	base, err := RunCTBaseline(a.baseRef, a.baseIn, a.params.BaselineOperator)
	if err != nil {
		return fmt.Errorf("CT-baseline pipeline: %w", err)
	}
	a.results.Cryotrack = cryo
	a.results.Baseline = base
	a.results.CryotrackSummary = report.CryotrackSummary(a.results.Durations, cryo, a.params.Operators)
	a.results.BaselineSummary = report.BaselineSummary(a.results.Timings, base, a.params.BaselineOperator)

	a.logger.Info("accuracy pipelines done",
		zap.Int("cryotrack_rows", len(cryo)),
		zap.Int("ctbaseline_rows", len(base)))
	return nil
}

func (a *Analyzer) exportSpreadsheets() error {
	r := a.results
	tables := []report.Table{
		report.DurationTable(r.Durations),
		report.TimingTable(r.Timings),
		report.CryotrackTable(r.Cryotrack, a.params.RiskStructures),
		report.BaselineTable(r.Baseline, a.params.RiskStructures),
	}

	dir := a.params.SpreadsheetDir
	for _, t := range tables {
		path := filepath.Join(dir, t.Name+".csv")
		if err := report.WriteCSV(path, t); err != nil {
			return err
		}
		a.logger.Debug("wrote spreadsheet", zap.String("file", path), zap.Int("rows", len(t.Rows)))
	}

	if a.params.WriteSQLite {
		path := filepath.Join(dir, "results.db")
		if err := report.WriteSQLite(path, tables...); err != nil {
			return err
		}
		a.logger.Debug("wrote results database", zap.String("file", path))
	}

	if a.params.WriteParquet {
		if err := report.WriteParquet(filepath.Join(dir, "cryotrack_time.parquet"), report.DurationRecords(r.Durations)); err != nil {
			return err
		}
		if err := report.WriteParquet(filepath.Join(dir, "ctbaseline_time.parquet"), report.TimingRecords(r.Timings)); err != nil {
			return err
		}
		if err := report.WriteParquet(filepath.Join(dir, "accuracy.parquet"), report.AccuracyRecords(r.Cryotrack, r.Baseline)); err != nil {
			return err
		}
	}
	return nil
}

func (a *Analyzer) exportTables() error {
	summaries := []struct {
		name string
		rows []report.SummaryRow
	}{
		{"cryotrack", a.results.CryotrackSummary},
		{"ctbaseline", a.results.BaselineSummary},
	}

	for _, s := range summaries {
		path := filepath.Join(a.params.TableDir, s.name+".tex")
		if err := report.WriteLaTeX(path, report.SummaryTable(s.name, s.rows)); err != nil {
			return err
		}

		avg, std := report.Describe(s.rows)
		a.logger.Info("summary",
			zap.String("table", s.name),
			zap.Float64("tumor_distance_mean", avg.TumorDistance),
			zap.Float64("tumor_distance_std", std.TumorDistance),
			zap.Float64("risk_distance_mean", avg.RiskDistance),
			zap.Float64("risk_distance_std", std.RiskDistance),
			zap.Float64("total_time_mean", avg.TotalTime),
			zap.Float64("total_time_std", std.TotalTime))
	}
	return nil
}

func (a *Analyzer) renderPlots() error {
	r := a.results
	figures := visualization.AccuracyFigures(r.Cryotrack, r.Baseline, a.params.Operators)
	figures = append(figures, visualization.TimingFigures(r.Durations, r.Timings)...)

	if a.params.WritePlots {
		for _, f := range figures {
			path, err := f.SavePNG(a.params.PlotDir)
			if err != nil {
				return err
			}
			a.logger.Debug("saved plot", zap.String("file", path))
		}
	}

	if a.params.WriteHTML {
		if err := os.MkdirAll(a.params.PlotDir, 0755); err != nil {
			return err
		}
		path := filepath.Join(a.params.PlotDir, "report.html")
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := visualization.RenderHTML(f, "Cryotrack needle insertion study", figures); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		a.logger.Info("wrote interactive report", zap.String("file", path))
	}
	return nil
}
