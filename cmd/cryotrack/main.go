package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"cryotrack/internal/logging"
	"cryotrack/pkg/analysis"
	"cryotrack/pkg/bookmarks"
	"cryotrack/pkg/config"
	"cryotrack/pkg/report"
)

func main() {
	// Parse command line arguments
	configPath := flag.String("config", "cryotrack.yaml", "Configuration file (YAML)")
	dataDir := flag.String("data", "", "Directory containing cryotrack_validation and CT_baseline (overrides config)")
	outputDir := flag.String("output", "", "Root directory for plots, tables and spreadsheets (overrides config)")
	sequenceDir := flag.String("sequences", "", "Directory of CT-baseline .mha recordings to regenerate timestamps from")
	workers := flag.Int("workers", 0, "Number of worker goroutines (default: from config)")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	initConfig := flag.Bool("init-config", false, "Write a default configuration file and exit")
	flag.Parse()

	if *initConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			log.Fatalf("Failed to write default config: %v", err)
		}
		fmt.Printf("Default configuration written to %s\n", *configPath)
		return
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *dataDir != "" {
		cfg.Paths.DataDir = *dataDir
	}
	if *outputDir != "" {
		cfg.Paths.PlotDir = filepath.Join(*outputDir, "plots")
		cfg.Paths.TableDir = filepath.Join(*outputDir, "tables")
		cfg.Paths.SpreadsheetDir = filepath.Join(*outputDir, "spreadsheets")
	}
	if *sequenceDir != "" {
		cfg.Paths.SequenceDir = *sequenceDir
	}
	if *workers > 0 {
		cfg.Processing.NumWorkers = *workers
	}
	if *verbose {
		cfg.Output.Verbose = true
	}

	logCfg := logging.DefaultConfig()
	logCfg.Format = cfg.Output.LogFormat
	logCfg.Level = cfg.Output.LogLevel
	if cfg.Output.Verbose {
		logCfg.Level = "debug"
	}
	logger, err := logging.NewLogger(logCfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	fmt.Println("================================")
	fmt.Println("CRYOTRACK NEEDLE INSERTION STUDY ANALYSIS")
	fmt.Println("Cryotrack validation vs. CT-guided baseline")
	fmt.Println("================================")

	params := &analysis.Params{
		DataDir:        cfg.Paths.DataDir,
		SequenceDir:    cfg.Paths.SequenceDir,
		SequencePrefix: cfg.Processing.SequencePrefix,
		TimestampsFile: cfg.Processing.TimestampsFile,
		PlotDir:        cfg.Paths.PlotDir,
		TableDir:       cfg.Paths.TableDir,
		SpreadsheetDir: cfg.Paths.SpreadsheetDir,
		NumWorkers:     cfg.Processing.NumWorkers,
		Bookmarks: bookmarks.Options{
			ExcludeInvalid: cfg.Processing.ExcludeInvalid,
			InvalidMarker:  cfg.Processing.InvalidMarker,
		},
		RiskStructures: cfg.Study.RiskStructures,
		Operators: report.Operators{
			Aliases:  cfg.Study.OperatorAliases,
			Order:    cfg.Study.OperatorOrder,
			Excluded: cfg.Study.ExcludedOperators,
		},
		BaselineOperator: cfg.Study.BaselineOperator,
		WriteSQLite:      cfg.Output.WriteSQLite,
		WriteParquet:     cfg.Output.WriteParquet,
		WritePlots:       cfg.Output.WritePlots,
		WriteHTML:        cfg.Output.WriteHTML,
	}

	analyzer := analysis.NewAnalyzer(params, logger)

	startTime := time.Now()
	if err := analyzer.Process(); err != nil {
		logger.Error("analysis failed", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	processingTime := time.Since(startTime)

	results := analyzer.Results()
	fmt.Printf("\nAnalysis completed successfully in %.2f seconds!\n\n", processingTime.Seconds())
	fmt.Printf("Cryotrack insertions:   %d accuracy rows, %d timed\n", len(results.Cryotrack), len(results.Durations))
	fmt.Printf("CT-baseline insertions: %d accuracy rows, %d timed\n", len(results.Baseline), len(results.Timings))

	printSummary("Cryotrack summary (operator x plane)", results.CryotrackSummary)
	printSummary("CT-baseline summary (strokes x plane)", results.BaselineSummary)

	fmt.Println("\nOutputs:")
	fmt.Printf("- Spreadsheets: %s\n", cfg.Paths.SpreadsheetDir)
	fmt.Printf("- Tables:       %s\n", cfg.Paths.TableDir)
	if cfg.Output.WritePlots || cfg.Output.WriteHTML {
		fmt.Printf("- Plots:        %s\n", cfg.Paths.PlotDir)
	}
}

func printSummary(title string, rows []report.SummaryRow) {
	fmt.Printf("\n%s\n", title)
	fmt.Printf("%-10s %-6s %-8s %10s %10s %10s\n", "Operator", "Plane", "Strokes", "Tumor", "Risk", "Time")
	for _, r := range rows {
		fmt.Printf("%-10s %-6s %-8d %10.2f %10.2f %10.2f\n",
			r.Operator, r.Plane, r.Strokes, r.TumorDistance, r.RiskDistance, r.TotalTime)
	}
	avg, std := report.Describe(rows)
	fmt.Printf("%-10s %-6s %-8s %10.2f %10.2f %10.2f\n", "mean", "", "", avg.TumorDistance, avg.RiskDistance, avg.TotalTime)
	fmt.Printf("%-10s %-6s %-8s %10.2f %10.2f %10.2f\n", "std", "", "", std.TumorDistance, std.RiskDistance, std.TotalTime)
}
