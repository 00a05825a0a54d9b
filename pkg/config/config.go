// Package config provides configuration loading and management for cryotrack.
// It handles loading configuration from YAML files, overlays CRYOTRACK_*
// environment variables and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment overrides. Keys are built from the
// section and field, e.g. CRYOTRACK_PATHS_DATA_DIR.
const EnvPrefix = "CRYOTRACK"

// Config represents the application configuration loaded from YAML
type Config struct {
	// Input and output locations
	Paths struct {
		// DataDir holds the cryotrack_validation and CT_baseline studies
		DataDir string `yaml:"dataDir" envconfig:"DATA_DIR"`

		// SequenceDir holds the CT-baseline .mha recordings. When set, the
		// timestamps file is regenerated from it before the analysis.
		SequenceDir string `yaml:"sequenceDir" envconfig:"SEQUENCE_DIR"`

		PlotDir        string `yaml:"plotDir" envconfig:"PLOT_DIR"`
		TableDir       string `yaml:"tableDir" envconfig:"TABLE_DIR"`
		SpreadsheetDir string `yaml:"spreadsheetDir" envconfig:"SPREADSHEET_DIR"`
	} `yaml:"paths"`

	// Processing parameters
	Processing struct {
		// NumWorkers bounds the goroutines used for per-file extraction
		NumWorkers int `yaml:"numWorkers" envconfig:"NUM_WORKERS"`

		// ExcludeInvalid drops insertions whose end bookmark carries InvalidMarker
		ExcludeInvalid bool   `yaml:"excludeInvalid" envconfig:"EXCLUDE_INVALID"`
		InvalidMarker  string `yaml:"invalidMarker" envconfig:"INVALID_MARKER"`

		// SequencePrefix is the frame field prefix in .mha headers
		SequencePrefix string `yaml:"sequencePrefix" envconfig:"SEQUENCE_PREFIX"`

		// TimestampsFile is relative to the CT_baseline directory
		TimestampsFile string `yaml:"timestampsFile" envconfig:"TIMESTAMPS_FILE"`
	} `yaml:"processing"`

	// Study conventions
	Study struct {
		// RiskStructures are loaded from models/<name lower case>.vtk, in order
		RiskStructures []string `yaml:"riskStructures" envconfig:"RISK_STRUCTURES"`

		// OperatorAliases anonymise operator initials in tables and figures
		OperatorAliases map[string]string `yaml:"operatorAliases" envconfig:"OPERATOR_ALIASES"`

		// OperatorOrder is the hue order of figures, after aliasing
		OperatorOrder []string `yaml:"operatorOrder" envconfig:"OPERATOR_ORDER"`

		// ExcludedOperators are left out of figures
		ExcludedOperators []string `yaml:"excludedOperators" envconfig:"EXCLUDED_OPERATORS"`

		// BaselineOperator performed every CT-baseline insertion
		BaselineOperator string `yaml:"baselineOperator" envconfig:"BASELINE_OPERATOR"`
	} `yaml:"study"`

	// Output parameters
	Output struct {
		// Verbose lowers the log level to debug
		Verbose bool `yaml:"verbose" envconfig:"VERBOSE"`

		LogFormat string `yaml:"logFormat" envconfig:"LOG_FORMAT"`
		LogLevel  string `yaml:"logLevel" envconfig:"LOG_LEVEL"`

		WriteSQLite  bool `yaml:"writeSQLite" envconfig:"WRITE_SQLITE"`
		WriteParquet bool `yaml:"writeParquet" envconfig:"WRITE_PARQUET"`
		WritePlots   bool `yaml:"writePlots" envconfig:"WRITE_PLOTS"`
		WriteHTML    bool `yaml:"writeHTML" envconfig:"WRITE_HTML"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Paths.DataDir = "data"
	cfg.Paths.PlotDir = "plots"
	cfg.Paths.TableDir = "tables"
	cfg.Paths.SpreadsheetDir = "spreadsheets"

	cfg.Processing.NumWorkers = runtime.NumCPU() // Use all available cores by default
	cfg.Processing.ExcludeInvalid = true
	cfg.Processing.InvalidMarker = "invalid"
	cfg.Processing.SequencePrefix = "Seq_Frame"
	cfg.Processing.TimestampsFile = "timestamps.json"

	cfg.Study.RiskStructures = []string{"Airway", "Hepatic", "Portal"}
	cfg.Study.OperatorAliases = map[string]string{"JV": "S", "JM": "N1", "HK": "N2"}
	cfg.Study.OperatorOrder = []string{"S", "N1", "N2"}
	cfg.Study.ExcludedOperators = []string{"JN"} // only performed one or two insertions
	cfg.Study.BaselineOperator = "JV"

	cfg.Output.Verbose = false
	cfg.Output.LogFormat = "text"
	cfg.Output.LogLevel = "info"
	cfg.Output.WriteSQLite = true
	cfg.Output.WriteParquet = true
	cfg.Output.WritePlots = true
	cfg.Output.WriteHTML = true

	return cfg
}

// LoadConfig loads configuration from a YAML file and applies environment
// overrides. If the file doesn't exist, the defaults are used.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("error parsing config file: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("error applying environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that cannot be defaulted sensibly
func (c *Config) Validate() error {
	if c.Paths.DataDir == "" {
		return fmt.Errorf("paths.dataDir must be set")
	}
	if c.Processing.NumWorkers < 1 {
		return fmt.Errorf("processing.numWorkers must be at least 1, got %d", c.Processing.NumWorkers)
	}
	if c.Study.BaselineOperator == "" {
		return fmt.Errorf("study.baselineOperator must be set")
	}
	return nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
