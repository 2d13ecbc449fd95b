package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath = "configs/logagg.yaml"
	DefaultMaxFiles   = 5
	DefaultTopN       = 5
)

type Config struct {
	Logging LoggingConfig `json:"logging" yaml:"logging"`
	Scan    ScanConfig    `json:"scan" yaml:"scan"`
	Report  ReportConfig  `json:"report" yaml:"report"`
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`
}

type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

type ScanConfig struct {
	// BaseDir is prepended to relative inputs.
	BaseDir     string `json:"base_dir" yaml:"base_dir"`
	MaxFiles    int    `json:"max_files" yaml:"max_files"`
	Concurrency int    `json:"concurrency" yaml:"concurrency"`
	Filter      string `json:"filter" yaml:"filter"`
}

type ReportConfig struct {
	PrintContent bool   `json:"print_content" yaml:"print_content"`
	TopN         int    `json:"top_n" yaml:"top_n"`
	Format       string `json:"format" yaml:"format"`
	Color        string `json:"color" yaml:"color"`
}

type MetricsConfig struct {
	// Textfile, when set, receives the Prometheus text exposition after a run.
	Textfile string `json:"textfile" yaml:"textfile"`
}

func Default() Config {
	return Config{
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
		},
		Scan: ScanConfig{
			BaseDir:     "",
			MaxFiles:    DefaultMaxFiles,
			Concurrency: 0,
		},
		Report: ReportConfig{
			PrintContent: false,
			TopN:         DefaultTopN,
			Format:       "text",
			Color:        "auto",
		},
	}
}

// Load reads a JSON or YAML file (chosen by extension) over the defaults,
// then applies environment overrides. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := decode(path, raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func decode(path string, raw []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(raw, cfg)
	case ".json", "":
		return json.Unmarshal(raw, cfg)
	default:
		return fmt.Errorf("unsupported config extension %q", filepath.Ext(path))
	}
}

func (c Config) Validate() error {
	var errs []string

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, "logging.level must be one of: debug, info, warn, error")
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		errs = append(errs, "logging.format must be one of: json, text")
	}

	if c.Scan.MaxFiles < 1 {
		errs = append(errs, "scan.max_files must be >= 1")
	}
	if c.Scan.Concurrency < 0 {
		errs = append(errs, "scan.concurrency must be >= 0")
	}
	if c.Scan.BaseDir != "" {
		if info, err := os.Stat(c.Scan.BaseDir); err != nil || !info.IsDir() {
			errs = append(errs, "scan.base_dir must be an existing directory if set")
		}
	}

	if c.Report.TopN < 1 {
		errs = append(errs, "report.top_n must be >= 1")
	}
	switch strings.ToLower(c.Report.Format) {
	case "text", "json":
	default:
		errs = append(errs, "report.format must be one of: text, json")
	}
	switch strings.ToLower(c.Report.Color) {
	case "auto", "always", "never":
	default:
		errs = append(errs, "report.color must be one of: auto, always, never")
	}

	if c.Metrics.Textfile != "" && !strings.HasSuffix(c.Metrics.Textfile, ".prom") {
		errs = append(errs, "metrics.textfile must end in .prom")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v, ok := os.LookupEnv("LOGAGG_LOG_LEVEL"); ok && v != "" {
		cfg.Logging.Level = v
	}
	if v, ok := os.LookupEnv("LOGAGG_LOG_FORMAT"); ok && v != "" {
		cfg.Logging.Format = v
	}
	if v, ok := os.LookupEnv("LOGAGG_BASE_DIR"); ok {
		cfg.Scan.BaseDir = v
	}
	if v, ok := os.LookupEnv("LOGAGG_FILTER"); ok {
		cfg.Scan.Filter = v
	}
	if v, ok := os.LookupEnv("LOGAGG_COLOR"); ok && v != "" {
		cfg.Report.Color = v
	}
	if v, ok := os.LookupEnv("LOGAGG_METRICS_TEXTFILE"); ok {
		cfg.Metrics.Textfile = v
	}
}
