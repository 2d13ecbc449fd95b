package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/ipsix/logagg/internal/config"
	"github.com/ipsix/logagg/internal/logging"
	"github.com/ipsix/logagg/internal/metrics"
	"github.com/ipsix/logagg/internal/report"
	"github.com/ipsix/logagg/internal/scanner"
	"github.com/ipsix/logagg/internal/scheduler"
)

var version = "dev"

type options struct {
	configPath string
	files      []string
}

// NewRootCommand builds the logagg command. Each call returns a fresh
// command with its own flag state.
func NewRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "logagg [flags] [file...]",
		Short: "Aggregate severity counts and top errors across log files.",
		Long: `logagg scans several log files in parallel, counts error, warning and
info lines, ranks the most frequent error messages and prints a combined report.

Files that cannot be read are reported on stderr and do not stop the run.`,
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, args)
		},
	}

	f := cmd.Flags()
	f.StringArrayVarP(&opts.files, "files", "f", nil, "Log file path or glob pattern (repeatable)")
	f.StringVar(&opts.configPath, "config", "", "Path to a JSON or YAML config file (default "+config.DefaultConfigPath+" if present)")
	f.String("filter", "", "Only retain lines containing this keyword (case-insensitive)")
	f.BoolP("print", "p", false, "Print the retained log lines after the summary")
	f.String("format", "text", `Report format ("text", "json")`)
	f.Int("top", config.DefaultTopN, "Number of top errors to list")
	f.String("base-dir", "", "Directory prepended to relative inputs")
	f.Int("concurrency", 0, "Maximum files scanned at once (0 for one worker per file)")
	f.String("color", "auto", `Colour output ("auto", "always", "never")`)
	f.String("log-level", "warn", `Diagnostic log level ("debug", "info", "warn", "error")`)
	f.String("log-format", "text", `Diagnostic log format ("text", "json")`)
	f.String("metrics-textfile", "", "Write Prometheus metrics to this .prom file after the run")
	return cmd
}

// Execute runs the root command against os.Args and returns the exit code.
func Execute() int {
	if err := NewRootCommand().Execute(); err != nil {
		return 1
	}
	return 0
}

func run(cmd *cobra.Command, opts *options, args []string) error {
	started := time.Now()

	configPath := opts.configPath
	if configPath == "" {
		if _, err := os.Stat(config.DefaultConfigPath); err == nil {
			configPath = config.DefaultConfigPath
		}
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := applyFlags(&cfg, cmd.Flags()); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
	logger := logging.NewWithWriter(cfg.Logging.Format, cfg.Logging.Level, stderr)

	inputs := append(append([]string(nil), opts.files...), args...)
	paths, err := ResolvePaths(inputs, cfg.Scan.BaseDir)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return errors.New("at least one log file is required (use -f or positional arguments)")
	}
	if len(paths) > cfg.Scan.MaxFiles {
		return fmt.Errorf("too many log files: got %d, at most %d allowed", len(paths), cfg.Scan.MaxFiles)
	}

	filter := scanner.NewFilter(cfg.Scan.Filter)
	if filter.Active() {
		logger.Debug("keyword filter enabled", logging.F("keyword", filter.Keyword()))
	}

	collector := metrics.New()
	sched := scheduler.New(logger,
		scanner.New(filter),
		scheduler.WithConcurrency(cfg.Scan.Concurrency),
		scheduler.WithRecorder(collector),
	)
	outcome := sched.Run(cmd.Context(), paths)

	rep := report.Build(outcome.Snapshot, paths, report.Options{
		TopN:         cfg.Report.TopN,
		PrintContent: cfg.Report.PrintContent,
	})
	if strings.EqualFold(cfg.Report.Format, "json") {
		err = report.WriteJSON(stdout, rep)
	} else {
		err = report.WriteText(stdout, rep, useColor(cfg.Report.Color, stdout))
	}
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if err := report.WriteFailures(stderr, outcome.Failures); err != nil {
		return fmt.Errorf("write failures: %w", err)
	}

	if cfg.Metrics.Textfile != "" {
		if err := collector.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			logger.Warn("metrics textfile not written", logging.F("error", err.Error()))
		}
	}

	logger.Info("aggregation finished",
		logging.F("files", len(paths)),
		logging.F("failed", len(outcome.Failures)),
		logging.F("elapsed", time.Since(started).String()),
	)
	return nil
}

// applyFlags copies explicitly set flags over the loaded config.
func applyFlags(cfg *config.Config, fs *pflag.FlagSet) error {
	var errs []string
	atoi := func(name, value string) int {
		n, err := strconv.Atoi(value)
		if err != nil {
			errs = append(errs, fmt.Sprintf("--%s: %v", name, err))
		}
		return n
	}

	fs.Visit(func(f *pflag.Flag) {
		value := f.Value.String()
		switch f.Name {
		case "filter":
			cfg.Scan.Filter = value
		case "print":
			cfg.Report.PrintContent = value == "true"
		case "format":
			cfg.Report.Format = value
		case "top":
			cfg.Report.TopN = atoi(f.Name, value)
		case "base-dir":
			cfg.Scan.BaseDir = value
		case "concurrency":
			cfg.Scan.Concurrency = atoi(f.Name, value)
		case "color":
			cfg.Report.Color = value
		case "log-level":
			cfg.Logging.Level = value
		case "log-format":
			cfg.Logging.Format = value
		case "metrics-textfile":
			cfg.Metrics.Textfile = value
		}
	})

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func useColor(mode string, w io.Writer) bool {
	switch strings.ToLower(mode) {
	case "always":
		return true
	case "never":
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
