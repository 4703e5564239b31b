package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/LdDl/nms-go/internal/logger"
	"github.com/LdDl/nms-go/nms"
	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const (
	appName = "nmsfilter"
)

var (
	Version     = "0.1.0"
	CommitSha   = "unknown"
	FullVersion = Version + "-" + CommitSha
)

// app holds state shared between commands
type app struct {
	configPath     string
	nmsThreshold   float64
	scoreThreshold float64
	noScore        bool
	parallel       bool
	workers        int
	logLevel       string
	logPath        string

	config    *Config
	logCloser io.Closer
}

func main() {
	a := &app{}
	err := newRootCmd(a).Execute()
	if closeErr := a.closeLog(); err == nil {
		err = closeErr
	}
	if err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           appName,
		Short:         "Non-maximum suppression for axis-aligned and rotated boxes",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", defaultConfigPath(), "path to TOML config")
	flags.Float64VarP(&a.nmsThreshold, "nms-threshold", "t", 0.5, "max allowed overlap between kept boxes")
	flags.Float64VarP(&a.scoreThreshold, "score-threshold", "s", 0, "min confidence of scored detections")
	flags.BoolVar(&a.noScore, "no-score-threshold", false, "disable score filtering even if config sets it")
	flags.BoolVarP(&a.parallel, "parallel", "p", false, "evaluate overlaps concurrently")
	flags.IntVarP(&a.workers, "workers", "w", 0, "number of workers for parallel mode, 0 means GOMAXPROCS")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&a.logPath, "log-file", "", "log file path, 'xdg' for default state directory")

	rootCmd.AddCommand(
		newFilterCmd(a),
		newRenderCmd(a),
		newTrackCmd(a),
		newVersionCmd(),
	)
	return rootCmd
}

// setup loads config, applies flags on top of it and initializes logging
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := LoadConfigFromFile(a.configPath)
	if err != nil {
		return errors.Wrapf(err, "can't load config '%s'", a.configPath)
	}
	flags := cmd.Flags()
	if flags.Changed("nms-threshold") {
		cfg.NMS.Threshold = a.nmsThreshold
	}
	if flags.Changed("score-threshold") {
		score := a.scoreThreshold
		cfg.NMS.ScoreThreshold = &score
	}
	if a.noScore {
		cfg.NMS.ScoreThreshold = nil
	}
	if flags.Changed("parallel") {
		cfg.NMS.Parallel = a.parallel
	}
	if flags.Changed("workers") {
		cfg.NMS.Workers = a.workers
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if flags.Changed("log-file") {
		cfg.Log.Path = a.logPath
	}
	if err := cfg.NMS.Thresholds().Validate(); err != nil {
		return err
	}
	a.config = cfg

	closer, err := logger.Init(cfg.Log.resolvedPath(), cfg.Log.Level)
	if err != nil {
		return err
	}
	a.logCloser = closer
	slog.Debug("configuration loaded", "config", a.configPath, "nms", cfg.NMS.Threshold, "parallel", cfg.NMS.Parallel)
	return nil
}

// closeLog closes log file opened by setup.
// It must be called after Execute whether the command failed or not.
func (a *app) closeLog() error {
	if a.logCloser == nil {
		return nil
	}
	err := a.logCloser.Close()
	a.logCloser = nil
	return errors.Wrap(err, "can't close log file")
}

// suppress runs sequential or parallel suppression depending on configuration
func (a *app) suppress(detections []nms.Detection) ([]int, error) {
	th := a.config.NMS.Thresholds()
	if a.config.NMS.Parallel {
		return nms.ParallelFilterIndices(detections, th.NMS, th.Score, a.config.NMS.Workers)
	}
	return nms.Apply(detections, th)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), FullVersion)
		},
	}
}
