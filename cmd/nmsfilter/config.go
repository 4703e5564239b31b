package main

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/LdDl/nms-go/mot"
	"github.com/LdDl/nms-go/nms"
	"github.com/adrg/xdg"
	"github.com/pkg/errors"
)

type Config struct {
	NMS     NMSConfig     `toml:"nms"`
	Tracker TrackerConfig `toml:"tracker"`
	Log     LogConfig     `toml:"log"`
}

type NMSConfig struct {
	Threshold float64 `toml:"threshold"`
	// Absent means no score filtering
	ScoreThreshold *float64 `toml:"score_threshold"`
	Parallel       bool     `toml:"parallel"`
	Workers        int      `toml:"workers"`
}

type TrackerConfig struct {
	MaxDisappeared int     `toml:"max_disappeared"`
	MinIoU         float64 `toml:"min_iou"`
	HighThreshold  float64 `toml:"high_threshold"`
	LowThreshold   float64 `toml:"low_threshold"`
	Algorithm      string  `toml:"algorithm"`
	TimeStep       float64 `toml:"time_step"`
}

type LogConfig struct {
	Level string `toml:"level"`
	// Empty means stderr, "xdg" means file in XDG state directory
	Path string `toml:"path"`
}

func NewDefaultConfig() *Config {
	return &Config{
		NMS: NMSConfig{
			Threshold:      0.5,
			ScoreThreshold: nil,
			Parallel:       false,
			Workers:        0,
		},
		Tracker: TrackerConfig{
			MaxDisappeared: 5,
			MinIoU:         0.3,
			HighThreshold:  0.5,
			LowThreshold:   0.3,
			Algorithm:      mot.MatchingAlgorithmHungarian.String(),
			TimeStep:       1.0,
		},
		Log: LogConfig{
			Level: "info",
			Path:  "",
		},
	}
}

func defaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.toml")
}

func (cfg LogConfig) resolvedPath() string {
	if cfg.Path == "xdg" {
		return filepath.Join(xdg.StateHome, appName, appName+".log")
	}
	return cfg.Path
}

func LoadConfigFromFile(path string) (*Config, error) {
	config := NewDefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config, nil // no config file, return defaults
	}

	if _, err := toml.DecodeFile(path, config); err != nil {
		return nil, errors.Wrap(err, "failed to decode TOML config")
	}

	return config, nil
}

// Thresholds converts NMS section to nms.Thresholds
func (cfg NMSConfig) Thresholds() nms.Thresholds {
	th := nms.NewThresholds(cfg.Threshold)
	if cfg.ScoreThreshold != nil {
		th = th.WithScore(*cfg.ScoreThreshold)
	}
	return th
}

// NewTracker creates tracker from tracker and NMS sections
func (cfg *Config) NewTracker() (*mot.Tracker, error) {
	algorithm, err := mot.ParseMatchingAlgorithm(cfg.Tracker.Algorithm)
	if err != nil {
		return nil, err
	}
	tracker := mot.NewTracker(
		cfg.Tracker.MaxDisappeared,
		cfg.Tracker.MinIoU,
		cfg.Tracker.HighThreshold,
		cfg.Tracker.LowThreshold,
		cfg.NMS.Thresholds(),
		algorithm,
	)
	if cfg.Tracker.TimeStep > 0 {
		tracker.SetTimeStep(cfg.Tracker.TimeStep)
	}
	return tracker, nil
}
