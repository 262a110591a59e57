package main

import (
	"time"

	"github.com/pkg/errors"
	"github.com/scality/backbeat/shared-loading/pkg/loading"
	"github.com/spf13/viper"
)

type demoConfig struct {
	Tracker        string        `mapstructure:"tracker"`
	Tasks          int           `mapstructure:"tasks"`
	Waves          int           `mapstructure:"waves"`
	MinDuration    time.Duration `mapstructure:"min-duration"`
	MaxDuration    time.Duration `mapstructure:"max-duration"`
	FailureRate    float64       `mapstructure:"failure-rate"`
	Seed           int64         `mapstructure:"seed"`
	Underflow      string        `mapstructure:"underflow"`
	Interactive    bool          `mapstructure:"interactive"`
	EchoInterval   time.Duration `mapstructure:"echo-interval"`
	FrameInterval  time.Duration `mapstructure:"frame-interval"`
	Listen         string        `mapstructure:"listen"`
	ExportInterval time.Duration `mapstructure:"export-interval"`
	Linger         time.Duration `mapstructure:"linger"`

	underflowPolicy loading.UnderflowPolicy
}

func loadDemoConfig(v *viper.Viper) (*demoConfig, error) {
	cfg := &demoConfig{}

	err := v.Unmarshal(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "unmarshal demo config")
	}

	cfg.underflowPolicy, err = loading.ParseUnderflowPolicy(cfg.Underflow)
	if err != nil {
		return nil, err
	}

	switch {
	case cfg.Tasks <= 0:
		return nil, errors.Errorf("tasks must be positive, got %d", cfg.Tasks)

	case cfg.Waves <= 0:
		return nil, errors.Errorf("waves must be positive, got %d", cfg.Waves)

	case cfg.MinDuration < 0 || cfg.MaxDuration < cfg.MinDuration:
		return nil, errors.Errorf("invalid duration range [%s, %s]", cfg.MinDuration, cfg.MaxDuration)

	case cfg.FailureRate < 0 || cfg.FailureRate > 1:
		return nil, errors.Errorf("failure rate must be within [0, 1], got %v", cfg.FailureRate)

	case cfg.EchoInterval <= 0:
		return nil, errors.Errorf("echo interval must be positive, got %s", cfg.EchoInterval)

	case cfg.Listen != "" && cfg.ExportInterval <= 0:
		return nil, errors.Errorf("export interval must be positive, got %s", cfg.ExportInterval)
	}

	return cfg, nil
}
