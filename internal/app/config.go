package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ConfigPath   string // .coafile.hcl / .coafile.yaml files
	ConfigFormat string // "hcl" or "yaml"

	Sections []string // sections to run; empty means all

	ProfileBears string // raw profiler report specification
	ProfileDump  string // raw profiler dump destination
	DebugBears   bool   // attach the stepping debugger to every invocation

	LogFormat string
	LogLevel  string
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.ConfigPath == "" {
		return nil, errors.New("ConfigPath is a required configuration field and cannot be empty")
	}
	if cfg.ConfigFormat == "" {
		cfg.ConfigFormat = "hcl"
	}

	// Future validations for other fields can be added here.

	return &cfg, nil
}
