// Package config provides configuration management for the specmacro CLI.
//
// It layers the shared macro environment settings from internal/config
// with CLI-only options such as output format and run recording.
package config

import (
	intconfig "github.com/leapstack-labs/specmacro/internal/config"
)

// Config holds all CLI configuration options.
type Config struct {
	MacroPath string   `koanf:"macro_path"`
	TargetCPU string   `koanf:"target_cpu"`
	TargetOS  string   `koanf:"target_os"`
	Archs     []string `koanf:"archs"`
	MaxDepth  int      `koanf:"max_depth"`
	ConfDir   string   `koanf:"conf_dir"`
	Shell     string   `koanf:"shell"`
	Defines   []string `koanf:"defines"`

	Verbose      bool   `koanf:"verbose"`
	Force        bool   `koanf:"force"`
	OutputFormat string `koanf:"output"`
	StatePath    string `koanf:"state_path"`
	Record       bool   `koanf:"record"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`
}

// Default configuration values
const (
	DefaultStateFile = ".specmacro/state.db"
	DefaultOutput    = "auto" // Auto-detect: TTY=text, non-TTY=markdown
)

// Project returns the macro environment part of the configuration.
func (c *Config) Project() intconfig.ProjectConfig {
	return intconfig.ProjectConfig{
		MacroPath: c.MacroPath,
		TargetCPU: c.TargetCPU,
		TargetOS:  c.TargetOS,
		Archs:     c.Archs,
		MaxDepth:  c.MaxDepth,
		ConfDir:   c.ConfDir,
		Shell:     c.Shell,
		Defines:   c.Defines,
	}
}

// Default returns the configuration used when nothing was loaded.
func Default() *Config {
	project := intconfig.ProjectConfig{}
	intconfig.ApplyDefaults(&project)
	return &Config{
		MacroPath:    project.MacroPath,
		TargetCPU:    project.TargetCPU,
		TargetOS:     project.TargetOS,
		MaxDepth:     project.MaxDepth,
		ConfDir:      project.ConfDir,
		Shell:        project.Shell,
		OutputFormat: DefaultOutput,
		StatePath:    DefaultStateFile,
	}
}
