// Package config provides the macro environment settings shared by the CLI
// and the engine. It is decoupled from CLI concerns.
package config

import (
	"fmt"
	"strings"
)

// ProjectConfig describes the macro environment a session is built from.
type ProjectConfig struct {
	// MacroPath is a colon separated list of macro file globs.
	MacroPath string `koanf:"macro_path"`

	TargetCPU string `koanf:"target_cpu"`
	TargetOS  string `koanf:"target_os"`

	// Archs lists the architectures a spec is re-parsed for. Empty means
	// only TargetCPU.
	Archs []string `koanf:"archs"`

	MaxDepth int    `koanf:"max_depth"`
	ConfDir  string `koanf:"conf_dir"`
	Shell    string `koanf:"shell"`

	// Defines holds "name body" definitions applied at command-line level.
	Defines []string `koanf:"defines"`
}

// Validate checks that the configuration can build a session.
func (c ProjectConfig) Validate() error {
	if c.MaxDepth < 0 {
		return fmt.Errorf("max_depth must not be negative: %d", c.MaxDepth)
	}
	if strings.ContainsAny(c.TargetCPU, " \t\n") {
		return fmt.Errorf("invalid target cpu %q", c.TargetCPU)
	}
	if strings.ContainsAny(c.TargetOS, " \t\n") {
		return fmt.Errorf("invalid target os %q", c.TargetOS)
	}
	for _, d := range c.Defines {
		if strings.TrimSpace(d) == "" {
			return fmt.Errorf("empty macro definition")
		}
	}
	return nil
}

// Target returns the "cpu-os" pair used to label runs.
func (c ProjectConfig) Target() string {
	return c.TargetCPU + "-" + c.TargetOS
}
