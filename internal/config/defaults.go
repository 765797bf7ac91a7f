package config

import "runtime"

// Default configuration values.
const (
	DefaultMacroPath = "/usr/lib/rpm/macros:/usr/lib/rpm/macros.d/macros.*:/etc/rpm/macros.*:/etc/rpm/macros:~/.rpmmacros"
	DefaultConfDir   = "/usr/lib/rpm"
	DefaultShell     = "/bin/sh"
	DefaultMaxDepth  = 16
)

// archNames maps Go architecture names onto the names used in spec files.
var archNames = map[string]string{
	"amd64":    "x86_64",
	"386":      "i686",
	"arm64":    "aarch64",
	"arm":      "armv7hl",
	"ppc64le":  "ppc64le",
	"ppc64":    "ppc64",
	"s390x":    "s390x",
	"riscv64":  "riscv64",
	"loong64":  "loongarch64",
	"mips64le": "mips64el",
	"mipsle":   "mipsel",
}

// KnownArch reports whether name is an architecture a spec can be parsed
// for.
func KnownArch(name string) bool {
	if name == "noarch" {
		return true
	}
	for _, v := range archNames {
		if v == name {
			return true
		}
	}
	return false
}

// TargetCPU returns the spec file architecture name for a Go GOARCH value.
// Unknown values are returned unchanged.
func TargetCPU(goarch string) string {
	if name, ok := archNames[goarch]; ok {
		return name
	}
	return goarch
}

// TargetOS returns the spec file operating system name for a Go GOOS value.
func TargetOS(goos string) string {
	return goos
}

// ApplyDefaults fills unset fields of a ProjectConfig, taking the target
// from the running host.
func ApplyDefaults(c *ProjectConfig) {
	if c == nil {
		return
	}
	if c.MacroPath == "" {
		c.MacroPath = DefaultMacroPath
	}
	if c.ConfDir == "" {
		c.ConfDir = DefaultConfDir
	}
	if c.Shell == "" {
		c.Shell = DefaultShell
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = DefaultMaxDepth
	}
	if c.TargetCPU == "" {
		c.TargetCPU = TargetCPU(runtime.GOARCH)
	}
	if c.TargetOS == "" {
		c.TargetOS = TargetOS(runtime.GOOS)
	}
}
