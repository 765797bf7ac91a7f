package engine

import (
	"github.com/leapstack-labs/specmacro/internal/config"
	"github.com/leapstack-labs/specmacro/internal/macro"
)

// helperDefaults are the decompressor commands used by %uncompress before
// any macro file overrides them.
var helperDefaults = []struct{ name, body string }{
	{"__cat", "/bin/cat"},
	{"__gzip", "/usr/bin/gzip"},
	{"__bzip2", "/usr/bin/bzip2"},
	{"__xz", "/usr/bin/xz"},
	{"__unzip", "/usr/bin/unzip"},
	{"__lzip", "/usr/bin/lzip"},
	{"__lrzip", "/usr/bin/lrzip"},
	{"__7zip", "/usr/bin/7za"},
}

// seedBuiltins defines the macros every session starts with.
func seedBuiltins(c *macro.Context, project *config.ProjectConfig) {
	for _, h := range helperDefaults {
		c.Define(h.name, h.body, macro.LevelDefault)
	}
	c.Define("_target_cpu", project.TargetCPU, macro.LevelRPMRC)
	c.Define("_target_os", project.TargetOS, macro.LevelRPMRC)
	c.Define("_target", "%{_target_cpu}-%{_target_os}", macro.LevelRPMRC)
}
