package macro

import "strconv"

// Definition levels. A definition made "at" level L is stored at L-1, so
// command-line overrides reloaded at LevelCmdline sit at -8 and a %global
// lands at -1.
const (
	LevelDefault    = -15
	LevelMacroFiles = -13
	LevelRPMRC      = -11
	LevelCmdline    = -7
	LevelTarball    = -5
	LevelSpec       = -3
	LevelOldSpec    = -1
	LevelGlobal     = 0
)

var levelNames = map[int]string{
	LevelDefault:    "default",
	LevelMacroFiles: "macrofiles",
	LevelRPMRC:      "rpmrc",
	LevelCmdline:    "cmdline",
	LevelTarball:    "tarball",
	LevelSpec:       "spec",
	LevelOldSpec:    "oldspec",
	LevelGlobal:     "global",
}

// LevelName returns a readable name for the scope that stored an entry at
// level. Positive levels are transient bindings of a running expansion.
func LevelName(level int) string {
	if name, ok := levelNames[level+1]; ok {
		return name
	}
	// builtins are stored at the level itself
	if name, ok := levelNames[level]; ok {
		return name
	}
	if level > 0 {
		return "depth " + strconv.Itoa(level)
	}
	return strconv.Itoa(level)
}
